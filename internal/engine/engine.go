// Package engine makes the per-item deal decision: fetch, extract,
// normalize, compare against target, decide whether to notify and record
// the outcome in history.
package engine

import (
	"context"
	"io"
	"time"

	"mhedlund/pricetracker/internal/extract"
	"mhedlund/pricetracker/internal/history"
	"mhedlund/pricetracker/internal/metrics"
	"mhedlund/pricetracker/internal/pricing"
	"mhedlund/pricetracker/internal/product"
	"mhedlund/pricetracker/logger"
	"mhedlund/pricetracker/pkg/errors"
	"mhedlund/pricetracker/services/notify"
)

// State is the decision engine's per-item position. An item moves
// pending → fetched → extracted → normalized → recorded, or lands in one of
// the terminal failure states.
type State string

const (
	StatePending         State = "pending"
	StateFetched         State = "fetched"
	StateExtracted       State = "extracted"
	StateNormalized      State = "normalized"
	StateRecorded        State = "recorded"
	StateFetchFailed     State = "fetch_failed"
	StateExtractFailed   State = "extract_failed"
	StateNormalizeFailed State = "normalize_failed"
)

// Outcome categorizes a finished item for the scan summary
type Outcome string

const (
	OutcomeRecorded        Outcome = "recorded"
	OutcomeNoPrice         Outcome = "no_price"
	OutcomeNoListings      Outcome = "no_listings"
	OutcomeFetchFailed     Outcome = "fetch_failed"
	OutcomeExtractFailed   Outcome = "extract_failed"
	OutcomeNormalizeFailed Outcome = "normalize_failed"
	OutcomeSkipped         Outcome = "skipped"
)

// ScanResult is the per-item outcome of one scan. Used for reporting only;
// nothing beyond what the history store retains is persisted from it.
type ScanResult struct {
	Item       string
	State      State
	Outcome    Outcome
	Observed   int
	Qualified  int
	Duplicates int
	Err        error
}

// Fetcher retrieves page content for a URL
type Fetcher interface {
	Fetch(ctx context.Context, url string) (io.Reader, error)
}

// Engine orchestrates the per-item pipeline. It reads and writes dedup state
// only through the history store, never around it.
type Engine struct {
	fetcher Fetcher
	store   *history.Store
	sink    notify.Notifier
	log     *logger.Logger
	now     func() time.Time
}

// New creates a decision engine
func New(fetcher Fetcher, store *history.Store, sink notify.Notifier) *Engine {
	return &Engine{
		fetcher: fetcher,
		store:   store,
		sink:    sink,
		log:     logger.ForComponent("engine"),
		now:     time.Now,
	}
}

// WithClock replaces the observation timestamp source, for tests
func (e *Engine) WithClock(now func() time.Time) *Engine {
	e.now = now
	return e
}

// ProcessItem runs one tracked item through the pipeline. Failures are
// returned inside the result, never panicked: one item's failure must not
// disturb its siblings.
func (e *Engine) ProcessItem(ctx context.Context, item product.TrackedItem) ScanResult {
	result := ScanResult{Item: item.Name, State: StatePending}
	log := logger.ForItem(item.Name)

	body, err := e.fetcher.Fetch(ctx, item.URL)
	if err != nil {
		result.State = StateFetchFailed
		result.Outcome = OutcomeFetchFailed
		result.Err = err
		return result
	}
	result.State = StateFetched

	listings, err := extract.ForPlatform(item.Platform).Extract(body, item.Selector)
	if err != nil {
		result.State = StateExtractFailed
		result.Outcome = OutcomeExtractFailed
		result.Err = err
		return result
	}
	result.State = StateExtracted

	// An empty result set is still a successful extraction: retail pages may
	// show out of stock with no visible price, and a marketplace search may
	// simply have nothing for sale.
	if len(listings) == 0 {
		if item.Platform == product.PlatformRetail {
			result.Outcome = OutcomeNoPrice
			log.Info().Msg("No price found on page")
		} else {
			result.Outcome = OutcomeNoListings
			log.Info().Msg("No listings found")
		}
		return result
	}

	observations, unparsable := e.normalize(item, listings, log)
	if len(observations) == 0 {
		result.State = StateNormalizeFailed
		result.Outcome = OutcomeNormalizeFailed
		result.Err = unparsable
		return result
	}
	result.State = StateNormalized

	for _, obs := range observations {
		e.evaluate(ctx, item, obs, &result, log)
	}
	result.State = StateRecorded
	result.Outcome = OutcomeRecorded
	return result
}

// normalize converts raw price texts into observations, applying the
// marketplace min/max pre-filter. Marketplace listings with unparsable price
// text are skipped individually; the item only fails when nothing normalized.
func (e *Engine) normalize(item product.TrackedItem, listings []extract.Listing, log *logger.Logger) ([]history.Observation, error) {
	var observations []history.Observation
	var lastErr error

	for _, l := range listings {
		price, err := pricing.Normalize(l.RawPrice)
		if err != nil {
			lastErr = errors.NewUnparsablePrice(item.Name, l.RawPrice)
			log.Warn().Str("raw_price", l.RawPrice).Msg("Skipping unparsable price text")
			continue
		}

		// Pre-filter, not a notification decision: out-of-bounds listings
		// never reach evaluation at all.
		if item.Platform == product.PlatformMarketplace && !item.InBounds(price) {
			log.Debug().Int64("price", price).Msg("Listing outside configured price bounds")
			continue
		}

		link := l.Link
		if link == "" {
			link = item.URL
		}
		observations = append(observations, history.Observation{
			Price:     price,
			ListingID: l.ID,
			Title:     l.Title,
			URL:       link,
			SeenAt:    e.now(),
		})

		// Retail pages have a single subject; the first normalizable match
		// is the current price.
		if item.Platform == product.PlatformRetail {
			break
		}
	}
	return observations, lastErr
}

// evaluate records one observation and fires a notification when it is newly
// qualifying. Recording and the eligibility verdict happen in one store call
// so deciding-to-notify and persisting-the-decision cannot race. The notified
// marker is only set after successful delivery: a failed delivery is logged
// and retried implicitly on the next scan.
func (e *Engine) evaluate(ctx context.Context, item product.TrackedItem, obs history.Observation, result *ScanResult, log *logger.Logger) {
	eligibility := e.store.RecordObservation(item.Name, obs.ListingID, obs, item.TargetPrice)
	result.Observed++

	log.Debug().
		Int64("price", obs.Price).
		Int64("target_price", item.TargetPrice).
		Str("listing_id", obs.ListingID).
		Str("eligibility", eligibility.String()).
		Msg("Observation recorded")

	switch eligibility {
	case history.QualifiesDuplicate:
		result.Duplicates++
	case history.QualifiesNew:
		alert := notify.Alert{
			Item:        item.Name,
			Title:       obs.Title,
			Price:       obs.Price,
			TargetPrice: item.TargetPrice,
			Link:        obs.URL,
			ListingID:   obs.ListingID,
			ObservedAt:  obs.SeenAt,
		}
		if err := e.sink.Notify(ctx, alert); err != nil {
			metrics.NotificationFailuresTotal.Inc()
			log.Error().Err(err).Msg("Notification delivery failed")
			return
		}
		e.store.MarkNotified(item.Name, obs.ListingID, obs.Price)
		metrics.NotificationsSentTotal.Inc()
		result.Qualified++
		log.Info().
			Int64("price", obs.Price).
			Int64("target_price", item.TargetPrice).
			Str("listing_id", obs.ListingID).
			Msg("Deal notification sent")
	}
}
