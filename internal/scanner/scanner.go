// Package scanner runs one full pass over all tracked items and finalizes
// it with a single atomic history persist.
package scanner

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"mhedlund/pricetracker/internal/engine"
	"mhedlund/pricetracker/internal/history"
	"mhedlund/pricetracker/internal/metrics"
	"mhedlund/pricetracker/internal/product"
	"mhedlund/pricetracker/logger"
)

// Summary aggregates per-item outcomes for one scan
type Summary struct {
	ScanID          string
	Items           int
	Recorded        int
	NoPrice         int
	NoListings      int
	FetchFailed     int
	ExtractFailed   int
	NormalizeFailed int
	Skipped         int
	Observations    int
	Qualified       int
	Duplicates      int
	Duration        time.Duration
	Results         []engine.ScanResult
}

// Failed reports whether any item hit a failure this scan
func (s *Summary) Failed() bool {
	return s.FetchFailed > 0 || s.ExtractFailed > 0 || s.NormalizeFailed > 0
}

// Scanner iterates the tracked item set, isolating failures per item.
// Fetches run concurrently; all history mutation is serialized inside the
// store, and the on-disk persist happens exactly once per scan, after every
// per-item decision is finalized.
type Scanner struct {
	engine      *engine.Engine
	store       *history.Store
	itemTimeout time.Duration
	concurrency int
	log         *logger.Logger

	// Guards against overlapping scans: two concurrent persists would race
	// on the history file.
	running sync.Mutex
}

// New creates a scanner. itemTimeout bounds each item's fetch+retry budget;
// concurrency caps simultaneous in-flight items.
func New(e *engine.Engine, store *history.Store, itemTimeout time.Duration, concurrency int) *Scanner {
	if itemTimeout <= 0 {
		itemTimeout = 2 * time.Minute
	}
	if concurrency < 1 {
		concurrency = 4
	}
	return &Scanner{
		engine:      e,
		store:       store,
		itemTimeout: itemTimeout,
		concurrency: concurrency,
		log:         logger.ForComponent("scanner"),
	}
}

// Scan processes all items once and persists the history store. Returns a
// non-nil error only for scan-fatal failures: an overlapping scan or a
// failed persist. Per-item failures land in the summary instead.
func (s *Scanner) Scan(ctx context.Context, items []product.TrackedItem) (Summary, error) {
	if !s.running.TryLock() {
		return Summary{}, errScanInProgress
	}
	defer s.running.Unlock()

	start := time.Now()
	summary := Summary{
		ScanID: uuid.NewString(),
		Items:  len(items),
	}
	s.log.Info().
		Str("scan_id", summary.ScanID).
		Int("items", len(items)).
		Msg("Starting scan")

	results := make([]engine.ScanResult, len(items))
	sem := make(chan struct{}, s.concurrency)
	var wg sync.WaitGroup

	for i, item := range items {
		wg.Add(1)
		go func(i int, item product.TrackedItem) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			// A shutdown abandons items that have not started; they simply
			// do not reach a recorded state this scan.
			if ctx.Err() != nil {
				results[i] = engine.ScanResult{
					Item:    item.Name,
					Outcome: engine.OutcomeSkipped,
					Err:     ctx.Err(),
				}
				return
			}

			itemCtx, cancel := context.WithTimeout(ctx, s.itemTimeout)
			defer cancel()
			results[i] = s.engine.ProcessItem(itemCtx, item)
		}(i, item)
	}
	wg.Wait()

	for _, r := range results {
		s.tally(&summary, r)
	}
	summary.Results = results
	summary.Duration = time.Since(start)

	// Exactly one durable write per scan, after all decisions are final, so
	// the scan's notifications and its persisted dedup state stay consistent.
	if err := s.store.Persist(); err != nil {
		metrics.PersistFailuresTotal.Inc()
		s.log.Error().Str("scan_id", summary.ScanID).Err(err).Msg("Failed to persist history")
		return summary, err
	}

	metrics.ScansTotal.Inc()
	metrics.ScanDuration.Observe(summary.Duration.Seconds())

	s.log.Info().
		Str("scan_id", summary.ScanID).
		Int("recorded", summary.Recorded).
		Int("qualified", summary.Qualified).
		Int("duplicates", summary.Duplicates).
		Int("fetch_failed", summary.FetchFailed).
		Int("extract_failed", summary.ExtractFailed).
		Int("normalize_failed", summary.NormalizeFailed).
		Int("no_price", summary.NoPrice).
		Int("no_listings", summary.NoListings).
		Int("skipped", summary.Skipped).
		Dur("duration", summary.Duration).
		Msg("Scan complete")

	return summary, nil
}

func (s *Scanner) tally(summary *Summary, r engine.ScanResult) {
	metrics.ItemOutcomesTotal.WithLabelValues(string(r.Outcome)).Inc()
	summary.Observations += r.Observed
	summary.Qualified += r.Qualified
	summary.Duplicates += r.Duplicates

	switch r.Outcome {
	case engine.OutcomeRecorded:
		summary.Recorded++
	case engine.OutcomeNoPrice:
		summary.NoPrice++
	case engine.OutcomeNoListings:
		summary.NoListings++
	case engine.OutcomeFetchFailed:
		summary.FetchFailed++
	case engine.OutcomeExtractFailed:
		summary.ExtractFailed++
	case engine.OutcomeNormalizeFailed:
		summary.NormalizeFailed++
	case engine.OutcomeSkipped:
		summary.Skipped++
	}

	if r.Err != nil && r.Outcome != engine.OutcomeSkipped {
		s.log.Error().Str("item", r.Item).Err(r.Err).Msg("Item failed this scan")
	}
}
