// Package history is the durable record of prices seen per tracked item and
// of which qualifying deals have already been notified. It is the single
// source of truth for "have we alerted on this": the decision engine never
// notifies without consulting and updating it in the same logical step.
package history

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"mhedlund/pricetracker/logger"
	"mhedlund/pricetracker/pkg/errors"
)

// maxObservations bounds the trailing history kept per record. Only the
// latest state plus a bounded tail is needed for correctness.
const maxObservations = 100

// Observation is one extraction result. Never mutated once recorded.
type Observation struct {
	Price     int64     `json:"price"`
	ListingID string    `json:"listing_id,omitempty"`
	Title     string    `json:"title,omitempty"`
	URL       string    `json:"url,omitempty"`
	SeenAt    time.Time `json:"seen_at"`
}

// Record is the per-item (and, for marketplace items, per-listing) history:
// an append-only observation sequence and the dedup marker. A zero
// NotifiedPrice means no notification has been sent for this record.
type Record struct {
	Observations  []Observation `json:"observations"`
	NotifiedPrice int64         `json:"notified_price,omitempty"`
}

// Eligibility is the dedup verdict for a recorded observation
type Eligibility int

const (
	// DoesNotQualify means the observed price is above the target
	DoesNotQualify Eligibility = iota
	// QualifiesDuplicate means the price qualifies but was already notified
	// at this or a better price
	QualifiesDuplicate
	// QualifiesNew means the price qualifies and has not been notified yet
	QualifiesNew
)

func (e Eligibility) String() string {
	switch e {
	case QualifiesNew:
		return "qualifies_new"
	case QualifiesDuplicate:
		return "qualifies_duplicate"
	default:
		return "does_not_qualify"
	}
}

// Store is a file-backed mapping of record keys to Records. In-memory
// mutation is serialized by a mutex; the on-disk persist is single-writer
// and atomic (write-temp, sync, rename-over), so a crash mid-write never
// corrupts the previous good state.
type Store struct {
	path string
	log  *logger.Logger

	mu      sync.Mutex
	records map[string]*Record
}

// NewStore creates a store persisting to path
func NewStore(path string) *Store {
	return &Store{
		path:    path,
		log:     logger.ForComponent("history"),
		records: make(map[string]*Record),
	}
}

// recordKey joins item identity and listing identity. Retail items have no
// listing identity and map to the bare item name.
func recordKey(item, listingID string) string {
	if listingID == "" {
		return item
	}
	return item + "#" + listingID
}

// Load reads the persisted mapping. A missing file is an empty mapping, not
// a failure; a present but unreadable file is an error so a corrupted store
// is surfaced instead of silently re-alerting on everything.
func (s *Store) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		s.records = make(map[string]*Record)
		s.log.Debug().Str("path", s.path).Msg("No history file yet, starting empty")
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read history file %s: %w", s.path, err)
	}

	records := make(map[string]*Record)
	if err := json.Unmarshal(data, &records); err != nil {
		return fmt.Errorf("failed to parse history file %s: %w", s.path, err)
	}
	s.records = records
	s.log.Info().Int("records", len(records)).Str("path", s.path).Msg("Loaded price history")
	return nil
}

// RecordObservation appends obs to the (item, listing) record and returns
// whether it is new-notification-eligible: the price must be at or below
// target and not already covered by a notification at the same or a lower
// price. Every observation is appended regardless of the verdict so future
// scans can read price trends.
func (s *Store) RecordObservation(item, listingID string, obs Observation, target int64) Eligibility {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := recordKey(item, listingID)
	rec, ok := s.records[key]
	if !ok {
		rec = &Record{}
		s.records[key] = rec
	}

	rec.Observations = append(rec.Observations, obs)
	if len(rec.Observations) > maxObservations {
		rec.Observations = rec.Observations[len(rec.Observations)-maxObservations:]
	}

	if obs.Price > target {
		return DoesNotQualify
	}
	if rec.NotifiedPrice != 0 && rec.NotifiedPrice <= obs.Price {
		return QualifiesDuplicate
	}
	return QualifiesNew
}

// MarkNotified sets the dedup marker after a notification was delivered.
// Called only on successful delivery: a failed delivery must not suppress
// the next attempt (duplicate alerts beat silent permanent suppression).
func (s *Store) MarkNotified(item, listingID string, price int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := recordKey(item, listingID)
	rec, ok := s.records[key]
	if !ok {
		rec = &Record{}
		s.records[key] = rec
	}
	rec.NotifiedPrice = price
}

// Latest returns the most recent observation for the (item, listing) record
func (s *Store) Latest(item, listingID string) (Observation, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[recordKey(item, listingID)]
	if !ok || len(rec.Observations) == 0 {
		return Observation{}, false
	}
	return rec.Observations[len(rec.Observations)-1], true
}

// Persist writes the full mapping back to disk atomically. The temp file is
// created in the target directory so the final rename stays on one
// filesystem. Indented JSON keeps the file manually inspectable.
func (s *Store) Persist() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.MarshalIndent(s.records, "", "  ")
	if err != nil {
		return errors.NewPersist("failed to encode history", err)
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp*")
	if err != nil {
		return errors.NewPersist("failed to create temp history file", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return errors.NewPersist("failed to write temp history file", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return errors.NewPersist("failed to flush temp history file", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return errors.NewPersist("failed to close temp history file", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return errors.NewPersist("failed to replace history file", err)
	}

	s.log.Debug().Int("records", len(s.records)).Str("path", s.path).Msg("Persisted price history")
	return nil
}
