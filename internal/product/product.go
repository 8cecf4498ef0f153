package product

import (
	"fmt"
	"net/url"
	"strings"
)

// Platform identifies the kind of page a tracked item points at. The set is
// closed: adding a platform means adding an extractor variant and a constant
// here, keeping supported platforms explicit and exhaustively testable.
type Platform string

const (
	// PlatformRetail is a single-product page carrying one current price
	PlatformRetail Platform = "retail"
	// PlatformMarketplace is a search-result page with zero or more listing cards
	PlatformMarketplace Platform = "marketplace"
)

// Valid reports whether p is a known platform
func (p Platform) Valid() bool {
	return p == PlatformRetail || p == PlatformMarketplace
}

// TrackedItem describes one item to monitor. Supplied by the configuration
// loader and immutable for the duration of a scan.
type TrackedItem struct {
	Name        string   `json:"name"`
	URL         string   `json:"url"`
	Platform    Platform `json:"platform"`
	TargetPrice int64    `json:"target_price"`

	// Marketplace-only inclusive bounds; zero pointer means no filtering.
	MinPrice *int64 `json:"min_price,omitempty"`
	MaxPrice *int64 `json:"max_price,omitempty"`

	// Selector overrides the extractor's built-in locator strategy.
	Selector string `json:"selector,omitempty"`
}

// Validate checks the descriptor for values the engine cannot work with
func (t *TrackedItem) Validate() error {
	if strings.TrimSpace(t.Name) == "" {
		return fmt.Errorf("tracked item name cannot be empty")
	}
	if !t.Platform.Valid() {
		return fmt.Errorf("item %q: unsupported platform %q", t.Name, t.Platform)
	}
	u, err := url.Parse(t.URL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("item %q: invalid url %q", t.Name, t.URL)
	}
	if t.TargetPrice <= 0 {
		return fmt.Errorf("item %q: target price must be positive", t.Name)
	}
	if t.MinPrice != nil && t.MaxPrice != nil && *t.MinPrice > *t.MaxPrice {
		return fmt.Errorf("item %q: min price %d above max price %d", t.Name, *t.MinPrice, *t.MaxPrice)
	}
	return nil
}

// InBounds reports whether price passes the item's inclusive min/max filter.
// Absent bounds mean no filtering.
func (t *TrackedItem) InBounds(price int64) bool {
	if t.MinPrice != nil && price < *t.MinPrice {
		return false
	}
	if t.MaxPrice != nil && price > *t.MaxPrice {
		return false
	}
	return true
}
