package extract

import (
	"io"

	"mhedlund/pricetracker/internal/product"
)

// Listing is one price-bearing extraction result. For retail product pages
// ID is empty; for marketplace searches it is the stable listing identity
// used to recognize the same ad across scans.
type Listing struct {
	Title    string
	RawPrice string
	Link     string
	ID       string
}

// Extractor turns already-fetched page content into listings. Implementations
// never perform network I/O, so they can be tested against fixed HTML.
// A structural mismatch fails with an extraction error; an empty result is a
// valid outcome and is interpreted by the caller.
type Extractor interface {
	Extract(content io.Reader, hint string) ([]Listing, error)
}

// ForPlatform selects the extractor variant for a platform. The platform set
// is closed, so an unknown value falls back to the retail extractor after
// config validation has already rejected it.
func ForPlatform(p product.Platform) Extractor {
	if p == product.PlatformMarketplace {
		return &MarketplaceExtractor{}
	}
	return &RetailExtractor{}
}
