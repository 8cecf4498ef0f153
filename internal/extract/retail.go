package extract

import (
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"mhedlund/pricetracker/pkg/errors"
)

// defaultRetailSelector is the locator most retail product pages carry their
// current price under; the fallbacks cover the layouts seen in the wild.
const defaultRetailSelector = ".price-large"

var retailFallbackSelectors = []string{
	".price-box .price",
	".lowest-price",
	".price",
	"[data-testid*='price']",
	".price-value",
	".current-price",
	".product-price",
}

// Patterns for prices written into running text, e.g. "3 997 kr".
var textPricePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(\d{1,3}(?:[\s\x{00a0}\x{202f}]\d{3})+)\s*kr`),
	regexp.MustCompile(`(?i)(\d{1,3}(?:,\d{3})+)\s*kr`),
	regexp.MustCompile(`(?i)(\d{4,6})\s*kr`),
	regexp.MustCompile(`(?i)(\d{1,3})\s*kr`),
}

// RetailExtractor handles single-subject product pages: exactly one
// price-bearing element is expected. Zero matches yields an empty result,
// not an error, because a page may show out-of-stock with no visible price.
type RetailExtractor struct{}

// Extract finds the product's current price on the page. A supplied hint
// overrides the default locator strategy entirely; without one the default
// selector, the fallback list and finally a whole-page text search are tried
// in order.
func (e *RetailExtractor) Extract(content io.Reader, hint string) ([]Listing, error) {
	doc, err := goquery.NewDocumentFromReader(content)
	if err != nil {
		return nil, errors.NewExtraction("", "failed to parse page", err)
	}

	title := pageTitle(doc)

	selectors := []string{defaultRetailSelector}
	if hint != "" {
		selectors = []string{hint}
	} else {
		selectors = append(selectors, retailFallbackSelectors...)
	}

	for _, sel := range selectors {
		raw := firstPriceText(doc, sel)
		if raw != "" {
			return []Listing{{Title: title, RawPrice: raw}}, nil
		}
	}

	// Last resort without a hint: search the page text for a price pattern.
	if hint == "" {
		if raw := searchTextPrice(doc); raw != "" {
			return []Listing{{Title: title, RawPrice: raw}}, nil
		}
	}

	return nil, nil
}

// firstPriceText returns the first non-empty text under sel that contains a digit
func firstPriceText(doc *goquery.Document, sel string) string {
	raw := ""
	doc.Find(sel).EachWithBreak(func(i int, s *goquery.Selection) bool {
		text := strings.TrimSpace(s.Text())
		if strings.ContainsAny(text, "0123456789") {
			raw = text
			return false
		}
		return true
	})
	return raw
}

func pageTitle(doc *goquery.Document) string {
	if h1 := strings.TrimSpace(doc.Find("h1").First().Text()); h1 != "" {
		return h1
	}
	return strings.TrimSpace(doc.Find("title").First().Text())
}

// searchTextPrice scans the whole page text for price-like patterns and picks
// the most plausible candidate. Pages mention shipping costs and monthly
// rates in passing, so amounts of four digits and up win over smaller ones.
func searchTextPrice(doc *goquery.Document) string {
	text := doc.Text()

	bestRaw := ""
	var bestVal int64
	for _, re := range textPricePatterns {
		for _, m := range re.FindAllStringSubmatch(text, -1) {
			digits := strings.Map(func(r rune) rune {
				if r >= '0' && r <= '9' {
					return r
				}
				return -1
			}, m[1])
			v, err := strconv.ParseInt(digits, 10, 64)
			if err != nil || v < 100 || v > 100000 {
				continue
			}
			if betterCandidate(v, bestVal) {
				bestVal = v
				bestRaw = m[1]
			}
		}
	}
	return bestRaw
}

func betterCandidate(v, best int64) bool {
	if best == 0 {
		return true
	}
	if v >= 1000 && best < 1000 {
		return true
	}
	if v < 1000 && best >= 1000 {
		return false
	}
	return v > best
}
