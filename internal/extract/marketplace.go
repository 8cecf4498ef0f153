package extract

import (
	"io"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"mhedlund/pricetracker/pkg/errors"
)

// defaultCardSelectors locate listing cards on marketplace search pages,
// tried in order until one matches.
var defaultCardSelectors = []string{
	"[data-testid='result-item']",
	"article[class*='ListItem']",
	".search-item",
	".item-card",
	"li.ad-listing",
}

var cardPriceSelectors = []string{
	"[data-testid='price']",
	"[class*='price']",
	"[class*='Price']",
	".amount",
}

var trailingAdID = regexp.MustCompile(`(\d{5,})/?$`)

// MarketplaceExtractor handles search-result pages: zero to many listing
// cards, each with a title, raw price text and a stable listing identity
// derived from the ad link. Zero cards is a valid outcome (expired search,
// nothing for sale), not a structural failure.
type MarketplaceExtractor struct{}

// Extract returns one listing per card found. A supplied hint overrides the
// built-in card selectors.
func (e *MarketplaceExtractor) Extract(content io.Reader, hint string) ([]Listing, error) {
	doc, err := goquery.NewDocumentFromReader(content)
	if err != nil {
		return nil, errors.NewExtraction("", "failed to parse page", err)
	}

	selectors := defaultCardSelectors
	if hint != "" {
		selectors = []string{hint}
	}

	var cards *goquery.Selection
	for _, sel := range selectors {
		found := doc.Find(sel)
		if found.Length() > 0 {
			cards = found
			break
		}
	}
	if cards == nil {
		return nil, nil
	}

	var listings []Listing
	cards.Each(func(i int, s *goquery.Selection) {
		l := e.processCard(s)
		if l != nil {
			listings = append(listings, *l)
		}
	})
	return listings, nil
}

// processCard extracts one listing from a card selection. Cards without a
// title, link or price text are sponsored placeholders or layout filler and
// are skipped.
func (e *MarketplaceExtractor) processCard(s *goquery.Selection) *Listing {
	title := cardTitle(s)
	if title == "" {
		return nil
	}

	link, exists := s.Find("a").First().Attr("href")
	if !exists {
		if href, ok := s.Attr("href"); ok {
			link = href
		}
	}
	link = strings.TrimSpace(link)
	if link == "" {
		return nil
	}

	raw := ""
	for _, sel := range cardPriceSelectors {
		raw = firstPriceTextIn(s, sel)
		if raw != "" {
			break
		}
	}
	if raw == "" {
		return nil
	}

	return &Listing{
		Title:    title,
		RawPrice: raw,
		Link:     link,
		ID:       listingID(link),
	}
}

func cardTitle(s *goquery.Selection) string {
	for _, sel := range []string{"h2", "h3", "[class*='title']", "[class*='Title']"} {
		titleSel := s.Find(sel).First()
		if titleSel.Length() == 0 {
			continue
		}
		if attr, ok := titleSel.Attr("title"); ok && attr != "" {
			return strings.TrimSpace(attr)
		}
		if text := strings.TrimSpace(titleSel.Text()); text != "" {
			return text
		}
	}
	return ""
}

func firstPriceTextIn(s *goquery.Selection, sel string) string {
	raw := ""
	s.Find(sel).EachWithBreak(func(i int, p *goquery.Selection) bool {
		text := strings.TrimSpace(p.Text())
		if strings.ContainsAny(text, "0123456789") {
			raw = text
			return false
		}
		return true
	})
	return raw
}

// listingID derives the stable identity for an ad from its link: the trailing
// numeric ad id when the path carries one, otherwise the cleaned path.
// Persisted dedup markers are keyed by this value, so changing the derivation
// breaks history compatibility.
func listingID(link string) string {
	u, err := url.Parse(link)
	if err != nil || u.Path == "" {
		return strings.TrimSpace(link)
	}
	p := strings.Trim(u.Path, "/")
	if m := trailingAdID.FindStringSubmatch(p); m != nil {
		return m[1]
	}
	return p
}
