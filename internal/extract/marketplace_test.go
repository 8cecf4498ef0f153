package extract

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const searchPage = `<html><body>
	<div class="search-item">
		<h2>Widget 3000 - like new</h2>
		<a href="/annons/stockholm/widget_3000-10512345"></a>
		<span class="item-price">3 200 kr</span>
	</div>
	<div class="search-item">
		<h2 title="Widget 3000 barely used">Widget 3000 barely...</h2>
		<a href="/annons/goteborg/widget-10598765/"></a>
		<span class="item-price">2 900 kr</span>
	</div>
	<div class="search-item">
		<h2>Broken widget, for parts</h2>
		<a href="/annons/malmo/broken-widget-10511111"></a>
		<span class="item-price">Price on request</span>
	</div>
</body></html>`

func TestMarketplaceExtractor(t *testing.T) {
	listings, err := (&MarketplaceExtractor{}).Extract(strings.NewReader(searchPage), "")
	require.NoError(t, err)
	// The third card has no digits in its price text and is skipped.
	require.Len(t, listings, 2)

	assert.Equal(t, "Widget 3000 - like new", listings[0].Title)
	assert.Equal(t, "3 200 kr", listings[0].RawPrice)
	assert.Equal(t, "10512345", listings[0].ID)

	assert.Equal(t, "Widget 3000 barely used", listings[1].Title)
	assert.Equal(t, "2 900 kr", listings[1].RawPrice)
	assert.Equal(t, "10598765", listings[1].ID)
}

func TestMarketplaceExtractorHintOverride(t *testing.T) {
	html := `<html><body>
		<article class="result-row">
			<h3>Widget</h3>
			<a href="/ad/12345678">View</a>
			<span class="amount">1 500 kr</span>
		</article>
	</body></html>`

	listings, err := (&MarketplaceExtractor{}).Extract(strings.NewReader(html), "article.result-row")
	require.NoError(t, err)
	require.Len(t, listings, 1)
	assert.Equal(t, "Widget", listings[0].Title)
	assert.Equal(t, "12345678", listings[0].ID)
}

func TestMarketplaceExtractorNoListings(t *testing.T) {
	html := `<html><body><p>Your search gave no results.</p></body></html>`

	listings, err := (&MarketplaceExtractor{}).Extract(strings.NewReader(html), "")
	assert.NoError(t, err)
	assert.Empty(t, listings)
}

func TestListingIDStability(t *testing.T) {
	tests := []struct {
		link string
		want string
	}{
		{"/annons/stockholm/widget_3000-10512345", "10512345"},
		{"/annons/stockholm/widget_3000-10512345/", "10512345"},
		{"https://example.com/annons/widget-10512345?utm_source=x", "10512345"},
		{"/item/widget-deluxe", "item/widget-deluxe"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, listingID(tt.link), tt.link)
	}
}
