package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mhedlund/pricetracker/internal/product"
)

func writeProducts(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "products.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadProducts(t *testing.T) {
	path := writeProducts(t, `[
		{
			"name": "Widget 3000",
			"url": "https://shop.example/widget-3000",
			"platform": "retail",
			"target_price": 4000
		},
		{
			"name": "Widget search",
			"url": "https://market.example/search?q=widget",
			"platform": "marketplace",
			"target_price": 3000,
			"min_price": 1000,
			"max_price": 5000,
			"selector": ".listing-card"
		}
	]`)

	items, err := LoadProducts(path)
	require.NoError(t, err)
	require.Len(t, items, 2)

	assert.Equal(t, "Widget 3000", items[0].Name)
	assert.Equal(t, product.PlatformRetail, items[0].Platform)
	assert.Equal(t, int64(4000), items[0].TargetPrice)
	assert.Nil(t, items[0].MinPrice)

	assert.Equal(t, product.PlatformMarketplace, items[1].Platform)
	require.NotNil(t, items[1].MinPrice)
	assert.Equal(t, int64(1000), *items[1].MinPrice)
	assert.Equal(t, ".listing-card", items[1].Selector)
}

func TestLoadProductsMissingFile(t *testing.T) {
	_, err := LoadProducts(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestLoadProductsEmpty(t *testing.T) {
	path := writeProducts(t, `[]`)
	_, err := LoadProducts(path)
	assert.Error(t, err)
}

func TestLoadProductsRejectsInvalidItems(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"bad platform", `[{"name":"x","url":"https://a.example/x","platform":"auction","target_price":100}]`},
		{"empty name", `[{"name":"  ","url":"https://a.example/x","platform":"retail","target_price":100}]`},
		{"bad url", `[{"name":"x","url":"not a url","platform":"retail","target_price":100}]`},
		{"zero target", `[{"name":"x","url":"https://a.example/x","platform":"retail","target_price":0}]`},
		{"inverted bounds", `[{"name":"x","url":"https://a.example/x","platform":"marketplace","target_price":100,"min_price":500,"max_price":100}]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeProducts(t, tt.content)
			_, err := LoadProducts(path)
			assert.Error(t, err)
		})
	}
}
