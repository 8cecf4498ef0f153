package config

import (
	"encoding/json"
	"fmt"
	"os"

	"mhedlund/pricetracker/internal/product"
)

// LoadProducts reads the tracked item descriptors from a JSON file. The file
// is an array of objects with name, url, platform, target_price and optional
// min_price/max_price/selector fields. Every descriptor is validated; one
// bad entry fails the load so a typo does not silently drop an item.
func LoadProducts(path string) ([]product.TrackedItem, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read products file %s: %w", path, err)
	}

	var items []product.TrackedItem
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("failed to parse products file %s: %w", path, err)
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("products file %s contains no items", path)
	}

	for i := range items {
		if err := items[i].Validate(); err != nil {
			return nil, fmt.Errorf("products file %s: %w", path, err)
		}
	}
	return items, nil
}
