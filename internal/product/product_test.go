package product

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func bounds(min, max int64) (*int64, *int64) {
	return &min, &max
}

func TestInBounds(t *testing.T) {
	item := TrackedItem{Name: "x"}
	item.MinPrice, item.MaxPrice = bounds(1000, 5000)

	assert.False(t, item.InBounds(999))
	assert.True(t, item.InBounds(1000), "bounds are inclusive")
	assert.True(t, item.InBounds(3000))
	assert.True(t, item.InBounds(5000), "bounds are inclusive")
	assert.False(t, item.InBounds(5001))
}

func TestInBoundsAbsentMeansNoFiltering(t *testing.T) {
	item := TrackedItem{Name: "x"}
	assert.True(t, item.InBounds(1))
	assert.True(t, item.InBounds(1_000_000))

	min := int64(100)
	item.MinPrice = &min
	assert.False(t, item.InBounds(99))
	assert.True(t, item.InBounds(1_000_000))
}

func TestValidate(t *testing.T) {
	valid := TrackedItem{
		Name:        "Widget",
		URL:         "https://shop.example/widget",
		Platform:    PlatformRetail,
		TargetPrice: 4000,
	}
	assert.NoError(t, valid.Validate())

	unknown := valid
	unknown.Platform = "auction"
	assert.Error(t, unknown.Validate())
}
