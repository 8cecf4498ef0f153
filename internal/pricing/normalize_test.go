package pricing

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"mhedlund/pricetracker/pkg/errors"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		raw  string
		want int64
	}{
		{"3997", 3997},
		{"3 997 kr", 3997},
		{"3 997 kr", 3997},
		{"3 997 kr", 3997},
		{"3,997 kr", 3997},
		{"3.997 kr", 3997},
		{"1 234 567 kr", 1234567},
		{"1,234.56", 1234},
		{"1.234,56", 1234},
		{"49,90", 49},
		{"49.90 kr", 49},
		{"4 500:-", 4500},
		{"SEK 12 345", 12345},
		{"  997 kr  ", 997},
		{"kr 250", 250},
		{"price: 1299.00", 1299},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := Normalize(tt.raw)
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalizeUnparsable(t *testing.T) {
	tests := []string{
		"",
		"kr",
		"out of stock",
		"—",
		"...",
		"0",
		"0 kr",
		"0,00",
	}

	for _, raw := range tests {
		t.Run(raw, func(t *testing.T) {
			_, err := Normalize(raw)
			assert.Error(t, err)
			assert.True(t, errors.IsKind(err, errors.KindUnparsablePrice))
		})
	}
}

func TestNormalizeDeterministic(t *testing.T) {
	// Round-trip every formatting style a value can appear in.
	for _, v := range []int64{1, 99, 100, 999, 1000, 4500, 99999, 123456} {
		for _, format := range []string{"%d", "%d kr", "%d,00", "%d.00 kr"} {
			raw := fmt.Sprintf(format, v)
			got, err := Normalize(raw)
			assert.NoError(t, err, raw)
			assert.Equal(t, v, got, raw)

			again, err := Normalize(raw)
			assert.NoError(t, err, raw)
			assert.Equal(t, got, again, raw)
		}
	}
}
