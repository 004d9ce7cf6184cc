package chart

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"SlinkyTA/internal/domain/models"
)

func TestCalibrate(t *testing.T) {
	tests := []struct {
		name   string
		labels []string
		want   models.PriceRange
	}{
		{"plain", []string{"100", "150", "200"}, models.PriceRange{Top: 200, Bottom: 100}},
		{"currency and noise", []string{"$100", "garbage", "$200"}, models.PriceRange{Top: 200, Bottom: 100}},
		{"grouping separators", []string{"64,250.50", "$ 63,900"}, models.PriceRange{Top: 64250.5, Bottom: 63900}},
		{"unicode minus", []string{"−5.5", "2"}, models.PriceRange{Top: 2, Bottom: -5.5}},
		{"single label", []string{"€0.5123"}, models.PriceRange{Top: 0.5123, Bottom: 0.5123}},
		{"non finite skipped", []string{"NaN", "Inf", "3", "1"}, models.PriceRange{Top: 3, Bottom: 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Calibrate(tt.labels)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.GreaterOrEqual(t, got.Top, got.Bottom)
		})
	}
}

func TestCalibrateNoPrices(t *testing.T) {
	for _, labels := range [][]string{nil, {}, {"abc", "", "$", "USD"}} {
		_, err := Calibrate(labels)
		require.Error(t, err)
		assert.ErrorIs(t, err, models.ErrCalibration)
	}
}

func TestCalibrateOrderInvariant(t *testing.T) {
	labels := []string{"1,204.5", "x", "$980", "1100", "1,050.25", "--", "1,300"}
	want, err := Calibrate(labels)
	require.NoError(t, err)

	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 50; i++ {
		shuffled := append([]string(nil), labels...)
		rng.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })
		got, err := Calibrate(shuffled)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}

func TestPixelToPrice(t *testing.T) {
	r := models.PriceRange{Top: 200, Bottom: 100}

	assert.Equal(t, 200.0, PixelToPrice(0, 800, r))
	assert.Equal(t, 100.0, PixelToPrice(800, 800, r))
	assert.Equal(t, 150.0, PixelToPrice(400, 800, r))
	// outside the frame extrapolates
	assert.Equal(t, 212.5, PixelToPrice(-100, 800, r))
	assert.Equal(t, 87.5, PixelToPrice(900, 800, r))
}

func TestPixelToPriceStaysInRange(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 1000; i++ {
		bottom := rng.Float64()*1000 - 500
		r := models.PriceRange{Top: bottom + rng.Float64()*1000, Bottom: bottom}
		height := 1 + rng.Float64()*2000
		y := rng.Float64() * height

		p := PixelToPrice(y, height, r)
		assert.GreaterOrEqual(t, p, r.Bottom-1e-9)
		assert.LessOrEqual(t, p, r.Top+1e-9)
	}
}

func TestParseLabelRejectsHexFloats(t *testing.T) {
	for _, raw := range []string{"0x1p4", "0X10", "$0x1.8p1"} {
		_, ok := ParseLabel(raw)
		assert.False(t, ok, raw)
	}

	v, ok := ParseLabel("1e3")
	require.True(t, ok)
	assert.Equal(t, 1000.0, v)
}
