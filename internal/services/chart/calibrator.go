// Package chart turns on-screen chart geometry into prices.
//
// The price axis is treated as linear between the highest and lowest visible
// label. Charts rendered on a logarithmic scale will map to wrong prices.
package chart

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"

	"SlinkyTA/internal/domain/models"
)

// Calibrate parses raw axis label text and returns the visible price range.
// Labels that do not parse are skipped; if none parse it fails with models.ErrCalibration.
func Calibrate(labels []string) (models.PriceRange, error) {
	var (
		r      models.PriceRange
		parsed int
	)
	for _, raw := range labels {
		v, ok := ParseLabel(raw)
		if !ok {
			continue
		}
		if parsed == 0 {
			r.Top, r.Bottom = v, v
		} else {
			r.Top = math.Max(r.Top, v)
			r.Bottom = math.Min(r.Bottom, v)
		}
		parsed++
	}
	if parsed == 0 {
		return models.PriceRange{}, fmt.Errorf("%w: none of %d axis labels is a price", models.ErrCalibration, len(labels))
	}
	return r, nil
}

// ParseLabel reads one axis label as a finite number after dropping
// grouping commas, currency symbols and surrounding whitespace. Hex floats
// such as "0x1p4" are rejected.
func ParseLabel(raw string) (float64, bool) {
	s := strings.Map(func(c rune) rune {
		switch {
		case c == ',':
			return -1
		case c == '−': // typographic minus
			return '-'
		case unicode.Is(unicode.Sc, c), unicode.IsSpace(c):
			return -1
		}
		return c
	}, raw)
	if s == "" || strings.ContainsAny(s, "xX") {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}
