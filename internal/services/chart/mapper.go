package chart

import "SlinkyTA/internal/domain/models"

// PixelToPrice maps a vertical pixel offset (0 = top edge) to a price.
// Offsets outside [0, height] extrapolate linearly.
func PixelToPrice(y, height float64, r models.PriceRange) float64 {
	return r.Top - r.Span()*y/height
}
