package rules

import (
	"math"
	"time"

	"github.com/shopspring/decimal"

	"SlinkyTA/internal/domain/models"
	"SlinkyTA/internal/services/chart"
)

// Levels are the unrounded price levels of one setup.
type Levels struct {
	Entry, SL, TP1, TP2, Risk float64
}

// Apply computes the levels of rule r for a box spanning boxBottom..boxTop in price.
func (r Rule) Apply(boxTop, boxBottom float64, rr models.RiskReward) Levels {
	var l Levels
	if r.Entry == EdgeTop {
		l.Entry = boxTop
	} else {
		l.Entry = boxBottom
	}

	switch r.Stop {
	case StopProportional:
		l.SL = l.Entry - r.Projection*r.StopFraction*math.Abs(boxTop-boxBottom)
	default:
		if r.Entry == EdgeTop {
			l.SL = boxBottom
		} else {
			l.SL = boxTop
		}
	}

	l.Risk = math.Abs(l.Entry - l.SL)
	l.TP1 = l.Entry + r.Projection*l.Risk*rr.RR1
	l.TP2 = l.Entry + r.Projection*l.Risk*rr.RR2
	return l
}

// Direction returns models.DirectionShort for downward projections, long otherwise.
func (r Rule) Direction() string {
	if r.Projection < 0 {
		return models.DirectionShort
	}
	return models.DirectionLong
}

// Engine derives signals for an allow-listed set of patterns.
type Engine struct {
	allowed map[string]struct{}
	rr      models.RiskReward
}

// NewEngine builds an engine. Patterns are normalized; an empty list allows every pattern with a rule.
func NewEngine(patterns []string, rr models.RiskReward) *Engine {
	if len(patterns) == 0 {
		patterns = DefaultPatterns()
	}
	allowed := make(map[string]struct{}, len(patterns))
	for _, p := range patterns {
		allowed[Normalize(p)] = struct{}{}
	}
	return &Engine{allowed: allowed, rr: rr}
}

// Allowed reports whether a detector class is on the allow-list.
func (e *Engine) Allowed(class string) bool {
	_, ok := e.allowed[Normalize(class)]
	return ok
}

// Derive turns one detection into a signal. ok is false when the class is not
// allow-listed or has no rule.
func (e *Engine) Derive(asset string, d models.Detection, height float64, r models.PriceRange, at time.Time) (models.Signal, bool) {
	if !e.Allowed(d.Class) {
		return models.Signal{}, false
	}
	return DeriveSignal(asset, d, height, r, e.rr, at)
}

// DeriveSignal applies the rule table to d without an allow-list.
func DeriveSignal(asset string, d models.Detection, height float64, r models.PriceRange, rr models.RiskReward, at time.Time) (models.Signal, bool) {
	pattern := Normalize(d.Class)
	rule, ok := defaultRules[pattern]
	if !ok || height <= 0 {
		return models.Signal{}, false
	}

	boxTop := chart.PixelToPrice(d.Y-d.Height/2, height, r)
	boxBottom := chart.PixelToPrice(d.Y+d.Height/2, height, r)
	l := rule.Apply(boxTop, boxBottom, rr)
	if !finite(l.Entry, l.SL, l.TP1, l.TP2, d.Confidence) {
		return models.Signal{}, false
	}

	return models.Signal{
		Asset:      asset,
		Pattern:    pattern,
		Entry:      round(l.Entry, 2),
		SL:         round(l.SL, 2),
		TP1:        round(l.TP1, 2),
		TP2:        round(l.TP2, 2),
		Confidence: round(d.Confidence, 3),
		Direction:  rule.Direction(),
		DetectedAt: at,
	}, true
}

// round uses the exact binary value of v and breaks ties to even, so 156.125
// becomes 156.12 and 2.675 (stored just below) becomes 2.67.
func round(v float64, places int32) float64 {
	return decimal.NewFromFloatWithExponent(v, -places-20).RoundBank(places).InexactFloat64()
}

func finite(vs ...float64) bool {
	for _, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
