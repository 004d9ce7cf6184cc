// Package rules derives trade levels from detected chart patterns.
package rules

import "strings"

// Edge selects one side of a detection box in price space.
type Edge int

const (
	EdgeTop Edge = iota
	EdgeBottom
)

// StopMode says how the stop-loss is placed relative to the entry.
type StopMode int

const (
	// StopOppositeEdge puts the stop on the box edge the entry is not on.
	StopOppositeEdge StopMode = iota
	// StopProportional puts the stop a fraction of the box span beyond the entry,
	// on the side opposite to the projection.
	StopProportional
)

// Rule describes how a pattern turns into entry, stop and take-profit levels.
type Rule struct {
	Entry        Edge
	Stop         StopMode
	StopFraction float64 // StopProportional only
	Projection   float64 // +1 targets above entry, -1 below
}

var (
	breakout = Rule{Entry: EdgeTop, Stop: StopOppositeEdge, Projection: 1}

	defaultRules = map[string]Rule{
		"cup and handle": breakout,
		"double-bottom":  breakout,
		"flag":           breakout,
		"triangle":       breakout,
		// entry at the lower edge, still projected upward
		"channel": {Entry: EdgeBottom, Stop: StopOppositeEdge, Projection: 1},
		// short setup: stop above entry, targets below
		"resistance": {Entry: EdgeTop, Stop: StopProportional, StopFraction: 0.1, Projection: -1},
	}
)

// DefaultPatterns returns the patterns that have a rule, in a stable order.
func DefaultPatterns() []string {
	return []string{"cup and handle", "channel", "double-bottom", "flag", "resistance", "triangle"}
}

// Lookup returns the rule for a pattern name, ignoring case and surrounding space.
func Lookup(pattern string) (Rule, bool) {
	r, ok := defaultRules[Normalize(pattern)]
	return r, ok
}

// Normalize lower-cases and trims a detector class label.
func Normalize(pattern string) string {
	return strings.ToLower(strings.TrimSpace(pattern))
}
