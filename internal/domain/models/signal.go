package models

import "time"

// Direction of the trade a signal recommends.
const (
	DirectionLong  = "long"
	DirectionShort = "short"
)

// Asset is one chart target the pipeline captures on every tick.
type Asset struct {
	Symbol string `yaml:"symbol" json:"symbol" validate:"required"`
	Name   string `yaml:"name" json:"name"`
	URL    string `yaml:"url" json:"url" validate:"required,url"`
}

// DisplayName returns Name, or Symbol when no name is configured.
func (a Asset) DisplayName() string {
	if a.Name != "" {
		return a.Name
	}
	return a.Symbol
}

// PriceRange is the visible price axis of one snapshot. Top >= Bottom.
type PriceRange struct {
	Top    float64 `json:"top"`
	Bottom float64 `json:"bottom"`
}

// Span returns Top - Bottom.
func (r PriceRange) Span() float64 { return r.Top - r.Bottom }

// Detection is one pattern found by the detector, in snapshot pixel space.
// Y is the box center and Height the box height.
type Detection struct {
	Class      string   `json:"class"`
	Confidence float64  `json:"confidence"`
	Y          float64  `json:"y"`
	Height     float64  `json:"height"`
	X          *float64 `json:"x,omitempty"`
	Width      *float64 `json:"width,omitempty"`
}

// Signal is a trade setup derived from a detection, in price space.
// Direction is not persisted; it follows from the pattern's rule.
type Signal struct {
	ID         int64     `json:"id" db:"id"`
	Asset      string    `json:"asset" db:"asset"`
	Pattern    string    `json:"pattern" db:"pattern"`
	Entry      float64   `json:"entry" db:"entry"`
	SL         float64   `json:"sl" db:"sl"`
	TP1        float64   `json:"tp1" db:"tp1"`
	TP2        float64   `json:"tp2" db:"tp2"`
	Confidence float64   `json:"confidence" db:"confidence"`
	Direction  string    `json:"direction,omitempty" db:"-"`
	DetectedAt time.Time `json:"detected_at" db:"detected_at"`
}

// RiskReward holds the take-profit multipliers applied to the entry/stop distance.
type RiskReward struct {
	RR1 float64 `yaml:"rr1" json:"rr1" default:"1.5" validate:"gt=0"`
	RR2 float64 `yaml:"rr2" json:"rr2" default:"2.0" validate:"gt=0"`
}

// DefaultRiskReward returns rr1=1.5, rr2=2.0.
func DefaultRiskReward() RiskReward { return RiskReward{RR1: 1.5, RR2: 2.0} }

// SignalQuery filters stored signals. Zero values mean "no filter".
type SignalQuery struct {
	Asset   string
	Pattern string
	Since   time.Time
	Limit   int
}
