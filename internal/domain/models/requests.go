package models

// Requests for the signals HTTP endpoints.

type ListSignalsRequest struct {
	Asset   string `query:"asset" json:"asset"`
	Pattern string `query:"pattern" json:"pattern"`
	Since   string `query:"since" json:"since"`
	Limit   int    `query:"limit" json:"limit" default:"50" validate:"gte=1,lte=1000"`
}

type LatestSignalRequest struct {
	Asset string `query:"asset" json:"asset" validate:"required"`
}
