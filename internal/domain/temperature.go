package domain

import (
	"context"
	"time"
)

// AreaTypeStation is the only area type the history endpoint is queried with.
const AreaTypeStation = "2"

// TemperatureRecord is one day of history parsed from an upstream table row.
type TemperatureRecord struct {
	Date string  `json:"date"` // YYYY-MM-DD
	High float64 `json:"high"`
	Low  float64 `json:"low"`
}

// HistoryQuery addresses one (area, year, month) unit of history.
type HistoryQuery struct {
	AreaID string
	Year   string
	Month  string // zero-padded, "01".."12"
}

// QueryFor builds the query for an area and month.
func QueryFor(areaID string, m Month) HistoryQuery {
	return HistoryQuery{AreaID: areaID, Year: m.Year, Month: m.Month}
}

// MonthHistory is the records of one fetched month, as published downstream.
type MonthHistory struct {
	AreaID    string              `json:"area_id"`
	Year      string              `json:"year"`
	Month     string              `json:"month"`
	Records   []TemperatureRecord `json:"records"`
	FetchedAt time.Time           `json:"fetched_at"`
}

// HistoryFetcher retrieves the daily records of one month for one area.
type HistoryFetcher interface {
	// FetchHistory returns records in upstream row order. An empty slice
	// with a nil error means the upstream has no data for the month.
	FetchHistory(ctx context.Context, q HistoryQuery) ([]TemperatureRecord, error)
}
