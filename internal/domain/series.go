package domain

import "sort"

// DefaultSeriesColor is used for series created without a color.
const DefaultSeriesColor = "#409EFF"

// SeriesKind selects which value of a record a series plots.
type SeriesKind string

const (
	SeriesHigh SeriesKind = "high"
	SeriesLow  SeriesKind = "low"
)

// Valid reports whether k is a known kind.
func (k SeriesKind) Valid() bool { return k == SeriesHigh || k == SeriesLow }

// Series is one named line of temperature records.
type Series struct {
	ID      string
	Name    string
	Kind    SeriesKind
	Color   string
	Records []TemperatureRecord
}

// Line is a Series projected onto the shared date axis of a Chart.
type Line struct {
	ID     string     `json:"id"`
	Name   string     `json:"name"`
	Kind   SeriesKind `json:"kind"`
	Color  string     `json:"color"`
	Values []*float64 `json:"values"`
}

// Chart is the aggregate of several series over the union of their dates.
type Chart struct {
	Dates []string `json:"dates"`
	Lines []Line   `json:"lines"`
}

// BuildChart unions every series' dates, sorts them, and looks up each
// series' value per date. Dates a series lacks are nil, never interpolated.
// When a series repeats a date, the first record wins.
func BuildChart(series []Series) Chart {
	seen := make(map[string]struct{})
	for _, s := range series {
		for _, r := range s.Records {
			seen[r.Date] = struct{}{}
		}
	}
	dates := make([]string, 0, len(seen))
	for d := range seen {
		dates = append(dates, d)
	}
	sort.Strings(dates)

	lines := make([]Line, 0, len(series))
	for _, s := range series {
		byDate := make(map[string]TemperatureRecord, len(s.Records))
		for _, r := range s.Records {
			if _, dup := byDate[r.Date]; !dup {
				byDate[r.Date] = r
			}
		}

		values := make([]*float64, len(dates))
		for i, d := range dates {
			r, ok := byDate[d]
			if !ok {
				continue
			}
			v := r.High
			if s.Kind == SeriesLow {
				v = r.Low
			}
			values[i] = &v
		}

		color := s.Color
		if color == "" {
			color = DefaultSeriesColor
		}
		lines = append(lines, Line{ID: s.ID, Name: s.Name, Kind: s.Kind, Color: color, Values: values})
	}

	return Chart{Dates: dates, Lines: lines}
}
