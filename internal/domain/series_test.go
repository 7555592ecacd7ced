package domain

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
)

func f(v float64) *float64 { return &v }

func TestBuildChart_UnionsAndSortsDates(t *testing.T) {
	beijing := Series{
		ID:   "a",
		Name: "北京 high",
		Kind: SeriesHigh,
		Records: []TemperatureRecord{
			{Date: "2024-01-02", High: 3, Low: -6},
			{Date: "2024-01-01", High: 5, Low: -2},
		},
	}
	shanghai := Series{
		ID:    "b",
		Name:  "上海 low",
		Kind:  SeriesLow,
		Color: "#F56C6C",
		Records: []TemperatureRecord{
			{Date: "2024-01-03", High: 9, Low: 4},
			{Date: "2024-01-01", High: 10, Low: 2},
		},
	}

	got := BuildChart([]Series{beijing, shanghai})

	want := Chart{
		Dates: []string{"2024-01-01", "2024-01-02", "2024-01-03"},
		Lines: []Line{
			{ID: "a", Name: "北京 high", Kind: SeriesHigh, Color: DefaultSeriesColor, Values: []*float64{f(5), f(3), nil}},
			{ID: "b", Name: "上海 low", Kind: SeriesLow, Color: "#F56C6C", Values: []*float64{f(2), nil, f(4)}},
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("BuildChart mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildChart_Empty(t *testing.T) {
	got := BuildChart(nil)
	assert.Empty(t, got.Dates)
	assert.Empty(t, got.Lines)
}

func TestBuildChart_DuplicateDateFirstWins(t *testing.T) {
	s := Series{Kind: SeriesHigh, Records: []TemperatureRecord{
		{Date: "2024-01-01", High: 1},
		{Date: "2024-01-01", High: 9},
	}}
	got := BuildChart([]Series{s})
	assert.Equal(t, []string{"2024-01-01"}, got.Dates)
	assert.Equal(t, 1.0, *got.Lines[0].Values[0])
}

func TestSeriesKindValid(t *testing.T) {
	assert.True(t, SeriesHigh.Valid())
	assert.True(t, SeriesLow.Valid())
	assert.False(t, SeriesKind("avg").Valid())
}
