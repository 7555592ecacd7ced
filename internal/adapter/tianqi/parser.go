package tianqi

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/couchcryptid/weather-history-service/internal/domain"
)

// NoDataMarker appears in fragments for months the site has no history for.
const NoDataMarker = "暂无"

// ParseResult holds the records of a fragment and how many data rows were
// dropped because a cell failed to parse.
type ParseResult struct {
	Records []domain.TemperatureRecord
	Skipped int
}

// ParseHistory extracts daily records from a history fragment. The first
// table row is a header. Malformed rows are skipped, never fatal.
func ParseHistory(fragment string) ParseResult {
	var res ParseResult
	if fragment == "" || strings.Contains(fragment, NoDataMarker) {
		return res
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return res
	}

	doc.Find("table.history-table tr").Each(func(i int, tr *goquery.Selection) {
		if i == 0 {
			return
		}
		rec, ok := parseRow(tr.Find("td"))
		if !ok {
			res.Skipped++
			return
		}
		res.Records = append(res.Records, rec)
	})
	return res
}

func parseRow(cells *goquery.Selection) (domain.TemperatureRecord, bool) {
	if cells.Length() < 3 {
		return domain.TemperatureRecord{}, false
	}

	date, _, _ := strings.Cut(strings.TrimSpace(cells.Eq(0).Text()), " ")
	if date == "" {
		return domain.TemperatureRecord{}, false
	}
	high, err := parseDegrees(cells.Eq(1).Text())
	if err != nil {
		return domain.TemperatureRecord{}, false
	}
	low, err := parseDegrees(cells.Eq(2).Text())
	if err != nil {
		return domain.TemperatureRecord{}, false
	}
	return domain.TemperatureRecord{Date: date, High: high, Low: low}, true
}

// parseDegrees reads "5°" or "-2°" as a finite number.
func parseDegrees(s string) (float64, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimSpace(strings.TrimSuffix(s, "°"))
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("degrees %q: not a finite number", s)
	}
	return v, nil
}

// extractFragment pulls the HTML out of the envelope's data field. The site
// normally sends {"html": "..."}; anything else is used as text: JSON
// strings unquoted, other values as their raw JSON.
func extractFragment(data json.RawMessage) string {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "" || trimmed == "null" {
		return ""
	}

	var obj map[string]json.RawMessage
	if json.Unmarshal(data, &obj) == nil {
		if html, ok := obj["html"]; ok {
			return extractFragment(html)
		}
		return trimmed
	}

	var s string
	if json.Unmarshal(data, &s) == nil {
		return s
	}
	return trimmed
}
