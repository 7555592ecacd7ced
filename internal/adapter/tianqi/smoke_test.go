//go:build upstream

package tianqi

import (
	"context"
	"testing"
	"time"

	"github.com/couchcryptid/weather-history-service/internal/domain"
	"github.com/couchcryptid/weather-history-service/internal/observability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// These tests hit the live history site.
// Run with: go test -tags=upstream ./internal/adapter/tianqi/ -v -count=1

func TestSmoke_FetchHistory_Beijing(t *testing.T) {
	c := NewClient(NewHTTPClient(10*time.Second), "https://tianqi.2345.com", discardLogger(), observability.NewMetricsForTesting())

	records, err := c.FetchHistory(context.Background(), domain.HistoryQuery{AreaID: "54511", Year: "2023", Month: "06"})
	require.NoError(t, err)
	require.NotEmpty(t, records)

	for _, r := range records {
		assert.Regexp(t, `^2023-06-\d{2}$`, r.Date)
		assert.GreaterOrEqual(t, r.High, r.Low, r.Date)
	}
}
