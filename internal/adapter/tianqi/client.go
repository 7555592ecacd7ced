// Package tianqi retrieves monthly temperature history from the 2345
// weather site.
package tianqi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/couchcryptid/weather-history-service/internal/domain"
	"github.com/couchcryptid/weather-history-service/internal/observability"
	"github.com/sony/gobreaker"
)

const historyPath = "/Pc/GetHistory"

// Client implements domain.HistoryFetcher against the history endpoint.
// Requests are never retried; a run of consecutive failures opens the
// circuit breaker so later calls fail fast until it half-opens.
type Client struct {
	httpClient *http.Client
	baseURL    string
	breaker    *gobreaker.CircuitBreaker
	logger     *slog.Logger
	metrics    *observability.Metrics
}

// NewClient creates a history client. baseURL is the site origin or a relay
// in front of it.
func NewClient(httpClient *http.Client, baseURL string, logger *slog.Logger, metrics *observability.Metrics) *Client {
	return &Client{
		httpClient: httpClient,
		baseURL:    baseURL,
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        "tianqi-history",
			MaxRequests: 1,
			Interval:    time.Minute,
			Timeout:     30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 5
			},
			// A caller that gave up says nothing about upstream health.
			IsSuccessful: func(err error) bool {
				var ce *callerError
				return err == nil || errors.As(err, &ce)
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				logger.Warn("circuit breaker state change", "breaker", name, "from", from.String(), "to", to.String())
			},
		}),
		logger:  logger,
		metrics: metrics,
	}
}

// NewHTTPClient returns the HTTP client used for upstream calls.
func NewHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{Timeout: timeout}
}

// FetchHistory returns the daily records of one month. A "no data" page or
// an unparseable payload yields an empty slice; only transport failures and
// non-2xx statuses are returned as errors.
func (c *Client) FetchHistory(ctx context.Context, q domain.HistoryQuery) ([]domain.TemperatureRecord, error) {
	params := url.Values{
		"areaInfo[areaId]":   {q.AreaID},
		"areaInfo[areaType]": {domain.AreaTypeStation},
		"date[year]":         {q.Year},
		"date[month]":        {q.Month},
	}

	start := time.Now()
	body, err := c.breaker.Execute(func() (any, error) {
		b, err := c.doRequest(ctx, c.baseURL+historyPath+"?"+params.Encode())
		if err != nil && ctx.Err() != nil {
			return nil, &callerError{err: err}
		}
		return b, err
	})
	c.metrics.UpstreamDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		c.metrics.UpstreamRequests.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("fetch history %s %s-%s: %w", q.AreaID, q.Year, q.Month, err)
	}

	var env envelope
	if err := json.Unmarshal(body.([]byte), &env); err != nil {
		c.logger.Warn("history response is not JSON, treating as empty",
			"area_id", q.AreaID, "year", q.Year, "month", q.Month, "error", err)
		c.metrics.UpstreamRequests.WithLabelValues("empty").Inc()
		return []domain.TemperatureRecord{}, nil
	}

	res := ParseHistory(extractFragment(env.Data))
	if res.Skipped > 0 {
		c.metrics.RowsSkipped.Add(float64(res.Skipped))
		c.logger.Warn("history rows skipped",
			"area_id", q.AreaID, "year", q.Year, "month", q.Month, "skipped", res.Skipped)
	}
	if len(res.Records) == 0 {
		c.logger.Info("no history available", "area_id", q.AreaID, "year", q.Year, "month", q.Month)
		c.metrics.UpstreamRequests.WithLabelValues("empty").Inc()
		return []domain.TemperatureRecord{}, nil
	}

	c.metrics.UpstreamRequests.WithLabelValues("success").Inc()
	return res.Records, nil
}

func (c *Client) doRequest(ctx context.Context, fullURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("history request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("history API error: status %d: %s", resp.StatusCode, body)
	}
	return body, nil
}

// callerError marks a request abandoned because the caller's context ended.
type callerError struct{ err error }

func (e *callerError) Error() string { return e.err.Error() }
func (e *callerError) Unwrap() error { return e.err }

// Envelope of the history endpoint.
type envelope struct {
	Data json.RawMessage `json:"data"`
}
