package relay

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/couchcryptid/weather-history-service/internal/observability"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestRelay(t *testing.T, upstream string) (*Server, *observability.Metrics) {
	t.Helper()
	metrics := observability.NewMetricsForTesting()
	s, err := NewServer(":0", upstream, nil, discardLogger(), metrics)
	require.NoError(t, err)
	return s, metrics
}

func TestRelay_ForwardsPathQueryAndHeaders(t *testing.T) {
	var got *http.Request
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Clone(r.Context())
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("X-Upstream", "yes")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"data":{"html":"<table></table>"}}`))
	}))
	defer upstream.Close()

	s, metrics := newTestRelay(t, upstream.URL)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/Pc/GetHistory?areaInfo%5BareaId%5D=54511&date%5Byear%5D=2024", nil)
	req.Header.Set("Referer", "http://localhost:5173")
	req.Header.Set("Origin", "http://localhost:5173")
	s.ServeHTTP(rec, req)

	require.NotNil(t, got)
	assert.Equal(t, "/Pc/GetHistory", got.URL.Path)
	assert.Equal(t, "areaInfo%5BareaId%5D=54511&date%5Byear%5D=2024", got.URL.RawQuery)
	assert.Equal(t, upstream.URL, got.Header.Get("Referer"))
	assert.Equal(t, upstream.URL, got.Header.Get("Origin"))
	assert.Equal(t, "application/json", got.Header.Get("Accept"))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"data":{"html":"<table></table>"}}`, rec.Body.String())
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "yes", rec.Header().Get("X-Upstream"))

	_, err := uuid.Parse(rec.Header().Get(echo.HeaderXRequestID))
	require.NoError(t, err, "request id should be a uuid")
	assert.InDelta(t, 1.0, testutil.ToFloat64(metrics.RelayRequests.WithLabelValues("2xx")), 0)
}

func TestRelay_PassesUpstreamStatusVerbatim(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "https://tianqi.2345.com")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte("missing"))
	}))
	defer upstream.Close()

	s, metrics := newTestRelay(t, upstream.URL)

	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "missing", rec.Body.String())
	assert.Equal(t, []string{"*"}, rec.Header().Values("Access-Control-Allow-Origin"))
	assert.InDelta(t, 1.0, testutil.ToFloat64(metrics.RelayRequests.WithLabelValues("4xx")), 0)
}

func TestRelay_ForwardsBody(t *testing.T) {
	var body, contentType, method string
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		body, contentType, method = string(b), r.Header.Get("Content-Type"), r.Method
		w.WriteHeader(http.StatusCreated)
	}))
	defer upstream.Close()

	s, _ := newTestRelay(t, upstream.URL)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/Pc/Search", strings.NewReader(`{"q":"beijing"}`))
	req.Header.Set("Content-Type", "application/json")
	s.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, http.MethodPost, method)
	assert.Equal(t, `{"q":"beijing"}`, body)
	assert.Equal(t, "application/json", contentType)
}

func TestRelay_Preflight(t *testing.T) {
	called := false
	upstream := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		called = true
	}))
	defer upstream.Close()

	s, _ := newTestRelay(t, upstream.URL)

	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/Pc/GetHistory", nil))

	assert.False(t, called, "preflight must not reach upstream")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "GET, POST, OPTIONS", rec.Header().Get("Access-Control-Allow-Methods"))
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Headers"))
}

func TestRelay_UpstreamUnreachable(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	addr := upstream.URL
	upstream.Close()

	s, metrics := newTestRelay(t, addr)

	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/Pc/GetHistory", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Content-Type"), "application/json")

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, ErrorMessage, body["error"])
	assert.InDelta(t, 1.0, testutil.ToFloat64(metrics.RelayRequests.WithLabelValues("5xx")), 0)
}

func TestRelay_Healthz(t *testing.T) {
	s, _ := newTestRelay(t, "https://tianqi.2345.com")

	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"healthy"}`, rec.Body.String())
}

func TestNewServer_InvalidUpstream(t *testing.T) {
	_, err := NewServer(":0", "not a url", nil, discardLogger(), observability.NewMetricsForTesting())
	require.Error(t, err)
}

func TestRelay_ReplacesBrowserHeaders(t *testing.T) {
	var got http.Header
	var host string
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, host = r.Header.Clone(), r.Host
		w.WriteHeader(http.StatusOK)
	}))
	defer upstream.Close()

	s, _ := newTestRelay(t, upstream.URL)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/Pc/GetHistory", nil)
	req.Host = "localhost:8081"
	req.Header.Set("Cookie", "session=abc")
	req.Header.Set("Accept", "text/html")
	s.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, strings.TrimPrefix(upstream.URL, "http://"), host)
	assert.Empty(t, got.Get("Cookie"))
	assert.Equal(t, "application/json", got.Get("Accept"))
}
