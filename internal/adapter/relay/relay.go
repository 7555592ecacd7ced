// Package relay forwards browser requests to the history site, adding the
// CORS headers the site does not send and the Referer/Origin it expects.
package relay

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/couchcryptid/weather-history-service/internal/observability"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ErrorMessage is the body text of every failed relay response.
const ErrorMessage = "Proxy Error"

const (
	headerAllowOrigin  = "Access-Control-Allow-Origin"
	headerAllowMethods = "Access-Control-Allow-Methods"
	headerAllowHeaders = "Access-Control-Allow-Headers"
)

// Server relays every request except /healthz and /metrics to a single
// upstream origin.
type Server struct {
	echo     *echo.Echo
	addr     string
	upstream *url.URL
	logger   *slog.Logger
	metrics  *observability.Metrics
}

// NewServer validates upstream and builds the relay router. A nil transport
// means http.DefaultTransport.
func NewServer(addr, upstream string, transport http.RoundTripper, logger *slog.Logger, metrics *observability.Metrics) (*Server, error) {
	u, err := url.Parse(upstream)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid relay upstream %q", upstream)
	}

	s := &Server{
		echo:     echo.New(),
		addr:     addr,
		upstream: &url.URL{Scheme: u.Scheme, Host: u.Host},
		logger:   logger,
		metrics:  metrics,
	}

	e := s.echo
	e.HideBanner = true
	e.HidePort = true
	e.Server.ReadTimeout = 30 * time.Second
	e.Server.WriteTimeout = 30 * time.Second
	e.Server.IdleTimeout = 60 * time.Second
	e.HTTPErrorHandler = s.httpErrorHandler

	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	e.Use(s.observe)
	e.Use(middleware.Recover())
	e.Use(cors)

	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "healthy"})
	})
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	// The proxy middleware answers every request itself; the handler is
	// never reached.
	e.Any("/*", echo.NotFoundHandler, s.rewriteRequest, middleware.ProxyWithConfig(middleware.ProxyConfig{
		Balancer:       middleware.NewRoundRobinBalancer([]*middleware.ProxyTarget{{Name: "upstream", URL: s.upstream}}),
		Transport:      transport,
		RetryCount:     0,
		ModifyResponse: dropUpstreamCORS,
	}))

	return s, nil
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("relay server starting", "addr", s.addr, "upstream", s.upstream.String())
	return s.echo.Start(s.addr)
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.echo.ServeHTTP(w, r)
}

// cors stamps the allow-origin header on every response and answers
// preflight requests without contacting the upstream.
func cors(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		h := c.Response().Header()
		h.Set(headerAllowOrigin, "*")
		if c.Request().Method == http.MethodOptions {
			h.Set(headerAllowMethods, "GET, POST, OPTIONS")
			h.Set(headerAllowHeaders, "*")
			return c.NoContent(http.StatusNoContent)
		}
		return next(c)
	}
}

// observe resolves handler errors before counting the final status.
func (s *Server) observe(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if err := next(c); err != nil {
			c.Error(err)
		}
		status := c.Response().Status
		s.metrics.RelayRequests.WithLabelValues(strconv.Itoa(status/100) + "xx").Inc()
		s.logger.Debug("relayed",
			"method", c.Request().Method,
			"path", c.Request().URL.Path,
			"status", status,
			"request_id", c.Response().Header().Get(echo.HeaderXRequestID),
		)
		return nil
	}
}

// rewriteRequest replaces the browser's headers with the ones the site
// expects. Only the body's Content-Type survives.
func (s *Server) rewriteRequest(next echo.HandlerFunc) echo.HandlerFunc {
	origin := s.upstream.String()
	return func(c echo.Context) error {
		req := c.Request()
		h := http.Header{}
		if ct := req.Header.Get(echo.HeaderContentType); ct != "" {
			h.Set(echo.HeaderContentType, ct)
		}
		h.Set("Accept", "application/json")
		h.Set("Referer", origin)
		h.Set("Origin", origin)
		req.Header = h
		req.Host = s.upstream.Host
		return next(c)
	}
}

// dropUpstreamCORS removes the site's own allow-origin header so the "*"
// set by the cors middleware is the only value sent.
func dropUpstreamCORS(resp *http.Response) error {
	resp.Header.Del(headerAllowOrigin)
	return nil
}

// httpErrorHandler turns any failure into a 500 JSON body that still
// carries the CORS header.
func (s *Server) httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	var he *echo.HTTPError
	if errors.As(err, &he) && he.Code < http.StatusInternalServerError {
		s.logger.Debug("relay rejected request", "error", err)
	} else {
		s.logger.Error("relay failed", "error", err,
			"request_id", c.Response().Header().Get(echo.HeaderXRequestID))
	}

	c.Response().Header().Set(headerAllowOrigin, "*")
	_ = c.JSON(http.StatusInternalServerError, map[string]string{"error": ErrorMessage})
}
