package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/couchcryptid/weather-history-service/internal/adapter/tianqi"
	"github.com/couchcryptid/weather-history-service/internal/domain"
	"github.com/couchcryptid/weather-history-service/internal/pipeline"
	"github.com/couchcryptid/weather-history-service/internal/region"
	"github.com/go-playground/validator/v10"
)

// requestError marks a failure caused by the client's input.
type requestError struct{ err error }

func (e *requestError) Error() string { return e.err.Error() }
func (e *requestError) Unwrap() error { return e.err }

func badRequest(format string, args ...any) error {
	return &requestError{err: fmt.Errorf(format, args...)}
}

type historyParams struct {
	AreaID string `validate:"required,numeric"`
	Year   string `validate:"required,len=4,numeric"`
	Month  string `validate:"required,len=2,numeric"`
}

type rangeParams struct {
	AreaID string `validate:"required,numeric"`
	Start  string `validate:"required"`
	End    string `validate:"required"`
}

type seriesBody struct {
	ID     string `json:"id"`
	Name   string `json:"name" validate:"required"`
	AreaID string `json:"areaId" validate:"required,numeric"`
	Kind   string `json:"kind" validate:"required,oneof=high low"`
	Color  string `json:"color" validate:"omitempty,hexcolor"`
	Start  string `json:"start" validate:"required"`
	End    string `json:"end" validate:"required"`
}

type chartBody struct {
	Series []seriesBody `json:"series" validate:"required,min=1,dive"`
}

type historyResponse struct {
	AreaID  string                     `json:"area_id"`
	Year    string                     `json:"year"`
	Month   string                     `json:"month"`
	Records []domain.TemperatureRecord `json:"records"`
}

type rangeResponse struct {
	AreaID  string                     `json:"area_id"`
	Start   string                     `json:"start"`
	End     string                     `json:"end"`
	Records []domain.TemperatureRecord `json:"records"`
}

func (s *Server) handleProvinces(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.history.Regions().Provinces())
}

func (s *Server) handleCities(w http.ResponseWriter, r *http.Request) {
	dir := s.history.Regions()
	prov := r.PathValue("province")
	if _, ok := dir.ProvinceLabel(prov); !ok {
		s.writeError(w, r, fmt.Errorf("province %s: %w", prov, region.ErrUnknownRegion))
		return
	}
	writeJSON(w, http.StatusOK, nonNil(dir.Cities(prov)))
}

func (s *Server) handleDistricts(w http.ResponseWriter, r *http.Request) {
	dir := s.history.Regions()
	prov := r.PathValue("province")
	if _, ok := dir.ProvinceLabel(prov); !ok {
		s.writeError(w, r, fmt.Errorf("province %s: %w", prov, region.ErrUnknownRegion))
		return
	}
	writeJSON(w, http.StatusOK, nonNil(dir.Districts(prov, r.PathValue("city"))))
}

func (s *Server) handleRegionNames(w http.ResponseWriter, r *http.Request) {
	prov, city, district := r.PathValue("province"), r.PathValue("city"), r.PathValue("district")
	names, ok := s.history.Regions().RegionNames(prov, city, district)
	if !ok {
		s.writeError(w, r, fmt.Errorf("region %s/%s/%s: %w", prov, city, district, region.ErrUnknownRegion))
		return
	}
	writeJSON(w, http.StatusOK, map[string][]string{"names": names})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	p := historyParams{
		AreaID: q.Get("areaId"),
		Year:   q.Get("year"),
		Month:  padMonth(q.Get("month")),
	}
	if err := s.validateHistory(p); err != nil {
		s.writeError(w, r, err)
		return
	}

	records, err := s.history.Fetch(r.Context(), domain.HistoryQuery{AreaID: p.AreaID, Year: p.Year, Month: p.Month})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, historyResponse{
		AreaID:  p.AreaID,
		Year:    p.Year,
		Month:   p.Month,
		Records: nonNil(records),
	})
}

func (s *Server) handleHistoryRange(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	p := rangeParams{AreaID: q.Get("areaId"), Start: q.Get("start"), End: q.Get("end")}
	if err := s.validate.Struct(p); err != nil {
		s.writeError(w, r, &requestError{err: err})
		return
	}
	start, end, err := parseRange(p.Start, p.End)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	records, err := s.history.Records(r.Context(), p.AreaID, start, end)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rangeResponse{
		AreaID:  p.AreaID,
		Start:   start.Format("2006-01"),
		End:     end.Format("2006-01"),
		Records: nonNil(records),
	})
}

func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	var body chartBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.writeError(w, r, badRequest("decode chart request: %v", err))
		return
	}
	if err := s.validate.Struct(body); err != nil {
		s.writeError(w, r, &requestError{err: err})
		return
	}

	reqs := make([]pipeline.SeriesRequest, 0, len(body.Series))
	for _, sb := range body.Series {
		start, end, err := parseRange(sb.Start, sb.End)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		reqs = append(reqs, pipeline.SeriesRequest{
			ID:     sb.ID,
			Name:   sb.Name,
			AreaID: sb.AreaID,
			Kind:   domain.SeriesKind(sb.Kind),
			Color:  sb.Color,
			Start:  start,
			End:    end,
		})
	}

	chart, err := s.history.Chart(r.Context(), reqs)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, chart)
}

func (s *Server) handleCacheRemove(w http.ResponseWriter, r *http.Request) {
	p := historyParams{
		AreaID: r.PathValue("areaId"),
		Year:   r.PathValue("year"),
		Month:  padMonth(r.PathValue("month")),
	}
	if err := s.validateHistory(p); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.cache.Remove(r.Context(), tianqi.CachePrefix, p.AreaID, p.Year, p.Month); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleCacheClear(w http.ResponseWriter, r *http.Request) {
	prefix := r.URL.Query().Get("prefix")
	if prefix == "" {
		prefix = tianqi.CachePrefix
	}
	n, err := s.cache.Clear(r.Context(), prefix)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.logger.Info("cache cleared", "prefix", prefix, "removed", n)
	writeJSON(w, http.StatusOK, map[string]int{"removed": n})
}

// writeError maps input, range and region errors to 4xx and anything else
// (upstream or store failures) to 502.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var reqErr *requestError
	var valErrs validator.ValidationErrors
	status := http.StatusBadGateway
	switch {
	case errors.As(err, &reqErr), errors.As(err, &valErrs),
		errors.Is(err, domain.ErrInvalidRange), errors.Is(err, domain.ErrRangeTooLong):
		status = http.StatusBadRequest
	case errors.Is(err, region.ErrUnknownRegion):
		status = http.StatusNotFound
	}

	if status == http.StatusBadGateway {
		s.logger.Error("request failed", "error", err, "method", r.Method, "path", r.URL.Path)
	} else {
		s.logger.Debug("request rejected", "error", err, "status", status, "path", r.URL.Path)
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func (s *Server) validateHistory(p historyParams) error {
	if err := s.validate.Struct(p); err != nil {
		return &requestError{err: err}
	}
	if _, err := domain.ParseMonth(p.Year + "-" + p.Month); err != nil {
		return badRequest("month: %v", err)
	}
	return nil
}

func parseRange(startStr, endStr string) (time.Time, time.Time, error) {
	start, err := domain.ParseMonth(startStr)
	if err != nil {
		return time.Time{}, time.Time{}, badRequest("start: %v", err)
	}
	end, err := domain.ParseMonth(endStr)
	if err != nil {
		return time.Time{}, time.Time{}, badRequest("end: %v", err)
	}
	if err := domain.ValidateRange(start, end); err != nil {
		return time.Time{}, time.Time{}, err
	}
	return start, end, nil
}

// padMonth accepts "1" as well as "01".
func padMonth(m string) string {
	if len(m) == 1 {
		return "0" + m
	}
	return m
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
