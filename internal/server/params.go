package server

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rickgao/pricecache/internal/model"
)

type window struct {
	key        model.SeriesKey
	start, end time.Time
}

func parseWindow(r *http.Request) (window, error) {
	v := r.URL.Query()

	iso, err := model.ParseISO(v.Get("iso"))
	if err != nil {
		return window{}, &model.ValidationError{Field: "iso", Message: err.Error()}
	}
	market, err := model.ParseMarket(v.Get("market"))
	if err != nil {
		return window{}, &model.ValidationError{Field: "market", Message: err.Error()}
	}
	pt, err := model.ParsePriceType(v.Get("price_type"))
	if err != nil {
		return window{}, &model.ValidationError{Field: "price_type", Message: err.Error()}
	}
	loc := strings.TrimSpace(v.Get("location"))
	if loc == "" {
		return window{}, &model.ValidationError{Field: "location", Message: "is required"}
	}

	start, err := parseTime("start", v.Get("start"))
	if err != nil {
		return window{}, err
	}
	end, err := parseTime("end", v.Get("end"))
	if err != nil {
		return window{}, err
	}

	return window{
		key:   model.SeriesKey{ISO: iso, Market: market, PriceType: pt, Location: loc},
		start: start,
		end:   end,
	}, nil
}

// parseTime requires an explicit offset and returns the instant in UTC.
func parseTime(field, s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, &model.ValidationError{Field: field, Message: "is required"}
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, &model.ValidationError{Field: field, Message: fmt.Sprintf("%q is not RFC 3339 with an offset", s)}
	}
	return t.UTC(), nil
}

func parseResolution(r *http.Request) (time.Duration, error) {
	s := r.URL.Query().Get("resolution")
	if s == "" {
		return 0, &model.ValidationError{Field: "resolution", Message: "is required"}
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, &model.ValidationError{Field: "resolution", Message: fmt.Sprintf("%q is not a duration", s)}
	}
	if d <= 0 {
		return 0, &model.ValidationError{Field: "resolution", Message: "must be > 0"}
	}
	return d, nil
}

type errorJSON struct {
	Error     string `json:"error"`
	Kind      string `json:"kind"`
	Transient bool   `json:"transient,omitempty"`
}

// statusOf maps an error kind onto an HTTP status.
func statusOf(err error) (int, string) {
	switch {
	case errors.Is(err, model.ErrValidation):
		return http.StatusBadRequest, "validation"
	case errors.Is(err, model.ErrUnsupported):
		return http.StatusBadRequest, "unsupported"
	case errors.Is(err, model.ErrStorage):
		return http.StatusInternalServerError, "storage"
	case errors.Is(err, model.ErrFetch):
		return http.StatusBadGateway, "fetch"
	}
	return http.StatusInternalServerError, "internal"
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, kind := statusOf(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "path", r.URL.Path, "kind", kind, "error", err)
	} else {
		s.logger.Debug("request rejected", "path", r.URL.Path, "kind", kind, "error", err)
	}
	s.writeJSON(w, status, errorJSON{Error: err.Error(), Kind: kind, Transient: model.IsTransient(err)})
}
