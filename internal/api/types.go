package api

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// QueryResponse from GET /datasets/{dataset}/query
type QueryResponse struct {
	Data []Row     `json:"data"`
	Meta QueryMeta `json:"meta"`
}

// QueryMeta carries paging state.
type QueryMeta struct {
	Page        int  `json:"page"`
	Limit       *int `json:"limit"`
	HasNextPage bool `json:"hasNextPage"`
}

// Row is one record of a dataset. Columns vary by dataset.
type Row map[string]json.RawMessage

// Text returns the text value of col, or "" when absent or null.
func (r Row) Text(col string) (string, error) {
	raw, ok := r[col]
	if !ok || isNull(raw) {
		return "", nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", fmt.Errorf("column %s: %w", col, err)
	}
	return s, nil
}

// Float returns the numeric value of col, or nil when absent, null or not finite.
// Numbers encoded as strings are accepted.
func (r Row) Float(col string) (*float64, error) {
	raw, ok := r[col]
	if !ok || isNull(raw) {
		return nil, nil
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return &f, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("column %s: not a number: %s", col, raw)
	}
	if s == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, fmt.Errorf("column %s: %w", col, err)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, nil
	}
	return &f, nil
}

func isNull(raw json.RawMessage) bool {
	return len(raw) == 0 || string(raw) == "null"
}

// DatasetQuery selects rows of one dataset.
type DatasetQuery struct {
	Dataset      string
	Start        string // RFC 3339, inclusive
	End          string // RFC 3339, exclusive
	FilterColumn string
	FilterValue  string
	Limit        int
}
