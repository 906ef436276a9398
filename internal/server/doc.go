// Package server exposes the range cache over HTTP.
//
// Endpoints:
//   - GET /health        store connectivity
//   - GET /debug/stats   cache counters
//   - GET /series        raw samples of one window
//   - GET /prices        a window resampled to a fixed resolution
//
// Query parameters iso, market, price_type, location, start and end are shared by
// /series and /prices. Times are RFC 3339 with an explicit offset.
package server
