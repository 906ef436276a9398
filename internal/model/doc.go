// Package model defines shared data types used across the price cache.
//
// Conventions:
//   - Timestamps: time.Time normalized to UTC
//   - Windows and slots: half-open [start, end)
//   - Values: *float64, nil means absent (never persisted)
//   - Keys: SeriesKey is comparable and usable as a map key
package model
