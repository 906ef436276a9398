// Package warmer keeps recent windows of configured series in the cache.
//
// The Warmer:
//   - Requests a trailing lookback window for every configured key on an interval
//   - Runs one cycle immediately on start
//   - Bounds concurrent keys; a failing key is logged and retried next cycle
package warmer
