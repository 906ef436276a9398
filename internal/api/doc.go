// Package api provides the GridStatus REST client used as the upstream fetcher.
//
// Endpoint:
//   - GET {base}/datasets/{dataset}/query
//
// Results are paged; the client follows meta.hasNextPage until the window is
// exhausted. Requests authenticate with the x-api-key header.
package api
