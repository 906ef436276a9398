// Package rangecache implements the read-through range cache over an upstream
// time series source.
//
// A Get walks a linear state machine:
//
//	Loaded -> GapComputed -> AllCovered -> Returned
//	Loaded -> GapComputed -> Fetching(i) -> Merged -> Persisted -> Returned
//
// and moves to Failed on any unrecovered error. Missing ranges are fetched one at
// a time in ascending order. Calls for the same key are serialized, and identical
// concurrent requests share a single execution.
package rangecache
