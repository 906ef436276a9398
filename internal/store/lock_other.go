//go:build !unix

package store

// lockFile is a no-op where flock is unavailable; in-process callers are already
// serialized per key.
func lockFile(string, bool) (func(), error) {
	return func() {}, nil
}
