package model

import (
	"errors"
	"fmt"
)

// Sentinels for errors.Is checks across packages.
var (
	ErrValidation  = errors.New("validation failed")
	ErrUnsupported = errors.New("unsupported combination")
	ErrStorage     = errors.New("storage failure")
	ErrFetch       = errors.New("fetch failure")
)

// ValidationError reports a malformed request. It is returned before any storage or
// network access.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// UnsupportedCombinationError reports a key with no upstream dataset. Never retried.
type UnsupportedCombinationError struct {
	ISO       ISO
	Market    Market
	PriceType PriceType
}

func (e *UnsupportedCombinationError) Error() string {
	return fmt.Sprintf("no upstream dataset for iso=%s market=%s price_type=%s", e.ISO, e.Market, e.PriceType)
}

func (e *UnsupportedCombinationError) Is(target error) bool { return target == ErrUnsupported }

// StorageError reports persisted content that exists but cannot be read or written.
type StorageError struct {
	Op  string // "load" or "save"
	Key string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s %s: %v", e.Op, e.Key, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

func (e *StorageError) Is(target error) bool { return target == ErrStorage }

// FetchError reports a failed upstream call. Transient errors (network, rate limit,
// upstream 5xx) may be retried; permanent ones (auth, config) may not.
type FetchError struct {
	Key       string
	Range     MissingRange
	Transient bool
	Err       error
}

func (e *FetchError) Error() string {
	kind := "permanent"
	if e.Transient {
		kind = "transient"
	}
	return fmt.Sprintf("fetch %s %s (%s): %v", e.Key, e.Range, kind, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

func (e *FetchError) Is(target error) bool { return target == ErrFetch }

// IsTransient reports whether err wraps a transient FetchError.
func IsTransient(err error) bool {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe.Transient
	}
	return false
}
