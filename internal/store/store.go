package store

import (
	"context"

	"github.com/rickgao/pricecache/internal/model"
)

// Store loads and saves whole series. It is the only I/O boundary to durable storage.
type Store interface {
	// Load returns the persisted series for key, or an empty series if none exists.
	Load(ctx context.Context, key model.SeriesKey) (*model.Series, error)

	// Save replaces the persisted series for s.Key.
	Save(ctx context.Context, s *model.Series) error
}

// Pinger is implemented by stores backed by a remote service.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Ping checks s if it supports health checks.
func Ping(ctx context.Context, s Store) error {
	if p, ok := s.(Pinger); ok {
		return p.Ping(ctx)
	}
	return nil
}

func loadError(key model.SeriesKey, err error) error {
	return &model.StorageError{Op: "load", Key: key.String(), Err: err}
}

func saveError(key model.SeriesKey, err error) error {
	return &model.StorageError{Op: "save", Key: key.String(), Err: err}
}
