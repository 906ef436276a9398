package store

import (
	"context"
	"testing"

	"github.com/rickgao/pricecache/internal/config"
)

func TestOpen_File(t *testing.T) {
	cfg := &config.Config{
		Storage: config.StorageConfig{Backend: config.BackendFile, Dir: t.TempDir()},
	}

	s, closeFn, err := Open(context.Background(), cfg, nil)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer closeFn()

	if _, ok := s.(*FileStore); !ok {
		t.Errorf("Open() = %T, want *FileStore", s)
	}
}

func TestOpen_HotCache(t *testing.T) {
	cfg := &config.Config{
		Storage: config.StorageConfig{
			Backend:  config.BackendFile,
			Dir:      t.TempDir(),
			HotCache: config.HotCacheConfig{Enabled: true, Capacity: 8, Shards: 2, TTL: config.DefaultHotCacheTTL},
		},
	}

	s, closeFn, err := Open(context.Background(), cfg, nil)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer closeFn()

	if _, ok := s.(*CachedStore); !ok {
		t.Errorf("Open() = %T, want *CachedStore", s)
	}
}

func TestOpen_UnknownBackend(t *testing.T) {
	cfg := &config.Config{Storage: config.StorageConfig{Backend: "s3"}}
	if _, _, err := Open(context.Background(), cfg, nil); err == nil {
		t.Error("Open() expected error for unknown backend")
	}
}
