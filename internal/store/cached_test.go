package store

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rickgao/pricecache/internal/model"
)

// memStore is an in-memory Store that counts calls.
type memStore struct {
	mu      sync.Mutex
	data    map[model.SeriesKey]*model.Series
	loads   int
	saves   int
	saveErr error
}

func newMemStore() *memStore {
	return &memStore{data: make(map[model.SeriesKey]*model.Series)}
}

func (m *memStore) Load(_ context.Context, key model.SeriesKey) (*model.Series, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loads++
	if s, ok := m.data[key]; ok {
		return s.Clone(), nil
	}
	return model.NewSeries(key), nil
}

func (m *memStore) Save(_ context.Context, s *model.Series) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saves++
	if m.saveErr != nil {
		return m.saveErr
	}
	m.data[s.Key] = s.Clone()
	return nil
}

func TestCachedStore_ReadThrough(t *testing.T) {
	mem := newMemStore()
	mem.data[testKey] = hourSeries(0, 1)
	c := NewCachedStore(mem, 10, 1, time.Minute, nil)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		s, err := c.Load(ctx, testKey)
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if s.Len() != 2 {
			t.Fatalf("Len() = %d, want 2", s.Len())
		}
	}

	if mem.loads != 1 {
		t.Errorf("backend loads = %d, want 1", mem.loads)
	}
	stats := c.Stats()
	if stats.Hits != 2 || stats.Misses != 1 {
		t.Errorf("Stats() = %+v, want 2 hits and 1 miss", stats)
	}
}

func TestCachedStore_ReturnsCopies(t *testing.T) {
	mem := newMemStore()
	mem.data[testKey] = hourSeries(0)
	c := NewCachedStore(mem, 10, 1, time.Minute, nil)
	ctx := context.Background()

	s, err := c.Load(ctx, testKey)
	if err != nil {
		t.Fatal(err)
	}
	*s.Samples[0].Value = 999
	s.Samples = append(s.Samples, hourSample(1, 1))

	again, err := c.Load(ctx, testKey)
	if err != nil {
		t.Fatal(err)
	}
	if again.Len() != 1 || *again.Samples[0].Value != 0.5 {
		t.Errorf("cached series mutated by caller: %+v", again.Samples)
	}
}

func TestCachedStore_WriteThrough(t *testing.T) {
	mem := newMemStore()
	c := NewCachedStore(mem, 10, 1, time.Minute, nil)
	ctx := context.Background()

	if err := c.Save(ctx, hourSeries(0, 1, 2)); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if mem.saves != 1 {
		t.Errorf("backend saves = %d, want 1", mem.saves)
	}

	s, err := c.Load(ctx, testKey)
	if err != nil {
		t.Fatal(err)
	}
	if s.Len() != 3 {
		t.Errorf("Len() = %d, want 3", s.Len())
	}
	if mem.loads != 0 {
		t.Errorf("backend loads = %d, want 0 after write-through", mem.loads)
	}
}

func TestCachedStore_SaveFailureDropsEntry(t *testing.T) {
	mem := newMemStore()
	mem.data[testKey] = hourSeries(0)
	c := NewCachedStore(mem, 10, 1, time.Minute, nil)
	ctx := context.Background()

	if _, err := c.Load(ctx, testKey); err != nil {
		t.Fatal(err)
	}

	mem.saveErr = saveError(testKey, errors.New("disk full"))
	if err := c.Save(ctx, hourSeries(0, 1)); !errors.Is(err, model.ErrStorage) {
		t.Fatalf("Save() error = %v, want ErrStorage", err)
	}

	s, err := c.Load(ctx, testKey)
	if err != nil {
		t.Fatal(err)
	}
	if s.Len() != 1 {
		t.Errorf("Len() = %d, want durable state of 1 sample", s.Len())
	}
	if mem.loads != 2 {
		t.Errorf("backend loads = %d, want 2", mem.loads)
	}
}

func TestPing(t *testing.T) {
	if err := Ping(context.Background(), newMemStore()); err != nil {
		t.Errorf("Ping() on store without health check = %v, want nil", err)
	}
}
