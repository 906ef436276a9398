package store

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/rickgao/pricecache/internal/model"
)

// FileStore keeps one CSV file per series in a single directory.
type FileStore struct {
	dir    string
	logger *slog.Logger
}

// NewFileStore creates the directory if needed and returns a store rooted at it.
func NewFileStore(dir string, logger *slog.Logger) (*FileStore, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create storage dir: %w", err)
	}
	return &FileStore{dir: dir, logger: logger}, nil
}

// Dir returns the storage directory.
func (s *FileStore) Dir() string {
	return s.dir
}

// Path returns the file backing key.
func (s *FileStore) Path(key model.SeriesKey) string {
	return filepath.Join(s.dir, key.FileName())
}

// Load reads the series for key. A missing file yields an empty series.
func (s *FileStore) Load(ctx context.Context, key model.SeriesKey) (*model.Series, error) {
	if err := ctx.Err(); err != nil {
		return nil, loadError(key, err)
	}
	path := s.Path(key)

	// Keys never saved have no lock sidecar either.
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return model.NewSeries(key), nil
	}
	if err != nil {
		return nil, loadError(key, err)
	}
	defer f.Close()

	unlock, err := lockFile(path, false)
	if err != nil {
		return nil, loadError(key, err)
	}
	defer unlock()

	series, err := DecodeCSV(bufio.NewReader(f), key)
	if err != nil {
		return nil, loadError(key, fmt.Errorf("%s: %w", path, err))
	}

	s.logger.Debug("loaded series", "key", key.String(), "rows", series.Len(), "path", path)
	return series, nil
}

// Save writes the series to a temp file in the same directory and renames it over
// the previous file, so readers see either the old or the new content.
func (s *FileStore) Save(ctx context.Context, series *model.Series) error {
	key := series.Key
	if err := ctx.Err(); err != nil {
		return saveError(key, err)
	}
	path := s.Path(key)

	unlock, err := lockFile(path, true)
	if err != nil {
		return saveError(key, err)
	}
	defer unlock()

	if err := writeAtomic(path, series); err != nil {
		return saveError(key, err)
	}

	s.logger.Debug("saved series", "key", key.String(), "rows", series.PresentCount(), "path", path)
	return nil
}

func writeAtomic(path string, series *model.Series) (err error) {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	w := bufio.NewWriter(tmp)
	if err = EncodeCSV(w, series); err != nil {
		return err
	}
	if err = w.Flush(); err != nil {
		return fmt.Errorf("flush: %w", err)
	}
	if err = tmp.Sync(); err != nil {
		return fmt.Errorf("sync: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("close: %w", err)
	}
	if err = os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("chmod: %w", err)
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename: %w", err)
	}

	syncDir(dir)
	return nil
}

// syncDir persists the rename. Not every filesystem supports fsync on a directory.
func syncDir(dir string) {
	d, err := os.Open(dir)
	if err != nil {
		return
	}
	_ = d.Sync()
	d.Close()
}
