// Package file implements the dataset store over a local directory of JSON
// files, the default backend for development and single-node deployments.
package file

import (
	"context"
	"os"
	"path/filepath"
	"sort"

	"github.com/Lossfunk/indiaml-tracker-sub001/internal/infrastructure/monitoring/logging"
	"github.com/Lossfunk/indiaml-tracker-sub001/internal/infrastructure/storage"
	"github.com/Lossfunk/indiaml-tracker-sub001/pkg/errors"
)

// Store reads datasets from a flat directory.  Files that do not follow the
// "<conference>-<year>.json" convention are ignored during listing.
type Store struct {
	dir    string
	logger logging.Logger
}

// New constructs a Store rooted at dir.  The directory must exist.
func New(dir string, log logging.Logger) (*Store, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeStorageError, "dataset directory not accessible").WithDetail(dir)
	}
	if !info.IsDir() {
		return nil, errors.New(errors.CodeStorageError, "dataset path is not a directory").WithDetail(dir)
	}
	return &Store{dir: dir, logger: log}, nil
}

// List implements storage.Store.
func (s *Store) List(ctx context.Context) ([]storage.DatasetKey, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(err, errors.CodeTimeout, "list cancelled")
	}

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeStorageError, "failed to read dataset directory")
	}

	keys := make([]storage.DatasetKey, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}
		key, ok := storage.ParseKey(entry.Name())
		if !ok {
			s.logger.Debug("skipping non-dataset file", logging.String("file", entry.Name()))
			continue
		}
		keys = append(keys, key)
	}

	sort.Slice(keys, func(i, j int) bool {
		return keys[i].Filename() < keys[j].Filename()
	})
	return keys, nil
}

// Get implements storage.Store.
func (s *Store) Get(ctx context.Context, key storage.DatasetKey) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(err, errors.CodeTimeout, "get cancelled")
	}

	path := filepath.Join(s.dir, key.Filename())
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, errors.New(errors.CodeDatasetNotFound, "dataset not found").WithDetail(key.String())
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeStorageError, "failed to read dataset file").WithDetail(path)
	}
	return data, nil
}
