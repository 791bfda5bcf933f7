// Package storage abstracts where dataset files live.  Datasets are
// immutable JSON artifacts named "<conference>-<year>.json", produced by an
// external data-preparation pipeline; the service only ever reads them.
package storage

import (
	"context"
	"fmt"
	"strconv"
	"strings"
)

// DatasetKey identifies one conference/year dataset.
type DatasetKey struct {
	Conference string
	Year       int
}

// String renders the canonical object name stem, e.g. "iclr-2025".
func (k DatasetKey) String() string {
	return fmt.Sprintf("%s-%d", strings.ToLower(k.Conference), k.Year)
}

// Filename renders the canonical object name, e.g. "iclr-2025.json".
func (k DatasetKey) Filename() string {
	return k.String() + ".json"
}

// ParseKey recovers a DatasetKey from an object or file name.  The year is
// the segment after the last hyphen, so conference names may themselves
// contain hyphens.  Returns false for names that do not match the
// "<conference>-<year>.json" convention.
func ParseKey(name string) (DatasetKey, bool) {
	name = strings.TrimSuffix(name, ".json")
	idx := strings.LastIndex(name, "-")
	if idx <= 0 || idx == len(name)-1 {
		return DatasetKey{}, false
	}
	year, err := strconv.Atoi(name[idx+1:])
	if err != nil {
		return DatasetKey{}, false
	}
	return DatasetKey{Conference: name[:idx], Year: year}, true
}

// Store lists and fetches raw dataset documents.
type Store interface {
	// List returns the keys of every dataset present in the backend, in
	// lexical order of their object names.
	List(ctx context.Context) ([]DatasetKey, error)

	// Get returns the raw JSON document for key.  A missing dataset yields
	// an error satisfying errors.IsNotFound.
	Get(ctx context.Context, key DatasetKey) ([]byte, error)
}
