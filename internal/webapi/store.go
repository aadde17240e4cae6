// Package webapi exposes the viewer's REST API: grouped results with
// derived metrics, dashboard aggregation, evaluation mutation, export and
// import, and a change-event stream for re-rendering clients.
package webapi

import (
	"errors"
	"log/slog"
	"sync"

	"github.com/visionrag/ragview/internal/grouping"
	"github.com/visionrag/ragview/internal/models"
	"github.com/visionrag/ragview/internal/scorestore"
)

// ErrGroupNotFound is returned when a group ID does not match any loaded
// grouped unit.
var ErrGroupNotFound = errors.New("group not found")

// DataStore owns the viewer's two pieces of shared state: the immutable
// loaded record set (with its derived grouping) and the scoring store. A
// new load replaces the record set wholesale; the grouping is recomputed at
// that point and never mutated afterwards.
type DataStore struct {
	mu      sync.RWMutex
	records []*models.RawRecord
	units   []*models.GroupedUnit
	byID    map[string]*models.GroupedUnit

	evals  *scorestore.Store
	logger *slog.Logger
}

// NewDataStore creates an empty DataStore over the given scoring store.
func NewDataStore(evals *scorestore.Store, logger *slog.Logger) *DataStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &DataStore{
		byID:   make(map[string]*models.GroupedUnit),
		evals:  evals,
		logger: logger,
	}
}

// ReplaceRecords swaps in a freshly loaded record set and regroups it.
func (ds *DataStore) ReplaceRecords(records []*models.RawRecord) {
	res := grouping.Group(records)
	if res.Overwrites > 0 {
		// Last write wins per slot; surfaced so duplicate upstream tuples
		// don't go unnoticed.
		ds.logger.Warn("duplicate records for same key and context mode",
			"overwrites", res.Overwrites)
	}

	byID := make(map[string]*models.GroupedUnit, len(res.Units))
	for _, unit := range res.Units {
		byID[unit.GroupID] = unit
	}

	ds.mu.Lock()
	ds.records = records
	ds.units = res.Units
	ds.byID = byID
	ds.mu.Unlock()
}

// Records returns the loaded raw records in load order.
func (ds *DataStore) Records() []*models.RawRecord {
	ds.mu.RLock()
	defer ds.mu.RUnlock()
	out := make([]*models.RawRecord, len(ds.records))
	copy(out, ds.records)
	return out
}

// Units returns the grouped units in first-seen key order.
func (ds *DataStore) Units() []*models.GroupedUnit {
	ds.mu.RLock()
	defer ds.mu.RUnlock()
	out := make([]*models.GroupedUnit, len(ds.units))
	copy(out, ds.units)
	return out
}

// FindGroup looks up a grouped unit by its ID.
func (ds *DataStore) FindGroup(id string) (*models.GroupedUnit, error) {
	ds.mu.RLock()
	defer ds.mu.RUnlock()
	unit, ok := ds.byID[id]
	if !ok {
		return nil, ErrGroupNotFound
	}
	return unit, nil
}

// Evals returns the scoring store.
func (ds *DataStore) Evals() *scorestore.Store {
	return ds.evals
}
