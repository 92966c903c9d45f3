// Package localstore owns the on-device snapshot.
//
// The snapshot is stored as one JSON value under a single key of a kv
// repository. Reads never fail because of the stored content: a value that
// does not parse goes through a textual repair pass and, failing that, is
// replaced by the default snapshot. Writes rejected for quota are retried
// with every collection cut to its configured limit, then once more with
// only the last few records per collection. Both recoveries are logged and
// counted.
package localstore

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/dmitrijs2005/homekeeper/internal/client/metrics"
	"github.com/dmitrijs2005/homekeeper/internal/client/models"
	"github.com/dmitrijs2005/homekeeper/internal/client/repositories/kv"
	"github.com/dmitrijs2005/homekeeper/internal/common"
	"github.com/dmitrijs2005/homekeeper/internal/logging"
)

const (
	DefaultKey             = "homekeeper.snapshot"
	DefaultCollectionLimit = 200
	LastResortLimit        = 5
)

// Options tunes a Store. Zero values select the defaults.
type Options struct {
	Key              string
	CollectionLimits map[string]int
	DefaultLimit     int
	LastResortLimit  int
	Metrics          metrics.Recorder
	NewID            func() string
}

type Store struct {
	repo    kv.Repository
	log     logging.Logger
	metrics metrics.Recorder

	key        string
	limits     map[string]int
	defLimit   int
	lastResort int
	newID      func() string

	mu sync.Mutex
}

func New(repo kv.Repository, log logging.Logger, opts Options) *Store {
	s := &Store{
		repo:       repo,
		log:        log.With("module", "localstore"),
		metrics:    opts.Metrics,
		key:        opts.Key,
		limits:     make(map[string]int, len(opts.CollectionLimits)),
		defLimit:   opts.DefaultLimit,
		lastResort: opts.LastResortLimit,
		newID:      opts.NewID,
	}
	for k, v := range opts.CollectionLimits {
		s.limits[k] = v
	}
	if s.metrics == nil {
		s.metrics = metrics.Noop()
	}
	if s.key == "" {
		s.key = DefaultKey
	}
	if s.defLimit <= 0 {
		s.defLimit = DefaultCollectionLimit
	}
	if s.lastResort <= 0 {
		s.lastResort = LastResortLimit
	}
	if s.newID == nil {
		s.newID = NewRecordID
	}
	return s
}

// NewRecordID returns a time-ordered unique id.
func NewRecordID() string {
	return uuid.Must(uuid.NewV7()).String()
}

// Get returns the current snapshot, bootstrapping or recovering it first
// when needed. Only a failing medium yields an error.
func (s *Store) Get(ctx context.Context) (*models.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(ctx)
}

// Set replaces the stored snapshot. Quota pressure is absorbed by the
// shrink policy; the error is non-nil only when even the last-resort write
// fails or the medium is broken.
func (s *Store) Set(ctx context.Context, snap *models.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.write(ctx, snap)
}

func (s *Store) GetCollection(ctx context.Context, name string) ([]models.Record, error) {
	snap, err := s.Get(ctx)
	if err != nil {
		return nil, err
	}
	return snap.Collection(name), nil
}

// SaveCollection replaces the named collection. Records without an id get
// one; duplicate ids are rejected.
func (s *Store) SaveCollection(ctx context.Context, name string, records []models.Record) error {
	if err := checkName(name); err != nil {
		return err
	}

	items := make([]models.Record, len(records))
	seen := make(map[string]struct{}, len(records))
	for i, r := range records {
		item := copyRecord(r)
		if item.ID() == "" {
			item["id"] = s.newID()
		}
		if _, dup := seen[item.ID()]; dup {
			return fmt.Errorf("save %s: id %q: %w", name, item.ID(), common.ErrDuplicateRecord)
		}
		seen[item.ID()] = struct{}{}
		items[i] = item
	}

	return s.mutate(ctx, func(snap *models.Snapshot) (bool, error) {
		snap.Collections[name] = items
		return true, nil
	})
}

// AddItem appends rec to the named collection, assigning an id when rec
// has none, and returns the stored record.
func (s *Store) AddItem(ctx context.Context, name string, rec models.Record) (models.Record, error) {
	if err := checkName(name); err != nil {
		return nil, err
	}

	item := copyRecord(rec)
	if item.ID() == "" {
		item["id"] = s.newID()
	}

	err := s.mutate(ctx, func(snap *models.Snapshot) (bool, error) {
		for _, r := range snap.Collections[name] {
			if r.ID() == item.ID() {
				return false, fmt.Errorf("add to %s: id %q: %w", name, item.ID(), common.ErrDuplicateRecord)
			}
		}
		snap.Collections[name] = append(snap.Collections[name], item)
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	return copyRecord(item), nil
}

// UpdateItem replaces the record with the given id and reports whether one
// was found. The stored record keeps id even if rec says otherwise.
func (s *Store) UpdateItem(ctx context.Context, name, id string, rec models.Record) (bool, error) {
	item := copyRecord(rec)
	item["id"] = id

	found := false
	err := s.mutate(ctx, func(snap *models.Snapshot) (bool, error) {
		records := snap.Collections[name]
		for i, r := range records {
			if r.ID() == id {
				records[i] = item
				found = true
				return true, nil
			}
		}
		return false, nil
	})
	return found, err
}

// DeleteItem removes the record with the given id and reports whether one
// was removed.
func (s *Store) DeleteItem(ctx context.Context, name, id string) (bool, error) {
	removed := false
	err := s.mutate(ctx, func(snap *models.Snapshot) (bool, error) {
		records := snap.Collections[name]
		for i, r := range records {
			if r.ID() == id {
				snap.Collections[name] = append(records[:i:i], records[i+1:]...)
				removed = true
				return true, nil
			}
		}
		return false, nil
	})
	return removed, err
}

func (s *Store) GetSettings(ctx context.Context) (map[string]any, error) {
	snap, err := s.Get(ctx)
	if err != nil {
		return nil, err
	}
	return snap.Settings, nil
}

// SaveSettings replaces the settings object.
func (s *Store) SaveSettings(ctx context.Context, settings map[string]any) error {
	c := copyRecord(settings)
	return s.mutate(ctx, func(snap *models.Snapshot) (bool, error) {
		snap.Settings = c
		return true, nil
	})
}

func (s *Store) UpdateLastBackup(ctx context.Context, t time.Time) error {
	return s.mutate(ctx, func(snap *models.Snapshot) (bool, error) {
		snap.SetLastBackup(t)
		return true, nil
	})
}

func (s *Store) GetLastBackup(ctx context.Context) (*time.Time, error) {
	snap, err := s.Get(ctx)
	if err != nil {
		return nil, err
	}
	return snap.LastBackup, nil
}

// ClearStorage deletes the stored value and writes a fresh default
// snapshot, which it returns.
func (s *Store) ClearStorage(ctx context.Context) (*models.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.repo.Delete(ctx, s.key); err != nil {
		return nil, fmt.Errorf("clear storage: %w", err)
	}
	return s.bootstrap(ctx)
}

// mutate loads the snapshot, applies fn and writes the result back when fn
// reports a change.
func (s *Store) mutate(ctx context.Context, fn func(snap *models.Snapshot) (bool, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap, err := s.load(ctx)
	if err != nil {
		return err
	}
	changed, err := fn(snap)
	if err != nil || !changed {
		return err
	}
	return s.write(ctx, snap)
}

func (s *Store) load(ctx context.Context) (*models.Snapshot, error) {
	raw, err := s.repo.Get(ctx, s.key)
	if err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}
	if raw == nil {
		return s.bootstrap(ctx)
	}

	snap, perr := parse(raw)
	if perr == nil {
		return snap, nil
	}

	if fixed := repair(raw); len(fixed) > 0 {
		if snap, err := parse(fixed); err == nil {
			s.metrics.IncCorruptionRepaired()
			s.log.Warn(ctx, "stored snapshot repaired", "error", perr, "records", snap.RecordCount())
			if err := s.write(ctx, snap); err != nil {
				return nil, err
			}
			return snap, nil
		}
	}

	s.metrics.IncCorruptionReset()
	s.log.Warn(ctx, "stored snapshot unrecoverable, resetting to defaults", "error", perr, "bytes", len(raw))

	// keep the broken value around for diagnostics, if it fits
	if err := s.repo.Set(ctx, s.corruptKey(), raw); err != nil {
		s.log.Warn(ctx, "could not keep corrupted snapshot", "error", err)
	}

	return s.bootstrap(ctx)
}

func (s *Store) bootstrap(ctx context.Context) (*models.Snapshot, error) {
	snap := models.NewDefaultSnapshot()
	if err := s.write(ctx, snap); err != nil {
		return nil, fmt.Errorf("bootstrap: %w", err)
	}
	s.metrics.IncBootstrap()
	s.log.Info(ctx, "default snapshot written")
	return snap, nil
}

func (s *Store) write(ctx context.Context, snap *models.Snapshot) error {
	err := s.put(ctx, snap)
	if !errors.Is(err, common.ErrQuotaExceeded) {
		return err
	}

	// user records outrank the diagnostics copy
	if s.dropCorruptCopy(ctx) {
		err = s.put(ctx, snap)
		if !errors.Is(err, common.ErrQuotaExceeded) {
			return err
		}
	}

	s.metrics.IncQuotaShrink()
	shrunk, dropped := snap.KeepRecent(s.limitFor)
	s.recordDropped(ctx, "quota shrink", dropped)

	err = s.put(ctx, shrunk)
	if !errors.Is(err, common.ErrQuotaExceeded) {
		return err
	}

	s.metrics.IncLastResortWrite()
	minimal, dropped := shrunk.KeepRecent(func(string) int { return s.lastResort })
	s.recordDropped(ctx, "last resort", dropped)

	if err := s.put(ctx, minimal); err != nil {
		s.log.Error(ctx, "last resort write failed", "error", err)
		return fmt.Errorf("last resort write: %w", err)
	}
	return nil
}

// dropCorruptCopy deletes the kept corrupted value and reports whether
// there was one.
func (s *Store) dropCorruptCopy(ctx context.Context) bool {
	raw, err := s.repo.Get(ctx, s.corruptKey())
	if err != nil || raw == nil {
		return false
	}
	if err := s.repo.Delete(ctx, s.corruptKey()); err != nil {
		s.log.Warn(ctx, "could not drop corrupted snapshot copy", "error", err)
		return false
	}
	s.log.Warn(ctx, "corrupted snapshot copy dropped to free storage", "bytes", len(raw))
	return true
}

func (s *Store) put(ctx context.Context, snap *models.Snapshot) error {
	b, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	return s.repo.Set(ctx, s.key, b)
}

func (s *Store) recordDropped(ctx context.Context, stage string, dropped map[string]int) {
	total := 0
	for name, n := range dropped {
		s.metrics.AddRecordsDropped(name, n)
		total += n
	}
	s.log.Warn(ctx, "snapshot shrunk to fit storage quota", "stage", stage, "dropped", total, "by_collection", dropped)
}

func (s *Store) limitFor(name string) int {
	if n, ok := s.limits[name]; ok && n > 0 {
		return n
	}
	return s.defLimit
}

func (s *Store) corruptKey() string {
	return s.key + ".corrupt"
}

func parse(raw []byte) (*models.Snapshot, error) {
	var snap models.Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrCorrupted, err)
	}
	return &snap, nil
}

func checkName(name string) error {
	if name == "" {
		return fmt.Errorf("empty collection name: %w", common.ErrValidation)
	}
	if models.IsReservedName(name) {
		return fmt.Errorf("collection %q: %w", name, common.ErrReservedCollection)
	}
	return nil
}

func copyRecord(r map[string]any) models.Record {
	return models.Record(r).Clone()
}
