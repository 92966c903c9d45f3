// Package models defines the client-side data model: the Snapshot aggregate
// with its named collections of free-form records, and the identity and
// backup descriptors returned by the remote service.
package models

import (
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/goccy/go-json"

	"github.com/dmitrijs2005/homekeeper/internal/common"
)

// Reserved top-level keys of the persisted snapshot. Every other key is a
// collection.
const (
	KeySettings   = "settings"
	KeyLastBackup = "lastBackup"
)

// Record is one free-form item of a collection. The only field the core
// interprets is "id".
type Record map[string]any

// ID returns the record id. Numeric ids written by older clients are
// rendered without exponent; a missing id yields "".
func (r Record) ID() string {
	switch v := r["id"].(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case json.Number:
		return v.String()
	default:
		return ""
	}
}

// Clone returns a deep copy of r; a nil record yields an empty one.
func (r Record) Clone() Record {
	if r == nil {
		return Record{}
	}
	return Record(cloneMap(r))
}

// Snapshot is the whole of the user's local data.
type Snapshot struct {
	Collections map[string][]Record
	Settings    map[string]any

	// LastBackup is persisted in UTC at millisecond precision. A value set
	// through SetLastBackup survives encoding unchanged; one assigned
	// directly comes back normalized.
	LastBackup *time.Time
}

// DefaultCollections are created empty on bootstrap.
var DefaultCollections = []string{common.CollectionBills, common.CollectionAppointments}

// DefaultSettings returns a fresh copy of the bootstrap settings.
func DefaultSettings() map[string]any {
	return map[string]any{
		"theme":         "light",
		"currency":      "BRL",
		"notifications": true,
		"autoBackup":    true,
	}
}

// NewDefaultSnapshot returns the bootstrap snapshot.
func NewDefaultSnapshot() *Snapshot {
	s := &Snapshot{
		Collections: make(map[string][]Record, len(DefaultCollections)),
		Settings:    DefaultSettings(),
	}
	for _, name := range DefaultCollections {
		s.Collections[name] = []Record{}
	}
	return s
}

// IsReservedName reports whether name cannot be used as a collection.
func IsReservedName(name string) bool {
	return name == KeySettings || name == KeyLastBackup
}

// Collection returns the named collection, or an empty slice.
func (s *Snapshot) Collection(name string) []Record {
	if c, ok := s.Collections[name]; ok {
		return c
	}
	return []Record{}
}

// CollectionNames returns the collection names in lexical order.
func (s *Snapshot) CollectionNames() []string {
	names := make([]string, 0, len(s.Collections))
	for name := range s.Collections {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// RecordCount is the number of records across all collections.
func (s *Snapshot) RecordCount() int {
	n := 0
	for _, c := range s.Collections {
		n += len(c)
	}
	return n
}

// SetLastBackup stores t in UTC with millisecond precision, the resolution
// of the persisted ISO-8601 form.
func (s *Snapshot) SetLastBackup(t time.Time) {
	v := t.UTC().Truncate(time.Millisecond)
	s.LastBackup = &v
}

// Clone returns a deep copy.
func (s *Snapshot) Clone() *Snapshot {
	c := &Snapshot{
		Collections: make(map[string][]Record, len(s.Collections)),
		Settings:    cloneMap(s.Settings),
	}
	for name, records := range s.Collections {
		cp := make([]Record, len(records))
		for i, r := range records {
			cp[i] = Record(cloneMap(r))
		}
		c.Collections[name] = cp
	}
	if s.LastBackup != nil {
		t := *s.LastBackup
		c.LastBackup = &t
	}
	return c
}

// KeepRecent returns a copy in which every collection holds at most
// limit(name) of its most recently inserted records, and the number of
// records dropped per collection.
func (s *Snapshot) KeepRecent(limit func(name string) int) (*Snapshot, map[string]int) {
	c := s.Clone()
	dropped := make(map[string]int)
	for name, records := range c.Collections {
		n := limit(name)
		if n < 0 {
			n = 0
		}
		if len(records) > n {
			dropped[name] = len(records) - n
			c.Collections[name] = records[len(records)-n:]
		}
	}
	return c, dropped
}

// MarshalJSON writes the flat persisted form
// {"<collection>": [...], "settings": {...}, "lastBackup": ISO|null}.
func (s Snapshot) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(s.Collections)+2)
	for name, records := range s.Collections {
		if IsReservedName(name) {
			return nil, fmt.Errorf("collection %q: %w", name, common.ErrReservedCollection)
		}
		if records == nil {
			records = []Record{}
		}
		out[name] = records
	}

	settings := s.Settings
	if settings == nil {
		settings = map[string]any{}
	}
	out[KeySettings] = settings

	if s.LastBackup != nil {
		out[KeyLastBackup] = s.LastBackup.UTC().Truncate(time.Millisecond).Format(time.RFC3339Nano)
	} else {
		out[KeyLastBackup] = nil
	}

	return json.Marshal(out)
}

func (s *Snapshot) UnmarshalJSON(b []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	if raw == nil {
		return fmt.Errorf("snapshot is null: %w", common.ErrCorrupted)
	}

	res := Snapshot{Collections: make(map[string][]Record, len(raw))}

	for key, value := range raw {
		switch key {
		case KeySettings:
			var settings map[string]any
			if err := json.Unmarshal(value, &settings); err != nil {
				return fmt.Errorf("settings: %w", err)
			}
			res.Settings = settings
		case KeyLastBackup:
			var ts *string
			if err := json.Unmarshal(value, &ts); err != nil {
				return fmt.Errorf("lastBackup: %w", err)
			}
			if ts != nil && *ts != "" {
				t, err := time.Parse(time.RFC3339Nano, *ts)
				if err != nil {
					return fmt.Errorf("lastBackup: %w", err)
				}
				res.SetLastBackup(t)
			}
		default:
			var records []Record
			if err := json.Unmarshal(value, &records); err != nil {
				return fmt.Errorf("collection %q: %w", key, err)
			}
			if records == nil {
				records = []Record{}
			}
			for i, r := range records {
				if r == nil {
					return fmt.Errorf("collection %q item %d is not an object: %w", key, i, common.ErrCorrupted)
				}
			}
			res.Collections[key] = records
		}
	}

	if res.Settings == nil {
		res.Settings = map[string]any{}
	}

	*s = res
	return nil
}

func cloneMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	c := make(map[string]any, len(m))
	for k, v := range m {
		c[k] = cloneValue(v)
	}
	return c
}

func cloneValue(v any) any {
	switch x := v.(type) {
	case map[string]any:
		return cloneMap(x)
	case Record:
		return Record(cloneMap(x))
	case []any:
		c := make([]any, len(x))
		for i, e := range x {
			c[i] = cloneValue(e)
		}
		return c
	default:
		return x
	}
}
