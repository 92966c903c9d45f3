// Package events is a typed publish/subscribe registry for the sync core.
//
// Listeners are isolated from each other: a listener that returns an error
// or panics is logged and the fan-out continues with the next one.
package events

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/homekeeper/internal/client/models"
	"github.com/dmitrijs2005/homekeeper/internal/logging"
)

type Kind string

const (
	KindAuthChange     Kind = "authChange"
	KindDataChange     Kind = "dataChange"
	KindBackupComplete Kind = "backupComplete"
)

// Event is implemented by AuthChange, DataChange and BackupComplete.
type Event interface {
	Kind() Kind
}

// AuthChange is emitted on every login, register and logout. Identity is nil
// after logout.
type AuthChange struct {
	Identity *models.Identity
}

// DataChange carries the snapshot as it was persisted.
type DataChange struct {
	Snapshot *models.Snapshot
}

// BackupComplete reports the outcome of a push.
type BackupComplete struct {
	Success          bool
	Timestamp        time.Time
	CompressionRatio float64
	Message          string
	Err              error
}

func (AuthChange) Kind() Kind     { return KindAuthChange }
func (DataChange) Kind() Kind     { return KindDataChange }
func (BackupComplete) Kind() Kind { return KindBackupComplete }

type Listener func(ctx context.Context, ev Event) error

type ListenerID uint64

type entry struct {
	id ListenerID
	fn Listener
}

type Registry struct {
	log logging.Logger

	mu        sync.RWMutex
	next      ListenerID
	listeners map[Kind][]entry
}

func NewRegistry(log logging.Logger) *Registry {
	return &Registry{
		log:       log.With("module", "events"),
		listeners: make(map[Kind][]entry),
	}
}

// Add subscribes fn to events of kind. Listeners run in subscription order.
func (r *Registry) Add(kind Kind, fn Listener) ListenerID {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.next++
	r.listeners[kind] = append(r.listeners[kind], entry{id: r.next, fn: fn})
	return r.next
}

// Remove reports whether a listener was removed.
func (r *Registry) Remove(kind Kind, id ListenerID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	list := r.listeners[kind]
	for i, e := range list {
		if e.id == id {
			r.listeners[kind] = append(list[:i:i], list[i+1:]...)
			return true
		}
	}
	return false
}

func (r *Registry) Len(kind Kind) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.listeners[kind])
}

// Emit delivers ev synchronously to a snapshot of the current listeners and
// returns the number of listeners that failed.
func (r *Registry) Emit(ctx context.Context, ev Event) int {
	r.mu.RLock()
	list := make([]entry, len(r.listeners[ev.Kind()]))
	copy(list, r.listeners[ev.Kind()])
	r.mu.RUnlock()

	failed := 0
	for _, e := range list {
		if err := r.call(ctx, e.fn, ev); err != nil {
			failed++
			r.log.Error(ctx, "listener failed", "event", string(ev.Kind()), "listener", uint64(e.id), "error", err)
		}
	}
	return failed
}

func (r *Registry) call(ctx context.Context, fn Listener, ev Event) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("listener panic: %v", p)
		}
	}()
	return fn(ctx, ev)
}
