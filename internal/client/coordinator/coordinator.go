package coordinator

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/dmitrijs2005/homekeeper/internal/client/events"
	"github.com/dmitrijs2005/homekeeper/internal/client/models"
	"github.com/dmitrijs2005/homekeeper/internal/client/services"
	"github.com/dmitrijs2005/homekeeper/internal/common"
	"github.com/dmitrijs2005/homekeeper/internal/logging"
)

// ErrSessionEnded is reported for remote results that completed after the
// session they belonged to was closed. Such results are discarded.
var ErrSessionEnded = fmt.Errorf("session ended: %w", common.ErrUnauthenticated)

// State tells whether a Coordinator has a signed-in identity.
type State int

const (
	StateAnonymous State = iota
	StateAuthenticated
)

func (s State) String() string {
	if s == StateAuthenticated {
		return "authenticated"
	}
	return "anonymous"
}

// Coordinator owns the session and routes every data access through the
// local store, pushing to and pulling from the remote on the session's behalf.
type Coordinator struct {
	store  Store
	remote Remote
	events *events.Registry
	log    logging.Logger
	opts   Options

	mu       sync.Mutex
	epoch    uint64
	identity *models.Identity
	stop     context.CancelFunc
	wg       sync.WaitGroup

	pushes singleflight.Group
}

// New returns an anonymous Coordinator. A nil reg gets a fresh registry.
func New(store Store, remote Remote, reg *events.Registry, log logging.Logger, opts Options) *Coordinator {
	if reg == nil {
		reg = events.NewRegistry(log)
	}
	return &Coordinator{
		store:  store,
		remote: remote,
		events: reg,
		log:    log.With("module", "coordinator"),
		opts:   opts.withDefaults(),
	}
}

// AddListener subscribes fn to events of kind.
func (c *Coordinator) AddListener(kind events.Kind, fn events.Listener) events.ListenerID {
	return c.events.Add(kind, fn)
}

// RemoveListener reports whether the listener was subscribed.
func (c *Coordinator) RemoveListener(kind events.Kind, id events.ListenerID) bool {
	return c.events.Remove(kind, id)
}

// State returns the current session state.
func (c *Coordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.identity == nil {
		return StateAnonymous
	}
	return StateAuthenticated
}

// IsAuthenticated reports whether a session is open.
func (c *Coordinator) IsAuthenticated() bool {
	return c.State() == StateAuthenticated
}

// CurrentIdentity returns a copy of the identity, or nil when anonymous.
func (c *Coordinator) CurrentIdentity() *models.Identity {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.identity == nil {
		return nil
	}
	id := *c.identity
	return &id
}

// session returns the current epoch, or false when anonymous.
func (c *Coordinator) session() (uint64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.epoch, c.identity != nil
}

func (c *Coordinator) current(epoch uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.identity != nil && c.epoch == epoch
}

func (c *Coordinator) begin(id models.Identity) uint64 {
	c.mu.Lock()
	stop := c.stop
	c.stop = nil
	c.epoch++
	c.identity = &id
	epoch := c.epoch
	c.mu.Unlock()

	if stop != nil {
		stop()
	}
	return epoch
}

func (c *Coordinator) end() {
	c.mu.Lock()
	stop := c.stop
	c.stop = nil
	c.epoch++
	c.identity = nil
	c.mu.Unlock()

	if stop != nil {
		stop()
	}
}

// Login authenticates, reconciles local and remote data and starts the
// auto-backup schedule. Reconciliation problems are logged and do not fail
// the login.
func (c *Coordinator) Login(ctx context.Context, email, password string) services.Result[models.Identity] {
	res := c.remote.Login(ctx, email, password)
	if !res.OK {
		return res
	}

	epoch := c.begin(res.Value)
	c.log.Info(ctx, "authenticated", "user", res.Value.ID)
	c.events.Emit(ctx, events.AuthChange{Identity: c.CurrentIdentity()})

	c.reconcile(ctx, epoch)
	c.startSchedule(epoch)
	return res
}

// Register creates the account, hands the pre-registration snapshot to the
// Migrator and then proceeds as Login does.
func (c *Coordinator) Register(ctx context.Context, email, password, displayName string) services.Result[models.Identity] {
	res := c.remote.Register(ctx, email, password, displayName)
	if !res.OK {
		return res
	}

	epoch := c.begin(res.Value)
	c.log.Info(ctx, "registered", "user", res.Value.ID)
	c.events.Emit(ctx, events.AuthChange{Identity: c.CurrentIdentity()})

	c.migrate(ctx, epoch, res.Value)
	c.reconcile(ctx, epoch)
	c.startSchedule(epoch)
	return res
}

func (c *Coordinator) migrate(ctx context.Context, epoch uint64, id models.Identity) {
	if c.opts.Migrator == nil {
		return
	}
	snap, err := c.store.Get(ctx)
	if err != nil {
		c.log.Error(ctx, "migration skipped", "error", err)
		return
	}
	if err := c.opts.Migrator(ctx, id, snap); err != nil {
		c.log.Error(ctx, "migration failed", "user", id.ID, "error", err)
		return
	}
	if !c.current(epoch) {
		return
	}
	if err := c.store.Set(ctx, snap); err != nil {
		c.log.Error(ctx, "migration result not saved", "error", err)
		return
	}
	c.emitData(ctx)
}

// Logout stops the schedule and discards results still in flight. Local
// data is kept.
func (c *Coordinator) Logout(ctx context.Context) services.Result[struct{}] {
	wasAuthenticated := c.IsAuthenticated()
	c.end()

	res := c.remote.Logout(ctx)
	if wasAuthenticated {
		c.log.Info(ctx, "logged out")
		c.events.Emit(ctx, events.AuthChange{})
	}
	return res
}

func (c *Coordinator) reconcile(ctx context.Context, epoch uint64) {
	hist := c.remote.History(ctx, 1)
	if !hist.OK {
		c.log.Warn(ctx, "remote history unavailable, skipping reconciliation", "error", hist.Err)
		return
	}
	snap, err := c.store.Get(ctx)
	if err != nil {
		c.log.Error(ctx, "local snapshot unavailable, skipping reconciliation", "error", err)
		return
	}

	hasRemote := len(hist.Value) > 0
	hasLocal := snap.RecordCount() > 0

	switch {
	case hasRemote && hasLocal:
		id := c.CurrentIdentity()
		if id == nil {
			return
		}
		choice := c.resolve(ctx, Conflict{Identity: *id, LocalRecords: snap.RecordCount(), Latest: hist.Value[0]})
		switch choice {
		case ChoiceCloud:
			c.restore(ctx, epoch, c.remote.PullLatest)
		case ChoiceLocal:
			c.push(ctx, epoch)
		default:
			c.log.Warn(ctx, "conflict left unresolved", "choice", string(choice))
		}
	case hasRemote:
		c.restore(ctx, epoch, c.remote.PullLatest)
	case hasLocal:
		c.push(ctx, epoch)
	}
}

func (c *Coordinator) resolve(ctx context.Context, conflict Conflict) Choice {
	if c.opts.Resolver == nil {
		return ""
	}
	choice, err := c.opts.Resolver(ctx, conflict)
	if err != nil {
		c.log.Warn(ctx, "conflict resolver failed", "error", err)
		return ""
	}
	return choice
}

// BackupNow pushes the local snapshot. A push already in flight is joined
// instead of starting a second one.
func (c *Coordinator) BackupNow(ctx context.Context) services.Result[models.PushReceipt] {
	epoch, ok := c.session()
	if !ok {
		res := services.Fail[models.PushReceipt](common.ErrUnauthenticated)
		c.events.Emit(ctx, events.BackupComplete{Message: res.Message, Err: res.Err})
		return res
	}
	return c.push(ctx, epoch)
}

func (c *Coordinator) push(ctx context.Context, epoch uint64) services.Result[models.PushReceipt] {
	v, _, _ := c.pushes.Do(strconv.FormatUint(epoch, 10), func() (any, error) {
		return c.doPush(ctx, epoch), nil
	})
	return v.(services.Result[models.PushReceipt])
}

func (c *Coordinator) doPush(ctx context.Context, epoch uint64) services.Result[models.PushReceipt] {
	snap, err := c.store.Get(ctx)
	if err != nil {
		res := services.Fail[models.PushReceipt](err)
		c.events.Emit(ctx, events.BackupComplete{Message: res.Message, Err: err})
		return res
	}

	if !c.current(epoch) {
		c.log.Info(ctx, "session closed before push, not sending")
		return services.Fail[models.PushReceipt](ErrSessionEnded)
	}

	res := c.remote.Push(ctx, snap)
	if !c.current(epoch) {
		c.log.Info(ctx, "discarding push result of a closed session")
		return services.Fail[models.PushReceipt](ErrSessionEnded)
	}

	if !res.OK {
		c.events.Emit(ctx, events.BackupComplete{Message: res.Message, Err: res.Err})
		return res
	}

	if err := c.store.UpdateLastBackup(ctx, c.opts.Now()); err != nil {
		c.log.Error(ctx, "failed to record last backup", "error", err)
	}
	c.events.Emit(ctx, events.BackupComplete{
		Success:          true,
		Timestamp:        res.Value.Timestamp,
		CompressionRatio: res.Value.CompressionRatio,
	})
	return res
}

// RestoreLatest replaces the local snapshot with the account's most recent
// backup.
func (c *Coordinator) RestoreLatest(ctx context.Context) services.Result[*models.Snapshot] {
	epoch, ok := c.session()
	if !ok {
		return services.Fail[*models.Snapshot](common.ErrUnauthenticated)
	}
	return c.restore(ctx, epoch, c.remote.PullLatest)
}

// RestoreFromID replaces the local snapshot with the given backup, which
// must belong to the signed-in account.
func (c *Coordinator) RestoreFromID(ctx context.Context, backupID string) services.Result[*models.Snapshot] {
	epoch, ok := c.session()
	if !ok {
		return services.Fail[*models.Snapshot](common.ErrUnauthenticated)
	}
	return c.restore(ctx, epoch, func(ctx context.Context) services.Result[*models.Snapshot] {
		return c.remote.PullByID(ctx, backupID)
	})
}

// restore pulls on behalf of epoch and overwrites the local snapshot with
// the result, as is. Nothing is pulled or applied once epoch has ended.
func (c *Coordinator) restore(ctx context.Context, epoch uint64, pull func(context.Context) services.Result[*models.Snapshot]) services.Result[*models.Snapshot] {
	if !c.current(epoch) {
		c.log.Info(ctx, "session closed before pull, not sending")
		return services.Fail[*models.Snapshot](ErrSessionEnded)
	}

	res := pull(ctx)
	if !c.current(epoch) {
		c.log.Info(ctx, "discarding restore result of a closed session")
		return services.Fail[*models.Snapshot](ErrSessionEnded)
	}
	if !res.OK {
		c.log.Warn(ctx, "restore failed", "error", res.Err)
		return res
	}

	snap := res.Value
	if err := c.store.Set(ctx, snap); err != nil {
		c.log.Error(ctx, "failed to save restored snapshot", "error", err)
		return services.Fail[*models.Snapshot](err)
	}

	c.log.Info(ctx, "snapshot restored", "records", snap.RecordCount())
	return services.Succeed(c.emitData(ctx))
}

// History lists the account's backups, most recent first.
func (c *Coordinator) History(ctx context.Context, limit int) services.Result[[]models.BackupInfo] {
	if !c.IsAuthenticated() {
		return services.Fail[[]models.BackupInfo](common.ErrUnauthenticated)
	}
	return c.remote.History(ctx, limit)
}

// Close stops the auto-backup schedule and waits for it to exit.
func (c *Coordinator) Close() {
	c.mu.Lock()
	stop := c.stop
	c.stop = nil
	c.mu.Unlock()
	if stop != nil {
		stop()
	}
	c.wg.Wait()
}
