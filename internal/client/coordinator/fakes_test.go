package coordinator

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/homekeeper/internal/client/client"
	"github.com/dmitrijs2005/homekeeper/internal/client/events"
	"github.com/dmitrijs2005/homekeeper/internal/client/localstore"
	"github.com/dmitrijs2005/homekeeper/internal/client/models"
	"github.com/dmitrijs2005/homekeeper/internal/client/repositories/kv"
	"github.com/dmitrijs2005/homekeeper/internal/client/services"
	"github.com/dmitrijs2005/homekeeper/internal/common"
	"github.com/dmitrijs2005/homekeeper/internal/logging"
)

type fakeRemote struct {
	mu       sync.Mutex
	identity *models.Identity
	latest   *models.Snapshot
	history  []models.BackupInfo
	pushed   []*models.Snapshot
	pulls    int

	LoginErr   error
	PushErr    error
	HistoryErr error
	PullErr    error

	// when set, Push signals PushStarted and waits for PushGate
	PushGate    chan struct{}
	PushStarted chan struct{}

	// same for PullLatest and PullByID
	PullGate    chan struct{}
	PullStarted chan struct{}
}

var _ Remote = (*fakeRemote)(nil)

func (f *fakeRemote) Register(ctx context.Context, email, password, displayName string) services.Result[models.Identity] {
	return f.Login(ctx, email, password)
}

func (f *fakeRemote) Login(ctx context.Context, email, password string) services.Result[models.Identity] {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.LoginErr != nil {
		return services.Fail[models.Identity](f.LoginErr)
	}
	id := models.Identity{ID: "user-" + email, Email: email}
	f.identity = &id
	return services.Succeed(id)
}

func (f *fakeRemote) Logout(ctx context.Context) services.Result[struct{}] {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.identity = nil
	return services.Succeed(struct{}{})
}

func (f *fakeRemote) Push(ctx context.Context, snap *models.Snapshot) services.Result[models.PushReceipt] {
	if f.PushGate != nil {
		if f.PushStarted != nil {
			f.PushStarted <- struct{}{}
		}
		<-f.PushGate
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.PushErr != nil {
		return services.Fail[models.PushReceipt](f.PushErr)
	}
	f.pushed = append(f.pushed, snap.Clone())
	f.latest = snap.Clone()
	info := models.BackupInfo{
		ID:        fmt.Sprintf("b%d", len(f.pushed)),
		Timestamp: time.Date(2026, 1, 1, 0, len(f.pushed), 0, 0, time.UTC),
	}
	f.history = append([]models.BackupInfo{info}, f.history...)
	return services.Succeed(models.PushReceipt{ID: info.ID, Timestamp: info.Timestamp, CompressionRatio: 42})
}

func (f *fakeRemote) PullLatest(ctx context.Context) services.Result[*models.Snapshot] {
	if f.PullGate != nil {
		if f.PullStarted != nil {
			f.PullStarted <- struct{}{}
		}
		<-f.PullGate
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.pulls++
	if f.PullErr != nil {
		return services.Fail[*models.Snapshot](f.PullErr)
	}
	if f.latest == nil {
		return services.Fail[*models.Snapshot](common.ErrNotFound)
	}
	return services.Succeed(f.latest.Clone())
}

func (f *fakeRemote) PullByID(ctx context.Context, backupID string) services.Result[*models.Snapshot] {
	if backupID == "foreign" {
		return services.Fail[*models.Snapshot](common.ErrForbidden)
	}
	return f.PullLatest(ctx)
}

func (f *fakeRemote) History(ctx context.Context, limit int) services.Result[[]models.BackupInfo] {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.HistoryErr != nil {
		return services.Fail[[]models.BackupInfo](f.HistoryErr)
	}
	n := min(limit, len(f.history))
	out := make([]models.BackupInfo, n)
	copy(out, f.history[:n])
	return services.Succeed(out)
}

func (f *fakeRemote) pullCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pulls
}

func (f *fakeRemote) pushCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.pushed)
}

// seed makes snap the remote latest without counting it as a push.
func (f *fakeRemote) seed(snap *models.Snapshot) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.latest = snap.Clone()
	f.history = append(f.history, models.BackupInfo{ID: "seed", Timestamp: time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC)})
}

// gatedStore holds the next Get, once armed, until release is closed.
type gatedStore struct {
	Store
	armed   atomic.Bool
	entered chan struct{}
	release chan struct{}
}

func (g *gatedStore) arm() {
	g.entered = make(chan struct{}, 1)
	g.release = make(chan struct{})
	g.armed.Store(true)
}

func (g *gatedStore) Get(ctx context.Context) (*models.Snapshot, error) {
	if g.armed.CompareAndSwap(true, false) {
		g.entered <- struct{}{}
		<-g.release
	}
	return g.Store.Get(ctx)
}

// manualTicker replaces time.Ticker in tests.
type manualTicker struct {
	C       chan time.Time
	mu      sync.Mutex
	started []time.Duration
	stopped int
}

func newManualTicker() *manualTicker {
	return &manualTicker{C: make(chan time.Time, 8)}
}

func (m *manualTicker) Func(d time.Duration) (<-chan time.Time, func()) {
	m.mu.Lock()
	m.started = append(m.started, d)
	m.mu.Unlock()
	return m.C, func() {
		m.mu.Lock()
		m.stopped++
		m.mu.Unlock()
	}
}

func (m *manualTicker) stops() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stopped
}

type recorder struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *recorder) listen(ctx context.Context, ev events.Event) error {
	r.mu.Lock()
	r.events = append(r.events, ev)
	r.mu.Unlock()
	return nil
}

func (r *recorder) of(kind events.Kind) []events.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []events.Event
	for _, ev := range r.events {
		if ev.Kind() == kind {
			out = append(out, ev)
		}
	}
	return out
}

type fixture struct {
	c      *Coordinator
	store  *localstore.Store
	gated  *gatedStore
	remote *fakeRemote
	ticker *manualTicker
	rec    *recorder
	now    time.Time
}

func newFixture(t *testing.T, opts Options) *fixture {
	t.Helper()
	ctx := context.Background()

	db, err := client.InitDatabase(ctx, filepath.Join(t.TempDir(), "homekeeper.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	f := &fixture{
		store:  localstore.New(kv.NewSQLiteRepository(db, 0), logging.Nop(), localstore.Options{}),
		remote: &fakeRemote{},
		ticker: newManualTicker(),
		rec:    &recorder{},
		now:    time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC),
	}
	opts.Ticker = f.ticker.Func
	if opts.Now == nil {
		opts.Now = func() time.Time { return f.now }
	}

	f.gated = &gatedStore{Store: f.store}
	f.c = New(f.gated, f.remote, events.NewRegistry(logging.Nop()), logging.Nop(), opts)
	t.Cleanup(f.c.Close)

	for _, k := range []events.Kind{events.KindAuthChange, events.KindDataChange, events.KindBackupComplete} {
		f.c.AddListener(k, f.rec.listen)
	}
	return f
}

func bill(id string) models.Record {
	return models.Record{"id": id, "amount": 120.5, "status": "pending"}
}
