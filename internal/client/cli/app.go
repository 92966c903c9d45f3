package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/dmitrijs2005/homekeeper/internal/client/client"
	"github.com/dmitrijs2005/homekeeper/internal/client/codec"
	"github.com/dmitrijs2005/homekeeper/internal/client/config"
	"github.com/dmitrijs2005/homekeeper/internal/client/coordinator"
	"github.com/dmitrijs2005/homekeeper/internal/client/events"
	"github.com/dmitrijs2005/homekeeper/internal/client/localstore"
	"github.com/dmitrijs2005/homekeeper/internal/client/metrics"
	"github.com/dmitrijs2005/homekeeper/internal/client/models"
	"github.com/dmitrijs2005/homekeeper/internal/client/repositories/kv"
	"github.com/dmitrijs2005/homekeeper/internal/client/services"
	"github.com/dmitrijs2005/homekeeper/internal/filex"
	"github.com/dmitrijs2005/homekeeper/internal/logging"
)

type Mode string

const (
	ModeOffline Mode = "offline"
	ModeOnline  Mode = "online"
)

// Core is the part of coordinator.Coordinator the CLI drives.
type Core interface {
	Login(ctx context.Context, email, password string) services.Result[models.Identity]
	Register(ctx context.Context, email, password, displayName string) services.Result[models.Identity]
	Logout(ctx context.Context) services.Result[struct{}]
	IsAuthenticated() bool
	CurrentIdentity() *models.Identity

	Snapshot(ctx context.Context) (*models.Snapshot, error)
	GetCollection(ctx context.Context, name string) ([]models.Record, error)
	AddItem(ctx context.Context, name string, rec models.Record) (models.Record, error)
	UpdateItem(ctx context.Context, name, id string, rec models.Record) (bool, error)
	DeleteItem(ctx context.Context, name, id string) (bool, error)
	GetSettings(ctx context.Context) (map[string]any, error)
	SaveSettings(ctx context.Context, settings map[string]any) error
	ClearStorage(ctx context.Context) (*models.Snapshot, error)

	BackupNow(ctx context.Context) services.Result[models.PushReceipt]
	RestoreLatest(ctx context.Context) services.Result[*models.Snapshot]
	RestoreFromID(ctx context.Context, backupID string) services.Result[*models.Snapshot]
	History(ctx context.Context, limit int) services.Result[[]models.BackupInfo]

	AddListener(kind events.Kind, fn events.Listener) events.ListenerID
	Close()
}

type pinger interface {
	Ping(ctx context.Context) error
}

type App struct {
	config  *config.Config
	log     logging.Logger
	core    Core
	pinger  pinger
	metrics prometheus.Gatherer
	reader  *bufio.Reader
	out     io.Writer
	closers []func() error

	mu   sync.Mutex
	Mode Mode
}

// NewApp opens the local database and wires the sync core over it.
func NewApp(ctx context.Context, c *config.Config, log logging.Logger) (*App, error) {
	dbPath, err := filex.DataFile(c.DataDir, c.DatabaseFile)
	if err != nil {
		return nil, err
	}

	db, err := client.InitDatabase(ctx, dbPath)
	if err != nil {
		log.Error(ctx, "error initializing database", "path", dbPath, "error", err)
		return nil, err
	}

	apiClient, err := client.NewGRPCClient(c.ServerEndpointAddr, c.RequestTimeout)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	store := localstore.New(kv.NewSQLiteRepository(db, c.QuotaBytes), log, localstore.Options{
		CollectionLimits: c.CollectionLimits,
		DefaultLimit:     c.DefaultCollectionLimit,
		Metrics:          m,
	})
	remote := services.NewRemoteBackupService(apiClient, codec.Default(), log, m)

	a := &App{
		config:  c,
		log:     log,
		pinger:  remote,
		metrics: reg,
		reader:  bufio.NewReader(os.Stdin),
		out:     os.Stdout,
		closers: []func() error{apiClient.Close, db.Close},
	}

	a.core = coordinator.New(store, remote, events.NewRegistry(log), log, coordinator.Options{
		AutoBackupInterval: c.AutoBackupInterval,
		BackupThreshold:    c.BackupThreshold,
		Resolver:           a.resolveConflict,
	})
	a.subscribe()

	return a, nil
}

func (a *App) subscribe() {
	a.core.AddListener(events.KindBackupComplete, func(ctx context.Context, ev events.Event) error {
		bc := ev.(events.BackupComplete)
		if bc.Success {
			a.printf("Backup stored at %s (%.2f%% smaller)\n", bc.Timestamp.Local().Format(time.DateTime), bc.CompressionRatio)
		} else {
			a.printf("Backup failed: %s\n", bc.Message)
		}
		return nil
	})
	a.core.AddListener(events.KindAuthChange, func(ctx context.Context, ev events.Event) error {
		if id := ev.(events.AuthChange).Identity; id != nil {
			a.printf("Signed in as %s\n", id.Email)
		} else {
			a.printf("Signed out, local data kept\n")
		}
		return nil
	})
}

func (a *App) printf(format string, args ...any) {
	fmt.Fprintf(a.out, format, args...)
}

func (a *App) println(args ...any) {
	fmt.Fprintln(a.out, args...)
}

func (a *App) setMode(mode Mode) {
	a.mu.Lock()
	changed := a.Mode != mode
	a.Mode = mode
	a.mu.Unlock()

	if changed {
		a.log.Info(context.Background(), "connectivity changed", "mode", string(mode))
	}
}

func (a *App) mode() Mode {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.Mode
}

func (a *App) isLoggedIn() bool {
	return a.core.IsAuthenticated()
}

// Run starts the connectivity watcher and blocks in the REPL until the
// user exits or input ends.
func (a *App) Run(ctx context.Context) {
	defer a.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go a.StartOnlineStatusWatcher(ctx, a.config.OnlineCheckInterval)

	a.println("Welcome to HomeKeeper (type 'help' for commands)")
	runREPL(ctx, a, a.getStatus, a.reader)
}

func (a *App) Close() {
	a.core.Close()
	for _, c := range a.closers {
		_ = c()
	}
	a.closers = nil
}

func (a *App) getStatus() string {
	s := ""
	if id := a.core.CurrentIdentity(); id != nil {
		s = id.Email + " "
	}
	if m := a.mode(); m != "" {
		s += string(m)
	}
	if s != "" {
		s = fmt.Sprintf("(%s)", s)
	}
	return s
}

func (a *App) StartOnlineStatusWatcher(ctx context.Context, interval time.Duration) {
	a.checkOnline(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			a.checkOnline(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (a *App) checkOnline(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	if err := a.pinger.Ping(ctx); err != nil {
		a.setMode(ModeOffline)
		return
	}
	a.setMode(ModeOnline)
}

// resolveConflict asks the user which copy to keep when both the device and
// the account hold data.
func (a *App) resolveConflict(ctx context.Context, c coordinator.Conflict) (coordinator.Choice, error) {
	prompt := fmt.Sprintf(
		"This device has %d record(s) and your account has a backup from %s.\nKeep the (c)loud copy or the (l)ocal copy? The other one is overwritten.",
		c.LocalRecords, c.Latest.Timestamp.Local().Format(time.DateTime))

	for {
		answer, err := getSimpleText(a.reader, prompt, a.out)
		if err != nil {
			return "", err
		}
		switch answer {
		case "c", "cloud":
			return coordinator.ChoiceCloud, nil
		case "l", "local":
			return coordinator.ChoiceLocal, nil
		}
	}
}
