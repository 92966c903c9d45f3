package coordinator

import (
	"context"
	"time"

	"github.com/dmitrijs2005/homekeeper/internal/client/models"
)

const (
	DefaultAutoBackupInterval = 30 * time.Minute
	DefaultBackupThreshold    = 24 * time.Hour
)

// Choice is a ConflictResolver's answer.
type Choice string

const (
	ChoiceCloud Choice = "cloud"
	ChoiceLocal Choice = "local"
)

// Conflict describes a login where both the device and the account hold
// data.
type Conflict struct {
	Identity     models.Identity
	LocalRecords int
	Latest       models.BackupInfo
}

// ConflictResolver picks which copy survives. An error, or any value other
// than ChoiceCloud and ChoiceLocal, leaves both copies untouched.
type ConflictResolver func(ctx context.Context, c Conflict) (Choice, error)

// Migrator is invoked once after a successful register with the snapshot
// as it was before the account existed. Changes it makes to the snapshot
// are persisted.
type Migrator func(ctx context.Context, id models.Identity, snap *models.Snapshot) error

// TickerFunc starts a periodic ticker and returns its channel and a stop
// function.
type TickerFunc func(d time.Duration) (<-chan time.Time, func())

// Options configures a Coordinator. Zero values select the defaults.
type Options struct {
	AutoBackupInterval time.Duration
	BackupThreshold    time.Duration
	Resolver           ConflictResolver
	Migrator           Migrator

	Now    func() time.Time
	Ticker TickerFunc
}

func timeTicker(d time.Duration) (<-chan time.Time, func()) {
	t := time.NewTicker(d)
	return t.C, t.Stop
}

func (o Options) withDefaults() Options {
	if o.AutoBackupInterval <= 0 {
		o.AutoBackupInterval = DefaultAutoBackupInterval
	}
	if o.BackupThreshold <= 0 {
		o.BackupThreshold = DefaultBackupThreshold
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	if o.Ticker == nil {
		o.Ticker = timeTicker
	}
	return o
}
