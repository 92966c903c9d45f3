package config

import (
	"time"

	"github.com/dmitrijs2005/homekeeper/internal/common"
)

// Config holds runtime settings for the HomeKeeper CLI.
type Config struct {
	ServerEndpointAddr  string
	DataDir             string
	DatabaseFile        string
	OnlineCheckInterval time.Duration
	RequestTimeout      time.Duration

	AutoBackupInterval time.Duration
	BackupThreshold    time.Duration

	// QuotaBytes caps the local snapshot size; 0 disables the cap.
	QuotaBytes             int64
	CollectionLimits       map[string]int
	DefaultCollectionLimit int
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerEndpointAddr = "127.0.0.1:50051"
	c.DataDir = ".homekeeper"
	c.DatabaseFile = "homekeeper.db"
	c.OnlineCheckInterval = 3 * time.Second
	c.RequestTimeout = 15 * time.Second
	c.AutoBackupInterval = 30 * time.Minute
	c.BackupThreshold = 24 * time.Hour
	c.QuotaBytes = 5 << 20
	c.CollectionLimits = map[string]int{
		common.CollectionBills:        500,
		common.CollectionAppointments: 300,
	}
	c.DefaultCollectionLimit = 200
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present) and command-line flags (if present). Later sources take
// precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
