package config

import (
	"os"

	"github.com/goccy/go-json"

	"github.com/dmitrijs2005/homekeeper/internal/flagx"
	"github.com/dmitrijs2005/homekeeper/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. Intervals are
// timex.Duration so they can be strings like "30m" or integer nanoseconds.
type JsonConfig struct {
	ServerEndpointAddr     string         `json:"server_endpoint_addr"`
	DataDir                string         `json:"data_dir"`
	DatabaseFile           string         `json:"database_file"`
	OnlineCheckInterval    timex.Duration `json:"online_check_interval"`
	RequestTimeout         timex.Duration `json:"request_timeout"`
	AutoBackupInterval     timex.Duration `json:"auto_backup_interval"`
	BackupThreshold        timex.Duration `json:"backup_threshold"`
	QuotaBytes             *int64         `json:"quota_bytes"`
	CollectionLimits       map[string]int `json:"collection_limits"`
	DefaultCollectionLimit int            `json:"default_collection_limit"`
}

// parseJson overlays Config with the values present in the JSON file named
// by -c or -config. Absent keys keep their current value. Panics on read or
// unmarshal errors.
func parseJson(cfg *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	var jc JsonConfig

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	if jc.ServerEndpointAddr != "" {
		cfg.ServerEndpointAddr = jc.ServerEndpointAddr
	}
	if jc.DataDir != "" {
		cfg.DataDir = jc.DataDir
	}
	if jc.DatabaseFile != "" {
		cfg.DatabaseFile = jc.DatabaseFile
	}
	if jc.OnlineCheckInterval.Duration > 0 {
		cfg.OnlineCheckInterval = jc.OnlineCheckInterval.Duration
	}
	if jc.RequestTimeout.Duration > 0 {
		cfg.RequestTimeout = jc.RequestTimeout.Duration
	}
	if jc.AutoBackupInterval.Duration > 0 {
		cfg.AutoBackupInterval = jc.AutoBackupInterval.Duration
	}
	if jc.BackupThreshold.Duration > 0 {
		cfg.BackupThreshold = jc.BackupThreshold.Duration
	}
	if jc.QuotaBytes != nil {
		cfg.QuotaBytes = *jc.QuotaBytes
	}
	for name, limit := range jc.CollectionLimits {
		if cfg.CollectionLimits == nil {
			cfg.CollectionLimits = map[string]int{}
		}
		cfg.CollectionLimits[name] = limit
	}
	if jc.DefaultCollectionLimit > 0 {
		cfg.DefaultCollectionLimit = jc.DefaultCollectionLimit
	}
}
