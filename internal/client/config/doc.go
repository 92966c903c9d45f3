// Package config loads runtime configuration for the HomeKeeper CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file (see parseJson) selected via flags: -c or -config.
//  3. Command-line flags (see parseFlags), which override earlier values.
//
// Supported flags
//
//	-a string   address:port of the backend gRPC endpoint
//	-i int      online status check interval (seconds)
//	-d string   data directory holding the local database
//	-b int      auto-backup interval (minutes)
//	-q int      local storage quota (bytes)
//
// # JSON schema
//
// Intervals use timex.Duration, so values can be either strings like "30m"
// or integer nanoseconds:
//
//	{
//	  "server_endpoint_addr": "127.0.0.1:50051",
//	  "data_dir": ".homekeeper",
//	  "online_check_interval": "3s",
//	  "auto_backup_interval": "45m",
//	  "backup_threshold": "24h",
//	  "quota_bytes": 5242880,
//	  "collection_limits": {"bills": 500, "appointments": 300}
//	}
package config
