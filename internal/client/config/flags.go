package config

import (
	"flag"
	"io"
	"os"
	"time"

	"github.com/dmitrijs2005/homekeeper/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
//	-a string   address and port of the backend server
//	-i int      online check interval in seconds
//	-d string   data directory
//	-b int      auto-backup interval in minutes
//	-q int      local storage quota in bytes (0 disables it)
//
// Other arguments are ignored; see flagx.ParseOwn.
func parseFlags(cfg *Config) {
	fs := flag.NewFlagSet("main", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&cfg.ServerEndpointAddr, "a", cfg.ServerEndpointAddr, "address and port to access server")
	onlineCheckInterval := fs.Int("i", int(cfg.OnlineCheckInterval.Seconds()), "online check interval (in seconds)")
	fs.StringVar(&cfg.DataDir, "d", cfg.DataDir, "data directory")
	autoBackupInterval := fs.Int("b", int(cfg.AutoBackupInterval.Minutes()), "auto-backup interval (in minutes)")
	fs.Int64Var(&cfg.QuotaBytes, "q", cfg.QuotaBytes, "local storage quota (in bytes)")

	if err := flagx.ParseOwn(fs, os.Args[1:]); err != nil {
		panic(err)
	}

	cfg.OnlineCheckInterval = time.Duration(*onlineCheckInterval) * time.Second
	cfg.AutoBackupInterval = time.Duration(*autoBackupInterval) * time.Minute
}
