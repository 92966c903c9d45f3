package cli

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrijs2005/homekeeper/internal/client/metrics"
	"github.com/dmitrijs2005/homekeeper/internal/client/models"
	"github.com/dmitrijs2005/homekeeper/internal/client/services"
)

const defaultHistoryLimit = 10

// Backup pushes now; the outcome is printed by the backupComplete listener.
func (a *App) Backup(ctx context.Context, args []string) error {
	a.core.BackupNow(ctx)
	return nil
}

// Restore overwrites local data with the latest backup, or with the backup
// whose id is given.
func (a *App) Restore(ctx context.Context, args []string) error {
	if len(args) > 1 {
		return usage("restore [id]")
	}

	answer, err := getSimpleText(a.reader, "Local data will be replaced by the backup. Continue? (yes/no)", a.out)
	if err != nil {
		return err
	}
	if answer != "yes" {
		a.println("Cancelled.")
		return nil
	}

	var out services.Result[*models.Snapshot]
	if len(args) == 1 {
		out = a.core.RestoreFromID(ctx, args[0])
	} else {
		out = a.core.RestoreLatest(ctx)
	}
	if !out.OK {
		a.println(out.Message)
		return nil
	}
	a.printf("Restored %d record(s).\n", out.Value.RecordCount())
	return nil
}

func (a *App) History(ctx context.Context, args []string) error {
	limit := defaultHistoryLimit
	if len(args) == 1 {
		n, err := strconv.Atoi(args[0])
		if err != nil || n <= 0 {
			return usage("history [n]")
		}
		limit = n
	}

	res := a.core.History(ctx, limit)
	if !res.OK {
		a.println(res.Message)
		return nil
	}
	if len(res.Value) == 0 {
		a.println("No backups yet.")
		return nil
	}
	for _, b := range res.Value {
		a.printf("%s  %s  %d bytes\n", b.ID, b.Timestamp.Local().Format(time.DateTime), b.Size)
	}
	return nil
}

// Stats prints the local storage and backup counters.
func (a *App) Stats(ctx context.Context, args []string) error {
	samples, err := metrics.Summarize(a.metrics)
	if err != nil {
		return err
	}
	if len(samples) == 0 {
		a.println("Nothing recorded yet.")
		return nil
	}
	for _, s := range samples {
		name := s.Name
		if len(s.Labels) > 0 {
			pairs := make([]string, 0, len(s.Labels))
			for k, v := range s.Labels {
				pairs = append(pairs, k+"="+v)
			}
			sort.Strings(pairs)
			name += "{" + strings.Join(pairs, ",") + "}"
		}
		a.printf("%-48s %g\n", name, s.Value)
	}
	return nil
}
