package coordinator

import (
	"context"
)

func (c *Coordinator) startSchedule(epoch uint64) {
	ctx, cancel := context.WithCancel(context.Background())

	c.mu.Lock()
	if c.epoch != epoch || c.identity == nil {
		c.mu.Unlock()
		cancel()
		return
	}
	if c.stop != nil {
		c.stop()
	}
	c.stop = cancel
	c.mu.Unlock()

	ticks, stopTicker := c.opts.Ticker(c.opts.AutoBackupInterval)

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		defer stopTicker()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticks:
				c.autoBackup(ctx, epoch)
			}
		}
	}()
}

// autoBackup pushes only when the last confirmed backup is older than the
// threshold, or when there has never been one.
func (c *Coordinator) autoBackup(ctx context.Context, epoch uint64) {
	if !c.current(epoch) {
		return
	}

	last, err := c.store.GetLastBackup(ctx)
	if err != nil {
		c.log.Error(ctx, "auto-backup skipped", "error", err)
		return
	}
	if last != nil && c.opts.Now().Sub(*last) <= c.opts.BackupThreshold {
		c.log.Debug(ctx, "auto-backup not due", "lastBackup", *last)
		return
	}

	res := c.push(ctx, epoch)
	if !res.OK {
		c.log.Warn(ctx, "auto-backup failed", "message", res.Message)
	}
}
