package coordinator

import (
	"context"

	"github.com/dmitrijs2005/homekeeper/internal/client/events"
	"github.com/dmitrijs2005/homekeeper/internal/client/models"
)

// Snapshot returns the current local snapshot.
func (c *Coordinator) Snapshot(ctx context.Context) (*models.Snapshot, error) {
	return c.store.Get(ctx)
}

// GetCollection returns the named collection, empty when it does not exist.
func (c *Coordinator) GetCollection(ctx context.Context, name string) ([]models.Record, error) {
	return c.store.GetCollection(ctx, name)
}

// SaveCollection replaces the named collection and emits DataChange.
func (c *Coordinator) SaveCollection(ctx context.Context, name string, records []models.Record) error {
	if err := c.store.SaveCollection(ctx, name, records); err != nil {
		return err
	}
	c.emitData(ctx)
	return nil
}

// AddItem appends rec, assigning an id when it has none, and emits DataChange.
func (c *Coordinator) AddItem(ctx context.Context, name string, rec models.Record) (models.Record, error) {
	added, err := c.store.AddItem(ctx, name, rec)
	if err != nil {
		return nil, err
	}
	c.emitData(ctx)
	return added, nil
}

// UpdateItem reports false, without an event, when no record has the id.
func (c *Coordinator) UpdateItem(ctx context.Context, name, id string, rec models.Record) (bool, error) {
	ok, err := c.store.UpdateItem(ctx, name, id, rec)
	if err != nil || !ok {
		return ok, err
	}
	c.emitData(ctx)
	return true, nil
}

// DeleteItem reports false, without an event, when no record has the id.
func (c *Coordinator) DeleteItem(ctx context.Context, name, id string) (bool, error) {
	ok, err := c.store.DeleteItem(ctx, name, id)
	if err != nil || !ok {
		return ok, err
	}
	c.emitData(ctx)
	return true, nil
}

// GetSettings returns the settings object.
func (c *Coordinator) GetSettings(ctx context.Context) (map[string]any, error) {
	return c.store.GetSettings(ctx)
}

// SaveSettings replaces the settings object and emits DataChange.
func (c *Coordinator) SaveSettings(ctx context.Context, settings map[string]any) error {
	if err := c.store.SaveSettings(ctx, settings); err != nil {
		return err
	}
	c.emitData(ctx)
	return nil
}

// ClearStorage resets local data to the defaults. It does not log out.
func (c *Coordinator) ClearStorage(ctx context.Context) (*models.Snapshot, error) {
	snap, err := c.store.ClearStorage(ctx)
	if err != nil {
		return nil, err
	}
	c.events.Emit(ctx, events.DataChange{Snapshot: snap.Clone()})
	return snap, nil
}

// emitData publishes the persisted snapshot and returns it.
func (c *Coordinator) emitData(ctx context.Context) *models.Snapshot {
	snap, err := c.store.Get(ctx)
	if err != nil {
		c.log.Error(ctx, "cannot read snapshot for dataChange", "error", err)
		return nil
	}
	c.events.Emit(ctx, events.DataChange{Snapshot: snap.Clone()})
	return snap
}
