package cli

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/goccy/go-json"

	"github.com/dmitrijs2005/homekeeper/internal/client/models"
)

func formatRecord(r models.Record) string {
	b, err := json.Marshal(r)
	if err != nil {
		return fmt.Sprintf("%v", map[string]any(r))
	}
	return string(b)
}

// List prints a collection, or the collection names with their sizes when
// no name is given.
func (a *App) List(ctx context.Context, args []string) error {
	if len(args) == 0 {
		snap, err := a.core.Snapshot(ctx)
		if err != nil {
			return err
		}
		for _, name := range snap.CollectionNames() {
			a.printf("%-16s %d\n", name, len(snap.Collection(name)))
		}
		return nil
	}

	records, err := a.core.GetCollection(ctx, args[0])
	if err != nil {
		return err
	}
	if len(records) == 0 {
		a.println("(empty)")
		return nil
	}
	for _, r := range records {
		a.println(formatRecord(r))
	}
	return nil
}

func (a *App) Add(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return usage("add <collection>")
	}

	fields, err := GetFields(a.reader, "Enter fields for the new "+args[0]+" record", a.out)
	if err != nil {
		return err
	}

	rec, err := a.core.AddItem(ctx, args[0], models.Record(fields))
	if err != nil {
		return err
	}
	a.printf("Added %s\n", rec.ID())
	return nil
}

// Update replaces every field of a record; the id is kept.
func (a *App) Update(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return usage("update <collection> <id>")
	}

	fields, err := GetFields(a.reader, "Enter the new fields of "+args[1], a.out)
	if err != nil {
		return err
	}

	ok, err := a.core.UpdateItem(ctx, args[0], args[1], models.Record(fields))
	if err != nil {
		return err
	}
	if !ok {
		a.printf("No record %s in %s\n", args[1], args[0])
		return nil
	}
	a.println("Updated.")
	return nil
}

func (a *App) Delete(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return usage("delete <collection> <id>")
	}

	ok, err := a.core.DeleteItem(ctx, args[0], args[1])
	if err != nil {
		return err
	}
	if !ok {
		a.printf("No record %s in %s\n", args[1], args[0])
		return nil
	}
	a.println("Deleted.")
	return nil
}

func (a *App) Settings(ctx context.Context, args []string) error {
	settings, err := a.core.GetSettings(ctx)
	if err != nil {
		return err
	}

	keys := make([]string, 0, len(settings))
	for k := range settings {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		a.printf("%s = %s\n", k, formatValue(settings[k]))
	}
	return nil
}

func formatValue(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(b)
}

// Set changes one setting. The value is parsed like record fields.
func (a *App) Set(ctx context.Context, args []string) error {
	if len(args) < 2 {
		return usage("set <key> <value>")
	}

	settings, err := a.core.GetSettings(ctx)
	if err != nil {
		return err
	}
	if settings == nil {
		settings = map[string]any{}
	}
	settings[args[0]] = ParseValue(strings.Join(args[1:], " "))

	return a.core.SaveSettings(ctx, settings)
}

// Clear resets local data after confirmation. Cloud backups are untouched.
func (a *App) Clear(ctx context.Context, args []string) error {
	answer, err := getSimpleText(a.reader, "Delete all local data? Type 'yes' to confirm", a.out)
	if err != nil {
		return err
	}
	if answer != "yes" {
		a.println("Cancelled.")
		return nil
	}

	if _, err := a.core.ClearStorage(ctx); err != nil {
		return err
	}
	a.println("Local data cleared.")
	return nil
}
