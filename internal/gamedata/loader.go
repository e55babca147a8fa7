package gamedata

import (
	"context"
	"fmt"

	"github.com/pixil98/go-log"

	"github.com/eldermoor/eldermoor/internal/content"
	"github.com/eldermoor/eldermoor/internal/storage"
)

// Loader populates every content lookup from the content store at
// startup. Any unrecoverable read error aborts the whole load; the
// server must not run against a partial content set.
type Loader struct {
	reg   *content.Registry
	store storage.Store
}

func NewLoader(reg *content.Registry, store storage.Store) *Loader {
	return &Loader{
		reg:   reg,
		store: store,
	}
}

// LoadAll fills every kind's cache, links folder trees, loads the
// singleton time record, then runs the registry's post-load hooks.
func (l *Loader) LoadAll(ctx context.Context) error {
	logger := log.GetLogger(ctx)

	err := l.reg.Each(func(desc *content.Descriptor) error {
		if desc.Kind == content.KindTime {
			return nil
		}
		if err := l.loadKind(ctx, desc); err != nil {
			return fmt.Errorf("loading %s: %w", desc.Kind, err)
		}
		logger.Infof("loaded %d %s records", desc.Lookup.Count(), desc.Kind)
		return nil
	})
	if err != nil {
		return err
	}

	if err := l.loadTime(ctx); err != nil {
		return fmt.Errorf("loading time: %w", err)
	}

	return l.reg.Each(func(desc *content.Descriptor) error {
		if desc.PostLoad == nil {
			return nil
		}
		if err := desc.PostLoad(ctx, l.reg, l.save); err != nil {
			return fmt.Errorf("post-load %s: %w", desc.Kind, err)
		}
		return nil
	})
}

func (l *Loader) loadKind(ctx context.Context, desc *content.Descriptor) error {
	desc.Lookup.Clear()

	folders, err := l.store.GetAllFolders(ctx, desc.Kind)
	if err != nil {
		return err
	}
	rows, err := l.store.GetAllRows(ctx, desc.Table)
	if err != nil {
		return err
	}

	records := make([]content.Record, 0, len(rows))
	for _, row := range rows {
		rec, err := decodeRow(desc, row)
		if err != nil {
			return err
		}
		if err := desc.Lookup.Set(rec.RecordId(), rec); err != nil {
			return fmt.Errorf("caching %s %s: %w", desc.Kind, row.Id, err)
		}
		records = append(records, rec)
	}

	desc.Folders = content.BuildFolderTree(folders, records)

	// Records whose folder reference no longer resolved were repaired
	// in place; persist the cleared reference.
	for _, rec := range desc.Folders.Repaired() {
		if err := l.save(ctx, rec, false); err != nil {
			return err
		}
	}

	return nil
}

// loadTime handles the singleton time record outside the per-kind
// loop, seeding a default when the table is empty.
func (l *Loader) loadTime(ctx context.Context) error {
	desc, err := l.reg.Get(content.KindTime)
	if err != nil {
		return err
	}
	desc.Lookup.Clear()

	rows, err := l.store.GetAllRows(ctx, desc.Table)
	if err != nil {
		return err
	}

	if len(rows) == 0 {
		t := content.DefaultTime()
		t.Id = newRecordId()
		if err := desc.Lookup.Set(t.Id, t); err != nil {
			return err
		}
		return l.save(ctx, t, true)
	}

	rec, err := decodeRow(desc, rows[0])
	if err != nil {
		return err
	}
	return desc.Lookup.Set(rec.RecordId(), rec)
}

// save is the SaveFunc handed to post-load hooks.
func (l *Loader) save(ctx context.Context, rec content.Record, created bool) error {
	row, err := encodeRow(rec)
	if err != nil {
		return err
	}
	table := rec.RecordKind().Table()
	if created {
		return l.store.InsertRow(ctx, table, row)
	}
	return l.store.UpdateRow(ctx, table, row)
}
