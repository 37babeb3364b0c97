// Package guard implements the optimistic check-before-write gate used by
// every mutating operation. The check re-reads the authoritative row straight
// from the storage collaborator, bypassing any session cache. The
// check-then-write pair is not atomic across processes; a second writer can
// slip between another writer's check and write. That race window is a known,
// accepted limitation of the whole-table storage contract.
package guard

import (
	"context"
	"fmt"
	"strings"

	"lifeplan/internal/core"
	"lifeplan/internal/tables"
)

type Guard struct {
	store tables.Store
}

func New(store tables.Store) *Guard {
	return &Guard{store: store}
}

// Check verifies that the row identified by id in the named table still
// exists and still carries expectedVersion. It returns
// core.ErrNotFoundConflict when the row is gone, core.ErrStaleVersionConflict
// when another writer bumped the version, and nil when the caller may
// proceed. On success the caller must increment the row's version by exactly
// 1 and stamp updater identity and timestamp.
func (g *Guard) Check(ctx context.Context, table, id, expectedVersion string) error {
	t, err := g.store.ReadTable(ctx, table)
	if err != nil {
		return fmt.Errorf("guard read %s: %w", table, err)
	}

	idCol := t.ColumnIndex("id")
	if idCol < 0 {
		return fmt.Errorf("guard: table %s has no id column", table)
	}

	for _, row := range t.Rows {
		if idCol >= len(row) || row[idCol] != id {
			continue
		}
		// A tombstoned row counts as gone, not as an editable row carrying
		// a version. Without this check an update presenting the tombstone's
		// version would resurrect the row.
		if isTrue(t.Get(row, "deletedFlag")) {
			return core.ErrNotFoundConflict
		}
		current := core.NormalizeVersion(t.Get(row, "version"))
		if current != core.NormalizeVersion(expectedVersion) {
			return core.ErrStaleVersionConflict
		}
		return nil
	}
	return core.ErrNotFoundConflict
}

func isTrue(cell string) bool {
	switch strings.ToLower(strings.TrimSpace(cell)) {
	case "true", "1", "yes":
		return true
	}
	return false
}
