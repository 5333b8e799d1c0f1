// Package store persists the materialized entity graph.
//
// The Store interface is the only way handlers touch state: keyed load,
// save, delete, with single-entity atomicity and nothing stronger. Two
// implementations exist: a SQLite store for indexing runs and an in-memory
// store for handler tests. Both serialize entities to canonical JSON so a
// row read back is byte-identical to the row written, which keeps golden
// snapshots and replay comparisons stable.
package store

import (
	"github.com/DIGITALAX/fgo-futures-contracts/internal/entities"
	"github.com/DIGITALAX/fgo-futures-contracts/internal/ids"
)

// Store is the entity store consumed by event handlers.
//
// Load returns (nil, false, nil) when no row exists; handlers treat that as
// an expected condition, not an error. Save upserts. Delete of a missing
// row is a no-op. All three are idempotent, which is what makes at-least-
// once event redelivery safe.
type Store interface {
	Load(kind entities.Kind, key ids.Key) (entities.Entity, bool, error)
	Save(e entities.Entity) error
	Delete(kind entities.Kind, key ids.Key) error

	// List returns all entities of a kind ordered by key. Dumps and the
	// scenario harness use it; handlers do too for the rare
	// cross-contract sweep, point loads otherwise.
	List(kind entities.Kind) ([]entities.Entity, error)
}
