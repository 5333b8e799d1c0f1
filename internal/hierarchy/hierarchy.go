// Package hierarchy flattens template composition trees into ordered lists
// of concrete child keys.
//
// A template child aggregates other children as placements; those children
// may themselves be templates. Flattening is depth-first pre-order: a child
// is appended when visited, and if it is a template its own placements are
// expanded immediately after it, before its siblings.
//
// The protocol's creation ordering means templates only reference already-
// created children, so the walk is finite in practice. Nothing on chain
// enforces that, so the traversal is an explicit stack with a visited set
// and a hard visit cap rather than unguarded recursion; a cycle or an
// oversized tree is cut and logged as a data-quality warning.
package hierarchy

import (
	"log/slog"
	"math/big"

	"github.com/DIGITALAX/fgo-futures-contracts/internal/entities"
	"github.com/DIGITALAX/fgo-futures-contracts/internal/ids"
	"github.com/DIGITALAX/fgo-futures-contracts/internal/store"
)

// maxVisits bounds a single flattening walk. No legitimate design comes
// anywhere near this; hitting it means a malformed or cyclic hierarchy.
const maxVisits = 10000

// Ref is an unresolved child reference to flatten.
type Ref struct {
	Contract ids.Address
	ChildID  *big.Int
}

// Flatten resolves refs against the store and returns the pre-order
// closure of concrete child keys. A referenced child that is not yet
// indexed is silently skipped; events for it simply have not arrived yet.
// A child reached twice (shared subtree or cycle) is appended only once.
func Flatten(st store.Store, refs []Ref) ([]ids.Key, error) {
	stack := make([]ids.Key, 0, len(refs))
	for i := len(refs) - 1; i >= 0; i-- {
		stack = append(stack, ids.Child(refs[i].Contract, refs[i].ChildID))
	}

	visited := make(map[ids.Key]bool)
	var out []ids.Key
	visits := 0

	for len(stack) > 0 {
		key := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		visits++
		if visits > maxVisits {
			slog.Warn("hierarchy walk exceeded visit cap, cutting traversal",
				"cap", maxVisits)
			return out, nil
		}
		if visited[key] {
			continue
		}
		visited[key] = true

		e, ok, err := st.Load(entities.KindChild, key)
		if err != nil {
			return nil, err
		}
		if !ok {
			// Not indexed yet; skip, a later event will fill it in.
			continue
		}
		child := e.(*entities.Child)

		out = append(out, child.ID)

		if child.IsTemplate && len(child.Placements) > 0 {
			// The visited set cuts both shared subtrees and cycles: a key
			// already appended is never pushed again.
			for i := len(child.Placements) - 1; i >= 0; i-- {
				if p := child.Placements[i]; !visited[p] {
					stack = append(stack, p)
				}
			}
		}
	}
	return out, nil
}
