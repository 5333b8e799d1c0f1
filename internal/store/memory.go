package store

import (
	"sort"

	"github.com/DIGITALAX/fgo-futures-contracts/internal/entities"
	"github.com/DIGITALAX/fgo-futures-contracts/internal/ids"
)

// Memory is an in-memory Store for handler tests and the scenario harness.
// Entities pass through the same canonical JSON codec as the SQLite store,
// which both exercises the codec and gives load/save copy semantics: a
// handler mutating a loaded entity cannot alias store state.
type Memory struct {
	rows map[entities.Kind]map[ids.Key]string
}

var _ Store = (*Memory)(nil)

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{rows: make(map[entities.Kind]map[ids.Key]string)}
}

// Load fetches one entity by composite key.
func (m *Memory) Load(kind entities.Kind, key ids.Key) (entities.Entity, bool, error) {
	body, ok := m.rows[kind][key]
	if !ok {
		return nil, false, nil
	}
	e, err := unmarshalEntity(kind, body)
	if err != nil {
		return nil, false, err
	}
	return e, true, nil
}

// Save upserts one entity.
func (m *Memory) Save(e entities.Entity) error {
	body, err := marshalEntity(e)
	if err != nil {
		return err
	}
	kind := e.EntityKind()
	if m.rows[kind] == nil {
		m.rows[kind] = make(map[ids.Key]string)
	}
	m.rows[kind][e.EntityKey()] = body
	return nil
}

// Delete removes one entity; missing rows are a no-op.
func (m *Memory) Delete(kind entities.Kind, key ids.Key) error {
	delete(m.rows[kind], key)
	return nil
}

// List returns all entities of a kind ordered by key.
func (m *Memory) List(kind entities.Kind) ([]entities.Entity, error) {
	keys := make([]ids.Key, 0, len(m.rows[kind]))
	for k := range m.rows[kind] {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	out := make([]entities.Entity, 0, len(keys))
	for _, k := range keys {
		e, err := unmarshalEntity(kind, m.rows[kind][k])
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

// Count returns the total number of stored entities across all kinds.
func (m *Memory) Count() int {
	n := 0
	for _, rows := range m.rows {
		n += len(rows)
	}
	return n
}
