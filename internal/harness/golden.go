package harness

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/DIGITALAX/fgo-futures-contracts/internal/entities"
	"github.com/DIGITALAX/fgo-futures-contracts/internal/store"
)

// Snapshot serializes the full entity state as canonical indented JSON,
// kinds and ids in sorted order. Two stores with identical entity state
// produce byte-identical snapshots.
func Snapshot(st store.Store) ([]byte, error) {
	dump := make(map[string]map[string]entities.Entity)
	for _, kind := range entities.Kinds() {
		list, err := st.List(kind)
		if err != nil {
			return nil, err
		}
		if len(list) == 0 {
			continue
		}
		rows := make(map[string]entities.Entity, len(list))
		for _, e := range list {
			rows[string(e.EntityKey())] = e
		}
		dump[string(kind)] = rows
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(dump); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// RunGolden runs the scenario, checks its assertions, and compares the
// state snapshot against testdata/golden/{name}.golden. Scenarios with
// replay set additionally must converge on the same snapshot after a
// second full redelivery. Regenerate goldens with go test -update.
func RunGolden(t *testing.T, s *Scenario) {
	t.Helper()

	st, err := Run(s)
	if err != nil {
		t.Fatalf("run scenario: %v", err)
	}
	if err := Check(st, s); err != nil {
		t.Fatal(err)
	}

	snap, err := Snapshot(st)
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}

	if s.Replay {
		replayed, err := RunTwice(s)
		if err != nil {
			t.Fatalf("replay scenario: %v", err)
		}
		if err := Check(replayed, s); err != nil {
			t.Fatalf("assertions diverged under replay: %v", err)
		}
		resnap, err := Snapshot(replayed)
		if err != nil {
			t.Fatalf("replay snapshot: %v", err)
		}
		if !bytes.Equal(snap, resnap) {
			t.Fatalf("state diverged under replay:\nfirst run:\n%s\nreplayed:\n%s", snap, resnap)
		}
	}

	if s.Golden {
		g := goldie.New(t, goldie.WithFixtureDir("testdata/golden"))
		g.Assert(t, s.Name, snap)
	}
}
