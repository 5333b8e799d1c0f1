package cli

import (
	"encoding/json"
	"fmt"
	"math/big"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DIGITALAX/fgo-futures-contracts/internal/entities"
	"github.com/DIGITALAX/fgo-futures-contracts/internal/ids"
	"github.com/DIGITALAX/fgo-futures-contracts/internal/store"
)

// writeIndexInputs prepares a manifest, a two-event NDJSON log, and an
// oracle fixtures file answering the metadata reads the events trigger.
func writeIndexInputs(t *testing.T) (manifestPath, dbPath, eventsPath, fixturesPath string) {
	t.Helper()
	dir := t.TempDir()
	manifestPath, dbPath = writeManifest(t, dir)

	events := fmt.Sprintf(`{"name":"ChildCreated","address":%q,"block_number":101,"block_timestamp":1700000000,"tx_hash":"0xcli01","log_index":1,"params":{"childId":"5"}}
{"name":"ChildCreated","address":%q,"block_number":102,"block_timestamp":1700000012,"tx_hash":"0xcli02","log_index":1,"params":{"childId":"6"}}
`, cliChildAddr, cliChildAddr)
	eventsPath = filepath.Join(dir, "events.ndjson")
	require.NoError(t, os.WriteFile(eventsPath, []byte(events), 0o644))

	fixtures := fmt.Sprintf(`
children:
  - contract: %q
    child_id: "5"
    uri: "ipfs://QmCliChild5"
    physical_price: "250"
  - contract: %q
    child_id: "6"
    uri: "ipfs://QmCliChild6"
    physical_price: "300"
`, cliChildAddr, cliChildAddr)
	fixturesPath = filepath.Join(dir, "fixtures.yaml")
	require.NoError(t, os.WriteFile(fixturesPath, []byte(fixtures), 0o644))
	return manifestPath, dbPath, eventsPath, fixturesPath
}

func decodeIndexResult(t *testing.T, out string) IndexResult {
	t.Helper()
	var resp struct {
		Status string      `json:"status"`
		Data   IndexResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.Equal(t, "ok", resp.Status)
	return resp.Data
}

func TestIndexReplaysEventLog(t *testing.T) {
	manifestPath, dbPath, eventsPath, fixturesPath := writeIndexInputs(t)

	out, err := execute(t, "--format", "json", "index", manifestPath,
		"--events", eventsPath, "--fixtures", fixturesPath)
	require.NoError(t, err)

	result := decodeIndexResult(t, out)
	assert.Equal(t, 2, result.Events)
	assert.Equal(t, 0, result.Skipped)
	assert.Equal(t, uint64(102), result.LastBlock)

	st, err := store.Open(dbPath)
	require.NoError(t, err)
	defer st.Close()

	e, ok, err := st.Load(entities.KindChild, ids.Child(ids.Addr(cliChildAddr), big.NewInt(5)))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "ipfs://QmCliChild5", e.(*entities.Child).URI)

	cursor, found, err := st.Cursor("lens-testnet")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, uint64(102), cursor)
}

func TestIndexSecondRunSkipsBehindCursor(t *testing.T) {
	manifestPath, _, eventsPath, fixturesPath := writeIndexInputs(t)

	_, err := execute(t, "index", manifestPath, "--events", eventsPath, "--fixtures", fixturesPath)
	require.NoError(t, err)

	out, err := execute(t, "--format", "json", "index", manifestPath,
		"--events", eventsPath, "--fixtures", fixturesPath)
	require.NoError(t, err)

	result := decodeIndexResult(t, out)
	assert.Equal(t, 0, result.Events)
	assert.Equal(t, 2, result.Skipped)
}

func TestIndexWithoutFixturesSkipsOracleDependentRows(t *testing.T) {
	manifestPath, dbPath, eventsPath, _ := writeIndexInputs(t)

	// Every oracle read reverts, so child creation is skipped but the run
	// still succeeds and advances the cursor.
	out, err := execute(t, "--format", "json", "index", manifestPath, "--events", eventsPath)
	require.NoError(t, err)

	result := decodeIndexResult(t, out)
	assert.Equal(t, 2, result.Events)

	st, err := store.Open(dbPath)
	require.NoError(t, err)
	defer st.Close()
	list, err := st.List(entities.KindChild)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestDumpKind(t *testing.T) {
	manifestPath, dbPath, eventsPath, fixturesPath := writeIndexInputs(t)
	_, err := execute(t, "index", manifestPath, "--events", eventsPath, "--fixtures", fixturesPath)
	require.NoError(t, err)

	out, err := execute(t, "dump", "--db", dbPath, "Child")
	require.NoError(t, err)

	var list []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &list))
	require.Len(t, list, 2)
	assert.Equal(t, "ipfs://QmCliChild5", list[0]["uri"])
}

func TestDumpSnapshot(t *testing.T) {
	manifestPath, dbPath, eventsPath, fixturesPath := writeIndexInputs(t)
	_, err := execute(t, "index", manifestPath, "--events", eventsPath, "--fixtures", fixturesPath)
	require.NoError(t, err)

	out, err := execute(t, "dump", "--db", dbPath)
	require.NoError(t, err)
	assert.Contains(t, out, `"Child"`)
	assert.Contains(t, out, "ipfs://QmCliChild6")
}

func TestDumpRejectsUnknownKind(t *testing.T) {
	_, dbPath, _, _ := writeIndexInputs(t)

	_, err := execute(t, "dump", "--db", dbPath, "Nope")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown entity kind")
}
