package store

import (
	"math/big"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DIGITALAX/fgo-futures-contracts/internal/entities"
	"github.com/DIGITALAX/fgo-futures-contracts/internal/ids"
)

func openTestStore(t *testing.T) *SQLite {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func testChild() *entities.Child {
	return &entities.Child{
		ID:            ids.Child(ids.Addr("0xaa"), big.NewInt(7)),
		ChildContract: ids.Addr("0xaa"),
		ChildID:       big.NewInt(7),
		URI:           "ipfs://QmChild/meta.json",
		PhysicalPrice: big.NewInt(1500),
	}
}

func TestSQLite_SaveLoadRoundtrip(t *testing.T) {
	s := openTestStore(t)

	child := testChild()
	require.NoError(t, s.Save(child))

	got, ok, err := s.Load(entities.KindChild, child.ID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, child, got)
}

func TestSQLite_LoadMissing(t *testing.T) {
	s := openTestStore(t)

	got, ok, err := s.Load(entities.KindChild, ids.Key("0xaa-0x1"))
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, got)
}

func TestSQLite_SaveIsUpsert(t *testing.T) {
	s := openTestStore(t)

	child := testChild()
	require.NoError(t, s.Save(child))

	child.URI = "ipfs://QmChild/v2.json"
	require.NoError(t, s.Save(child))

	got, ok, err := s.Load(entities.KindChild, child.ID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "ipfs://QmChild/v2.json", got.(*entities.Child).URI)

	all, err := s.List(entities.KindChild)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestSQLite_DeleteMissingIsNoop(t *testing.T) {
	s := openTestStore(t)

	assert.NoError(t, s.Delete(entities.KindChild, ids.Key("0x0-0x0")))
}

func TestSQLite_DeleteRemovesRow(t *testing.T) {
	s := openTestStore(t)

	child := testChild()
	require.NoError(t, s.Save(child))
	require.NoError(t, s.Delete(entities.KindChild, child.ID))

	_, ok, err := s.Load(entities.KindChild, child.ID)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSQLite_BigAmountsSurviveRoundtrip(t *testing.T) {
	s := openTestStore(t)

	amount, ok := new(big.Int).SetString("340282366920938463463374607431768211455", 10)
	require.True(t, ok)

	rights := &entities.PhysicalRights{
		ID:               ids.Key("0x7-0xaa-0xc-0xcc-0xbb"),
		ChildID:          big.NewInt(7),
		OrderID:          big.NewInt(12),
		Holder:           ids.Addr("0xcc"),
		Buyer:            ids.Addr("0xcc"),
		PurchaseMarket:   ids.Addr("0xbb"),
		GuaranteedAmount: amount,
	}
	require.NoError(t, s.Save(rights))

	got, found, err := s.Load(entities.KindPhysicalRights, rights.ID)
	require.NoError(t, err)
	require.True(t, found)
	assert.Zero(t, amount.Cmp(got.(*entities.PhysicalRights).GuaranteedAmount))
}

func TestSQLite_Cursor(t *testing.T) {
	s := openTestStore(t)

	_, ok, err := s.Cursor("factory")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.AdvanceCursor("factory", 100))
	block, ok, err := s.Cursor("factory")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, uint64(100), block)

	// Replaying an older block must not move the cursor backwards.
	require.NoError(t, s.AdvanceCursor("factory", 90))
	block, _, err = s.Cursor("factory")
	require.NoError(t, err)
	assert.Equal(t, uint64(100), block)

	require.NoError(t, s.AdvanceCursor("factory", 150))
	block, _, err = s.Cursor("factory")
	require.NoError(t, err)
	assert.Equal(t, uint64(150), block)
}

func TestMemory_CopySemantics(t *testing.T) {
	m := NewMemory()

	child := testChild()
	require.NoError(t, m.Save(child))

	// Mutating the saved value must not leak into the store.
	child.URI = "mutated"

	got, ok, err := m.Load(entities.KindChild, child.ID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "ipfs://QmChild/meta.json", got.(*entities.Child).URI)

	// Mutating a loaded value must not leak either.
	got.(*entities.Child).URI = "mutated again"
	again, _, err := m.Load(entities.KindChild, child.ID)
	require.NoError(t, err)
	assert.Equal(t, "ipfs://QmChild/meta.json", again.(*entities.Child).URI)
}

func TestMemory_ListOrderedByKey(t *testing.T) {
	m := NewMemory()

	for _, id := range []int64{3, 1, 2} {
		require.NoError(t, m.Save(&entities.Child{
			ID:            ids.Child(ids.Addr("0xaa"), big.NewInt(id)),
			ChildContract: ids.Addr("0xaa"),
			ChildID:       big.NewInt(id),
		}))
	}

	all, err := m.List(entities.KindChild)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, ids.Key("0xaa-0x1"), all[0].EntityKey())
	assert.Equal(t, ids.Key("0xaa-0x2"), all[1].EntityKey())
	assert.Equal(t, ids.Key("0xaa-0x3"), all[2].EntityKey())
}
