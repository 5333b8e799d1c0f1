package handlers

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DIGITALAX/fgo-futures-contracts/internal/chain"
	"github.com/DIGITALAX/fgo-futures-contracts/internal/entities"
	"github.com/DIGITALAX/fgo-futures-contracts/internal/ids"
	"github.com/DIGITALAX/fgo-futures-contracts/internal/store"
)

const supplierAddr = "0x4440000000000000000000000000000000000001"

func loadSupplier(t *testing.T, st store.Store, addr string) (*entities.Supplier, bool) {
	t.Helper()
	e, ok, err := st.Load(entities.KindSupplier, ids.Profile(big.NewInt(1), ids.Addr(addr)))
	require.NoError(t, err)
	if !ok {
		return nil, false
	}
	return e.(*entities.Supplier), true
}

func TestFulfillerCreatedFromOracleProfile(t *testing.T) {
	h, st, oracle := newTestHandlers(t)
	oracle.Fulfillers[ids.Uint(big.NewInt(3))] = chain.Profile{
		Address: ids.Addr(performerAddr), URI: "ipfs://QmFulfiller",
	}

	mustDispatch(t, h, testEvent("FulfillerCreated", registryAddr, map[string]string{
		"fulfillerId": "3", "fulfiller": performerAddr,
	}))

	e, ok, err := st.Load(entities.KindFulfiller, ids.Profile(big.NewInt(1), ids.Addr(performerAddr)))
	require.NoError(t, err)
	require.True(t, ok)
	f := e.(*entities.Fulfiller)
	assert.Equal(t, "ipfs://QmFulfiller", f.URI)
	assert.Equal(t, "QmFulfiller", f.Metadata)
	assert.Equal(t, big.NewInt(3), f.FulfillerID)
}

func TestFulfillerAddedSeedsMinimalProfile(t *testing.T) {
	h, st, _ := newTestHandlers(t)

	mustDispatch(t, h, testEvent("FulfillerAdded", registryAddr, map[string]string{
		"fulfiller": performerAddr,
	}))

	e, ok, err := st.Load(entities.KindFulfiller, ids.Profile(big.NewInt(1), ids.Addr(performerAddr)))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, ids.Addr(performerAddr), e.(*entities.Fulfiller).Fulfiller)
}

func TestFulfillerWalletTransferred(t *testing.T) {
	h, st, oracle := newTestHandlers(t)
	oracle.Fulfillers[ids.Uint(big.NewInt(3))] = chain.Profile{
		Address: ids.Addr(performerAddr), URI: "ipfs://QmFulfiller",
	}
	mustDispatch(t, h, testEvent("FulfillerCreated", registryAddr, map[string]string{
		"fulfillerId": "3", "fulfiller": performerAddr,
	}))

	mustDispatch(t, h, testEvent("FulfillerWalletTransferred", registryAddr, map[string]string{
		"oldWallet": performerAddr, "newWallet": holderAddr,
	}))

	_, ok, err := st.Load(entities.KindFulfiller, ids.Profile(big.NewInt(1), ids.Addr(performerAddr)))
	require.NoError(t, err)
	assert.False(t, ok)

	e, ok, err := st.Load(entities.KindFulfiller, ids.Profile(big.NewInt(1), ids.Addr(holderAddr)))
	require.NoError(t, err)
	require.True(t, ok)
	f := e.(*entities.Fulfiller)
	assert.Equal(t, ids.Addr(holderAddr), f.Fulfiller)
	assert.Equal(t, "ipfs://QmFulfiller", f.URI)
}

func TestSupplierLifecycle(t *testing.T) {
	h, st, oracle := newTestHandlers(t)
	oracle.Suppliers[ids.Uint(big.NewInt(4))] = chain.Profile{
		Address: ids.Addr(supplierAddr), URI: "ipfs://QmSupplier",
		Version: big.NewInt(1), IsActive: true,
	}

	mustDispatch(t, h, testEvent("SupplierCreated", registryAddr, map[string]string{
		"supplierId": "4", "supplier": supplierAddr,
	}))
	s, ok := loadSupplier(t, st, supplierAddr)
	require.True(t, ok)
	assert.True(t, s.IsActive)
	assert.Equal(t, big.NewInt(1), s.Version)

	oracle.Suppliers[ids.Uint(big.NewInt(4))] = chain.Profile{
		Address: ids.Addr(supplierAddr), URI: "ipfs://QmSupplierV2",
		Version: big.NewInt(2), IsActive: true,
	}
	mustDispatch(t, h, testEvent("SupplierUpdated", registryAddr, map[string]string{
		"supplier": supplierAddr,
	}))
	s, ok = loadSupplier(t, st, supplierAddr)
	require.True(t, ok)
	assert.Equal(t, "ipfs://QmSupplierV2", s.URI)
	assert.Equal(t, big.NewInt(2), s.Version)

	mustDispatch(t, h, testEvent("SupplierDeactivated", registryAddr, map[string]string{
		"supplier": supplierAddr,
	}))
	s, _ = loadSupplier(t, st, supplierAddr)
	assert.False(t, s.IsActive)

	mustDispatch(t, h, testEvent("SupplierReactivated", registryAddr, map[string]string{
		"supplier": supplierAddr,
	}))
	s, _ = loadSupplier(t, st, supplierAddr)
	assert.True(t, s.IsActive)

	mustDispatch(t, h, testEvent("SupplierWalletTransferred", registryAddr, map[string]string{
		"oldWallet": supplierAddr, "newWallet": holderAddr,
	}))
	_, ok = loadSupplier(t, st, supplierAddr)
	assert.False(t, ok)
	s, ok = loadSupplier(t, st, holderAddr)
	require.True(t, ok)
	assert.Equal(t, ids.Addr(holderAddr), s.Supplier)
}
