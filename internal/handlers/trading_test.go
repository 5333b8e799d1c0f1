package handlers

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DIGITALAX/fgo-futures-contracts/internal/chain"
	"github.com/DIGITALAX/fgo-futures-contracts/internal/chain/chaintest"
	"github.com/DIGITALAX/fgo-futures-contracts/internal/entities"
	"github.com/DIGITALAX/fgo-futures-contracts/internal/ids"
	"github.com/DIGITALAX/fgo-futures-contracts/internal/store"
)

func seedOpenContract(t *testing.T, h *Handlers, oracle *chaintest.Oracle) {
	t.Helper()
	oracle.Futures[ids.Uint(big.NewInt(7))] = chain.FuturesContractData{
		TokenID: big.NewInt(77), Quantity: big.NewInt(10), IsActive: true,
	}
	mustDispatch(t, h, testEvent("RightsDeposited", escrowAddr, depositParams("10")))
	mustDispatch(t, h, testEvent("FuturesContractOpened", futuresAddr, openParams("7", "10")))
	mustDispatch(t, h, testEvent("SellOrderCreated", tradingAddr, map[string]string{
		"orderId": "1", "contractId": "7", "seller": holderAddr,
		"quantity": "10", "pricePerUnit": "120",
	}))
}

func loadOrder(t *testing.T, st store.Store, orderID int64) *entities.Order {
	t.Helper()
	e, ok, err := st.Load(entities.KindOrder, ids.SellOrder(ids.Addr(tradingAddr), big.NewInt(orderID)))
	require.NoError(t, err)
	require.True(t, ok)
	return e.(*entities.Order)
}

func TestSellOrderCreatedLinksContract(t *testing.T) {
	h, st, oracle := newTestHandlers(t)
	seedOpenContract(t, h, oracle)

	order := loadOrder(t, st, 1)
	assert.True(t, order.IsActive)
	assert.False(t, order.Filled)
	assert.Equal(t, big.NewInt(10), order.Quantity)
	assert.Equal(t, ids.FuturesContract(big.NewInt(7)), order.Contract)

	fc, ok := loadFutures(t, st, 7)
	require.True(t, ok)
	assert.Equal(t, []ids.Key{order.ID}, fc.Orders)
}

func TestSellOrderFillsSumToFilled(t *testing.T) {
	h, st, oracle := newTestHandlers(t)
	seedOpenContract(t, h, oracle)

	mustDispatch(t, h, testEvent("SellOrderFilled", tradingAddr, map[string]string{
		"orderId": "1", "filler": buyerAddr, "quantity": "4",
	}))
	order := loadOrder(t, st, 1)
	assert.Equal(t, big.NewInt(4), order.FilledQuantity)
	assert.False(t, order.Filled)

	mustDispatch(t, h, testEvent("SellOrderFilled", tradingAddr, map[string]string{
		"orderId": "1", "filler": performerAddr, "quantity": "6",
	}))
	order = loadOrder(t, st, 1)
	assert.Equal(t, big.NewInt(10), order.FilledQuantity)
	assert.True(t, order.Filled)
	assert.Len(t, order.Fillers, 2)
}

func TestSellOrderFillReplayDoesNotDrift(t *testing.T) {
	h, st, oracle := newTestHandlers(t)
	seedOpenContract(t, h, oracle)

	fill := testEvent("SellOrderFilled", tradingAddr, map[string]string{
		"orderId": "1", "filler": buyerAddr, "quantity": "4",
	})
	mustDispatch(t, h, fill)
	mustDispatch(t, h, fill)

	order := loadOrder(t, st, 1)
	assert.Equal(t, big.NewInt(4), order.FilledQuantity)
	assert.Len(t, order.Fillers, 1)
}

func TestSellOrderCancelled(t *testing.T) {
	h, st, oracle := newTestHandlers(t)
	seedOpenContract(t, h, oracle)

	mustDispatch(t, h, testEvent("SellOrderCancelled", tradingAddr, map[string]string{"orderId": "1"}))
	assert.False(t, loadOrder(t, st, 1).IsActive)
}
