package handlers

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DIGITALAX/fgo-futures-contracts/internal/chain"
	"github.com/DIGITALAX/fgo-futures-contracts/internal/entities"
	"github.com/DIGITALAX/fgo-futures-contracts/internal/ids"
)

const mevAddr = "0xddd0000000000000000000000000000000000005"

func TestMEVEventsBecomeRecords(t *testing.T) {
	h, st, _ := newTestHandlers(t)
	h.RegisterSource(ids.Addr(mevAddr), chain.SourceContext{Kind: "mev"})

	reg := testEvent("MEVBotRegistered", mevAddr, map[string]string{
		"bot": botAddr, "stakeAmount": "5000",
	})
	mustDispatch(t, h, reg)
	slash := testEvent("MEVBotSlashed", mevAddr, map[string]string{
		"bot": botAddr, "slashAmount": "700",
	})
	mustDispatch(t, h, slash)
	withdraw := testEvent("StakeWithdrawn", mevAddr, map[string]string{
		"bot": botAddr, "amount": "4300",
	})
	mustDispatch(t, h, withdraw)

	e, ok, err := st.Load(entities.KindMEVBotRegistered, ids.EventRecord(reg.TxHash, reg.LogIndex))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, big.NewInt(5000), e.(*entities.MEVBotRegistered).StakeAmount)

	e, ok, err = st.Load(entities.KindMEVBotSlashed, ids.EventRecord(slash.TxHash, slash.LogIndex))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, big.NewInt(700), e.(*entities.MEVBotSlashed).SlashAmount)

	e, ok, err = st.Load(entities.KindStakeWithdrawn, ids.EventRecord(withdraw.TxHash, withdraw.LogIndex))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, big.NewInt(4300), e.(*entities.StakeWithdrawn).Amount)

	// Stake events on the MEV source never touch settlement bot profiles.
	_, ok, err = st.Load(entities.KindSettlementBot, ids.SettlementBot(ids.Addr(botAddr)))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMEVContractSettledIsRecordOnly(t *testing.T) {
	h, st, _ := newTestHandlers(t)
	h.RegisterSource(ids.Addr(mevAddr), chain.SourceContext{Kind: "mev"})

	settled := testEvent("ContractSettled", mevAddr, map[string]string{
		"contractId": "7", "reward": "250",
		"mevBot": botAddr, "actualCompletionTime": "1700000100",
	})
	mustDispatch(t, h, settled)
	mustDispatch(t, h, settled)

	e, ok, err := st.Load(entities.KindContractSettled, ids.EventRecord(settled.TxHash, settled.LogIndex))
	require.NoError(t, err)
	require.True(t, ok)
	rec := e.(*entities.ContractSettled)
	assert.Equal(t, ids.Addr(botAddr), rec.MEVBot)
	assert.Equal(t, big.NewInt(1_700_000_100), rec.ActualCompletionTime)
	assert.Equal(t, ids.FuturesContract(big.NewInt(7)), rec.Contract)

	// The record stands alone; only the settlement contract's event drives
	// the futures contract's terminal transition.
	assert.Equal(t, 1, st.Count())
}

func TestTradingRightsEventsBecomeRecords(t *testing.T) {
	h, st, _ := newTestHandlers(t)
	h.RegisterSource(ids.Addr(tradingAddr), chain.SourceContext{Kind: "trading"})

	rightsKey := string(ids.PhysicalRights(big.NewInt(5), ids.Addr(childAddr), big.NewInt(1), ids.Addr(buyerAddr), ids.Addr(marketAddr)))
	dep := testEvent("RightsDeposited", tradingAddr, map[string]string{
		"rightsKey":      rightsKey,
		"depositor":      buyerAddr,
		"childContract":  childAddr,
		"originalMarket": marketAddr,
		"childId":        "5",
		"orderId":        "1",
		"amount":         "10",
	})
	mustDispatch(t, h, dep)
	mustDispatch(t, h, dep)

	e, ok, err := st.Load(entities.KindRightsDeposited, ids.EventRecord(dep.TxHash, dep.LogIndex))
	require.NoError(t, err)
	require.True(t, ok)
	rec := e.(*entities.RightsDeposited)
	assert.Equal(t, ids.Key(rightsKey), rec.RightsKey)
	assert.Equal(t, big.NewInt(10), rec.Amount)

	// No escrow row: the trading source's deposit event is a record, not
	// the escrow reconciliation.
	escrows, err := st.List(entities.KindEscrowedRight)
	require.NoError(t, err)
	assert.Empty(t, escrows)
	assert.Equal(t, 1, st.Count())

	wd := testEvent("RightsWithdrawn", tradingAddr, map[string]string{
		"rightsKey": rightsKey, "withdrawer": buyerAddr, "amount": "10",
	})
	mustDispatch(t, h, wd)

	e, ok, err = st.Load(entities.KindRightsWithdrawn, ids.EventRecord(wd.TxHash, wd.LogIndex))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, ids.Addr(buyerAddr), e.(*entities.RightsWithdrawn).Withdrawer)
}
