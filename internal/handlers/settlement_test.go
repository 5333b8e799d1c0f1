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

func loadBot(t *testing.T, st store.Store) (*entities.SettlementBot, bool) {
	t.Helper()
	e, ok, err := st.Load(entities.KindSettlementBot, ids.SettlementBot(ids.Addr(botAddr)))
	require.NoError(t, err)
	if !ok {
		return nil, false
	}
	return e.(*entities.SettlementBot), true
}

func TestSettlementBotRegistered(t *testing.T) {
	h, st, oracle := newTestHandlers(t)
	oracle.Bots[ids.Addr(botAddr)] = chain.SettlementBotData{
		Staked:           big.NewInt(5000),
		TotalSettlements: big.NewInt(0),
	}

	mustDispatch(t, h, testEvent("SettlementBotRegistered", settlementAddr, map[string]string{
		"bot": botAddr, "stakeAmount": "5000",
	}))

	bot, ok := loadBot(t, st)
	require.True(t, ok)
	assert.Equal(t, big.NewInt(5000), bot.StakeAmount)
}

func TestStakeLifecycleFallsBackToEventAmounts(t *testing.T) {
	h, st, _ := newTestHandlers(t)

	// Oracle has no bot fixture, so SettlementBotRegistered seeds from the
	// event and later events adjust arithmetically.
	mustDispatch(t, h, testEvent("SettlementBotRegistered", settlementAddr, map[string]string{
		"bot": botAddr, "stakeAmount": "5000",
	}))
	mustDispatch(t, h, testEvent("StakeIncreased", settlementAddr, map[string]string{
		"bot": botAddr, "amount": "1000",
	}))
	mustDispatch(t, h, testEvent("SettlementBotSlashed", settlementAddr, map[string]string{
		"bot": botAddr, "amount": "2000",
	}))
	mustDispatch(t, h, testEvent("RewardSlashed", settlementAddr, map[string]string{
		"bot": botAddr, "amount": "300",
	}))
	mustDispatch(t, h, testEvent("StakeWithdrawn", settlementAddr, map[string]string{
		"bot": botAddr, "amount": "4000",
	}))

	bot, ok := loadBot(t, st)
	require.True(t, ok)
	assert.Zero(t, bot.StakeAmount.Sign())
	assert.Equal(t, big.NewInt(1), bot.TotalSlashEvents)
	assert.Equal(t, big.NewInt(2000), bot.TotalAmountSlashed)
	assert.Equal(t, big.NewInt(300), bot.TotalRewardSlashed)
}

func TestContractSettledIsTerminal(t *testing.T) {
	h, st, oracle := newTestHandlers(t)
	seedOpenContract(t, h, oracle)
	oracle.Bots[ids.Addr(botAddr)] = chain.SettlementBotData{
		Staked: big.NewInt(5000), TotalSettlements: big.NewInt(1),
	}

	// Two fills; only the first filler still holds position tokens when
	// settlement snapshots holders.
	mustDispatch(t, h, testEvent("SellOrderFilled", tradingAddr, map[string]string{
		"orderId": "1", "filler": buyerAddr, "quantity": "4",
	}))
	mustDispatch(t, h, testEvent("SellOrderFilled", tradingAddr, map[string]string{
		"orderId": "1", "filler": performerAddr, "quantity": "6",
	}))
	oracle.SetBalance(ids.Addr(buyerAddr), big.NewInt(77), big.NewInt(4))
	oracle.SetBalance(ids.Addr(performerAddr), big.NewInt(77), new(big.Int))

	mustDispatch(t, h, testEvent("ContractSettled", settlementAddr, map[string]string{
		"contractId": "7", "settler": botAddr, "reward": "50",
	}))

	fc, ok := loadFutures(t, st, 7)
	require.True(t, ok)
	assert.True(t, fc.IsSettled)
	assert.False(t, fc.IsActive)
	require.NotEmpty(t, fc.SettledContract)

	e, ok, err := st.Load(entities.KindContractSettled, fc.SettledContract)
	require.NoError(t, err)
	require.True(t, ok)
	rec := e.(*entities.ContractSettled)
	assert.False(t, rec.Emergency)
	assert.Equal(t, big.NewInt(50), rec.Reward)
	assert.Equal(t, []ids.Address{ids.Addr(buyerAddr)}, rec.FinalFillers)
	assert.Equal(t, ids.SettlementBot(ids.Addr(botAddr)), rec.SettlementBot)

	bot, ok := loadBot(t, st)
	require.True(t, ok)
	assert.Equal(t, big.NewInt(1), bot.TotalSettlements)
	assert.Equal(t, []ids.Key{fc.ID}, bot.SettledContracts)
}

func TestEmergencySettlementByNonBot(t *testing.T) {
	h, st, oracle := newTestHandlers(t)
	seedOpenContract(t, h, oracle)

	mustDispatch(t, h, testEvent("EmergencySettlement", settlementAddr, map[string]string{
		"contractId": "7", "settler": buyerAddr, "reward": "0",
	}))

	fc, ok := loadFutures(t, st, 7)
	require.True(t, ok)
	assert.True(t, fc.IsSettled)

	e, ok, err := st.Load(entities.KindContractSettled, fc.SettledContract)
	require.NoError(t, err)
	require.True(t, ok)
	rec := e.(*entities.ContractSettled)
	assert.True(t, rec.Emergency)
	assert.Equal(t, ids.Addr(buyerAddr), rec.Settler)
	assert.Empty(t, rec.SettlementBot)
}
