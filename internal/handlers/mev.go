package handlers

import (
	"math/big"

	"github.com/DIGITALAX/fgo-futures-contracts/internal/chain"
	"github.com/DIGITALAX/fgo-futures-contracts/internal/entities"
	"github.com/DIGITALAX/fgo-futures-contracts/internal/ids"
)

// The MEV contract lets searcher bots race to settle matured futures for a
// reward. Unlike the settlement contract it keeps no mirrored bot profile;
// every event becomes an append-only record keyed by the emitting log, so
// redelivery rewrites the same row.

// MEVBotRegistered appends the staking record for a searcher bot.
func (h *Handlers) MEVBotRegistered(ev chain.Event) error {
	return h.Store.Save(&entities.MEVBotRegistered{
		ID:             ids.EventRecord(ev.TxHash, ev.LogIndex),
		Bot:            ev.Addr("bot"),
		StakeAmount:    ev.Big("stakeAmount"),
		BlockNumber:    new(big.Int).SetUint64(ev.BlockNumber),
		BlockTimestamp: ev.BlockTimestamp,
		TxHash:         ev.TxHash,
	})
}

// MEVBotSlashed appends a stake-slash record.
func (h *Handlers) MEVBotSlashed(ev chain.Event) error {
	return h.Store.Save(&entities.MEVBotSlashed{
		ID:             ids.EventRecord(ev.TxHash, ev.LogIndex),
		Bot:            ev.Addr("bot"),
		SlashAmount:    ev.Big("slashAmount"),
		BlockNumber:    new(big.Int).SetUint64(ev.BlockNumber),
		BlockTimestamp: ev.BlockTimestamp,
		TxHash:         ev.TxHash,
	})
}

// MEVContractSettled appends the settlement record for a MEV-settled
// contract. The contract's terminal state transition is driven by the
// settlement contract's own event, not here.
func (h *Handlers) MEVContractSettled(ev chain.Event) error {
	contractID := ev.Big("contractId")
	return h.Store.Save(&entities.ContractSettled{
		ID:                   ids.EventRecord(ev.TxHash, ev.LogIndex),
		ContractID:           contractID,
		Reward:               ev.Big("reward"),
		Settler:              ev.Addr("mevBot"),
		MEVBot:               ev.Addr("mevBot"),
		ActualCompletionTime: ev.Big("actualCompletionTime"),
		Contract:             ids.FuturesContract(contractID),
		BlockNumber:          new(big.Int).SetUint64(ev.BlockNumber),
		SettledAt:            ev.BlockTimestamp,
		TxHash:               ev.TxHash,
	})
}

// MEVStakeWithdrawn appends a stake-withdrawal record.
func (h *Handlers) MEVStakeWithdrawn(ev chain.Event) error {
	return h.Store.Save(&entities.StakeWithdrawn{
		ID:             ids.EventRecord(ev.TxHash, ev.LogIndex),
		Bot:            ev.Addr("bot"),
		Amount:         ev.Big("amount"),
		BlockNumber:    new(big.Int).SetUint64(ev.BlockNumber),
		BlockTimestamp: ev.BlockTimestamp,
		TxHash:         ev.TxHash,
	})
}
