package handlers

import (
	"fmt"
	"log/slog"
	"math/big"

	"github.com/DIGITALAX/fgo-futures-contracts/internal/chain"
	"github.com/DIGITALAX/fgo-futures-contracts/internal/entities"
	"github.com/DIGITALAX/fgo-futures-contracts/internal/ids"
)

// ContractSettled finalizes a futures contract through a registered bot.
func (h *Handlers) ContractSettled(ev chain.Event) error {
	return h.settle(ev, false)
}

// EmergencySettlement finalizes a contract past its delay window; any
// caller may settle, so the settler is recorded but no bot counters are
// assumed to exist.
func (h *Handlers) EmergencySettlement(ev chain.Event) error {
	return h.settle(ev, true)
}

// settle writes the append-only settlement record, moves the contract to
// its terminal settled state, and snapshots the final position holders.
// Settlement of an already-settled contract rewrites the same record and
// changes nothing else.
func (h *Handlers) settle(ev chain.Event, emergency bool) error {
	contractID := ev.Big("contractId")
	contractKey := ids.FuturesContract(contractID)
	settler := ev.Addr("settler")

	rec := &entities.ContractSettled{
		ID:          ids.EventRecord(ev.TxHash, ev.LogIndex),
		ContractID:  contractID,
		Reward:      ev.Big("reward"),
		Settler:     settler,
		Emergency:   emergency,
		Contract:    contractKey,
		BlockNumber: new(big.Int).SetUint64(ev.BlockNumber),
		SettledAt:   ev.BlockTimestamp,
		TxHash:      ev.TxHash,
	}

	fc, ok, err := load[*entities.FuturesContract](h.Store, entities.KindFuturesContract, contractKey)
	if err != nil {
		return err
	}
	if !ok {
		slog.Warn("settlement for unknown contract", "contract", string(contractKey))
		return h.Store.Save(rec)
	}

	rec.FinalFillers, err = h.finalFillers(ev.Address, fc)
	if err != nil {
		return err
	}
	if err := h.Store.Save(rec); err != nil {
		return err
	}

	fc.IsSettled = true
	fc.IsActive = false
	fc.SettledAt = ev.BlockTimestamp
	fc.SettledContract = rec.ID
	if fc.FulfillerSettlement != nil && ev.BlockTimestamp != nil {
		fc.TimeSinceCompletion = new(big.Int).Sub(ev.BlockTimestamp, fc.FulfillerSettlement)
	}
	if err := h.Store.Save(fc); err != nil {
		return err
	}

	bot, ok, _, err := h.mirrorBot(ev.Address, settler)
	if err != nil {
		return err
	}
	if ok {
		rec.SettlementBot = bot.ID
		if err := h.Store.Save(rec); err != nil {
			return err
		}
		bot.SettledContracts = entities.AppendKeyOnce(bot.SettledContracts, fc.ID)
		return h.Store.Save(bot)
	}
	return nil
}

// finalFillers walks the contract's sell orders and returns the distinct
// fill addresses that still hold position tokens at settlement time. The
// seen set keeps each address once across all orders.
func (h *Handlers) finalFillers(settlement ids.Address, fc *entities.FuturesContract) ([]ids.Address, error) {
	seen := make(map[ids.Address]bool)
	var out []ids.Address
	for _, orderKey := range fc.Orders {
		order, ok, err := load[*entities.Order](h.Store, entities.KindOrder, orderKey)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		for _, fk := range order.Fillers {
			fill, ok, err := load[*entities.Filler](h.Store, entities.KindFiller, fk)
			if err != nil {
				return nil, err
			}
			if !ok || seen[fill.Filler] {
				continue
			}
			seen[fill.Filler] = true

			balance, err := h.Oracle.BalanceOf(settlement, fill.Filler, fc.TokenID)
			if err != nil && !chain.Reverted(err) {
				return nil, fmt.Errorf("read position balance: %w", err)
			}
			if err == nil && balance != nil && balance.Sign() > 0 {
				out = append(out, fill.Filler)
			}
		}
	}
	return out, nil
}

// mirrorBot upserts a settlement bot row. The oracle read is the authority
// for stake and counters; when it reverts the previously stored values are
// kept and event-derived fallbacks apply instead. ok is false when the
// address is neither stored nor readable, i.e. not a registered bot.
func (h *Handlers) mirrorBot(contract ids.Address, addr ids.Address) (bot *entities.SettlementBot, ok, mirrored bool, err error) {
	key := ids.SettlementBot(addr)
	bot, ok, err = load[*entities.SettlementBot](h.Store, entities.KindSettlementBot, key)
	if err != nil {
		return nil, false, false, err
	}

	data, oerr := h.Oracle.GetSettlementBot(contract, addr)
	if oerr != nil && !chain.Reverted(oerr) {
		return nil, false, false, fmt.Errorf("read settlement bot: %w", oerr)
	}
	if oerr != nil && !ok {
		return nil, false, false, nil
	}
	if !ok {
		bot = &entities.SettlementBot{ID: key, Bot: addr}
	}
	if oerr == nil {
		bot.StakeAmount = data.Staked
		bot.TotalSettlements = data.TotalSettlements
		bot.AverageDelaySeconds = data.AverageDelaySeconds
		bot.TotalSlashEvents = data.SlashEvents
		mirrored = true
	}
	return bot, true, mirrored, nil
}

// SettlementBotRegistered creates or refreshes a bot profile. The stake
// parameter seeds the row when the oracle read reverts.
func (h *Handlers) SettlementBotRegistered(ev chain.Event) error {
	addr := ev.Addr("bot")
	bot, ok, mirrored, err := h.mirrorBot(ev.Address, addr)
	if err != nil {
		return err
	}
	if !ok {
		bot = &entities.SettlementBot{ID: ids.SettlementBot(addr), Bot: addr}
	}
	if !mirrored && bot.StakeAmount == nil {
		bot.StakeAmount = ev.Big("stakeAmount")
	}
	return h.Store.Save(bot)
}

// StakeIncreased mirrors the bot's stake from the oracle, falling back to
// accumulating the event amount when the read reverts.
func (h *Handlers) StakeIncreased(ev chain.Event) error {
	return h.adjustBot(ev, func(bot *entities.SettlementBot) {
		bot.StakeAmount = addBig(bot.StakeAmount, ev.Big("amount"))
	}, nil)
}

// StakeWithdrawn mirrors the bot's stake from the oracle, falling back to
// subtracting the event amount when the read reverts.
func (h *Handlers) StakeWithdrawn(ev chain.Event) error {
	return h.adjustBot(ev, func(bot *entities.SettlementBot) {
		bot.StakeAmount = subBigFloor(bot.StakeAmount, ev.Big("amount"))
	}, nil)
}

// SettlementBotSlashed records a stake slash. The slashed total is
// event-derived and accumulates regardless of the mirror; stake and slash
// count fall back to event arithmetic only on revert.
func (h *Handlers) SettlementBotSlashed(ev chain.Event) error {
	return h.adjustBot(ev, func(bot *entities.SettlementBot) {
		bot.StakeAmount = subBigFloor(bot.StakeAmount, ev.Big("amount"))
		bot.TotalSlashEvents = addBig(bot.TotalSlashEvents, big.NewInt(1))
	}, func(bot *entities.SettlementBot) {
		bot.TotalAmountSlashed = addBig(bot.TotalAmountSlashed, ev.Big("amount"))
	})
}

// RewardSlashed records a reward slash; the stake itself is untouched.
func (h *Handlers) RewardSlashed(ev chain.Event) error {
	return h.adjustBot(ev, nil, func(bot *entities.SettlementBot) {
		bot.TotalRewardSlashed = addBig(bot.TotalRewardSlashed, ev.Big("amount"))
	})
}

// adjustBot updates a bot row around the oracle mirror: onRevert runs only
// when the mirror could not refresh the row, always runs regardless.
func (h *Handlers) adjustBot(ev chain.Event, onRevert, always func(*entities.SettlementBot)) error {
	addr := ev.Addr("bot")
	bot, ok, mirrored, err := h.mirrorBot(ev.Address, addr)
	if err != nil {
		return err
	}
	if !ok {
		slog.Warn("stake event for unregistered bot", "bot", string(addr))
		return nil
	}
	if !mirrored && onRevert != nil {
		onRevert(bot)
	}
	if always != nil {
		always(bot)
	}
	return h.Store.Save(bot)
}
