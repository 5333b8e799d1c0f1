package handlers

import (
	"fmt"
	"log/slog"
	"math/big"

	"github.com/DIGITALAX/fgo-futures-contracts/internal/chain"
	"github.com/DIGITALAX/fgo-futures-contracts/internal/entities"
	"github.com/DIGITALAX/fgo-futures-contracts/internal/ids"
	"github.com/DIGITALAX/fgo-futures-contracts/internal/metadata"
)

// FuturesContractOpened materializes a new futures contract and consumes
// collateral from its escrow row. Event parameters carry the provenance
// tuple; the oracle fills in the tokenized-position details.
func (h *Handlers) FuturesContractOpened(ev chain.Event) error {
	contractID := ev.Big("contractId")
	key := ids.FuturesContract(contractID)

	fc, ok, err := load[*entities.FuturesContract](h.Store, entities.KindFuturesContract, key)
	if err != nil {
		return err
	}
	if !ok {
		fc = &entities.FuturesContract{ID: key, ContractID: contractID}
	}

	childID := ev.Big("childId")
	childContract := ev.Addr("childContract")
	market := ev.Addr("originalMarket")
	holder := ev.Addr("holder")
	orderID := ev.Big("orderId")

	fc.MarketOrderID = orderID
	fc.ChildID = childID
	fc.ChildContract = childContract
	fc.OriginalMarket = market
	fc.OriginalHolder = holder
	fc.Child = ids.Child(childContract, childID)
	fc.Quantity = ev.Big("quantity")
	fc.PricePerUnit = ev.Big("pricePerUnit")
	fc.CreatedAt = ev.BlockTimestamp
	fc.IsActive = true

	data, err := h.Oracle.GetFuturesContract(ev.Address, contractID)
	if err != nil && !chain.Reverted(err) {
		return fmt.Errorf("read futures contract: %w", err)
	}
	if err == nil {
		fc.TokenID = data.TokenID
		if data.Quantity != nil {
			fc.Quantity = data.Quantity
		}
		if data.CreatedAt != nil {
			fc.CreatedAt = data.CreatedAt
		}
		fc.SettlementRewardBPS = data.SettlementRewardBPS
		fc.FuturesSettlementDate = data.FuturesSettlementDate
		fc.IsActive = data.IsActive
		fc.IsSettled = data.IsSettled
		fc.URI = data.URI
		fc.TrustedSettlementBots = data.TrustedSettlementBots
		if hash := metadata.HashFromURI(data.URI); hash != "" {
			fc.Metadata = hash
			h.Meta.Register(entities.KindMetadata, hash)
		}
	}

	delay, err := h.Oracle.MaxSettlementDelay(ev.Address)
	if err != nil && !chain.Reverted(err) {
		return fmt.Errorf("read max settlement delay: %w", err)
	}
	if err == nil {
		fc.MaxSettlementDelay = delay
	}

	escrowKey := ids.PhysicalRights(childID, childContract, orderID, holder, market)
	escrow, ok, err := load[*entities.EscrowedRight](h.Store, entities.KindEscrowedRight, escrowKey)
	if err != nil {
		return err
	}
	if !ok {
		// The futures contract stores the canonical rights key; when the
		// event-derived tuple does not resolve, fall back to it.
		rk, rerr := h.Oracle.GetContractRightsKey(ev.Address, contractID)
		if rerr != nil && !chain.Reverted(rerr) {
			return fmt.Errorf("read contract rights key: %w", rerr)
		}
		if rerr == nil && rk != "" && rk != escrowKey {
			escrowKey = rk
			escrow, ok, err = load[*entities.EscrowedRight](h.Store, entities.KindEscrowedRight, escrowKey)
			if err != nil {
				return err
			}
		}
	}
	if ok {
		fc.Escrowed = escrow.ID
		if !containsKey(escrow.Contracts, key) {
			escrow.Contracts = append(escrow.Contracts, key)
			escrow.AmountUsedForFutures = addBig(escrow.AmountUsedForFutures, fc.Quantity)
			escrow.FuturesCreated = true
			if err := h.Store.Save(escrow); err != nil {
				return err
			}
		}
	} else {
		slog.Warn("futures contract opened against unknown escrow",
			"contract", string(key), "escrow", string(escrowKey))
	}

	return h.Store.Save(fc)
}

// FuturesContractCancelled terminally deactivates a contract, deactivates
// its sell orders, and releases exactly this contract's quantity back to
// the escrow. Other contracts drawing on the same escrow keep their
// reservation.
func (h *Handlers) FuturesContractCancelled(ev chain.Event) error {
	key := ids.FuturesContract(ev.Big("contractId"))
	fc, ok, err := load[*entities.FuturesContract](h.Store, entities.KindFuturesContract, key)
	if err != nil || !ok {
		return err
	}
	if fc.IsSettled {
		slog.Warn("cancellation for settled contract ignored", "contract", string(key))
		return nil
	}
	if !fc.IsActive {
		return nil
	}
	fc.IsActive = false

	for _, orderKey := range fc.Orders {
		order, ok, err := load[*entities.Order](h.Store, entities.KindOrder, orderKey)
		if err != nil {
			return err
		}
		if !ok || !order.IsActive {
			continue
		}
		order.IsActive = false
		if err := h.Store.Save(order); err != nil {
			return err
		}
	}

	if fc.Escrowed != "" {
		escrow, ok, err := load[*entities.EscrowedRight](h.Store, entities.KindEscrowedRight, fc.Escrowed)
		if err != nil {
			return err
		}
		if ok && containsKey(escrow.Contracts, key) {
			escrow.AmountUsedForFutures = subBigFloor(escrow.AmountUsedForFutures, fc.Quantity)
			escrow.Contracts = removeKey(escrow.Contracts, key)
			escrow.FuturesCreated = len(escrow.Contracts) > 0
			if err := h.Store.Save(escrow); err != nil {
				return err
			}
		}
	}
	return h.Store.Save(fc)
}

func containsKey(list []ids.Key, key ids.Key) bool {
	for _, k := range list {
		if k == key {
			return true
		}
	}
	return false
}

func removeKey(list []ids.Key, key ids.Key) []ids.Key {
	out := list[:0]
	for _, k := range list {
		if k != key {
			out = append(out, k)
		}
	}
	return out
}

func addBig(a, b *big.Int) *big.Int {
	if a == nil {
		a = new(big.Int)
	}
	if b == nil {
		return a
	}
	return new(big.Int).Add(a, b)
}

// subBigFloor subtracts b from a, flooring at zero. Going negative would
// mean the reservation accounting diverged from chain state; the floor plus
// a warning keeps the invariant 0 <= used.
func subBigFloor(a, b *big.Int) *big.Int {
	out := new(big.Int)
	if a != nil {
		out.Set(a)
	}
	if b != nil {
		out.Sub(out, b)
	}
	if out.Sign() < 0 {
		slog.Warn("escrow release exceeded reservation, flooring at zero")
		out.SetInt64(0)
	}
	return out
}
