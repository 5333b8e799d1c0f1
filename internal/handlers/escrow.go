package handlers

import (
	"fmt"
	"math/big"

	"github.com/DIGITALAX/fgo-futures-contracts/internal/chain"
	"github.com/DIGITALAX/fgo-futures-contracts/internal/entities"
	"github.com/DIGITALAX/fgo-futures-contracts/internal/ids"
)

// RightsDeposited records physical rights locked as futures collateral. A
// repeat deposit into the same tuple stacks onto the existing row. The
// depositor's market-side rights row is refreshed from the oracle
// afterwards since the deposit moved units out of it.
func (h *Handlers) RightsDeposited(ev chain.Event) error {
	childID := ev.Big("childId")
	childContract := ev.Addr("childContract")
	orderID := ev.Big("orderId")
	depositor := ev.Addr("depositor")
	market := ev.Addr("market")
	amount := ev.Big("amount")
	key := ids.PhysicalRights(childID, childContract, orderID, depositor, market)

	escrow, ok, err := load[*entities.EscrowedRight](h.Store, entities.KindEscrowedRight, key)
	if err != nil {
		return err
	}
	if ok {
		escrow.Amount = addBig(escrow.Amount, amount)
	} else {
		escrow = &entities.EscrowedRight{
			ID:                   key,
			RightsKey:            key,
			Depositor:            depositor,
			ChildContract:        childContract,
			OriginalMarket:       market,
			ChildID:              childID,
			OrderID:              orderID,
			Amount:               amount,
			AmountUsedForFutures: addBig(nil, nil),
			DepositedAt:          ev.BlockTimestamp,
			Child:                ids.Child(childContract, childID),
		}
	}

	data, err := h.Oracle.GetEscrowedRights(ev.Address, childID, orderID, childContract, market, depositor)
	if err != nil && !chain.Reverted(err) {
		return fmt.Errorf("read escrowed rights: %w", err)
	}
	if err == nil {
		escrow.EstimatedDeliveryDuration = data.EstimatedDeliveryDuration
	}
	if err := h.Store.Save(escrow); err != nil {
		return err
	}

	return h.mirrorRights(childContract, childID, orderID, depositor, market)
}

// RightsWithdrawn returns escrowed collateral to the depositor. The escrow
// row shrinks by the withdrawn amount and disappears when empty; the
// depositor's market-side rights row is refreshed from the oracle since
// units moved back into it.
func (h *Handlers) RightsWithdrawn(ev chain.Event) error {
	childID := ev.Big("childId")
	childContract := ev.Addr("childContract")
	orderID := ev.Big("orderId")
	depositor := ev.Addr("depositor")
	market := ev.Addr("market")
	key := ids.PhysicalRights(childID, childContract, orderID, depositor, market)

	escrow, ok, err := load[*entities.EscrowedRight](h.Store, entities.KindEscrowedRight, key)
	if err != nil {
		return err
	}
	if ok {
		escrow.Amount = subBigFloor(escrow.Amount, ev.Big("amount"))
		if escrow.Amount.Sign() == 0 {
			if err := h.Store.Delete(entities.KindEscrowedRight, key); err != nil {
				return err
			}
		} else if err := h.Store.Save(escrow); err != nil {
			return err
		}
	}

	return h.mirrorRights(childContract, childID, orderID, depositor, market)
}

// ChildClaimedAfterSettlement appends an immutable claim record and links
// it onto the settled contract. Keyed by the emitting log so redelivery
// rewrites the same row.
func (h *Handlers) ChildClaimedAfterSettlement(ev chain.Event) error {
	contractID := ev.Big("contractId")
	rec := &entities.ChildClaimed{
		ID:             ids.EventRecord(ev.TxHash, ev.LogIndex),
		ContractID:     contractID,
		Claimer:        ev.Addr("claimer"),
		Quantity:       ev.Big("quantity"),
		ChildID:        ev.Big("childId"),
		Contract:       ids.FuturesContract(contractID),
		BlockNumber:    new(big.Int).SetUint64(ev.BlockNumber),
		BlockTimestamp: ev.BlockTimestamp,
		TxHash:         ev.TxHash,
	}
	if err := h.Store.Save(rec); err != nil {
		return err
	}

	fc, ok, err := load[*entities.FuturesContract](h.Store, entities.KindFuturesContract, rec.Contract)
	if err != nil || !ok {
		return err
	}
	fc.ChildrenClaimed = entities.AppendKeyOnce(fc.ChildrenClaimed, rec.ID)
	return h.Store.Save(fc)
}
