package handlers

import (
	"fmt"
	"log/slog"
	"math/big"

	"github.com/DIGITALAX/fgo-futures-contracts/internal/chain"
	"github.com/DIGITALAX/fgo-futures-contracts/internal/entities"
	"github.com/DIGITALAX/fgo-futures-contracts/internal/ids"
)

// fulfillmentFor resolves which fulfillment row an event addresses. The
// event only carries the order id; the parent coordinates come from the
// fulfillment contract's own status read, which also returns current
// progress. A revert means the order is unknown to the contract.
func (h *Handlers) fulfillmentFor(contract ids.Address, orderID *big.Int) (chain.FulfillmentStatus, ids.Key, bool, error) {
	status, err := h.Oracle.GetFulfillmentStatus(contract, orderID)
	if err != nil {
		if chain.Reverted(err) {
			slog.Warn("fulfillment status read reverted",
				"contract", string(contract), "orderId", ids.Uint(orderID))
			return chain.FulfillmentStatus{}, "", false, nil
		}
		return chain.FulfillmentStatus{}, "", false, fmt.Errorf("read fulfillment status: %w", err)
	}
	return status, ids.Fulfillment(contract, orderID, status.ParentContract, status.ParentID), true, nil
}

// FulfillmentStarted creates the per-order fulfillment tracker and links it
// to its market order when the market is resolvable.
func (h *Handlers) FulfillmentStarted(ev chain.Event) error {
	orderID := ev.Big("orderId")
	status, key, ok, err := h.fulfillmentFor(ev.Address, orderID)
	if err != nil || !ok {
		return err
	}

	f := &entities.Fulfillment{
		ID:          key,
		OrderID:     orderID,
		Parent:      ids.Parent(status.ParentContract, status.ParentID),
		CurrentStep: status.CurrentStep,
		CreatedAt:   ev.BlockTimestamp,
		LastUpdated: status.LastUpdated,
	}

	market, err := h.Oracle.FulfillmentMarket(ev.Address)
	if err != nil && !chain.Reverted(err) {
		return fmt.Errorf("read fulfillment market: %w", err)
	}
	if err == nil {
		orderKey := ids.ChildOrder(market, orderID)
		f.Order = orderKey

		receipt, rerr := h.Oracle.GetOrderReceipt(market, orderID)
		if rerr != nil && !chain.Reverted(rerr) {
			return fmt.Errorf("read order receipt: %w", rerr)
		}
		if rerr == nil {
			f.IsPhysical = receipt.IsPhysical
		}

		childOrder, ok, oerr := load[*entities.ChildOrder](h.Store, entities.KindChildOrder, orderKey)
		if oerr != nil {
			return oerr
		}
		if ok {
			childOrder.Fulfillment = f.ID
			if err := h.Store.Save(childOrder); err != nil {
				return err
			}
		}
	}
	return h.Store.Save(f)
}

// StepCompleted records one step's completion for one order. The step row
// is upserted from the oracle's status so redelivery rewrites the same
// values, and the tracker's current step only moves forward.
func (h *Handlers) StepCompleted(ev chain.Event) error {
	orderID := ev.Big("orderId")
	status, key, ok, err := h.fulfillmentFor(ev.Address, orderID)
	if err != nil || !ok {
		return err
	}

	f, ok, err := load[*entities.Fulfillment](h.Store, entities.KindFulfillment, key)
	if err != nil {
		return err
	}
	if !ok {
		slog.Warn("step completed for untracked fulfillment", "fulfillment", string(key))
		return nil
	}

	stepIndex := int(ev.Big("step").Int64())
	if err := h.completeStep(f, status, stepIndex, ev.BlockTimestamp); err != nil {
		return err
	}
	return h.Store.Save(f)
}

// FulfillmentCompleted closes out the tracker's final step and marks every
// futures contract written against this order as fulfilled.
func (h *Handlers) FulfillmentCompleted(ev chain.Event) error {
	orderID := ev.Big("orderId")
	status, key, ok, err := h.fulfillmentFor(ev.Address, orderID)
	if err != nil || !ok {
		return err
	}

	f, ok, err := load[*entities.Fulfillment](h.Store, entities.KindFulfillment, key)
	if err != nil {
		return err
	}
	if !ok {
		slog.Warn("completion for untracked fulfillment", "fulfillment", string(key))
		return nil
	}

	if n := len(status.Steps); n > 0 {
		if err := h.completeStep(f, status, n-1, ev.BlockTimestamp); err != nil {
			return err
		}
	}
	if err := h.Store.Save(f); err != nil {
		return err
	}

	market, err := h.Oracle.FulfillmentMarket(ev.Address)
	if err != nil {
		if chain.Reverted(err) {
			return nil
		}
		return fmt.Errorf("read fulfillment market: %w", err)
	}
	return h.markFuturesFulfilled(market, orderID, ev.BlockTimestamp)
}

// completeStep upserts the per-order step record at stepIndex and advances
// the tracker. Oracle status is the authority for completion details when
// it covers the index; the event timestamp is the fallback.
func (h *Handlers) completeStep(f *entities.Fulfillment, status chain.FulfillmentStatus, stepIndex int, ts *big.Int) error {
	step := &entities.FulfillmentOrderStep{
		ID:          ids.FulfillmentOrderStep(status.ParentContract, status.ParentID, stepIndex, f.IsPhysical),
		StepIndex:   big.NewInt(int64(stepIndex)),
		CompletedAt: ts,
		IsCompleted: true,
	}
	if stepIndex >= 0 && stepIndex < len(status.Steps) {
		ss := status.Steps[stepIndex]
		if ss.CompletedAt != nil {
			step.CompletedAt = ss.CompletedAt
		}
		step.Notes = ss.Notes
		step.IsCompleted = ss.IsCompleted || step.IsCompleted
	}
	if err := h.Store.Save(step); err != nil {
		return err
	}

	f.FulfillmentOrderSteps = entities.AppendKeyOnce(f.FulfillmentOrderSteps, step.ID)
	if status.CurrentStep != nil && (f.CurrentStep == nil || status.CurrentStep.Cmp(f.CurrentStep) > 0) {
		f.CurrentStep = status.CurrentStep
	}
	f.LastUpdated = ts
	return nil
}

// markFuturesFulfilled flags every futures contract whose underlying market
// order just completed. Contracts are matched by (original market, market
// order id) since the completion event does not name them directly.
func (h *Handlers) markFuturesFulfilled(market ids.Address, orderID *big.Int, ts *big.Int) error {
	contracts, err := h.Store.List(entities.KindFuturesContract)
	if err != nil {
		return err
	}
	for _, e := range contracts {
		fc := e.(*entities.FuturesContract)
		if fc.IsFulfilled || fc.OriginalMarket != market {
			continue
		}
		if fc.MarketOrderID == nil || fc.MarketOrderID.Cmp(orderID) != 0 {
			continue
		}
		fc.IsFulfilled = true
		fc.FulfillerSettlement = ts
		if err := h.Store.Save(fc); err != nil {
			return err
		}
	}
	return nil
}
