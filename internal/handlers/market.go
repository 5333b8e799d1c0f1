package handlers

import (
	"fmt"
	"log/slog"

	"github.com/DIGITALAX/fgo-futures-contracts/internal/chain"
	"github.com/DIGITALAX/fgo-futures-contracts/internal/entities"
	"github.com/DIGITALAX/fgo-futures-contracts/internal/ids"
)

// OrderExecuted records every order of a batched market execution. For each
// order id the receipt is read from the oracle, a ChildOrder row is
// written, and the order is linked onto the fulfiller profiles named by the
// design's workflow steps. A reverted receipt skips only that order.
func (h *Handlers) OrderExecuted(ev chain.Event) error {
	orderIDs := ev.Uints("orderIds")
	if len(orderIDs) == 0 && ev.Params["orderId"] != "" {
		orderIDs = append(orderIDs, ev.Big("orderId"))
	}

	for _, orderID := range orderIDs {
		receipt, err := h.Oracle.GetOrderReceipt(ev.Address, orderID)
		if err != nil {
			if chain.Reverted(err) {
				slog.Warn("order receipt read reverted, skipping order",
					"market", string(ev.Address), "orderId", ids.Uint(orderID))
				continue
			}
			return fmt.Errorf("read order receipt: %w", err)
		}

		childOrder := &entities.ChildOrder{
			ID:          ids.ChildOrder(ev.Address, orderID),
			OrderStatus: receipt.Status,
			Parent:      ids.Parent(receipt.ParentContract, receipt.ParentID),
		}
		if err := h.Store.Save(childOrder); err != nil {
			return err
		}
		if err := h.linkOrderFulfillers(childOrder); err != nil {
			return err
		}
	}
	return nil
}

// linkOrderFulfillers appends the order onto each distinct fulfiller
// profile appearing in the parent's workflow steps. The local seen set
// keeps one append per fulfiller even when the same profile performs
// several steps.
func (h *Handlers) linkOrderFulfillers(order *entities.ChildOrder) error {
	parent, ok, err := load[*entities.Parent](h.Store, entities.KindParent, order.Parent)
	if err != nil || !ok {
		return err
	}
	workflow, ok, err := load[*entities.FulfillmentWorkflow](h.Store, entities.KindFulfillmentWorkflow, parent.Workflow)
	if err != nil || !ok {
		return err
	}

	seen := make(map[ids.Key]bool)
	for _, stepKey := range workflow.PhysicalSteps {
		step, ok, err := load[*entities.FulfillmentStep](h.Store, entities.KindFulfillmentStep, stepKey)
		if err != nil {
			return err
		}
		if !ok || step.Fulfiller == "" || seen[step.Fulfiller] {
			continue
		}
		seen[step.Fulfiller] = true

		fulfiller, ok, err := load[*entities.Fulfiller](h.Store, entities.KindFulfiller, step.Fulfiller)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		fulfiller.ChildOrders = entities.AppendKeyOnce(fulfiller.ChildOrders, order.ID)
		if err := h.Store.Save(fulfiller); err != nil {
			return err
		}
	}
	return nil
}
