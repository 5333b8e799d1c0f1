package handlers

import (
	"log/slog"
	"math/big"

	"github.com/DIGITALAX/fgo-futures-contracts/internal/chain"
	"github.com/DIGITALAX/fgo-futures-contracts/internal/entities"
	"github.com/DIGITALAX/fgo-futures-contracts/internal/ids"
)

// SellOrderCreated opens a sell order against a futures contract's
// tokenized position and links it onto the contract.
func (h *Handlers) SellOrderCreated(ev chain.Event) error {
	orderID := ev.Big("orderId")
	contractKey := ids.FuturesContract(ev.Big("contractId"))

	order := &entities.Order{
		ID:             ids.SellOrder(ev.Address, orderID),
		OrderID:        orderID,
		Contract:       contractKey,
		Seller:         ev.Addr("seller"),
		Quantity:       ev.Big("quantity"),
		PricePerUnit:   ev.Big("pricePerUnit"),
		FilledQuantity: new(big.Int),
		IsActive:       true,
	}
	if err := h.Store.Save(order); err != nil {
		return err
	}

	fc, ok, err := load[*entities.FuturesContract](h.Store, entities.KindFuturesContract, contractKey)
	if err != nil || !ok {
		return err
	}
	fc.Orders = entities.AppendKeyOnce(fc.Orders, order.ID)
	return h.Store.Save(fc)
}

// SellOrderFilled records one fill and recomputes the order's filled state
// from its fill records. The fill row is keyed by the emitting log, so a
// redelivered event rewrites the same row and the recomputed sum does not
// drift.
func (h *Handlers) SellOrderFilled(ev chain.Event) error {
	orderKey := ids.SellOrder(ev.Address, ev.Big("orderId"))

	fill := &entities.Filler{
		ID:       ids.EventRecord(ev.TxHash, ev.LogIndex),
		Order:    orderKey,
		Filler:   ev.Addr("filler"),
		Quantity: ev.Big("quantity"),
	}
	if err := h.Store.Save(fill); err != nil {
		return err
	}

	order, ok, err := load[*entities.Order](h.Store, entities.KindOrder, orderKey)
	if err != nil {
		return err
	}
	if !ok {
		slog.Warn("fill for unknown sell order", "order", string(orderKey))
		return nil
	}
	order.Fillers = entities.AppendKeyOnce(order.Fillers, fill.ID)

	total := new(big.Int)
	for _, fk := range order.Fillers {
		f, ok, err := load[*entities.Filler](h.Store, entities.KindFiller, fk)
		if err != nil {
			return err
		}
		if ok && f.Quantity != nil {
			total.Add(total, f.Quantity)
		}
	}
	order.FilledQuantity = total
	order.Filled = order.Quantity != nil && total.Cmp(order.Quantity) >= 0
	return h.Store.Save(order)
}

// SellOrderCancelled deactivates the order; existing fill records stay.
func (h *Handlers) SellOrderCancelled(ev chain.Event) error {
	orderKey := ids.SellOrder(ev.Address, ev.Big("orderId"))
	order, ok, err := load[*entities.Order](h.Store, entities.KindOrder, orderKey)
	if err != nil || !ok {
		return err
	}
	order.IsActive = false
	return h.Store.Save(order)
}

// TradingRightsDeposited appends the trading contract's deposit record.
// The stateful escrow reconciliation belongs to the escrow contract's
// event of the same name.
func (h *Handlers) TradingRightsDeposited(ev chain.Event) error {
	return h.Store.Save(&entities.RightsDeposited{
		ID:             ids.EventRecord(ev.TxHash, ev.LogIndex),
		RightsKey:      ids.Key(ev.Params["rightsKey"]),
		Depositor:      ev.Addr("depositor"),
		ChildContract:  ev.Addr("childContract"),
		OriginalMarket: ev.Addr("originalMarket"),
		ChildID:        ev.Big("childId"),
		OrderID:        ev.Big("orderId"),
		Amount:         ev.Big("amount"),
		BlockNumber:    new(big.Int).SetUint64(ev.BlockNumber),
		BlockTimestamp: ev.BlockTimestamp,
		TxHash:         ev.TxHash,
	})
}

// TradingRightsWithdrawn appends the trading contract's withdrawal record.
func (h *Handlers) TradingRightsWithdrawn(ev chain.Event) error {
	return h.Store.Save(&entities.RightsWithdrawn{
		ID:             ids.EventRecord(ev.TxHash, ev.LogIndex),
		RightsKey:      ids.Key(ev.Params["rightsKey"]),
		Withdrawer:     ev.Addr("withdrawer"),
		Amount:         ev.Big("amount"),
		BlockNumber:    new(big.Int).SetUint64(ev.BlockNumber),
		BlockTimestamp: ev.BlockTimestamp,
		TxHash:         ev.TxHash,
	})
}
