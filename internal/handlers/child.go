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

// ChildCreated materializes a child component from its creation event plus
// an oracle metadata read. A reverted read means the component is not
// observable yet; creation is skipped and a later event recreates it.
func (h *Handlers) ChildCreated(ev chain.Event) error {
	childID := ev.Big("childId")
	key := ids.Child(ev.Address, childID)

	md, err := h.Oracle.GetChildMetadata(ev.Address, childID)
	if err != nil {
		if chain.Reverted(err) {
			slog.Warn("child metadata read reverted, skipping creation",
				"child", string(key))
			return nil
		}
		return fmt.Errorf("read child metadata: %w", err)
	}

	child := &entities.Child{
		ID:            key,
		ChildContract: ev.Address,
		ChildID:       childID,
		URI:           md.URI,
		PhysicalPrice: md.PhysicalPrice,
		IsTemplate:    ev.Source.IsTemplate,
	}
	if hash := metadata.HashFromURI(md.URI); hash != "" {
		child.Metadata = hash
		h.Meta.Register(entities.KindMetadata, hash)
	}
	if child.IsTemplate {
		if err := h.resolvePlacements(child); err != nil {
			return err
		}
	}
	return h.Store.Save(child)
}

// TemplateReserved materializes a template child together with its direct
// placements. Placements are stored unexpanded; flattening happens when a
// parent design references the template.
func (h *Handlers) TemplateReserved(ev chain.Event) error {
	templateID := ev.Big("templateId")
	key := ids.Child(ev.Address, templateID)

	md, err := h.Oracle.GetChildMetadata(ev.Address, templateID)
	if err != nil {
		if chain.Reverted(err) {
			slog.Warn("template metadata read reverted, skipping creation",
				"template", string(key))
			return nil
		}
		return fmt.Errorf("read template metadata: %w", err)
	}

	child := &entities.Child{
		ID:            key,
		ChildContract: ev.Address,
		ChildID:       templateID,
		URI:           md.URI,
		PhysicalPrice: md.PhysicalPrice,
		IsTemplate:    true,
	}
	if hash := metadata.HashFromURI(md.URI); hash != "" {
		child.Metadata = hash
		h.Meta.Register(entities.KindMetadata, hash)
	}
	if err := h.resolvePlacements(child); err != nil {
		return err
	}
	return h.Store.Save(child)
}

// resolvePlacements fills a template child's direct placement keys from the
// oracle. A reverted read leaves the list empty.
func (h *Handlers) resolvePlacements(child *entities.Child) error {
	placements, err := h.Oracle.GetTemplatePlacements(child.ChildContract, child.ChildID)
	if err != nil {
		if chain.Reverted(err) {
			return nil
		}
		return fmt.Errorf("read template placements: %w", err)
	}
	child.Placements = child.Placements[:0]
	for _, p := range placements {
		child.Placements = entities.AppendKeyOnce(child.Placements, ids.Child(p.ChildContract, p.ChildID))
	}
	return nil
}

// ChildDeleted removes the child row. Deletion is terminal; rights rows and
// flattened parent closures that reference the key keep their dangling
// references, matching chain state where burned components stay referenced.
func (h *Handlers) ChildDeleted(ev chain.Event) error {
	return h.Store.Delete(entities.KindChild, ids.Child(ev.Address, ev.Big("childId")))
}

// ChildMinted records guaranteed physical rights for the buyer of a
// physical purchase. The oracle's post-mint balance is the authority for an
// existing row, so a redelivered mint rewrites the same total instead of
// stacking; a fresh row is denormalized from the event plus the oracle read.
func (h *Handlers) ChildMinted(ev chain.Event) error {
	if !ev.Bool("isPhysical") {
		return nil
	}

	childID := ev.Big("childId")
	orderID := ev.Big("orderId")
	buyer := ev.Addr("to")
	market := ev.Addr("market")
	key := ids.PhysicalRights(childID, ev.Address, orderID, buyer, market)

	data, derr := h.Oracle.GetPhysicalRights(ev.Address, childID, orderID, buyer, market)
	if derr != nil && !chain.Reverted(derr) {
		return fmt.Errorf("read physical rights: %w", derr)
	}

	rights, ok, err := load[*entities.PhysicalRights](h.Store, entities.KindPhysicalRights, key)
	if err != nil {
		return err
	}
	if ok {
		if derr == nil {
			rights.GuaranteedAmount = data.GuaranteedAmount
		}
		return h.Store.Save(rights)
	}

	rights = &entities.PhysicalRights{
		ID:               key,
		ChildID:          childID,
		OrderID:          orderID,
		Holder:           buyer,
		Buyer:            buyer,
		OriginalBuyer:    buyer,
		GuaranteedAmount: ev.Big("amount"),
		PurchaseMarket:   market,
		Child:            ids.Child(ev.Address, childID),
		Order:            ids.ChildOrder(market, orderID),
		BlockTimestamp:   ev.BlockTimestamp,
	}
	if derr == nil {
		rights.EstimatedDeliveryDuration = data.EstimatedDeliveryDuration
	}
	return h.Store.Save(rights)
}

// PhysicalRightsTransferred reconciles both sides of a rights transfer
// against the oracle. The two sides resolve independently: a revert on one
// never blocks the other, and the oracle read is the authority for the
// surviving amounts so redelivery converges instead of double-counting.
func (h *Handlers) PhysicalRightsTransferred(ev chain.Event) error {
	childID := ev.Big("childId")
	orderID := ev.Big("orderId")
	from := ev.Addr("from")
	to := ev.Addr("to")
	market := ev.Addr("market")

	if err := h.refreshSenderRights(ev.Address, childID, orderID, from, to, market); err != nil {
		return err
	}
	return h.upsertReceiverRights(ev, childID, orderID, from, to, market)
}

// refreshSenderRights re-mirrors the sender's row after a transfer and
// stamps it with the receiving address, so a surviving partial position
// records where the departed units went. A zero balance on chain deletes
// the row instead.
func (h *Handlers) refreshSenderRights(contract ids.Address, childID, orderID *big.Int, from, to, market ids.Address) error {
	key := ids.PhysicalRights(childID, contract, orderID, from, market)

	data, err := h.Oracle.GetPhysicalRights(contract, childID, orderID, from, market)
	if err != nil {
		if chain.Reverted(err) {
			slog.Warn("rights read reverted, leaving row as is", "rights", string(key))
			return nil
		}
		return fmt.Errorf("read physical rights: %w", err)
	}
	if data.GuaranteedAmount == nil || data.GuaranteedAmount.Sign() == 0 {
		return h.Store.Delete(entities.KindPhysicalRights, key)
	}

	rights, ok, err := load[*entities.PhysicalRights](h.Store, entities.KindPhysicalRights, key)
	if err != nil {
		return err
	}
	if !ok {
		rights = &entities.PhysicalRights{
			ID:             key,
			ChildID:        childID,
			OrderID:        orderID,
			Holder:         from,
			Buyer:          from,
			PurchaseMarket: market,
			Child:          ids.Child(contract, childID),
			Order:          ids.ChildOrder(market, orderID),
		}
	}
	rights.Receiver = to
	rights.GuaranteedAmount = data.GuaranteedAmount
	rights.EstimatedDeliveryDuration = data.EstimatedDeliveryDuration
	return h.Store.Save(rights)
}

// upsertReceiverRights creates or re-mirrors the receiver's row. A fresh
// row records the sending holder as its buyer and looks up the market
// order's original buyer once, at creation time.
func (h *Handlers) upsertReceiverRights(ev chain.Event, childID, orderID *big.Int, from, to, market ids.Address) error {
	contract := ev.Address
	key := ids.PhysicalRights(childID, contract, orderID, to, market)

	data, err := h.Oracle.GetPhysicalRights(contract, childID, orderID, to, market)
	if err != nil {
		if chain.Reverted(err) {
			slog.Warn("rights read reverted, leaving row as is", "rights", string(key))
			return nil
		}
		return fmt.Errorf("read physical rights: %w", err)
	}
	if data.GuaranteedAmount == nil || data.GuaranteedAmount.Sign() == 0 {
		return h.Store.Delete(entities.KindPhysicalRights, key)
	}

	rights, ok, err := load[*entities.PhysicalRights](h.Store, entities.KindPhysicalRights, key)
	if err != nil {
		return err
	}
	if !ok {
		rights = &entities.PhysicalRights{
			ID:             key,
			ChildID:        childID,
			OrderID:        orderID,
			Holder:         to,
			Buyer:          from,
			PurchaseMarket: market,
			Child:          ids.Child(contract, childID),
			Order:          ids.ChildOrder(market, orderID),
			BlockTimestamp: ev.BlockTimestamp,
		}
		receipt, rerr := h.Oracle.GetOrderReceipt(market, orderID)
		if rerr != nil && !chain.Reverted(rerr) {
			return fmt.Errorf("read order receipt: %w", rerr)
		}
		if rerr == nil {
			rights.OriginalBuyer = receipt.Buyer
		}
	}
	rights.GuaranteedAmount = data.GuaranteedAmount
	rights.EstimatedDeliveryDuration = data.EstimatedDeliveryDuration
	return h.Store.Save(rights)
}

// mirrorRights makes one holder's rights row mirror the oracle: absent or
// zero on chain deletes the row, anything else upserts it. Escrow deposits
// and withdrawals use it to reconcile the market-side row units moved
// through.
func (h *Handlers) mirrorRights(contract ids.Address, childID, orderID *big.Int, holder, market ids.Address) error {
	key := ids.PhysicalRights(childID, contract, orderID, holder, market)

	data, err := h.Oracle.GetPhysicalRights(contract, childID, orderID, holder, market)
	if err != nil {
		if chain.Reverted(err) {
			slog.Warn("rights read reverted, leaving row as is", "rights", string(key))
			return nil
		}
		return fmt.Errorf("read physical rights: %w", err)
	}
	if data.GuaranteedAmount == nil || data.GuaranteedAmount.Sign() == 0 {
		return h.Store.Delete(entities.KindPhysicalRights, key)
	}

	rights, ok, err := load[*entities.PhysicalRights](h.Store, entities.KindPhysicalRights, key)
	if err != nil {
		return err
	}
	if !ok {
		rights = &entities.PhysicalRights{
			ID:             key,
			ChildID:        childID,
			OrderID:        orderID,
			Holder:         holder,
			Buyer:          holder,
			PurchaseMarket: market,
			Child:          ids.Child(contract, childID),
			Order:          ids.ChildOrder(market, orderID),
		}
	}
	rights.GuaranteedAmount = data.GuaranteedAmount
	rights.EstimatedDeliveryDuration = data.EstimatedDeliveryDuration
	return h.Store.Save(rights)
}
