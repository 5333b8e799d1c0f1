// Package handlers turns the ordered chain-event stream into the
// materialized entity graph.
//
// One handler exists per contract event type. Each invocation runs to
// completion single-threaded, in blockchain order, and may assume every
// causally-earlier event has already been persisted. There is no
// transaction spanning entities: crash recovery is replay from the last
// durable block, so every mutation here is written to be idempotent under
// at-least-once redelivery: list appends check membership, counters mirror
// oracle reads instead of incrementing blindly, and event-keyed records use
// (tx hash, log index) keys so redelivery lands on the same row.
//
// Oracle reverts and missing related entities are expected: the dependent
// update is skipped and the rest of the handler continues. Store I/O errors
// are the only fatal path.
package handlers

import (
	"fmt"
	"log/slog"

	"github.com/DIGITALAX/fgo-futures-contracts/internal/chain"
	"github.com/DIGITALAX/fgo-futures-contracts/internal/entities"
	"github.com/DIGITALAX/fgo-futures-contracts/internal/ids"
	"github.com/DIGITALAX/fgo-futures-contracts/internal/metadata"
	"github.com/DIGITALAX/fgo-futures-contracts/internal/store"
)

// Handlers holds the collaborators shared by every event handler.
type Handlers struct {
	Store  store.Store
	Oracle chain.Oracle
	Meta   metadata.Scheduler

	// sources maps deployed contract addresses to their immutable
	// per-data-source context, populated by factory deployment events and
	// static manifest entries.
	sources map[ids.Address]chain.SourceContext
}

// New wires a handler set over its collaborators.
func New(st store.Store, oracle chain.Oracle, meta metadata.Scheduler) *Handlers {
	return &Handlers{
		Store:   st,
		Oracle:  oracle,
		Meta:    meta,
		sources: make(map[ids.Address]chain.SourceContext),
	}
}

// RegisterSource records the context for a contract instance. Factory
// deployment events call this; static data sources are registered from the
// manifest before indexing starts. Re-registration overwrites, which makes
// factory event replay harmless.
func (h *Handlers) RegisterSource(addr ids.Address, sc chain.SourceContext) {
	h.sources[addr] = sc
}

// Dispatch routes one event to its handler. Unknown event names are
// logged and skipped so an ABI ahead of this indexer cannot wedge it.
func (h *Handlers) Dispatch(ev chain.Event) error {
	ev.Source = h.sources[ev.Address]

	var err error
	switch ev.Name {
	// Factory deployments register dynamic data sources.
	case "ChildContractDeployed":
		h.handleContractDeployed(ev, "childContract", "child")
	case "TemplateContractDeployed":
		h.handleContractDeployed(ev, "templateContract", "template-child")
	case "ParentContractDeployed":
		h.handleContractDeployed(ev, "parentContract", "parent")
	case "MarketContractDeployed":
		h.handleContractDeployed(ev, "marketContract", "market")
	case "InfrastructureDeployed":
		h.handleContractDeployed(ev, "fulfillers", "fulfillers")

	// Child and template-child contracts.
	case "ChildCreated":
		err = h.ChildCreated(ev)
	case "TemplateReserved":
		err = h.TemplateReserved(ev)
	case "ChildDeleted":
		err = h.ChildDeleted(ev)
	case "ChildMinted":
		err = h.ChildMinted(ev)
	case "PhysicalRightsTransferred":
		err = h.PhysicalRightsTransferred(ev)

	// Parent contracts.
	case "ParentCreated":
		err = h.ParentCreated(ev)
	case "ParentUpdated":
		err = h.ParentUpdated(ev)

	// Markets.
	case "OrderExecuted":
		err = h.OrderExecuted(ev)

	// Fulfillment tracking.
	case "FulfillmentStarted":
		err = h.FulfillmentStarted(ev)
	case "StepCompleted":
		err = h.StepCompleted(ev)
	case "FulfillmentCompleted":
		err = h.FulfillmentCompleted(ev)

	// Futures contracts and escrow. The trading contract reuses the escrow
	// event names for its append-only records; source kind splits them.
	case "FuturesContractOpened":
		err = h.FuturesContractOpened(ev)
	case "FuturesContractCancelled":
		err = h.FuturesContractCancelled(ev)
	case "RightsDeposited":
		if ev.Source.Kind == "trading" {
			err = h.TradingRightsDeposited(ev)
		} else {
			err = h.RightsDeposited(ev)
		}
	case "RightsWithdrawn":
		if ev.Source.Kind == "trading" {
			err = h.TradingRightsWithdrawn(ev)
		} else {
			err = h.RightsWithdrawn(ev)
		}
	case "ChildClaimedAfterSettlement":
		err = h.ChildClaimedAfterSettlement(ev)

	// Futures trading.
	case "SellOrderCreated":
		err = h.SellOrderCreated(ev)
	case "SellOrderFilled":
		err = h.SellOrderFilled(ev)
	case "SellOrderCancelled":
		err = h.SellOrderCancelled(ev)

	// Settlement; the MEV contract shares two of its event names.
	case "ContractSettled":
		if ev.Source.Kind == "mev" {
			err = h.MEVContractSettled(ev)
		} else {
			err = h.ContractSettled(ev)
		}
	case "EmergencySettlement":
		err = h.EmergencySettlement(ev)
	case "SettlementBotRegistered":
		err = h.SettlementBotRegistered(ev)
	case "StakeIncreased":
		err = h.StakeIncreased(ev)
	case "SettlementBotSlashed":
		err = h.SettlementBotSlashed(ev)
	case "RewardSlashed":
		err = h.RewardSlashed(ev)
	case "StakeWithdrawn":
		if ev.Source.Kind == "mev" {
			err = h.MEVStakeWithdrawn(ev)
		} else {
			err = h.StakeWithdrawn(ev)
		}
	case "MEVBotRegistered":
		err = h.MEVBotRegistered(ev)
	case "MEVBotSlashed":
		err = h.MEVBotSlashed(ev)

	// Fulfiller and supplier registries.
	case "FulfillerAdded":
		err = h.FulfillerAdded(ev)
	case "FulfillerCreated":
		err = h.FulfillerCreated(ev)
	case "FulfillerUpdated":
		err = h.FulfillerUpdated(ev)
	case "FulfillerWalletTransferred":
		err = h.FulfillerWalletTransferred(ev)
	case "SupplierCreated":
		err = h.SupplierCreated(ev)
	case "SupplierUpdated":
		err = h.SupplierUpdated(ev)
	case "SupplierWalletTransferred":
		err = h.SupplierWalletTransferred(ev)
	case "SupplierDeactivated":
		err = h.SupplierDeactivated(ev)
	case "SupplierReactivated":
		err = h.SupplierReactivated(ev)

	default:
		slog.Warn("skipping unknown event", "name", ev.Name, "address", string(ev.Address))
		return nil
	}

	if err != nil {
		return fmt.Errorf("handle %s at block %d log %d: %w", ev.Name, ev.BlockNumber, ev.LogIndex, err)
	}
	return nil
}

// handleContractDeployed registers the deployed contract's data-source
// context from a factory event.
func (h *Handlers) handleContractDeployed(ev chain.Event, addrParam, kind string) {
	addr := ev.Addr(addrParam)
	infra := ev.Big("infraId")
	if _, has := ev.Params["infraId"]; !has {
		// Older factory deployments do not emit the infrastructure id; the
		// deployed contract itself knows it.
		if id, err := h.Oracle.InfraID(addr); err == nil && id != nil {
			infra = id
		}
	}
	h.RegisterSource(addr, chain.SourceContext{
		InfraID:    infra,
		Kind:       kind,
		IsTemplate: kind == "template-child",
	})
	slog.Debug("registered data source",
		"event", ev.Name, "contract", string(addr), "infraId", ids.Uint(infra))

	// A market deployment also brings its fulfillment contract online.
	if ev.Name == "MarketContractDeployed" {
		if fulfillment := ev.Params["fulfillment"]; fulfillment != "" {
			h.RegisterSource(ids.Addr(fulfillment), chain.SourceContext{InfraID: infra, Kind: "fulfillment"})
		}
	}
}

// load fetches and type-asserts one entity; ok is false when absent.
func load[T entities.Entity](st store.Store, kind entities.Kind, key ids.Key) (T, bool, error) {
	var zero T
	e, ok, err := st.Load(kind, key)
	if err != nil || !ok {
		return zero, ok, err
	}
	return e.(T), true, nil
}
