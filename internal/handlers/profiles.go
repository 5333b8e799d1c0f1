package handlers

import (
	"fmt"
	"log/slog"

	"github.com/DIGITALAX/fgo-futures-contracts/internal/chain"
	"github.com/DIGITALAX/fgo-futures-contracts/internal/entities"
	"github.com/DIGITALAX/fgo-futures-contracts/internal/ids"
	"github.com/DIGITALAX/fgo-futures-contracts/internal/metadata"
)

// Profiles are keyed by (infrastructure id, wallet address). The infra id
// comes from the emitting contract's data-source context, so the same
// wallet can hold independent profiles under different infrastructures.

// FulfillerCreated materializes a fulfiller profile from the registry
// event plus an oracle profile read.
func (h *Handlers) FulfillerCreated(ev chain.Event) error {
	fulfillerID := ev.Big("fulfillerId")
	addr := ev.Addr("fulfiller")

	profile, err := h.Oracle.GetFulfillerProfile(ev.Address, fulfillerID)
	if err != nil && !chain.Reverted(err) {
		return fmt.Errorf("read fulfiller profile: %w", err)
	}
	if err == nil && profile.Address != "" {
		addr = profile.Address
	}

	f := &entities.Fulfiller{
		ID:          ids.Profile(ev.Source.InfraID, addr),
		InfraID:     ev.Source.InfraID,
		FulfillerID: fulfillerID,
		Fulfiller:   addr,
		URI:         ev.String("uri"),
	}
	if err == nil {
		f.URI = profile.URI
	}
	if hash := metadata.HashFromURI(f.URI); hash != "" {
		f.Metadata = hash
		h.Meta.Register(entities.KindFulfillerMetadata, hash)
	}
	return h.Store.Save(f)
}

// FulfillerAdded guarantees a minimal profile row exists for an address
// granted the fulfiller role before its registry creation event arrives.
func (h *Handlers) FulfillerAdded(ev chain.Event) error {
	addr := ev.Addr("fulfiller")
	key := ids.Profile(ev.Source.InfraID, addr)
	_, ok, err := h.Store.Load(entities.KindFulfiller, key)
	if err != nil || ok {
		return err
	}
	return h.Store.Save(&entities.Fulfiller{
		ID:        key,
		InfraID:   ev.Source.InfraID,
		Fulfiller: addr,
	})
}

// FulfillerUpdated refreshes the profile URI and metadata pointer.
func (h *Handlers) FulfillerUpdated(ev chain.Event) error {
	key := ids.Profile(ev.Source.InfraID, ev.Addr("fulfiller"))
	f, ok, err := load[*entities.Fulfiller](h.Store, entities.KindFulfiller, key)
	if err != nil || !ok {
		return err
	}

	uri := ev.String("uri")
	profile, oerr := h.Oracle.GetFulfillerProfile(ev.Address, f.FulfillerID)
	if oerr != nil && !chain.Reverted(oerr) {
		return fmt.Errorf("read fulfiller profile: %w", oerr)
	}
	if oerr == nil {
		uri = profile.URI
	}
	f.URI = uri
	if hash := metadata.HashFromURI(uri); hash != "" {
		f.Metadata = hash
		h.Meta.Register(entities.KindFulfillerMetadata, hash)
	}
	return h.Store.Save(f)
}

// FulfillerWalletTransferred moves a profile to its new wallet key. The
// old row is deleted so the (infra, wallet) keyspace stays one-to-one.
func (h *Handlers) FulfillerWalletTransferred(ev chain.Event) error {
	oldKey := ids.Profile(ev.Source.InfraID, ev.Addr("oldWallet"))
	newAddr := ev.Addr("newWallet")

	f, ok, err := load[*entities.Fulfiller](h.Store, entities.KindFulfiller, oldKey)
	if err != nil {
		return err
	}
	if !ok {
		slog.Warn("wallet transfer for unknown fulfiller", "profile", string(oldKey))
		return nil
	}
	if err := h.Store.Delete(entities.KindFulfiller, oldKey); err != nil {
		return err
	}
	f.ID = ids.Profile(ev.Source.InfraID, newAddr)
	f.Fulfiller = newAddr
	return h.Store.Save(f)
}

// SupplierCreated materializes a supplier profile. Suppliers carry a
// version and an active flag that later lifecycle events toggle.
func (h *Handlers) SupplierCreated(ev chain.Event) error {
	supplierID := ev.Big("supplierId")
	addr := ev.Addr("supplier")

	profile, err := h.Oracle.GetSupplierProfile(ev.Address, supplierID)
	if err != nil && !chain.Reverted(err) {
		return fmt.Errorf("read supplier profile: %w", err)
	}
	if err == nil && profile.Address != "" {
		addr = profile.Address
	}

	s := &entities.Supplier{
		ID:         ids.Profile(ev.Source.InfraID, addr),
		InfraID:    ev.Source.InfraID,
		SupplierID: supplierID,
		Supplier:   addr,
		URI:        ev.String("uri"),
		IsActive:   true,
	}
	if err == nil {
		s.URI = profile.URI
		s.Version = profile.Version
		s.IsActive = profile.IsActive
	}
	if hash := metadata.HashFromURI(s.URI); hash != "" {
		s.Metadata = hash
		h.Meta.Register(entities.KindSupplierMetadata, hash)
	}
	return h.Store.Save(s)
}

// SupplierUpdated refreshes the profile URI, version, and metadata pointer.
func (h *Handlers) SupplierUpdated(ev chain.Event) error {
	key := ids.Profile(ev.Source.InfraID, ev.Addr("supplier"))
	s, ok, err := load[*entities.Supplier](h.Store, entities.KindSupplier, key)
	if err != nil || !ok {
		return err
	}

	uri := ev.String("uri")
	profile, oerr := h.Oracle.GetSupplierProfile(ev.Address, s.SupplierID)
	if oerr != nil && !chain.Reverted(oerr) {
		return fmt.Errorf("read supplier profile: %w", oerr)
	}
	if oerr == nil {
		uri = profile.URI
		s.Version = profile.Version
	}
	s.URI = uri
	if hash := metadata.HashFromURI(uri); hash != "" {
		s.Metadata = hash
		h.Meta.Register(entities.KindSupplierMetadata, hash)
	}
	return h.Store.Save(s)
}

// SupplierWalletTransferred moves a supplier profile to its new wallet key.
func (h *Handlers) SupplierWalletTransferred(ev chain.Event) error {
	oldKey := ids.Profile(ev.Source.InfraID, ev.Addr("oldWallet"))
	newAddr := ev.Addr("newWallet")

	s, ok, err := load[*entities.Supplier](h.Store, entities.KindSupplier, oldKey)
	if err != nil {
		return err
	}
	if !ok {
		slog.Warn("wallet transfer for unknown supplier", "profile", string(oldKey))
		return nil
	}
	if err := h.Store.Delete(entities.KindSupplier, oldKey); err != nil {
		return err
	}
	s.ID = ids.Profile(ev.Source.InfraID, newAddr)
	s.Supplier = newAddr
	return h.Store.Save(s)
}

// SupplierDeactivated flips the profile inactive; the row survives so
// historical references stay resolvable.
func (h *Handlers) SupplierDeactivated(ev chain.Event) error {
	return h.setSupplierActive(ev, false)
}

// SupplierReactivated flips the profile back to active.
func (h *Handlers) SupplierReactivated(ev chain.Event) error {
	return h.setSupplierActive(ev, true)
}

func (h *Handlers) setSupplierActive(ev chain.Event, active bool) error {
	key := ids.Profile(ev.Source.InfraID, ev.Addr("supplier"))
	s, ok, err := load[*entities.Supplier](h.Store, entities.KindSupplier, key)
	if err != nil || !ok {
		return err
	}
	s.IsActive = active
	return h.Store.Save(s)
}
