package handlers

import (
	"fmt"
	"log/slog"

	"github.com/DIGITALAX/fgo-futures-contracts/internal/chain"
	"github.com/DIGITALAX/fgo-futures-contracts/internal/entities"
	"github.com/DIGITALAX/fgo-futures-contracts/internal/hierarchy"
	"github.com/DIGITALAX/fgo-futures-contracts/internal/ids"
	"github.com/DIGITALAX/fgo-futures-contracts/internal/metadata"
)

// ParentCreated materializes a parent design with its flattened child
// closure, its fulfillment workflow, the workflow's steps, and each step's
// sub-performers. Everything derives from one design-template oracle read;
// a revert skips the whole creation.
func (h *Handlers) ParentCreated(ev chain.Event) error {
	designID := ev.Big("designId")
	key := ids.Parent(ev.Address, designID)

	tpl, err := h.Oracle.GetDesignTemplate(ev.Address, designID)
	if err != nil {
		if chain.Reverted(err) {
			slog.Warn("design template read reverted, skipping creation",
				"parent", string(key))
			return nil
		}
		return fmt.Errorf("read design template: %w", err)
	}

	parent := &entities.Parent{
		ID:             key,
		DesignID:       designID,
		ParentContract: ev.Address,
		URI:            tpl.URI,
	}
	if hash := metadata.HashFromURI(tpl.URI); hash != "" {
		parent.Metadata = hash
		h.Meta.Register(entities.KindMetadata, hash)
	}

	refs := make([]hierarchy.Ref, 0, len(tpl.ChildReferences))
	for _, cr := range tpl.ChildReferences {
		refs = append(refs, hierarchy.Ref{Contract: cr.ChildContract, ChildID: cr.ChildID})
	}
	parent.Children, err = hierarchy.Flatten(h.Store, refs)
	if err != nil {
		return fmt.Errorf("flatten children: %w", err)
	}

	workflow := &entities.FulfillmentWorkflow{
		ID:                        ids.Workflow(ev.Address, designID),
		Parent:                    parent.ID,
		EstimatedDeliveryDuration: tpl.EstimatedDeliveryDuration,
	}
	for i, ds := range tpl.PhysicalSteps {
		step := &entities.FulfillmentStep{
			ID:           ids.FulfillmentStep(ev.Address, designID, i, true),
			Workflow:     workflow.ID,
			Instructions: ds.Instructions,
		}
		if ds.PrimaryPerformer != "" {
			step.Fulfiller = ids.Profile(ev.Source.InfraID, ds.PrimaryPerformer)
		}
		for _, sp := range ds.SubPerformers {
			sub := &entities.SubPerformer{
				ID:               ids.SubPerformer(ev.Address, designID, i, sp.Performer, true),
				Step:             step.ID,
				Performer:        sp.Performer,
				SplitBasisPoints: sp.SplitBasisPoints,
			}
			if err := h.Store.Save(sub); err != nil {
				return err
			}
			step.SubPerformers = entities.AppendKeyOnce(step.SubPerformers, sub.ID)
		}
		if err := h.Store.Save(step); err != nil {
			return err
		}
		workflow.PhysicalSteps = entities.AppendKeyOnce(workflow.PhysicalSteps, step.ID)
	}
	if err := h.Store.Save(workflow); err != nil {
		return err
	}

	parent.Workflow = workflow.ID
	return h.Store.Save(parent)
}

// ParentUpdated refreshes the design's URI and metadata pointer. Children
// and workflow are fixed at creation and never touched here.
func (h *Handlers) ParentUpdated(ev chain.Event) error {
	designID := ev.Big("designId")
	parent, ok, err := load[*entities.Parent](h.Store, entities.KindParent, ids.Parent(ev.Address, designID))
	if err != nil || !ok {
		return err
	}

	tpl, err := h.Oracle.GetDesignTemplate(ev.Address, designID)
	if err != nil {
		if chain.Reverted(err) {
			return nil
		}
		return fmt.Errorf("read design template: %w", err)
	}
	parent.URI = tpl.URI
	if hash := metadata.HashFromURI(tpl.URI); hash != "" {
		parent.Metadata = hash
		h.Meta.Register(entities.KindMetadata, hash)
	}
	return h.Store.Save(parent)
}
