// Package harness replays scenario files through the real dispatcher
// against an in-memory store and a fixture oracle, then checks assertions
// and golden snapshots of the resulting entity graph. Replaying a scenario
// twice must land on identical state; the runner exposes that as a first-
// class check because redelivery idempotence is the core contract of every
// handler.
package harness

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/DIGITALAX/fgo-futures-contracts/internal/chain"
	"github.com/DIGITALAX/fgo-futures-contracts/internal/chain/chaintest"
	"github.com/DIGITALAX/fgo-futures-contracts/internal/entities"
	"github.com/DIGITALAX/fgo-futures-contracts/internal/handlers"
	"github.com/DIGITALAX/fgo-futures-contracts/internal/ids"
	"github.com/DIGITALAX/fgo-futures-contracts/internal/metadata"
	"github.com/DIGITALAX/fgo-futures-contracts/internal/store"
)

// Run dispatches the scenario's events once into a fresh in-memory store
// and returns it.
func Run(s *Scenario) (*store.Memory, error) {
	return run(s, 1)
}

// RunTwice dispatches the full event sequence twice into the same store,
// modelling at-least-once redelivery of every log. Assertions that hold
// after Run must hold identically after RunTwice.
func RunTwice(s *Scenario) (*store.Memory, error) {
	return run(s, 2)
}

func run(s *Scenario, passes int) (*store.Memory, error) {
	st := store.NewMemory()
	h := handlers.New(st, BuildOracle(s.Oracle), metadata.NewRegistry(st))

	for _, src := range s.Sources {
		h.RegisterSource(ids.Addr(src.Address), chain.SourceContext{
			InfraID:    chain.ParseBig(src.InfraID),
			Kind:       src.Kind,
			IsTemplate: src.Template,
		})
	}

	events := buildEvents(s.Events)
	for pass := 0; pass < passes; pass++ {
		for i, ev := range events {
			if err := h.Dispatch(ev); err != nil {
				return nil, fmt.Errorf("scenario %s event %d (%s): %w", s.Name, i, ev.Name, err)
			}
		}
	}
	return st, nil
}

// buildEvents assigns deterministic block positions to steps that omit
// them: events advance one block at a time, and each step gets a distinct
// (tx, log index) so event-keyed records never collide across steps.
func buildEvents(steps []EventStep) []chain.Event {
	out := make([]chain.Event, 0, len(steps))
	for i, step := range steps {
		ev := chain.Event{
			Name:           step.Name,
			Address:        ids.Addr(step.Address),
			BlockNumber:    step.Block,
			BlockTimestamp: chain.ParseBig(step.Timestamp),
			TxHash:         step.Tx,
			LogIndex:       step.LogIndex,
			Params:         step.Params,
		}
		if ev.BlockNumber == 0 {
			ev.BlockNumber = uint64(100 + i)
		}
		if step.Timestamp == "" {
			ev.BlockTimestamp.SetInt64(1_700_000_000 + int64(i))
		}
		if ev.TxHash == "" {
			ev.TxHash = fmt.Sprintf("0xscenario%04d", i)
		}
		if ev.LogIndex == 0 {
			ev.LogIndex = uint32(i + 1)
		}
		out = append(out, ev)
	}
	return out
}

// BuildOracle materializes fixture declarations into a chaintest oracle.
// The indexing CLI reuses it to run event logs against recorded contract
// state instead of a live chain.
func BuildOracle(f OracleFixtures) *chaintest.Oracle {
	o := chaintest.NewOracle()

	for _, c := range f.Children {
		o.Children[ids.Child(ids.Addr(c.Contract), chain.ParseBig(c.ChildID))] = chain.ChildMetadata{
			URI:           c.URI,
			PhysicalPrice: chain.ParseBig(c.PhysicalPrice),
		}
	}
	for _, p := range f.Placements {
		key := ids.Child(ids.Addr(p.Contract), chain.ParseBig(p.TemplateID))
		refs := make([]chain.Placement, 0, len(p.Children))
		for _, c := range p.Children {
			refs = append(refs, chain.Placement{
				ChildContract: ids.Addr(c.Contract),
				ChildID:       chain.ParseBig(c.ChildID),
			})
		}
		o.Placements[key] = refs
	}
	for _, r := range f.Rights {
		o.SetRights(chain.ParseBig(r.ChildID), ids.Addr(r.Contract), chain.ParseBig(r.OrderID),
			ids.Addr(r.Holder), ids.Addr(r.Market), chain.PhysicalRightsData{
				GuaranteedAmount:          chain.ParseBig(r.GuaranteedAmount),
				EstimatedDeliveryDuration: chain.ParseBig(r.DeliveryDuration),
			})
	}
	for _, r := range f.Receipts {
		o.Receipts[ids.MarketOrder(ids.Addr(r.Market), chain.ParseBig(r.OrderID))] = chain.OrderReceipt{
			Buyer:          ids.Addr(r.Buyer),
			Status:         chain.ParseBig(r.Status),
			ParentContract: ids.Addr(r.ParentContract),
			ParentID:       chain.ParseBig(r.ParentID),
			IsPhysical:     r.IsPhysical,
		}
	}
	for _, fc := range f.Futures {
		bots := make([]ids.Address, 0, len(fc.TrustedBots))
		for _, b := range fc.TrustedBots {
			bots = append(bots, ids.Addr(b))
		}
		o.Futures[ids.Uint(chain.ParseBig(fc.ContractID))] = chain.FuturesContractData{
			TokenID:               chain.ParseBig(fc.TokenID),
			Quantity:              chain.ParseBig(fc.Quantity),
			SettlementRewardBPS:   chain.ParseBig(fc.RewardBPS),
			FuturesSettlementDate: chain.ParseBig(fc.SettlementDate),
			IsActive:              fc.IsActive,
			URI:                   fc.URI,
			TrustedSettlementBots: bots,
		}
	}
	for _, e := range f.Escrows {
		key := ids.PhysicalRights(chain.ParseBig(e.ChildID), ids.Addr(e.ChildContract),
			chain.ParseBig(e.OrderID), ids.Addr(e.Depositor), ids.Addr(e.Market))
		o.Escrows[key] = chain.EscrowedRightsData{
			EstimatedDeliveryDuration: chain.ParseBig(e.DeliveryDuration),
		}
	}
	for _, b := range f.Bots {
		o.Bots[ids.Addr(b.Bot)] = chain.SettlementBotData{
			Staked:           chain.ParseBig(b.Staked),
			TotalSettlements: chain.ParseBig(b.TotalSettlements),
		}
	}
	for _, b := range f.Balances {
		o.SetBalance(ids.Addr(b.Holder), chain.ParseBig(b.TokenID), chain.ParseBig(b.Balance))
	}
	for _, m := range f.Markets {
		o.Markets[ids.Addr(m.Fulfillment)] = ids.Addr(m.Market)
	}
	if f.MaxDelay != "" {
		o.MaxDelay = chain.ParseBig(f.MaxDelay)
	}
	return o
}

// Check evaluates every assertion against the store and returns the first
// failure.
func Check(st store.Store, s *Scenario) error {
	for i, a := range s.Assertions {
		if err := check(st, a); err != nil {
			return fmt.Errorf("scenario %s assertion %d: %w", s.Name, i, err)
		}
	}
	return nil
}

func check(st store.Store, a Assertion) error {
	kind := entities.Kind(a.Kind)
	switch a.Type {
	case "entity_count":
		list, err := st.List(kind)
		if err != nil {
			return err
		}
		if len(list) != a.Count {
			return fmt.Errorf("%s count = %d, want %d", a.Kind, len(list), a.Count)
		}
		return nil

	case "absent":
		_, ok, err := st.Load(kind, ids.Key(a.ID))
		if err != nil {
			return err
		}
		if ok {
			return fmt.Errorf("%s %q exists, want absent", a.Kind, a.ID)
		}
		return nil

	case "field_equals":
		e, ok, err := st.Load(kind, ids.Key(a.ID))
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%s %q not found", a.Kind, a.ID)
		}
		got, err := fieldValue(e, a.Field)
		if err != nil {
			return err
		}
		if got != a.Value {
			return fmt.Errorf("%s %q field %s = %q, want %q", a.Kind, a.ID, a.Field, got, a.Value)
		}
		return nil

	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
}

// fieldValue reads one field of an entity through its JSON form, so
// assertions address fields by their stable serialized names.
func fieldValue(e entities.Entity, field string) (string, error) {
	raw, err := json.Marshal(e)
	if err != nil {
		return "", err
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var m map[string]any
	if err := dec.Decode(&m); err != nil {
		return "", err
	}
	v, ok := m[field]
	if !ok {
		return "", fmt.Errorf("field %q not present", field)
	}
	switch t := v.(type) {
	case string:
		return t, nil
	case json.Number:
		return t.String(), nil
	case bool:
		if t {
			return "true", nil
		}
		return "false", nil
	default:
		return string(mustMarshal(v)), nil
	}
}

func mustMarshal(v any) []byte {
	raw, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return raw
}
