package harness

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"
)

// Scenario is one replayable indexing case: oracle fixtures, an ordered
// event sequence, and assertions over the final entity state. Scenarios
// live in testdata as YAML so new protocol cases need no Go changes.
type Scenario struct {
	// Name uniquely identifies the scenario; golden snapshots are stored
	// under this name.
	Name string `yaml:"name"`

	// Description explains the behavior the scenario pins down.
	Description string `yaml:"description,omitempty"`

	// Sources registers static data-source contexts before any event is
	// dispatched, standing in for the deployment manifest.
	Sources []SourceStep `yaml:"sources,omitempty"`

	// Oracle provisions the contract-read fixtures the handlers consult.
	Oracle OracleFixtures `yaml:"oracle,omitempty"`

	// Events is the ordered log sequence to dispatch. Steps without an
	// explicit tx/log position are assigned unique ones in order.
	Events []EventStep `yaml:"events"`

	// Assertions check final state. All of them are evaluated; a replayed
	// run must satisfy them identically.
	Assertions []Assertion `yaml:"assertions,omitempty"`

	// Golden opts the scenario into snapshot comparison against
	// testdata/golden/{name}.golden in addition to its assertions.
	Golden bool `yaml:"golden,omitempty"`

	// Replay opts the scenario into the double-replay convergence check.
	// Scenarios built purely on oracle-mirrored state converge under full
	// redelivery; scenarios exercising accumulate semantics (escrow
	// deposits) do not, since the durable cursor is what fences those in
	// production.
	Replay bool `yaml:"replay,omitempty"`
}

// SourceStep registers one contract's data-source context.
type SourceStep struct {
	Address  string `yaml:"address"`
	InfraID  string `yaml:"infra_id,omitempty"`
	Kind     string `yaml:"kind,omitempty"`
	Template bool   `yaml:"template,omitempty"`
}

// OracleFixtures provisions the fake oracle. All numeric values are
// decimal or 0x-hex strings.
type OracleFixtures struct {
	Children   []ChildFixture     `yaml:"children,omitempty"`
	Placements []PlacementFixture `yaml:"placements,omitempty"`
	Rights     []RightsFixture    `yaml:"rights,omitempty"`
	Receipts   []ReceiptFixture   `yaml:"receipts,omitempty"`
	Futures    []FuturesFixture   `yaml:"futures,omitempty"`
	Escrows    []EscrowFixture    `yaml:"escrows,omitempty"`
	Bots       []BotFixture       `yaml:"bots,omitempty"`
	Balances   []BalanceFixture   `yaml:"balances,omitempty"`
	Markets    []MarketFixture    `yaml:"markets,omitempty"`
	MaxDelay   string             `yaml:"max_delay,omitempty"`
}

type ChildFixture struct {
	Contract      string `yaml:"contract"`
	ChildID       string `yaml:"child_id"`
	URI           string `yaml:"uri,omitempty"`
	PhysicalPrice string `yaml:"physical_price,omitempty"`
}

type PlacementRef struct {
	Contract string `yaml:"contract"`
	ChildID  string `yaml:"child_id"`
}

type PlacementFixture struct {
	Contract   string         `yaml:"contract"`
	TemplateID string         `yaml:"template_id"`
	Children   []PlacementRef `yaml:"children"`
}

type RightsFixture struct {
	Contract         string `yaml:"contract"`
	ChildID          string `yaml:"child_id"`
	OrderID          string `yaml:"order_id"`
	Holder           string `yaml:"holder"`
	Market           string `yaml:"market"`
	GuaranteedAmount string `yaml:"guaranteed_amount"`
	DeliveryDuration string `yaml:"delivery_duration,omitempty"`
}

type ReceiptFixture struct {
	Market         string `yaml:"market"`
	OrderID        string `yaml:"order_id"`
	Buyer          string `yaml:"buyer"`
	Status         string `yaml:"status,omitempty"`
	ParentContract string `yaml:"parent_contract,omitempty"`
	ParentID       string `yaml:"parent_id,omitempty"`
	IsPhysical     bool   `yaml:"is_physical,omitempty"`
}

type FuturesFixture struct {
	ContractID     string   `yaml:"contract_id"`
	TokenID        string   `yaml:"token_id,omitempty"`
	Quantity       string   `yaml:"quantity,omitempty"`
	RewardBPS      string   `yaml:"reward_bps,omitempty"`
	SettlementDate string   `yaml:"settlement_date,omitempty"`
	IsActive       bool     `yaml:"is_active,omitempty"`
	URI            string   `yaml:"uri,omitempty"`
	TrustedBots    []string `yaml:"trusted_bots,omitempty"`
}

type EscrowFixture struct {
	ChildContract    string `yaml:"child_contract"`
	ChildID          string `yaml:"child_id"`
	OrderID          string `yaml:"order_id"`
	Depositor        string `yaml:"depositor"`
	Market           string `yaml:"market"`
	DeliveryDuration string `yaml:"delivery_duration,omitempty"`
}

type BotFixture struct {
	Bot              string `yaml:"bot"`
	Staked           string `yaml:"staked,omitempty"`
	TotalSettlements string `yaml:"total_settlements,omitempty"`
}

type BalanceFixture struct {
	Holder  string `yaml:"holder"`
	TokenID string `yaml:"token_id"`
	Balance string `yaml:"balance"`
}

type MarketFixture struct {
	Fulfillment string `yaml:"fulfillment"`
	Market      string `yaml:"market"`
}

// EventStep is one decoded log to dispatch.
type EventStep struct {
	Name      string            `yaml:"name"`
	Address   string            `yaml:"address"`
	Block     uint64            `yaml:"block,omitempty"`
	Timestamp string            `yaml:"timestamp,omitempty"`
	Tx        string            `yaml:"tx,omitempty"`
	LogIndex  uint32            `yaml:"log_index,omitempty"`
	Params    map[string]string `yaml:"params,omitempty"`
}

// Assertion checks final entity state. Types: entity_count (kind, count),
// field_equals (kind, id, field, value), absent (kind, id).
type Assertion struct {
	Type  string `yaml:"type"`
	Kind  string `yaml:"kind"`
	ID    string `yaml:"id,omitempty"`
	Count int    `yaml:"count,omitempty"`
	Field string `yaml:"field,omitempty"`
	Value string `yaml:"value,omitempty"`
}

// LoadScenario parses one scenario file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}
	var s Scenario
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse scenario %s: %w", path, err)
	}
	if s.Name == "" {
		return nil, fmt.Errorf("scenario %s has no name", path)
	}
	if len(s.Events) == 0 {
		return nil, fmt.Errorf("scenario %s has no events", path)
	}
	return &s, nil
}

// LoadFixtures parses a standalone oracle fixtures file, the same yaml
// shape as a scenario's oracle block.
func LoadFixtures(path string) (OracleFixtures, error) {
	var f OracleFixtures
	data, err := os.ReadFile(path)
	if err != nil {
		return f, fmt.Errorf("read fixtures: %w", err)
	}
	if err := yaml.Unmarshal(data, &f); err != nil {
		return f, fmt.Errorf("parse fixtures %s: %w", path, err)
	}
	return f, nil
}

// LoadScenarios parses every *.yaml scenario under dir, sorted by filename
// so runs enumerate deterministically.
func LoadScenarios(dir string) ([]*Scenario, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "*.yaml"))
	if err != nil {
		return nil, err
	}
	sort.Strings(matches)

	out := make([]*Scenario, 0, len(matches))
	for _, path := range matches {
		s, err := LoadScenario(path)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}
