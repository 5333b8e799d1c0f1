// Package entities defines the denormalized entity graph materialized from
// chain events.
//
// Entities are plain records addressed by the composite keys in package ids.
// Relationships are stored as foreign-key-like Key fields and Key lists;
// traversal happens through repeated store loads, never through in-memory
// pointers. The store owns every instance: handlers hold transient copies
// during a single event's processing and must save before the value is
// visible to a later event.
//
// Numeric chain values (amounts, ids, timestamps) are *big.Int throughout,
// since uint256 does not fit native integers.
package entities

import (
	"fmt"
	"math/big"

	"github.com/DIGITALAX/fgo-futures-contracts/internal/ids"
)

// Kind names an entity type in the store.
type Kind string

const (
	KindChild                Kind = "Child"
	KindPhysicalRights       Kind = "PhysicalRights"
	KindParent               Kind = "Parent"
	KindFulfillmentWorkflow  Kind = "FulfillmentWorkflow"
	KindFulfillmentStep      Kind = "FulfillmentStep"
	KindSubPerformer         Kind = "SubPerformer"
	KindFulfillment          Kind = "Fulfillment"
	KindFulfillmentOrderStep Kind = "FulfillmentOrderStep"
	KindFuturesContract      Kind = "FuturesContract"
	KindEscrowedRight        Kind = "EscrowedRight"
	KindOrder                Kind = "Order"
	KindFiller               Kind = "Filler"
	KindSettlementBot        Kind = "SettlementBot"
	KindFulfiller            Kind = "Fulfiller"
	KindSupplier             Kind = "Supplier"
	KindChildOrder           Kind = "ChildOrder"
	KindChildClaimed         Kind = "ChildClaimed"
	KindContractSettled      Kind = "ContractSettled"
	KindStakeWithdrawn       Kind = "StakeWithdrawn"
	KindMEVBotRegistered     Kind = "MEVBotRegistered"
	KindMEVBotSlashed        Kind = "MEVBotSlashed"
	KindRightsDeposited      Kind = "RightsDeposited"
	KindRightsWithdrawn      Kind = "RightsWithdrawn"
	KindMetadata             Kind = "Metadata"
	KindFulfillerMetadata    Kind = "FulfillerMetadata"
	KindSupplierMetadata     Kind = "SupplierMetadata"
)

// Entity is implemented by every stored record.
type Entity interface {
	EntityKind() Kind
	EntityKey() ids.Key
}

// Child is a purchasable component. A template child aggregates other
// children through Placements; Placements is non-empty only when IsTemplate
// is set.
type Child struct {
	ID            ids.Key     `json:"id"`
	ChildContract ids.Address `json:"child_contract"`
	ChildID       *big.Int    `json:"child_id"`
	URI           string      `json:"uri,omitempty"`
	IsTemplate    bool        `json:"is_template"`
	PhysicalPrice *big.Int    `json:"physical_price,omitempty"`
	Metadata      string      `json:"metadata,omitempty"`
	Placements    []ids.Key   `json:"placements,omitempty"`
}

func (c *Child) EntityKind() Kind   { return KindChild }
func (c *Child) EntityKey() ids.Key { return c.ID }

// PhysicalRights is a holder's guaranteed claim to physical units of a
// child, tied to one market order. A row with zero guaranteed amount is
// deleted, never kept.
type PhysicalRights struct {
	ID                        ids.Key     `json:"id"`
	ChildID                   *big.Int    `json:"child_id"`
	OrderID                   *big.Int    `json:"order_id"`
	Holder                    ids.Address `json:"holder"`
	Buyer                     ids.Address `json:"buyer"`
	Receiver                  ids.Address `json:"receiver,omitempty"`
	OriginalBuyer             ids.Address `json:"original_buyer,omitempty"`
	GuaranteedAmount          *big.Int    `json:"guaranteed_amount"`
	EstimatedDeliveryDuration *big.Int    `json:"estimated_delivery_duration,omitempty"`
	PurchaseMarket            ids.Address `json:"purchase_market"`
	Child                     ids.Key     `json:"child,omitempty"`
	Order                     ids.Key     `json:"order,omitempty"`
	BlockTimestamp            *big.Int    `json:"block_timestamp,omitempty"`
}

func (p *PhysicalRights) EntityKind() Kind   { return KindPhysicalRights }
func (p *PhysicalRights) EntityKey() ids.Key { return p.ID }

// Parent is a complete design composed of children, with an attached
// fulfillment workflow. Children holds the flattened pre-order closure of
// its child references.
type Parent struct {
	ID             ids.Key     `json:"id"`
	DesignID       *big.Int    `json:"design_id"`
	ParentContract ids.Address `json:"parent_contract"`
	URI            string      `json:"uri,omitempty"`
	Metadata       string      `json:"metadata,omitempty"`
	Children       []ids.Key   `json:"children,omitempty"`
	Workflow       ids.Key     `json:"workflow,omitempty"`
}

func (p *Parent) EntityKind() Kind   { return KindParent }
func (p *Parent) EntityKey() ids.Key { return p.ID }

// FulfillmentWorkflow is the ordered physical-step plan attached to a
// parent at creation time. Steps are append-only at parent creation and
// not mutated afterward.
type FulfillmentWorkflow struct {
	ID                        ids.Key   `json:"id"`
	Parent                    ids.Key   `json:"parent"`
	EstimatedDeliveryDuration *big.Int  `json:"estimated_delivery_duration,omitempty"`
	PhysicalSteps             []ids.Key `json:"physical_steps,omitempty"`
}

func (w *FulfillmentWorkflow) EntityKind() Kind   { return KindFulfillmentWorkflow }
func (w *FulfillmentWorkflow) EntityKey() ids.Key { return w.ID }

// FulfillmentStep is one step of a workflow, with a primary fulfiller and
// optional revenue-split sub-performers.
type FulfillmentStep struct {
	ID            ids.Key   `json:"id"`
	Workflow      ids.Key   `json:"workflow"`
	Instructions  string    `json:"instructions,omitempty"`
	Fulfiller     ids.Key   `json:"fulfiller,omitempty"`
	SubPerformers []ids.Key `json:"sub_performers,omitempty"`
}

func (s *FulfillmentStep) EntityKind() Kind   { return KindFulfillmentStep }
func (s *FulfillmentStep) EntityKey() ids.Key { return s.ID }

// SubPerformer is a revenue-split participant on a step. Split basis points
// conceptually sum to at most 10000 across a step's sub-performers; the sum
// is not validated here.
type SubPerformer struct {
	ID               ids.Key     `json:"id"`
	Step             ids.Key     `json:"step"`
	Performer        ids.Address `json:"performer"`
	SplitBasisPoints *big.Int    `json:"split_basis_points,omitempty"`
}

func (s *SubPerformer) EntityKind() Kind   { return KindSubPerformer }
func (s *SubPerformer) EntityKey() ids.Key { return s.ID }

// Fulfillment tracks per-order execution of a workflow. CurrentStep only
// increases.
type Fulfillment struct {
	ID                    ids.Key   `json:"id"`
	OrderID               *big.Int  `json:"order_id"`
	Parent                ids.Key   `json:"parent"`
	Order                 ids.Key   `json:"order,omitempty"`
	IsPhysical            bool      `json:"is_physical"`
	CurrentStep           *big.Int  `json:"current_step,omitempty"`
	CreatedAt             *big.Int  `json:"created_at,omitempty"`
	LastUpdated           *big.Int  `json:"last_updated,omitempty"`
	FulfillmentOrderSteps []ids.Key `json:"fulfillment_order_steps,omitempty"`
}

func (f *Fulfillment) EntityKind() Kind   { return KindFulfillment }
func (f *Fulfillment) EntityKey() ids.Key { return f.ID }

// FulfillmentOrderStep records the completion state of one step for one
// order.
type FulfillmentOrderStep struct {
	ID          ids.Key  `json:"id"`
	StepIndex   *big.Int `json:"step_index,omitempty"`
	CompletedAt *big.Int `json:"completed_at,omitempty"`
	Notes       string   `json:"notes,omitempty"`
	IsCompleted bool     `json:"is_completed"`
}

func (s *FulfillmentOrderStep) EntityKind() Kind   { return KindFulfillmentOrderStep }
func (s *FulfillmentOrderStep) EntityKey() ids.Key { return s.ID }

// FuturesContract is a time-boxed forward contract on escrowed physical
// rights. IsSettled implies !IsActive; settlement and cancellation are both
// terminal.
type FuturesContract struct {
	ID                    ids.Key       `json:"id"`
	ContractID            *big.Int      `json:"contract_id"`
	MarketOrderID         *big.Int      `json:"market_order_id,omitempty"`
	ChildID               *big.Int      `json:"child_id,omitempty"`
	ChildContract         ids.Address   `json:"child_contract,omitempty"`
	OriginalMarket        ids.Address   `json:"original_market,omitempty"`
	OriginalHolder        ids.Address   `json:"original_holder,omitempty"`
	Child                 ids.Key       `json:"child,omitempty"`
	Escrowed              ids.Key       `json:"escrowed,omitempty"`
	TokenID               *big.Int      `json:"token_id,omitempty"`
	Quantity              *big.Int      `json:"quantity,omitempty"`
	PricePerUnit          *big.Int      `json:"price_per_unit,omitempty"`
	FuturesSettlementDate *big.Int      `json:"futures_settlement_date,omitempty"`
	SettlementRewardBPS   *big.Int      `json:"settlement_reward_bps,omitempty"`
	CreatedAt             *big.Int      `json:"created_at,omitempty"`
	SettledAt             *big.Int      `json:"settled_at,omitempty"`
	IsActive              bool          `json:"is_active"`
	IsSettled             bool          `json:"is_settled"`
	IsFulfilled           bool          `json:"is_fulfilled"`
	FulfillerSettlement   *big.Int      `json:"fulfiller_settlement,omitempty"`
	TimeSinceCompletion   *big.Int      `json:"time_since_completion,omitempty"`
	MaxSettlementDelay    *big.Int      `json:"max_settlement_delay,omitempty"`
	URI                   string        `json:"uri,omitempty"`
	Metadata              string        `json:"metadata,omitempty"`
	TrustedSettlementBots []ids.Address `json:"trusted_settlement_bots,omitempty"`
	Orders                []ids.Key     `json:"orders,omitempty"`
	ChildrenClaimed       []ids.Key     `json:"children_claimed,omitempty"`
	SettledContract       ids.Key       `json:"settled_contract,omitempty"`
}

func (f *FuturesContract) EntityKind() Kind   { return KindFuturesContract }
func (f *FuturesContract) EntityKey() ids.Key { return f.ID }

// EscrowedRight is physical rights deposited as futures collateral.
// AmountUsedForFutures is a running sum over all non-cancelled contracts
// drawing on this escrow; 0 <= used <= Amount holds after every event.
type EscrowedRight struct {
	ID                        ids.Key     `json:"id"`
	RightsKey                 ids.Key     `json:"rights_key"`
	Depositor                 ids.Address `json:"depositor"`
	ChildContract             ids.Address `json:"child_contract"`
	OriginalMarket            ids.Address `json:"original_market"`
	ChildID                   *big.Int    `json:"child_id"`
	OrderID                   *big.Int    `json:"order_id"`
	Amount                    *big.Int    `json:"amount"`
	AmountUsedForFutures      *big.Int    `json:"amount_used_for_futures"`
	FuturesCreated            bool        `json:"futures_created"`
	EstimatedDeliveryDuration *big.Int    `json:"estimated_delivery_duration,omitempty"`
	DepositedAt               *big.Int    `json:"deposited_at,omitempty"`
	Child                     ids.Key     `json:"child,omitempty"`
	Contracts                 []ids.Key   `json:"contracts,omitempty"`
}

func (e *EscrowedRight) EntityKind() Kind   { return KindEscrowedRight }
func (e *EscrowedRight) EntityKey() ids.Key { return e.ID }

// Order is a sell order against a futures contract's tokenized position.
// Filled becomes true only when the fillers' quantities sum to Quantity.
type Order struct {
	ID             ids.Key     `json:"id"`
	OrderID        *big.Int    `json:"order_id"`
	Contract       ids.Key     `json:"contract,omitempty"`
	Seller         ids.Address `json:"seller"`
	Quantity       *big.Int    `json:"quantity"`
	PricePerUnit   *big.Int    `json:"price_per_unit,omitempty"`
	FilledQuantity *big.Int    `json:"filled_quantity,omitempty"`
	Filled         bool        `json:"filled"`
	IsActive       bool        `json:"is_active"`
	Fillers        []ids.Key   `json:"fillers,omitempty"`
}

func (o *Order) EntityKind() Kind   { return KindOrder }
func (o *Order) EntityKey() ids.Key { return o.ID }

// Filler is one fill against an order, keyed by the filling log so replay
// lands on the same row.
type Filler struct {
	ID       ids.Key     `json:"id"`
	Order    ids.Key     `json:"order"`
	Filler   ids.Address `json:"filler"`
	Quantity *big.Int    `json:"quantity"`
}

func (f *Filler) EntityKind() Kind   { return KindFiller }
func (f *Filler) EntityKey() ids.Key { return f.ID }

// SettlementBot is a registered settlement agent. Counters mirror oracle
// reads and never decrement, except the stake which tracks withdrawals.
type SettlementBot struct {
	ID                  ids.Key     `json:"id"`
	Bot                 ids.Address `json:"bot"`
	StakeAmount         *big.Int    `json:"stake_amount,omitempty"`
	TotalSettlements    *big.Int    `json:"total_settlements,omitempty"`
	AverageDelaySeconds *big.Int    `json:"average_delay_seconds,omitempty"`
	TotalSlashEvents    *big.Int    `json:"total_slash_events,omitempty"`
	TotalAmountSlashed  *big.Int    `json:"total_amount_slashed,omitempty"`
	TotalRewardSlashed  *big.Int    `json:"total_reward_slashed,omitempty"`
	SettledContracts    []ids.Key   `json:"settled_contracts,omitempty"`
}

func (b *SettlementBot) EntityKind() Kind   { return KindSettlementBot }
func (b *SettlementBot) EntityKey() ids.Key { return b.ID }

// Fulfiller is a registered fulfiller profile within an infrastructure
// namespace.
type Fulfiller struct {
	ID          ids.Key     `json:"id"`
	InfraID     *big.Int    `json:"infra_id,omitempty"`
	FulfillerID *big.Int    `json:"fulfiller_id,omitempty"`
	Fulfiller   ids.Address `json:"fulfiller,omitempty"`
	URI         string      `json:"uri,omitempty"`
	Metadata    string      `json:"metadata,omitempty"`
	ChildOrders []ids.Key   `json:"child_orders,omitempty"`
}

func (f *Fulfiller) EntityKind() Kind   { return KindFulfiller }
func (f *Fulfiller) EntityKey() ids.Key { return f.ID }

// Supplier is a registered supplier profile within an infrastructure
// namespace.
type Supplier struct {
	ID         ids.Key     `json:"id"`
	InfraID    *big.Int    `json:"infra_id,omitempty"`
	SupplierID *big.Int    `json:"supplier_id,omitempty"`
	Supplier   ids.Address `json:"supplier,omitempty"`
	URI        string      `json:"uri,omitempty"`
	Version    *big.Int    `json:"version,omitempty"`
	IsActive   bool        `json:"is_active"`
	Metadata   string      `json:"metadata,omitempty"`
}

func (s *Supplier) EntityKind() Kind   { return KindSupplier }
func (s *Supplier) EntityKey() ids.Key { return s.ID }

// ChildOrder records a child purchase executed through a market order.
type ChildOrder struct {
	ID          ids.Key  `json:"id"`
	OrderStatus *big.Int `json:"order_status,omitempty"`
	Parent      ids.Key  `json:"parent,omitempty"`
	Fulfillment ids.Key  `json:"fulfillment,omitempty"`
}

func (o *ChildOrder) EntityKind() Kind   { return KindChildOrder }
func (o *ChildOrder) EntityKey() ids.Key { return o.ID }

// ChildClaimed is an append-only record of a post-settlement claim.
type ChildClaimed struct {
	ID             ids.Key     `json:"id"`
	ContractID     *big.Int    `json:"contract_id"`
	Claimer        ids.Address `json:"claimer"`
	Quantity       *big.Int    `json:"quantity"`
	ChildID        *big.Int    `json:"child_id"`
	Contract       ids.Key     `json:"contract,omitempty"`
	BlockNumber    *big.Int    `json:"block_number,omitempty"`
	BlockTimestamp *big.Int    `json:"block_timestamp,omitempty"`
	TxHash         string      `json:"tx_hash,omitempty"`
}

func (c *ChildClaimed) EntityKind() Kind   { return KindChildClaimed }
func (c *ChildClaimed) EntityKey() ids.Key { return c.ID }

// ContractSettled is an append-only record of a settlement (or emergency
// settlement) of a futures contract.
type ContractSettled struct {
	ID            ids.Key       `json:"id"`
	ContractID    *big.Int      `json:"contract_id"`
	Reward        *big.Int      `json:"reward,omitempty"`
	Settler       ids.Address   `json:"settler"`
	SettlementBot ids.Key       `json:"settlement_bot,omitempty"`
	Emergency     bool          `json:"emergency"`
	Contract      ids.Key       `json:"contract,omitempty"`
	FinalFillers  []ids.Address `json:"final_fillers,omitempty"`
	// MEVBot and ActualCompletionTime are set only on records written from
	// the MEV contract's settlement events.
	MEVBot               ids.Address `json:"mev_bot,omitempty"`
	ActualCompletionTime *big.Int    `json:"actual_completion_time,omitempty"`
	BlockNumber          *big.Int    `json:"block_number,omitempty"`
	SettledAt            *big.Int    `json:"settled_at,omitempty"`
	TxHash               string      `json:"tx_hash,omitempty"`
}

func (c *ContractSettled) EntityKind() Kind   { return KindContractSettled }
func (c *ContractSettled) EntityKey() ids.Key { return c.ID }

// StakeWithdrawn is an append-only record of a MEV bot withdrawing stake.
type StakeWithdrawn struct {
	ID             ids.Key     `json:"id"`
	Bot            ids.Address `json:"bot"`
	Amount         *big.Int    `json:"amount"`
	BlockNumber    *big.Int    `json:"block_number,omitempty"`
	BlockTimestamp *big.Int    `json:"block_timestamp,omitempty"`
	TxHash         string      `json:"tx_hash,omitempty"`
}

func (s *StakeWithdrawn) EntityKind() Kind   { return KindStakeWithdrawn }
func (s *StakeWithdrawn) EntityKey() ids.Key { return s.ID }

// MEVBotRegistered is an append-only record of a MEV bot staking in.
type MEVBotRegistered struct {
	ID             ids.Key     `json:"id"`
	Bot            ids.Address `json:"bot"`
	StakeAmount    *big.Int    `json:"stake_amount"`
	BlockNumber    *big.Int    `json:"block_number,omitempty"`
	BlockTimestamp *big.Int    `json:"block_timestamp,omitempty"`
	TxHash         string      `json:"tx_hash,omitempty"`
}

func (m *MEVBotRegistered) EntityKind() Kind   { return KindMEVBotRegistered }
func (m *MEVBotRegistered) EntityKey() ids.Key { return m.ID }

// MEVBotSlashed is an append-only record of a MEV bot stake slash.
type MEVBotSlashed struct {
	ID             ids.Key     `json:"id"`
	Bot            ids.Address `json:"bot"`
	SlashAmount    *big.Int    `json:"slash_amount"`
	BlockNumber    *big.Int    `json:"block_number,omitempty"`
	BlockTimestamp *big.Int    `json:"block_timestamp,omitempty"`
	TxHash         string      `json:"tx_hash,omitempty"`
}

func (m *MEVBotSlashed) EntityKind() Kind   { return KindMEVBotSlashed }
func (m *MEVBotSlashed) EntityKey() ids.Key { return m.ID }

// RightsDeposited is the trading contract's append-only deposit record.
// The stateful escrow row lives separately as EscrowedRight.
type RightsDeposited struct {
	ID             ids.Key     `json:"id"`
	RightsKey      ids.Key     `json:"rights_key"`
	Depositor      ids.Address `json:"depositor"`
	ChildContract  ids.Address `json:"child_contract"`
	OriginalMarket ids.Address `json:"original_market"`
	ChildID        *big.Int    `json:"child_id"`
	OrderID        *big.Int    `json:"order_id"`
	Amount         *big.Int    `json:"amount"`
	BlockNumber    *big.Int    `json:"block_number,omitempty"`
	BlockTimestamp *big.Int    `json:"block_timestamp,omitempty"`
	TxHash         string      `json:"tx_hash,omitempty"`
}

func (r *RightsDeposited) EntityKind() Kind   { return KindRightsDeposited }
func (r *RightsDeposited) EntityKey() ids.Key { return r.ID }

// RightsWithdrawn is the trading contract's append-only withdrawal record.
type RightsWithdrawn struct {
	ID             ids.Key     `json:"id"`
	RightsKey      ids.Key     `json:"rights_key"`
	Withdrawer     ids.Address `json:"withdrawer"`
	Amount         *big.Int    `json:"amount"`
	BlockNumber    *big.Int    `json:"block_number,omitempty"`
	BlockTimestamp *big.Int    `json:"block_timestamp,omitempty"`
	TxHash         string      `json:"tx_hash,omitempty"`
}

func (r *RightsWithdrawn) EntityKind() Kind   { return KindRightsWithdrawn }
func (r *RightsWithdrawn) EntityKey() ids.Key { return r.ID }

// Metadata is an off-chain-sourced record keyed by content hash, created at
// most once per hash.
type Metadata struct {
	ID    ids.Key `json:"id"`
	Title string  `json:"title,omitempty"`
	Image string  `json:"image,omitempty"`
}

func (m *Metadata) EntityKind() Kind   { return KindMetadata }
func (m *Metadata) EntityKey() ids.Key { return m.ID }

// FulfillerMetadata is the fulfiller-profile variant of Metadata, with an
// extra link field.
type FulfillerMetadata struct {
	ID    ids.Key `json:"id"`
	Title string  `json:"title,omitempty"`
	Image string  `json:"image,omitempty"`
	Link  string  `json:"link,omitempty"`
}

func (m *FulfillerMetadata) EntityKind() Kind   { return KindFulfillerMetadata }
func (m *FulfillerMetadata) EntityKey() ids.Key { return m.ID }

// SupplierMetadata is the supplier-profile variant of Metadata.
type SupplierMetadata struct {
	ID    ids.Key `json:"id"`
	Title string  `json:"title,omitempty"`
	Image string  `json:"image,omitempty"`
	Link  string  `json:"link,omitempty"`
}

func (m *SupplierMetadata) EntityKind() Kind   { return KindSupplierMetadata }
func (m *SupplierMetadata) EntityKey() ids.Key { return m.ID }

// New allocates an empty entity of the given kind. Stores use this to
// decode persisted rows back into typed values.
func New(kind Kind) (Entity, error) {
	switch kind {
	case KindChild:
		return &Child{}, nil
	case KindPhysicalRights:
		return &PhysicalRights{}, nil
	case KindParent:
		return &Parent{}, nil
	case KindFulfillmentWorkflow:
		return &FulfillmentWorkflow{}, nil
	case KindFulfillmentStep:
		return &FulfillmentStep{}, nil
	case KindSubPerformer:
		return &SubPerformer{}, nil
	case KindFulfillment:
		return &Fulfillment{}, nil
	case KindFulfillmentOrderStep:
		return &FulfillmentOrderStep{}, nil
	case KindFuturesContract:
		return &FuturesContract{}, nil
	case KindEscrowedRight:
		return &EscrowedRight{}, nil
	case KindOrder:
		return &Order{}, nil
	case KindFiller:
		return &Filler{}, nil
	case KindSettlementBot:
		return &SettlementBot{}, nil
	case KindFulfiller:
		return &Fulfiller{}, nil
	case KindSupplier:
		return &Supplier{}, nil
	case KindChildOrder:
		return &ChildOrder{}, nil
	case KindChildClaimed:
		return &ChildClaimed{}, nil
	case KindContractSettled:
		return &ContractSettled{}, nil
	case KindStakeWithdrawn:
		return &StakeWithdrawn{}, nil
	case KindMEVBotRegistered:
		return &MEVBotRegistered{}, nil
	case KindMEVBotSlashed:
		return &MEVBotSlashed{}, nil
	case KindRightsDeposited:
		return &RightsDeposited{}, nil
	case KindRightsWithdrawn:
		return &RightsWithdrawn{}, nil
	case KindMetadata:
		return &Metadata{}, nil
	case KindFulfillerMetadata:
		return &FulfillerMetadata{}, nil
	case KindSupplierMetadata:
		return &SupplierMetadata{}, nil
	default:
		return nil, fmt.Errorf("unknown entity kind %q", kind)
	}
}

// Kinds lists every entity kind, in a stable order. Used by store dumps and
// the scenario harness.
func Kinds() []Kind {
	return []Kind{
		KindChild, KindPhysicalRights, KindParent, KindFulfillmentWorkflow,
		KindFulfillmentStep, KindSubPerformer, KindFulfillment,
		KindFulfillmentOrderStep, KindFuturesContract, KindEscrowedRight,
		KindOrder, KindFiller, KindSettlementBot, KindFulfiller, KindSupplier,
		KindChildOrder, KindChildClaimed, KindContractSettled,
		KindStakeWithdrawn, KindMEVBotRegistered, KindMEVBotSlashed,
		KindRightsDeposited, KindRightsWithdrawn, KindMetadata,
		KindFulfillerMetadata, KindSupplierMetadata,
	}
}

// AppendKeyOnce appends key to list only if absent. Handlers use this for
// every list-valued relationship so redelivered events cannot duplicate
// entries.
func AppendKeyOnce(list []ids.Key, key ids.Key) []ids.Key {
	for _, k := range list {
		if k == key {
			return list
		}
	}
	return append(list, key)
}
