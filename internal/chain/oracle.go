package chain

import (
	"errors"
	"math/big"

	"github.com/DIGITALAX/fgo-futures-contracts/internal/ids"
)

// ErrReverted marks an oracle call that reverted on chain. Reverts are an
// expected outcome: handlers leave the dependent fields unset and continue.
// Check with errors.Is.
var ErrReverted = errors.New("contract call reverted")

// Reverted reports whether err is an expected revert rather than an
// infrastructure failure.
func Reverted(err error) bool {
	return errors.Is(err, ErrReverted)
}

// ChildMetadata is the on-chain metadata of a child component.
type ChildMetadata struct {
	URI           string
	PhysicalPrice *big.Int
}

// Placement is one nested child reference inside a template.
type Placement struct {
	ChildContract ids.Address
	ChildID       *big.Int
}

// PhysicalRightsData is the authoritative on-chain rights state for one
// (child, order, holder, market) tuple.
type PhysicalRightsData struct {
	GuaranteedAmount          *big.Int
	EstimatedDeliveryDuration *big.Int
}

// OrderReceipt is the on-chain receipt of a market order.
type OrderReceipt struct {
	Buyer          ids.Address
	Status         *big.Int
	ParentContract ids.Address
	ParentID       *big.Int
	IsPhysical     bool
}

// StepStatus is the completion state of one fulfillment step.
type StepStatus struct {
	CompletedAt *big.Int
	Notes       string
	IsCompleted bool
}

// FulfillmentStatus is the on-chain execution state of one order's
// fulfillment.
type FulfillmentStatus struct {
	ParentContract ids.Address
	ParentID       *big.Int
	CurrentStep    *big.Int
	LastUpdated    *big.Int
	Steps          []StepStatus
}

// DesignChildRef is one child reference on a design.
type DesignChildRef struct {
	ChildContract ids.Address
	ChildID       *big.Int
}

// DesignStep is one physical workflow step of a design template.
type DesignStep struct {
	Instructions     string
	PrimaryPerformer ids.Address
	SubPerformers    []DesignSubPerformer
}

// DesignSubPerformer is a revenue-split participant declared on a step.
type DesignSubPerformer struct {
	Performer        ids.Address
	SplitBasisPoints *big.Int
}

// DesignTemplate is the on-chain definition of a parent design.
type DesignTemplate struct {
	URI                       string
	ChildReferences           []DesignChildRef
	EstimatedDeliveryDuration *big.Int
	PhysicalSteps             []DesignStep
}

// FuturesContractData is the on-chain state of a futures contract.
type FuturesContractData struct {
	TokenID               *big.Int
	Quantity              *big.Int
	CreatedAt             *big.Int
	SettledAt             *big.Int
	SettlementRewardBPS   *big.Int
	FuturesSettlementDate *big.Int
	IsActive              bool
	IsSettled             bool
	URI                   string
	TrustedSettlementBots []ids.Address
}

// EscrowedRightsData is the on-chain state of an escrow deposit.
type EscrowedRightsData struct {
	EstimatedDeliveryDuration *big.Int
}

// SettlementBotData is the on-chain profile of a settlement bot.
type SettlementBotData struct {
	Staked              *big.Int
	TotalSettlements    *big.Int
	AverageDelaySeconds *big.Int
	SlashEvents         *big.Int
}

// Profile is a fulfiller or supplier profile read from chain.
type Profile struct {
	Address  ids.Address
	URI      string
	Version  *big.Int
	IsActive bool
}

// Oracle is the read-only view of the deployed contracts. Every call either
// returns typed data or an error; ErrReverted (wrapped or bare) means "no
// authoritative data available now" and is never fatal to a handler.
type Oracle interface {
	GetChildMetadata(contract ids.Address, childID *big.Int) (ChildMetadata, error)
	GetTemplatePlacements(contract ids.Address, templateID *big.Int) ([]Placement, error)
	GetPhysicalRights(contract ids.Address, childID, orderID *big.Int, holder, market ids.Address) (PhysicalRightsData, error)
	GetOrderReceipt(market ids.Address, orderID *big.Int) (OrderReceipt, error)
	GetDesignTemplate(contract ids.Address, designID *big.Int) (DesignTemplate, error)
	GetFulfillmentStatus(contract ids.Address, orderID *big.Int) (FulfillmentStatus, error)
	FulfillmentMarket(contract ids.Address) (ids.Address, error)
	GetFuturesContract(contract ids.Address, contractID *big.Int) (FuturesContractData, error)
	GetContractRightsKey(contract ids.Address, contractID *big.Int) (ids.Key, error)
	GetEscrowedRights(contract ids.Address, childID, orderID *big.Int, childContract, market, depositor ids.Address) (EscrowedRightsData, error)
	GetSettlementBot(contract ids.Address, bot ids.Address) (SettlementBotData, error)
	GetFulfillerProfile(contract ids.Address, fulfillerID *big.Int) (Profile, error)
	GetSupplierProfile(contract ids.Address, supplierID *big.Int) (Profile, error)
	BalanceOf(trading ids.Address, holder ids.Address, tokenID *big.Int) (*big.Int, error)
	InfraID(contract ids.Address) (*big.Int, error)
	MaxSettlementDelay(contract ids.Address) (*big.Int, error)
}
