// Package chaintest provides a map-backed Oracle fake for handler and
// scenario tests. Fixtures are registered per composite key; any call with
// no fixture reverts, which mirrors how an unprovisioned contract read
// behaves on chain.
package chaintest

import (
	"math/big"

	"github.com/DIGITALAX/fgo-futures-contracts/internal/chain"
	"github.com/DIGITALAX/fgo-futures-contracts/internal/ids"
)

// Oracle is a fixture-backed chain.Oracle. The zero value is unusable; use
// NewOracle. Set Reverts["MethodName"] to force a method to revert
// regardless of fixtures.
type Oracle struct {
	Children     map[ids.Key]chain.ChildMetadata
	Placements   map[ids.Key][]chain.Placement
	Rights       map[ids.Key]chain.PhysicalRightsData
	Receipts     map[ids.Key]chain.OrderReceipt
	Designs      map[ids.Key]chain.DesignTemplate
	Fulfillments map[ids.Key]chain.FulfillmentStatus
	Markets      map[ids.Address]ids.Address
	Futures      map[string]chain.FuturesContractData
	RightsKeys   map[string]ids.Key
	Escrows      map[ids.Key]chain.EscrowedRightsData
	Bots         map[ids.Address]chain.SettlementBotData
	Fulfillers   map[string]chain.Profile
	Suppliers    map[string]chain.Profile
	Balances     map[string]*big.Int
	Infra        map[ids.Address]*big.Int
	MaxDelay     *big.Int
	Reverts      map[string]bool
}

var _ chain.Oracle = (*Oracle)(nil)

// NewOracle returns an Oracle with all fixture maps allocated.
func NewOracle() *Oracle {
	return &Oracle{
		Children:     make(map[ids.Key]chain.ChildMetadata),
		Placements:   make(map[ids.Key][]chain.Placement),
		Rights:       make(map[ids.Key]chain.PhysicalRightsData),
		Receipts:     make(map[ids.Key]chain.OrderReceipt),
		Designs:      make(map[ids.Key]chain.DesignTemplate),
		Fulfillments: make(map[ids.Key]chain.FulfillmentStatus),
		Markets:      make(map[ids.Address]ids.Address),
		Futures:      make(map[string]chain.FuturesContractData),
		RightsKeys:   make(map[string]ids.Key),
		Escrows:      make(map[ids.Key]chain.EscrowedRightsData),
		Bots:         make(map[ids.Address]chain.SettlementBotData),
		Fulfillers:   make(map[string]chain.Profile),
		Suppliers:    make(map[string]chain.Profile),
		Balances:     make(map[string]*big.Int),
		Infra:        make(map[ids.Address]*big.Int),
		Reverts:      make(map[string]bool),
	}
}

// SetRights registers the authoritative rights amount for one
// (child, contract, order, holder, market) tuple.
func (o *Oracle) SetRights(childID *big.Int, contract ids.Address, orderID *big.Int, holder, market ids.Address, data chain.PhysicalRightsData) {
	o.Rights[ids.PhysicalRights(childID, contract, orderID, holder, market)] = data
}

// SetBalance registers an ERC-1155 position balance.
func (o *Oracle) SetBalance(holder ids.Address, tokenID *big.Int, balance *big.Int) {
	o.Balances[string(holder)+"-"+ids.Uint(tokenID)] = balance
}

func (o *Oracle) GetChildMetadata(contract ids.Address, childID *big.Int) (chain.ChildMetadata, error) {
	if o.Reverts["GetChildMetadata"] {
		return chain.ChildMetadata{}, chain.ErrReverted
	}
	data, ok := o.Children[ids.Child(contract, childID)]
	if !ok {
		return chain.ChildMetadata{}, chain.ErrReverted
	}
	return data, nil
}

func (o *Oracle) GetTemplatePlacements(contract ids.Address, templateID *big.Int) ([]chain.Placement, error) {
	if o.Reverts["GetTemplatePlacements"] {
		return nil, chain.ErrReverted
	}
	data, ok := o.Placements[ids.Child(contract, templateID)]
	if !ok {
		return nil, chain.ErrReverted
	}
	return data, nil
}

func (o *Oracle) GetPhysicalRights(contract ids.Address, childID, orderID *big.Int, holder, market ids.Address) (chain.PhysicalRightsData, error) {
	if o.Reverts["GetPhysicalRights"] {
		return chain.PhysicalRightsData{}, chain.ErrReverted
	}
	data, ok := o.Rights[ids.PhysicalRights(childID, contract, orderID, holder, market)]
	if !ok {
		return chain.PhysicalRightsData{}, chain.ErrReverted
	}
	return data, nil
}

func (o *Oracle) GetOrderReceipt(market ids.Address, orderID *big.Int) (chain.OrderReceipt, error) {
	if o.Reverts["GetOrderReceipt"] {
		return chain.OrderReceipt{}, chain.ErrReverted
	}
	data, ok := o.Receipts[ids.MarketOrder(market, orderID)]
	if !ok {
		return chain.OrderReceipt{}, chain.ErrReverted
	}
	return data, nil
}

func (o *Oracle) GetDesignTemplate(contract ids.Address, designID *big.Int) (chain.DesignTemplate, error) {
	if o.Reverts["GetDesignTemplate"] {
		return chain.DesignTemplate{}, chain.ErrReverted
	}
	data, ok := o.Designs[ids.Parent(contract, designID)]
	if !ok {
		return chain.DesignTemplate{}, chain.ErrReverted
	}
	return data, nil
}

func (o *Oracle) GetFulfillmentStatus(contract ids.Address, orderID *big.Int) (chain.FulfillmentStatus, error) {
	if o.Reverts["GetFulfillmentStatus"] {
		return chain.FulfillmentStatus{}, chain.ErrReverted
	}
	data, ok := o.Fulfillments[ids.MarketOrder(contract, orderID)]
	if !ok {
		return chain.FulfillmentStatus{}, chain.ErrReverted
	}
	return data, nil
}

func (o *Oracle) FulfillmentMarket(contract ids.Address) (ids.Address, error) {
	if o.Reverts["FulfillmentMarket"] {
		return "", chain.ErrReverted
	}
	market, ok := o.Markets[contract]
	if !ok {
		return "", chain.ErrReverted
	}
	return market, nil
}

func (o *Oracle) GetFuturesContract(contract ids.Address, contractID *big.Int) (chain.FuturesContractData, error) {
	if o.Reverts["GetFuturesContract"] {
		return chain.FuturesContractData{}, chain.ErrReverted
	}
	data, ok := o.Futures[ids.Uint(contractID)]
	if !ok {
		return chain.FuturesContractData{}, chain.ErrReverted
	}
	return data, nil
}

func (o *Oracle) GetContractRightsKey(contract ids.Address, contractID *big.Int) (ids.Key, error) {
	if o.Reverts["GetContractRightsKey"] {
		return "", chain.ErrReverted
	}
	key, ok := o.RightsKeys[ids.Uint(contractID)]
	if !ok {
		return "", chain.ErrReverted
	}
	return key, nil
}

func (o *Oracle) GetEscrowedRights(contract ids.Address, childID, orderID *big.Int, childContract, market, depositor ids.Address) (chain.EscrowedRightsData, error) {
	if o.Reverts["GetEscrowedRights"] {
		return chain.EscrowedRightsData{}, chain.ErrReverted
	}
	data, ok := o.Escrows[ids.PhysicalRights(childID, childContract, orderID, depositor, market)]
	if !ok {
		return chain.EscrowedRightsData{}, chain.ErrReverted
	}
	return data, nil
}

func (o *Oracle) GetSettlementBot(contract ids.Address, bot ids.Address) (chain.SettlementBotData, error) {
	if o.Reverts["GetSettlementBot"] {
		return chain.SettlementBotData{}, chain.ErrReverted
	}
	data, ok := o.Bots[bot]
	if !ok {
		return chain.SettlementBotData{}, chain.ErrReverted
	}
	return data, nil
}

func (o *Oracle) GetFulfillerProfile(contract ids.Address, fulfillerID *big.Int) (chain.Profile, error) {
	if o.Reverts["GetFulfillerProfile"] {
		return chain.Profile{}, chain.ErrReverted
	}
	data, ok := o.Fulfillers[ids.Uint(fulfillerID)]
	if !ok {
		return chain.Profile{}, chain.ErrReverted
	}
	return data, nil
}

func (o *Oracle) GetSupplierProfile(contract ids.Address, supplierID *big.Int) (chain.Profile, error) {
	if o.Reverts["GetSupplierProfile"] {
		return chain.Profile{}, chain.ErrReverted
	}
	data, ok := o.Suppliers[ids.Uint(supplierID)]
	if !ok {
		return chain.Profile{}, chain.ErrReverted
	}
	return data, nil
}

func (o *Oracle) BalanceOf(trading ids.Address, holder ids.Address, tokenID *big.Int) (*big.Int, error) {
	if o.Reverts["BalanceOf"] {
		return nil, chain.ErrReverted
	}
	balance, ok := o.Balances[string(holder)+"-"+ids.Uint(tokenID)]
	if !ok {
		return new(big.Int), nil
	}
	return balance, nil
}

func (o *Oracle) InfraID(contract ids.Address) (*big.Int, error) {
	if o.Reverts["InfraID"] {
		return nil, chain.ErrReverted
	}
	infra, ok := o.Infra[contract]
	if !ok {
		return nil, chain.ErrReverted
	}
	return infra, nil
}

func (o *Oracle) MaxSettlementDelay(contract ids.Address) (*big.Int, error) {
	if o.Reverts["MaxSettlementDelay"] {
		return nil, chain.ErrReverted
	}
	if o.MaxDelay == nil {
		return nil, chain.ErrReverted
	}
	return o.MaxDelay, nil
}
