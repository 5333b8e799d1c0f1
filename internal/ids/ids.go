// Package ids builds the composite byte-string keys that address every
// entity in the graph.
//
// There is no surrogate key anywhere in the system: an entity is reachable
// only through the key composed here, so two handlers that disagree on the
// encoding of a single positional field would silently split one logical
// entity into two rows. To rule that out, every address passes through Addr
// and every numeric identifier passes through Uint, and no caller encodes a
// key component by hand.
//
// Encoding convention, applied uniformly:
//   - addresses: lowercase 0x-prefixed hex, as received normalized by Addr
//   - numeric ids: lowercase 0x-prefixed minimal hex via Uint
//   - components joined with "-"
//
// Composition is pure and total; there is no error path.
package ids

import (
	"fmt"
	"math/big"
	"strings"
)

// Key is a composite entity key. Keys compare byte-for-byte; the same
// logical entity always composes to the identical Key.
type Key string

// Address is a chain address normalized to lowercase 0x-prefixed hex.
type Address string

const sep = "-"

// Addr normalizes a raw address string into its canonical form.
// Addresses arrive from event decoders and oracle reads in mixed case;
// everything downstream sees only the normalized form.
func Addr(raw string) Address {
	s := strings.ToLower(strings.TrimSpace(raw))
	if !strings.HasPrefix(s, "0x") {
		s = "0x" + s
	}
	return Address(s)
}

// Uint encodes a numeric identifier as lowercase 0x-prefixed hex.
// A nil value encodes as 0x0 so that composition stays total.
func Uint(n *big.Int) string {
	if n == nil {
		return "0x0"
	}
	return fmt.Sprintf("0x%x", n)
}

// Child composes the key for a child component: contract-childId.
func Child(contract Address, childID *big.Int) Key {
	return Key(string(contract) + sep + Uint(childID))
}

// PhysicalRights composes the key for a physical-rights row. The five
// positions (child, contract, order, holder, market) are the uniqueness
// tuple: at most one rights row exists per key.
func PhysicalRights(childID *big.Int, contract Address, orderID *big.Int, holder, market Address) Key {
	return Key(Uint(childID) + sep + string(contract) + sep + Uint(orderID) + sep + string(holder) + sep + string(market))
}

// MarketOrder composes the key linking rights and fulfillments to the
// market order they were purchased through.
func MarketOrder(market Address, orderID *big.Int) Key {
	return Key(string(market) + sep + Uint(orderID))
}

// ChildOrder composes the key for a per-order child purchase record.
// Identical shape to MarketOrder; kept separate so call sites read as the
// entity they address.
func ChildOrder(market Address, orderID *big.Int) Key {
	return Key(string(market) + sep + Uint(orderID))
}

// Parent composes the key for a parent design: contract-designId.
func Parent(contract Address, designID *big.Int) Key {
	return Key(string(contract) + sep + Uint(designID))
}

// Workflow composes the key for a parent's fulfillment workflow. Workflows
// are created atomically with their parent and share its key.
func Workflow(contract Address, designID *big.Int) Key {
	return Parent(contract, designID)
}

// FulfillmentStep composes the key for a workflow step definition.
func FulfillmentStep(contract Address, designID *big.Int, index int, physical bool) Key {
	k := Parent(contract, designID) + Key(sep+fmt.Sprintf("%d", index))
	if physical {
		k += Key(sep + "physical")
	}
	return k
}

// SubPerformer composes the key for a revenue-split sub-performer on a step.
func SubPerformer(contract Address, designID *big.Int, index int, performer Address, physical bool) Key {
	k := Parent(contract, designID) + Key(sep+fmt.Sprintf("%d", index)+sep+string(performer))
	if physical {
		k += Key(sep + "physical")
	}
	return k
}

// Fulfillment composes the key for per-order fulfillment tracking.
func Fulfillment(fulfillmentContract Address, orderID *big.Int, parentContract Address, parentID *big.Int) Key {
	return Key(string(fulfillmentContract) + sep + Uint(orderID) + sep + string(parentContract) + sep + Uint(parentID))
}

// FulfillmentOrderStep composes the key for a per-order step completion
// record. Physical orders carry a trailing marker so physical and digital
// executions of the same step index stay distinct.
func FulfillmentOrderStep(parentContract Address, parentID *big.Int, index int, physical bool) Key {
	k := Parent(parentContract, parentID) + Key(sep+fmt.Sprintf("%d", index))
	if physical {
		k += Key(sep + "physical")
	}
	return k
}

// FuturesContract composes the key for a futures contract from its numeric
// contract id.
func FuturesContract(contractID *big.Int) Key {
	return Key("futures" + sep + Uint(contractID))
}

// SellOrder composes the key for a sell order on a trading contract.
func SellOrder(trading Address, orderID *big.Int) Key {
	return Key(string(trading) + sep + Uint(orderID))
}

// SettlementBot composes the key for a registered settlement bot.
func SettlementBot(bot Address) Key {
	return Key(bot)
}

// Profile composes the key for a fulfiller or supplier profile within an
// infrastructure namespace.
func Profile(infraID *big.Int, addr Address) Key {
	return Key(Uint(infraID) + sep + string(addr))
}

// EventRecord composes the key for an append-only event entity (claims,
// settlement records). Keyed by transaction hash and log index so that
// redelivery of the same log lands on the same row.
func EventRecord(txHash string, logIndex uint32) Key {
	return Key(strings.ToLower(txHash) + sep + fmt.Sprintf("%d", logIndex))
}
