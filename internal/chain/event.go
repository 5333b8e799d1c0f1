// Package chain models the two chain-facing collaborators the indexer
// consumes: the ordered event stream and the read-only contract oracle.
//
// Neither the subscription mechanism nor the contracts themselves live
// here. Events arrive already decoded as name + parameter map, ordered per
// block and per log index; oracle calls are synchronous typed reads that
// may revert, which is an expected outcome and never fatal.
package chain

import (
	"math/big"
	"strings"

	"github.com/DIGITALAX/fgo-futures-contracts/internal/ids"
)

// SourceContext is the immutable per-data-source context threaded into each
// handler invocation at dispatch time. It is scoped to the originating
// contract instance, never shared globally.
type SourceContext struct {
	// InfraID namespaces fulfiller and supplier profiles.
	InfraID *big.Int
	// Kind is the contract role ("child", "trading", "mev", ...). The
	// dispatcher uses it to split event names shared across contract
	// families.
	Kind string
	// IsTemplate marks data sources deployed as template-child contracts.
	IsTemplate bool
}

// Event is one decoded contract log. Params hold the decoded event
// parameters as strings; the typed accessors below parse them on demand.
type Event struct {
	Name           string            `json:"name"`
	Address        ids.Address       `json:"address"`
	BlockNumber    uint64            `json:"block_number"`
	BlockTimestamp *big.Int          `json:"block_timestamp"`
	TxHash         string            `json:"tx_hash"`
	LogIndex       uint32            `json:"log_index"`
	Params         map[string]string `json:"params"`

	// Source is attached by the dispatcher from the data-source registry;
	// it is not part of the wire representation.
	Source SourceContext `json:"-"`
}

// Addr returns a parameter as a normalized address. Absent parameters
// normalize to 0x; handlers tolerate that the way they tolerate missing
// entities.
func (e Event) Addr(name string) ids.Address {
	return ids.Addr(e.Params[name])
}

// Big returns a numeric parameter. Accepts decimal or 0x-hex input and
// returns zero for absent or malformed values.
func (e Event) Big(name string) *big.Int {
	return ParseBig(e.Params[name])
}

// Bool returns a boolean parameter; anything but "true"/"1" is false.
func (e Event) Bool(name string) bool {
	v := strings.ToLower(strings.TrimSpace(e.Params[name]))
	return v == "true" || v == "1"
}

// String returns a raw string parameter.
func (e Event) String(name string) string {
	return e.Params[name]
}

// Uints returns a numeric list parameter, comma separated.
func (e Event) Uints(name string) []*big.Int {
	raw := strings.TrimSpace(e.Params[name])
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]*big.Int, 0, len(parts))
	for _, p := range parts {
		out = append(out, ParseBig(p))
	}
	return out
}

// ParseBig parses a decimal or 0x-hex numeric string, returning zero for
// anything unparseable so that event decoding stays total.
func ParseBig(s string) *big.Int {
	s = strings.TrimSpace(s)
	if s == "" {
		return new(big.Int)
	}
	n := new(big.Int)
	if strings.HasPrefix(strings.ToLower(s), "0x") {
		if _, ok := n.SetString(s[2:], 16); ok {
			return n
		}
		return new(big.Int)
	}
	if _, ok := n.SetString(s, 10); ok {
		return n
	}
	return new(big.Int)
}
