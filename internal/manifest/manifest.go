// Package manifest loads and validates the indexer's deployment manifest.
//
// The manifest names the network, the durable database, the IPFS gateway,
// and the static contract data sources with their infrastructure context.
// It is written in CUE (JSON manifests load too, since JSON is a CUE
// subset) and validated against the embedded #Manifest schema before
// anything touches it, so a malformed deployment fails at startup with a
// positioned error instead of partway through indexing.
package manifest

import (
	_ "embed"
	"fmt"
	"math/big"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"

	"github.com/DIGITALAX/fgo-futures-contracts/internal/chain"
	"github.com/DIGITALAX/fgo-futures-contracts/internal/ids"
)

//go:embed schema.cue
var schemaCUE string

// Manifest is the validated deployment configuration.
type Manifest struct {
	Network    string   `json:"network"`
	StartBlock uint64   `json:"startBlock"`
	Database   Database `json:"database"`
	IPFS       IPFS     `json:"ipfs"`
	Sources    []Source `json:"sources"`
}

// Database locates the durable entity store.
type Database struct {
	Path string `json:"path"`
}

// IPFS configures metadata retrieval.
type IPFS struct {
	Gateway string `json:"gateway"`
}

// Source is one statically-addressed contract to index. Contracts deployed
// at runtime by the factory register themselves through deployment events
// instead.
type Source struct {
	Name       string `json:"name"`
	Address    string `json:"address"`
	Kind       string `json:"kind"`
	InfraID    uint64 `json:"infraId,omitempty"`
	StartBlock uint64 `json:"startBlock,omitempty"`
}

// Addr returns the source's normalized contract address.
func (s Source) Addr() ids.Address {
	return ids.Addr(s.Address)
}

// Context builds the data-source context this source's handlers run under.
func (s Source) Context() chain.SourceContext {
	return chain.SourceContext{
		InfraID:    new(big.Int).SetUint64(s.InfraID),
		Kind:       s.Kind,
		IsTemplate: s.Kind == "template-child",
	}
}

// Load reads, validates, and decodes a manifest file.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	return Parse(path, data)
}

// Parse validates manifest bytes against the embedded schema and decodes
// them. The filename only labels error positions.
func Parse(filename string, data []byte) (*Manifest, error) {
	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaCUE, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return nil, fmt.Errorf("compile manifest schema: %w", err)
	}
	def := schema.LookupPath(cue.ParsePath("#Manifest"))
	if !def.Exists() {
		return nil, fmt.Errorf("manifest schema has no #Manifest definition")
	}

	val := ctx.CompileBytes(data, cue.Filename(filename))
	if err := val.Err(); err != nil {
		return nil, fmt.Errorf("compile manifest: %w", err)
	}

	unified := def.Unify(val)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return nil, fmt.Errorf("validate manifest: %w", err)
	}

	var m Manifest
	if err := unified.Decode(&m); err != nil {
		return nil, fmt.Errorf("decode manifest: %w", err)
	}
	return &m, nil
}
