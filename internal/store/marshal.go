package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/DIGITALAX/fgo-futures-contracts/internal/entities"
)

// marshalEntity serializes an entity to its stored JSON body.
// HTML escaping is disabled so URIs survive byte-for-byte; struct field
// order fixes the key order, so equal entities always produce equal bytes.
func marshalEntity(e entities.Entity) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(e); err != nil {
		return "", fmt.Errorf("marshal %s: %w", e.EntityKind(), err)
	}
	// Encoder adds a trailing newline, remove it
	return strings.TrimSpace(buf.String()), nil
}

// unmarshalEntity decodes a stored JSON body back into a typed entity.
// json.Number keeps big amounts exact instead of routing them through
// float64.
func unmarshalEntity(kind entities.Kind, body string) (entities.Entity, error) {
	e, err := entities.New(kind)
	if err != nil {
		return nil, err
	}
	dec := json.NewDecoder(strings.NewReader(body))
	dec.UseNumber()
	if err := dec.Decode(e); err != nil {
		return nil, fmt.Errorf("unmarshal %s: %w", kind, err)
	}
	return e, nil
}
