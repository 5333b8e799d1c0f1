// Package metadata resolves off-chain JSON metadata referenced by entity
// URIs.
//
// A URI's final path segment is a content hash. Handlers register the hash
// once; the registry later fetches the JSON from a gateway, parses the
// optional title/image/link fields, and persists exactly one metadata
// entity per distinct hash. Registration is idempotent (re-registering a
// hash that is pending or already resolved is a no-op), so redelivered
// events cannot schedule duplicate work.
package metadata

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// HashFromURI extracts the content-hash suffix of a URI: the final path
// segment. Returns "" when the URI has no usable segment.
func HashFromURI(uri string) string {
	uri = strings.TrimSpace(uri)
	if uri == "" {
		return ""
	}
	parts := strings.Split(uri, "/")
	return parts[len(parts)-1]
}

// Fields are the optional string fields of a metadata payload.
type Fields struct {
	Title string
	Image string
	Link  string
}

// Parse decodes a metadata payload. The payload must be a JSON object;
// anything else is logged and yields empty Fields. String fields that
// carry inline-base64 data are skipped with a warning; they are payloads
// masquerading as references. Surviving strings are NFC-normalized so a
// hash always maps to the same stored bytes.
func Parse(hash string, content []byte) Fields {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(content, &obj); err != nil {
		slog.Error("failed to parse metadata JSON", "hash", hash, "err", err)
		return Fields{}
	}

	return Fields{
		Title: extractString(obj, "title"),
		Image: extractString(obj, "image"),
		Link:  extractString(obj, "link"),
	}
}

// extractString pulls one optional string field out of a parsed object,
// applying the inline-base64 guard.
func extractString(obj map[string]json.RawMessage, field string) string {
	raw, ok := obj[field]
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	if strings.Contains(s, "base64") {
		slog.Warn("skipping base64 encoded metadata field", "field", field)
		return ""
	}
	return norm.NFC.String(s)
}

// jobID pairs a kind with a hash; one job exists per pair.
func jobID(kind, hash string) string {
	return fmt.Sprintf("%s:%s", kind, hash)
}
