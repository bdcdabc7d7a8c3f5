// Package substrate implements the process-wide key → JSON-document store
// every core component reads and writes through. The contract deliberately
// trades durability for availability: Load falls back to the caller's default
// and Save reports failure with a boolean instead of an error, so a broken
// backing store degrades the tool instead of breaking it.
package substrate

import (
	"context"
	"encoding/json"
)

// SchemaVersion is stamped into every persisted envelope. Bump on any
// incompatible change to the document shapes.
const SchemaVersion = 1

// keyPrefix namespaces every table key in the backing store.
const keyPrefix = "buildpk_"

// Key returns the namespaced substrate key for a logical table.
func Key(table string) string {
	return keyPrefix + table
}

// Store is the key → JSON-document mapping.
//
// Load unmarshals the document stored under key into out and reports whether
// it did; on a miss, an unavailable backing store or a corrupted document it
// leaves out untouched, logs a warning where appropriate, and returns false
// so the caller keeps its default. Save persists v under key and reports
// success; callers must treat false as non-fatal (the value lives in memory
// for the request's lifetime but may not survive a restart).
type Store interface {
	Load(ctx context.Context, key string, out any) bool
	Save(ctx context.Context, key string, v any) bool
}

// Encode marshals a bare document for backends that carry the schema version
// out-of-band (a table column or item attribute).
func Encode(v any) ([]byte, error) {
	return json.Marshal(v)
}

// Decode is the inverse of Encode.
func Decode(data []byte, out any) error {
	return json.Unmarshal(data, out)
}

// envelope wraps every persisted document with a schema version.
type envelope struct {
	SchemaVersion int             `json:"schema_version"`
	Doc           json.RawMessage `json:"doc"`
}

func seal(v any) ([]byte, error) {
	doc, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return json.Marshal(envelope{SchemaVersion: SchemaVersion, Doc: doc})
}

func open(data []byte, out any) error {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return err
	}
	return json.Unmarshal(env.Doc, out)
}
