// Package store abstracts the hierarchical realtime database every other
// component persists into. Paths are slash-separated ("devices/dev1"); values
// are JSON trees. Three backends are provided: the hosted realtime database
// (REST), Postgres (JSONB path tree) and an in-process tree for tests.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// DocumentStore is the narrow surface the backend needs from the database.
//
// Get returns nil (no error) when nothing exists at the path. Update merges
// the given fields into the node at path; a nil field value deletes that key.
// Push stores value under a fresh generated child key and returns the key.
// QueryEqual returns the direct children of path whose child field equals
// value.
type DocumentStore interface {
	Get(ctx context.Context, path string) (any, error)
	Set(ctx context.Context, path string, value any) error
	Update(ctx context.Context, path string, fields map[string]any) error
	Delete(ctx context.Context, path string) error
	Push(ctx context.Context, path string, value any) (string, error)
	QueryEqual(ctx context.Context, path, child string, value any) (map[string]any, error)
}

// Decode converts a raw document tree into a typed struct via JSON.
func Decode(raw any, out any) error {
	if raw == nil {
		return fmt.Errorf("decode: empty document")
	}
	data, err := json.Marshal(raw)
	if err != nil {
		return fmt.Errorf("decode: marshal: %w", err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode: unmarshal: %w", err)
	}
	return nil
}

// Encode converts a typed struct into the map form the store persists.
func Encode(v any) (map[string]any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode: marshal: %w", err)
	}
	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("encode: unmarshal: %w", err)
	}
	return out, nil
}

// Children normalizes a collection read (which may be nil) into a
// key -> child-document map, discarding non-object children.
func Children(raw any) map[string]any {
	m, ok := raw.(map[string]any)
	if !ok {
		return map[string]any{}
	}
	return m
}

func splitPath(path string) []string {
	var segs []string
	for _, s := range strings.Split(path, "/") {
		if s != "" {
			segs = append(segs, s)
		}
	}
	return segs
}
