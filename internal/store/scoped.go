package store

import (
	"context"
	"encoding/json"

	"plantkeeper/internal/logging"
)

// Scoped adapts a KV to the never-failing get/set contract the record store
// relies on. Errors are logged and reported as absent values or no-ops;
// they affect durability, never the caller's in-memory result.
type Scoped struct {
	kv KV
}

// NewScoped wraps kv.
func NewScoped(kv KV) *Scoped {
	return &Scoped{kv: kv}
}

// Get returns the value for key, or ("", false) when absent or unreadable.
func (s *Scoped) Get(ctx context.Context, key string) (string, bool) {
	v, ok, err := s.kv.Get(ctx, key)
	if err != nil {
		logging.StoreWarn("storage get %s failed: %v", key, err)
		return "", false
	}
	return v, ok
}

// Set stores value under key. It reports whether the write landed.
func (s *Scoped) Set(ctx context.Context, key, value string) bool {
	if err := s.kv.Set(ctx, key, value); err != nil {
		logging.StoreWarn("storage set %s failed: %v", key, err)
		return false
	}
	return true
}

// Remove deletes key. It reports whether the delete landed.
func (s *Scoped) Remove(ctx context.Context, key string) bool {
	if err := s.kv.Remove(ctx, key); err != nil {
		logging.StoreWarn("storage remove %s failed: %v", key, err)
		return false
	}
	return true
}

// GetJSON decodes the JSON value under key into dst.
// Undecodable values are logged and treated as absent.
func (s *Scoped) GetJSON(ctx context.Context, key string, dst interface{}) bool {
	raw, ok := s.Get(ctx, key)
	if !ok {
		return false
	}
	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		logging.StoreWarn("storage value %s is not valid JSON: %v", key, err)
		return false
	}
	return true
}

// SetJSON encodes v and stores it under key.
func (s *Scoped) SetJSON(ctx context.Context, key string, v interface{}) bool {
	data, err := json.Marshal(v)
	if err != nil {
		logging.StoreWarn("storage value %s could not be encoded: %v", key, err)
		return false
	}
	return s.Set(ctx, key, string(data))
}
