package artifact

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// keyLen is how many hex chars of the digest form a cache key.
const keyLen = 16

// ConfigKey returns a short deterministic key for a configuration value.
// The value is serialized to canonical JSON: it is marshaled, decoded into
// generic maps, and re-marshaled so that map key order never leaks into the
// digest. Identical configuration therefore maps to the identical key
// across calls and processes.
//
// List order is hashed verbatim. For lists whose order is semantically
// meaningful (signals, agg) that is the contract; callers wanting
// order-insensitive keys must normalize before calling.
func ConfigKey(cfg any) (string, error) {
	raw, err := json.Marshal(cfg)
	if err != nil {
		return "", fmt.Errorf("marshal config: %w", err)
	}
	var generic any
	if err := json.Unmarshal(raw, &generic); err != nil {
		return "", fmt.Errorf("canonicalize config: %w", err)
	}
	canonical, err := json.Marshal(generic)
	if err != nil {
		return "", fmt.Errorf("canonicalize config: %w", err)
	}
	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:])[:keyLen], nil
}
