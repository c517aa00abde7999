package canon

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed identity.
// Version suffix enables future algorithm migration.
const (
	DomainAction     = "backline/action/v1"
	DomainSettlement = "backline/settlement/v1"
)

// hashWithDomain computes SHA-256 with domain separation.
// Format: SHA256(domain + 0x00 + data). The null separator prevents
// domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// ActionID computes the content-addressed ID for a journal action.
// Stable across restarts given the same inputs: the same admin action
// applied with the same token and seq always hashes to the same ID.
func ActionID(token, kind, resource, key string, seq int64) (string, error) {
	obj := map[string]any{
		"token":    token,
		"kind":     kind,
		"resource": resource,
		"key":      key,
		"seq":      seq,
	}
	canonical, err := Marshal(obj)
	if err != nil {
		return "", fmt.Errorf("ActionID: marshal: %w", err)
	}
	return hashWithDomain(DomainAction, canonical), nil
}

// SettlementID computes the content-addressed ID for a settlement record,
// linked to the action it settles.
func SettlementID(actionID, outcome string, seq int64) (string, error) {
	obj := map[string]any{
		"action_id": actionID,
		"outcome":   outcome,
		"seq":       seq,
	}
	canonical, err := Marshal(obj)
	if err != nil {
		return "", fmt.Errorf("SettlementID: marshal: %w", err)
	}
	return hashWithDomain(DomainSettlement, canonical), nil
}

// MustActionID is like ActionID but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustActionID(token, kind, resource, key string, seq int64) string {
	id, err := ActionID(token, kind, resource, key, seq)
	if err != nil {
		panic(err)
	}
	return id
}
