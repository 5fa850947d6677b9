// internal/models/signal.go
package models

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"
)

// Candidate is a keyword or topic string under evaluation. Identity is the
// normalized keyword; no fuzzy deduplication is attempted.
type Candidate struct {
	Keyword  string `json:"keyword"`
	Category string `json:"category"`
}

// ID returns the candidate's normalized identity.
func (c Candidate) ID() string {
	return NormalizeKeyword(c.Keyword)
}

// NormalizeKeyword lowercases and collapses whitespace.
func NormalizeKeyword(keyword string) string {
	return strings.Join(strings.Fields(strings.ToLower(keyword)), " ")
}

// SignalRecord is one source's observation about a candidate. Records are
// immutable once created; downstream stages read but never mutate them.
type SignalRecord struct {
	Source        string    `json:"source"`
	Query         string    `json:"query"`
	Category      string    `json:"category"`
	RawVolume     int64     `json:"rawVolume"`
	Timestamp     time.Time `json:"timestamp"`
	PayloadDigest string    `json:"payloadDigest"`
}

// DigestPayload produces the stable digest stored on a SignalRecord.
func DigestPayload(payload []byte) string {
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])
}
