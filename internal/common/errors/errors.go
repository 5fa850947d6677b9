// Package errors provides the standardized error taxonomy for the analysis pipeline.
package errors

import (
	"fmt"
	"time"
)

// ==========================
// 1. Fetch Errors
// ==========================

// FetchKind classifies a per-source fetch failure.
type FetchKind string

const (
	FetchRateLimited FetchKind = "RATE_LIMITED"
	FetchTimeout     FetchKind = "TIMEOUT"
	FetchAuthFailed  FetchKind = "AUTH_FAILED"
	FetchParseError  FetchKind = "PARSE_ERROR"
	FetchUnavailable FetchKind = "UNAVAILABLE"
)

// FetchError is a per-source failure. It is recoverable at the batch level:
// the orchestrator records it and continues with the remaining sources.
type FetchError struct {
	Source    string    `json:"source"`
	Kind      FetchKind `json:"kind"`
	Message   string    `json:"message"`
	Retryable bool      `json:"retryable"`
	Timestamp time.Time `json:"timestamp"`
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("FetchError[%s/%s]: %s", e.Source, e.Kind, e.Message)
}

// NewFetchError creates a fetch error with the retryability implied by its kind.
func NewFetchError(source string, kind FetchKind, message string) *FetchError {
	return &FetchError{
		Source:    source,
		Kind:      kind,
		Message:   message,
		Retryable: IsRetryableKind(kind),
		Timestamp: time.Now().UTC(),
	}
}

func NewRateLimitedError(source, details string) *FetchError {
	return NewFetchError(source, FetchRateLimited, details)
}

func NewFetchTimeoutError(source, details string) *FetchError {
	return NewFetchError(source, FetchTimeout, details)
}

func NewAuthFailedError(source, details string) *FetchError {
	return NewFetchError(source, FetchAuthFailed, details)
}

func NewParseError(source string, err error) *FetchError {
	return NewFetchError(source, FetchParseError, err.Error())
}

func NewUnavailableError(source, details string) *FetchError {
	return NewFetchError(source, FetchUnavailable, details)
}

// IsRetryableKind reports whether a fetch failure of this kind is worth retrying.
// Auth and parse failures repeat deterministically, so they are not.
func IsRetryableKind(kind FetchKind) bool {
	switch kind {
	case FetchRateLimited, FetchTimeout, FetchUnavailable:
		return true
	default:
		return false
	}
}

// ==========================
// 2. Configuration Errors
// ==========================

// ConfigError is fatal: it aborts the run before any fetch begins.
type ConfigError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *ConfigError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("ConfigError: %s", e.Message)
	}
	return fmt.Sprintf("ConfigError[%s]: %s", e.Field, e.Message)
}

func NewConfigError(field, message string) *ConfigError {
	return &ConfigError{Field: field, Message: message}
}

// ==========================
// 3. Per-Candidate Errors
// ==========================

// ScoringError marks one candidate's features as unscorable. The candidate is
// excluded from the batch report; the run continues.
type ScoringError struct {
	Candidate string    `json:"candidate"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

func (e *ScoringError) Error() string {
	return fmt.Sprintf("ScoringError[%s]: %s", e.Candidate, e.Message)
}

func NewScoringError(candidate, message string) *ScoringError {
	return &ScoringError{
		Candidate: candidate,
		Message:   message,
		Timestamp: time.Now().UTC(),
	}
}

// ValueEstimationError marks one revenue model as unusable for one candidate.
type ValueEstimationError struct {
	Candidate string    `json:"candidate"`
	Model     string    `json:"model"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

func (e *ValueEstimationError) Error() string {
	return fmt.Sprintf("ValueEstimationError[%s/%s]: %s", e.Model, e.Candidate, e.Message)
}

func NewValueEstimationError(candidate, model, message string) *ValueEstimationError {
	return &ValueEstimationError{
		Candidate: candidate,
		Model:     model,
		Message:   message,
		Timestamp: time.Now().UTC(),
	}
}

// ==========================
// 4. Cache Errors
// ==========================

// CacheUnavailableError means the persistent cache tier cannot be reached.
// Like ConfigError it aborts the whole run (catastrophic resource exhaustion).
type CacheUnavailableError struct {
	Tier    string `json:"tier"`
	Message string `json:"message"`
}

func (e *CacheUnavailableError) Error() string {
	return fmt.Sprintf("CacheUnavailableError[%s]: %s", e.Tier, e.Message)
}

func NewCacheUnavailableError(tier string, err error) *CacheUnavailableError {
	return &CacheUnavailableError{Tier: tier, Message: err.Error()}
}
