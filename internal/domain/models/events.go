package models

import "time"

// WarningKind classifies a non-fatal build problem.
type WarningKind string

const (
	WarnContractLengthMismatch WarningKind = "contract_length_mismatch"
	WarnMissingWeight          WarningKind = "missing_weight"
	WarnMissingConversion      WarningKind = "missing_conversion"
	WarnFetchFailed            WarningKind = "fetch_failed"
	WarnShortLeg               WarningKind = "short_leg"
	WarnMissingExpiry          WarningKind = "missing_expiry"
)

// BuildWarning is a reported, non-fatal problem found while building a spread.
type BuildWarning struct {
	Kind    WarningKind `json:"kind"`
	Leg     string      `json:"leg,omitempty"`
	Symbol  string      `json:"symbol,omitempty"`
	Year    int         `json:"year,omitempty"`
	Message string      `json:"message"`
}

// BuildEvent is published once per built definition.
type BuildEvent struct {
	RunID          string         `json:"run_id"`
	InstrumentName string         `json:"instrument_name"`
	Status         string         `json:"status"` // ok, empty, invalid, failed
	Rows           int            `json:"rows"`
	Years          []string       `json:"years,omitempty"`
	Warnings       []BuildWarning `json:"warnings,omitempty"`
	Error          string         `json:"error,omitempty"`
	StartedAt      time.Time      `json:"started_at"`
	Duration       time.Duration  `json:"duration"`
}

// Build statuses.
const (
	StatusOK      = "ok"
	StatusEmpty   = "empty"
	StatusInvalid = "invalid"
	StatusFailed  = "failed"
)
