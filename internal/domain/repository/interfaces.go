package repository

import (
	"context"
	"time"

	"RollSpread/internal/domain/models"
)

// PriceSource returns daily closes for one contract symbol. An empty slice
// with a nil error means the provider had no data.
type PriceSource interface {
	FetchDaily(ctx context.Context, symbol string, start, end time.Time) ([]models.PriceObservation, error)
}

// SpreadStore persists and serves the output table.
type SpreadStore interface {
	Init(ctx context.Context) error // ensure tables
	Replace(ctx context.Context, records []models.SpreadRecord) error
	Append(ctx context.Context, records []models.SpreadRecord) error
	// ReplaceInstrument deletes the rows of every InstrumentName present in
	// records, then inserts records.
	ReplaceInstrument(ctx context.Context, records []models.SpreadRecord) error
	Query(ctx context.Context, filter models.SpreadFilter) ([]models.SpreadRecord, error)
	// Distinct lists the values of one filter column among rows matching filter.
	Distinct(ctx context.Context, column string, filter models.SpreadFilter) ([]string, error)
	Health(ctx context.Context) error // ping
	Close() error
}

// ExpiryStore serves the expiry reference table.
type ExpiryStore interface {
	// Expiries returns the rows relevant to ticker. contracts are the
	// generated symbols of the definition's first leg, for sources that
	// derive expiries instead of storing them.
	Expiries(ctx context.Context, ticker string, contracts []models.ContractSymbol) ([]models.ExpiryEntry, error)
}

// EventPublisher announces build outcomes.
type EventPublisher interface {
	PublishBuild(ctx context.Context, ev models.BuildEvent) error
	PublishMessage(ctx context.Context, topic string, payload interface{}) error
	Close() error
}

// Archiver keeps an immutable copy of one batch's output.
type Archiver interface {
	Archive(ctx context.Context, runID string, runDate time.Time, records []models.SpreadRecord) (string, error)
}

type Metrics interface {
	RecordBuild(instrument, status string, rows int, seconds float64)
	RecordFetch(outcome string, attempts int)
	RecordWarning(kind string)
	RecordStoreWrite(backend, mode string, rows int, err error)
	Push(ctx context.Context) error
}
