package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"RollSpread/internal/domain/models"
	drepo "RollSpread/internal/domain/repository"
	"RollSpread/internal/services/spread"
	"RollSpread/pkg/logger"
)

// WriteMode selects how a batch's rows reach the output table.
type WriteMode string

const (
	// WriteReplace replaces the whole table with this run's rows.
	WriteReplace WriteMode = "replace"
	WriteAppend  WriteMode = "append"
	// WriteReplaceInstrument replaces only the instruments built in this run.
	WriteReplaceInstrument WriteMode = "replace_instrument"
)

func ParseWriteMode(s string) (WriteMode, error) {
	switch WriteMode(s) {
	case "", WriteReplace:
		return WriteReplace, nil
	case WriteAppend, WriteReplaceInstrument:
		return WriteMode(s), nil
	}
	return "", fmt.Errorf("unknown write mode %q", s)
}

// BatchInput is one definition to build. Err carries a parse or validation
// failure found before the build.
type BatchInput struct {
	Line       int
	Definition models.SpreadDefinition
	Err        error
}

// BatchSummary reports one run.
type BatchSummary struct {
	RunID    string              `json:"run_id"`
	Started  time.Time           `json:"started"`
	Duration time.Duration       `json:"duration"`
	Rows     int                 `json:"rows"`
	Counts   map[string]int      `json:"counts"`
	Events   []models.BuildEvent `json:"events"`
	Archive  string              `json:"archive,omitempty"`
}

// BatchBuilder builds every definition of a batch and writes the combined
// output. A failing definition is reported and the others continue.
type BatchBuilder struct {
	builder   *SpreadBuilder
	store     drepo.SpreadStore
	publisher drepo.EventPublisher
	archiver  drepo.Archiver
	metrics   drepo.Metrics
	collector *logger.WarningCollector
	log       *logger.Logger
	mode      WriteMode
	backend   string
	now       func() time.Time
	newID     func() string
}

type BatchOption func(*BatchBuilder)

// WithArchiver stores a copy of each run's output.
func WithArchiver(a drepo.Archiver) BatchOption {
	return func(b *BatchBuilder) { b.archiver = a }
}

func WithMetrics(m drepo.Metrics) BatchOption {
	return func(b *BatchBuilder) { b.metrics = m }
}

// WithCollector flushes aggregated warnings after each definition.
func WithCollector(c *logger.WarningCollector) BatchOption {
	return func(b *BatchBuilder) { b.collector = c }
}

func WithClock(now func() time.Time) BatchOption {
	return func(b *BatchBuilder) { b.now = now }
}

func WithRunID(newID func() string) BatchOption {
	return func(b *BatchBuilder) { b.newID = newID }
}

func NewBatchBuilder(
	builder *SpreadBuilder,
	store drepo.SpreadStore,
	publisher drepo.EventPublisher,
	mode WriteMode,
	backend string,
	log *logger.Logger,
	opts ...BatchOption,
) *BatchBuilder {
	b := &BatchBuilder{
		builder:   builder,
		store:     store,
		publisher: publisher,
		mode:      mode,
		backend:   backend,
		log:       log,
		now:       time.Now,
		newID:     uuid.NewString,
	}
	if b.log == nil {
		b.log = logger.NewNop()
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Run builds inputs in order and writes their rows. Only a cancelled context
// or a store failure aborts the run.
func (b *BatchBuilder) Run(ctx context.Context, inputs []BatchInput) (*BatchSummary, error) {
	sum := &BatchSummary{
		RunID:   b.newID(),
		Started: b.now().UTC(),
		Counts:  map[string]int{},
	}
	log := b.log.With(logger.String("run_id", sum.RunID))
	log.Info("batch started", logger.Int("definitions", len(inputs)), logger.String("mode", string(b.mode)))

	var records []models.SpreadRecord
	for _, in := range inputs {
		if err := ctx.Err(); err != nil {
			return sum, err
		}
		ev, recs := b.buildOne(ctx, sum.RunID, in, log)
		if err := ctx.Err(); err != nil {
			return sum, err
		}
		records = append(records, recs...)
		sum.Counts[ev.Status]++
		sum.Events = append(sum.Events, ev)

		if b.metrics != nil {
			b.metrics.RecordBuild(ev.InstrumentName, ev.Status, ev.Rows, ev.Duration.Seconds())
			for _, w := range ev.Warnings {
				b.metrics.RecordWarning(string(w.Kind))
			}
		}
		if err := b.publisher.PublishBuild(ctx, ev); err != nil {
			log.Error("publish build event failed", logger.String("instrument", ev.InstrumentName), logger.Error(err))
		}
		if b.collector != nil {
			if _, err := b.collector.Flush(ctx, sum.RunID, ev.InstrumentName); err != nil {
				log.Error("publish warnings failed", logger.String("instrument", ev.InstrumentName), logger.Error(err))
			}
		}
	}
	sum.Rows = len(records)

	if err := b.write(ctx, records); err != nil {
		sum.Duration = b.now().Sub(sum.Started)
		return sum, err
	}

	if b.archiver != nil && len(records) > 0 {
		loc, err := b.archiver.Archive(ctx, sum.RunID, sum.Started, records)
		if err != nil {
			log.Error("archive failed", logger.Error(err))
		}
		sum.Archive = loc
	}
	if b.metrics != nil {
		if err := b.metrics.Push(ctx); err != nil {
			log.Warn("metrics push failed", logger.Error(err))
		}
	}

	sum.Duration = b.now().Sub(sum.Started)
	log.Info("batch finished",
		logger.Int("rows", sum.Rows),
		logger.Int("ok", sum.Counts[models.StatusOK]),
		logger.Int("empty", sum.Counts[models.StatusEmpty]),
		logger.Int("invalid", sum.Counts[models.StatusInvalid]),
		logger.Int("failed", sum.Counts[models.StatusFailed]),
		logger.Duration("duration", sum.Duration),
	)
	return sum, nil
}

func (b *BatchBuilder) buildOne(ctx context.Context, runID string, in BatchInput, log *logger.Logger) (models.BuildEvent, []models.SpreadRecord) {
	started := b.now()
	ev := models.BuildEvent{
		RunID:          runID,
		InstrumentName: in.Definition.Name,
		StartedAt:      started.UTC(),
	}

	err := in.Err
	var res spread.Result
	if err == nil {
		res, err = b.builder.Build(ctx, in.Definition)
	}
	ev.Duration = b.now().Sub(started)
	ev.Warnings = res.Warnings

	switch {
	case err == nil:
		ev.Status = models.StatusOK
		ev.Rows = len(res.Records)
		ev.Years = yearsOf(res.Records)
		return ev, res.Records
	case errors.Is(err, spread.ErrInvalidInput):
		ev.Status = models.StatusInvalid
		log.Warn("definition rejected",
			logger.String("instrument", in.Definition.Name),
			logger.Int("line", in.Line),
			logger.Error(err),
		)
	case errors.Is(err, spread.ErrEmptyResult):
		ev.Status = models.StatusEmpty
		log.Warn("definition produced no rows", logger.String("instrument", in.Definition.Name))
	default:
		ev.Status = models.StatusFailed
		log.Error("definition failed", logger.String("instrument", in.Definition.Name), logger.Error(err))
	}
	ev.Error = err.Error()
	return ev, nil
}

func (b *BatchBuilder) write(ctx context.Context, records []models.SpreadRecord) error {
	if len(records) == 0 {
		b.log.Warn("batch produced no rows, table left unchanged")
		return nil
	}

	var err error
	switch b.mode {
	case WriteAppend:
		err = b.store.Append(ctx, records)
	case WriteReplaceInstrument:
		err = b.store.ReplaceInstrument(ctx, records)
	default:
		err = b.store.Replace(ctx, records)
	}
	if b.metrics != nil {
		b.metrics.RecordStoreWrite(b.backend, string(b.mode), len(records), err)
	}
	if err != nil {
		return fmt.Errorf("write spreads (%s): %w", b.mode, err)
	}
	return nil
}

func yearsOf(records []models.SpreadRecord) []string {
	seen := map[string]struct{}{}
	var out []string
	for _, r := range records {
		if _, ok := seen[r.Year]; ok {
			continue
		}
		seen[r.Year] = struct{}{}
		out = append(out, r.Year)
	}
	sort.Strings(out)
	return out
}
