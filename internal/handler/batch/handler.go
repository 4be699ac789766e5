package batch

import (
	"context"
	"fmt"

	"RollSpread/internal/usecase"
	"RollSpread/pkg/logger"
)

// Handler drives one batch run from a definitions file.
type Handler struct {
	builder *usecase.BatchBuilder
	log     *logger.Logger
}

func NewHandler(builder *usecase.BatchBuilder, log *logger.Logger) *Handler {
	if log == nil {
		log = logger.NewNop()
	}
	return &Handler{builder: builder, log: log}
}

// Run loads the definitions at path and builds them all.
func (h *Handler) Run(ctx context.Context, path string) (*usecase.BatchSummary, error) {
	rows, err := LoadDefinitions(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("load definitions: %w", err)
	}
	h.log.Info("definitions loaded", logger.String("path", path), logger.Int("rows", len(rows)))
	return h.builder.Run(ctx, ToInputs(rows))
}

// ToInputs converts parsed rows into batch inputs, keeping row errors.
func ToInputs(rows []Row) []usecase.BatchInput {
	out := make([]usecase.BatchInput, len(rows))
	for i, r := range rows {
		out[i] = usecase.BatchInput{Line: r.Line, Definition: r.Definition, Err: r.Err}
	}
	return out
}

// Select returns the definition on 1-based data row n of rows, for building
// a single spread on demand.
func Select(rows []Row, n int) (Row, error) {
	if n < 1 || n > len(rows) {
		return Row{}, fmt.Errorf("definition row %d out of range 1..%d", n, len(rows))
	}
	return rows[n-1], nil
}
