package usecase

import (
	"context"
	"fmt"
	"time"

	"RollSpread/internal/domain/models"
	drepo "RollSpread/internal/domain/repository"
	"RollSpread/internal/services/spread"
)

// SeasonalReport produces the dashboard view of stored or freshly built spreads.
type SeasonalReport struct {
	store       drepo.SpreadStore
	builder     *SpreadBuilder
	tradingDays int
	bins        int
	now         func() time.Time
}

func NewSeasonalReport(store drepo.SpreadStore, builder *SpreadBuilder, tradingDays, bins int, now func() time.Time) *SeasonalReport {
	if tradingDays <= 0 {
		tradingDays = spread.TradingDaysPerYear
	}
	if bins <= 0 {
		bins = spread.DefaultHistogramBins
	}
	if now == nil {
		now = time.Now
	}
	return &SeasonalReport{store: store, builder: builder, tradingDays: tradingDays, bins: bins, now: now}
}

// Report is the seasonal overlay plus histogram statistics. Raw is set,
// ordered by date, only when no seasonal bucket qualifies.
type Report struct {
	Filter  models.SpreadFilter      `json:"filter"`
	Rows    int                      `json:"rows"`
	Buckets []models.SeasonalBucket  `json:"buckets"`
	Raw     []models.TradingDayPoint `json:"raw,omitempty"`
	Stats   *models.SpreadStats      `json:"stats,omitempty"`
}

// FilterOptions are the cascading selector values: groups, regions in the
// group, instruments in group and region, months of the instrument.
type FilterOptions struct {
	Groups      []string `json:"groups"`
	Regions     []string `json:"regions"`
	Instruments []string `json:"instruments"`
	Months      []string `json:"months"`
}

// FromStore reports on the stored rows matching filter.
func (r *SeasonalReport) FromStore(ctx context.Context, filter models.SpreadFilter) (*Report, error) {
	records, err := r.store.Query(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("query spreads: %w", err)
	}
	return r.report(filter, records), nil
}

// FromDefinition builds def on the fly and reports on the result.
func (r *SeasonalReport) FromDefinition(ctx context.Context, def models.SpreadDefinition) (*Report, error) {
	if r.builder == nil {
		return nil, fmt.Errorf("no builder configured")
	}
	res, err := r.builder.Build(ctx, def)
	if err != nil {
		return nil, err
	}
	return r.report(models.SpreadFilter{InstrumentName: def.Name}, res.Records), nil
}

func (r *SeasonalReport) report(filter models.SpreadFilter, records []models.SpreadRecord) *Report {
	rep := &Report{
		Filter:  filter,
		Rows:    len(records),
		Buckets: spread.AlignSeasonal(records, r.now(), r.tradingDays),
	}
	if len(rep.Buckets) == 0 {
		rep.Raw = spread.RawSeries(records)
	}
	if st, ok := spread.Summarize(records, r.bins); ok {
		rep.Stats = &st
	}
	return rep
}

// Options lists selector values narrowed by the parts of filter already chosen.
func (r *SeasonalReport) Options(ctx context.Context, filter models.SpreadFilter) (*FilterOptions, error) {
	var (
		opts FilterOptions
		err  error
	)
	if opts.Groups, err = r.store.Distinct(ctx, "Group", models.SpreadFilter{}); err != nil {
		return nil, err
	}
	if opts.Regions, err = r.store.Distinct(ctx, "Region", models.SpreadFilter{Group: filter.Group}); err != nil {
		return nil, err
	}
	if opts.Instruments, err = r.store.Distinct(ctx, "InstrumentName", models.SpreadFilter{
		Group: filter.Group, Region: filter.Region,
	}); err != nil {
		return nil, err
	}
	if opts.Months, err = r.store.Distinct(ctx, "Month", models.SpreadFilter{
		Group: filter.Group, Region: filter.Region, InstrumentName: filter.InstrumentName,
	}); err != nil {
		return nil, err
	}
	return &opts, nil
}
