package spread

import (
	"strconv"
	"time"

	"RollSpread/internal/domain/models"
)

// Options are the build policies.
type Options struct {
	Coverage      Coverage
	MissingExpiry MissingExpiry
	TailDrop      int
}

func DefaultOptions() Options {
	return Options{
		Coverage:      CoverageLenient,
		MissingExpiry: MissingExpiryDrop,
		TailDrop:      DefaultTailDrop,
	}
}

// Result is the outcome of assembling one definition.
type Result struct {
	Series   []models.ContractYearSeries
	Records  []models.SpreadRecord
	Warnings []models.BuildWarning
}

// Assemble runs validation, spread building, expiry matching and trimming
// over already aggregated legs. It returns ErrEmptyResult (with the warnings
// gathered so far) when no year survives.
func Assemble(def models.SpreadDefinition, legs []AggregatedLeg, expiries map[int]time.Time, now time.Time, opts Options) (Result, error) {
	var res Result
	res.Warnings = append(res.Warnings, Validate(legs)...)

	series, warnings := BuildSeries(legs, opts.Coverage)
	res.Warnings = append(res.Warnings, warnings...)

	series, warnings = ApplyExpiries(series, expiries, opts.MissingExpiry, now)
	res.Warnings = append(res.Warnings, warnings...)

	res.Series = TrimAll(series, now, opts.TailDrop)
	res.Records = ToRecords(def, res.Series)
	if len(res.Records) == 0 {
		return res, ErrEmptyResult
	}
	return res, nil
}

// ToRecords flattens series into output rows labelled with def's metadata.
func ToRecords(def models.SpreadDefinition, series []models.ContractYearSeries) []models.SpreadRecord {
	n := 0
	for _, s := range series {
		n += len(s.Points)
	}
	out := make([]models.SpreadRecord, 0, n)
	for _, s := range series {
		year := strconv.Itoa(s.Year)
		for _, p := range s.Points {
			out = append(out, models.SpreadRecord{
				Date:           p.Date,
				Year:           year,
				Spread:         p.Value,
				LastTrade:      s.LastTrade,
				InstrumentName: def.Name,
				Group:          def.Group,
				Region:         def.Region,
				Month:          def.Month,
				RollFlag:       def.RollFlag,
				Desc:           def.Desc,
			})
		}
	}
	return out
}
