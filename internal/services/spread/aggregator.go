package spread

import (
	"fmt"
	"sort"
	"time"

	"RollSpread/internal/domain/models"
)

// LegPrices pairs a resolved leg with the closes fetched for its contracts,
// keyed by contract symbol. Symbols that could not be fetched are absent.
type LegPrices struct {
	Leg    ResolvedLeg
	Prices map[string][]models.PriceObservation
}

// AggregatedLeg carries a leg's weighted price series per contract symbol.
type AggregatedLeg struct {
	Label         string
	Contracts     []models.ContractSymbol
	Weight        float64
	Conversion    float64
	HasWeight     bool
	HasConversion bool
	// Series holds date-ordered observations with WeightedPrice set, one per date.
	Series map[string][]models.PriceObservation
}

// Aggregate applies WeightedPrice = close * conversion * weight to every
// observation of each leg. A missing weight or conversion counts as 1 and is
// reported by Validate.
func Aggregate(legs []LegPrices) []AggregatedLeg {
	out := make([]AggregatedLeg, 0, len(legs))
	for _, lp := range legs {
		agg := AggregatedLeg{
			Label:      lp.Leg.Label(),
			Contracts:  lp.Leg.Contracts,
			Weight:     1,
			Conversion: 1,
			Series:     make(map[string][]models.PriceObservation, len(lp.Prices)),
		}
		if w := lp.Leg.Spec.Weight; w != nil {
			agg.Weight, agg.HasWeight = *w, true
		}
		if c := lp.Leg.Spec.ConversionFactor; c != nil {
			agg.Conversion, agg.HasConversion = *c, true
		}

		factor := agg.Weight * agg.Conversion
		for symbol, obs := range lp.Prices {
			series := dedupByDate(obs)
			for i := range series {
				series[i].Symbol = symbol
				series[i].WeightedPrice = series[i].Close * factor
			}
			agg.Series[symbol] = series
		}
		out = append(out, agg)
	}
	return out
}

// dedupByDate copies obs into date order, keeping the last observation seen
// for any repeated calendar day.
func dedupByDate(obs []models.PriceObservation) []models.PriceObservation {
	byDate := make(map[time.Time]int, len(obs))
	out := make([]models.PriceObservation, 0, len(obs))
	for _, o := range obs {
		o.Date = dayOf(o.Date)
		if idx, ok := byDate[o.Date]; ok {
			out[idx] = o
			continue
		}
		byDate[o.Date] = len(out)
		out = append(out, o)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}

// Validate reports unequal contract-list lengths and missing weighting
// metadata. Nothing here stops a build.
func Validate(legs []AggregatedLeg) []models.BuildWarning {
	var warnings []models.BuildWarning
	if len(legs) == 0 {
		return nil
	}

	want := len(legs[0].Contracts)
	for _, l := range legs[1:] {
		if len(l.Contracts) != want {
			warnings = append(warnings, lengthMismatch(legs))
			break
		}
	}

	for _, l := range legs {
		if !l.HasWeight {
			warnings = append(warnings, models.BuildWarning{
				Kind:    models.WarnMissingWeight,
				Leg:     l.Label,
				Message: fmt.Sprintf("leg %s has no weight, using 1", l.Label),
			})
		}
		if !l.HasConversion {
			warnings = append(warnings, models.BuildWarning{
				Kind:    models.WarnMissingConversion,
				Leg:     l.Label,
				Message: fmt.Sprintf("leg %s has no conversion factor, using 1", l.Label),
			})
		}
	}
	return warnings
}

func lengthMismatch(legs []AggregatedLeg) models.BuildWarning {
	msg := "contract lists differ in length:"
	for _, l := range legs {
		msg += fmt.Sprintf(" %s=%d", l.Label, len(l.Contracts))
	}
	return models.BuildWarning{Kind: models.WarnContractLengthMismatch, Message: msg}
}

func dayOf(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
