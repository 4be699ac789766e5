package spread

import (
	"fmt"
	"time"

	"RollSpread/internal/domain/models"
)

// ResolvedLeg is a leg together with its generated contracts, most recent first.
type ResolvedLeg struct {
	Spec      models.LegSpec
	Contracts []models.ContractSymbol
}

// Label identifies the leg in warnings and logs.
func (l ResolvedLeg) Label() string {
	return l.Spec.Ticker + string(l.Spec.ContractMonth)
}

// ResolveContractYear returns the zero-padded two-digit year of the next
// occurrence of code, yearOffset years out. A month that has already started
// this year rolls to the following year.
func ResolveContractYear(code models.MonthCode, yearOffset int, today time.Time) (string, error) {
	year, err := resolveYear(code, yearOffset, today)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%02d", year%100), nil
}

func resolveYear(code models.MonthCode, yearOffset int, today time.Time) (int, error) {
	if !code.Valid() {
		return 0, invalid("contract_month", "unrecognized month code %q", string(code))
	}
	if yearOffset < 0 {
		return 0, invalid("year_offset", "must be >= 0, got %d", yearOffset)
	}
	target := today.Year() + yearOffset
	if code.Number() <= int(today.Month()) {
		target++
	}
	return target, nil
}

// GenerateContractList lists yearsBack symbols descending from startYear
// (only its last two digits matter). Years wrap modulo 100.
func GenerateContractList(ticker string, code models.MonthCode, startYear, yearsBack int) []models.ContractSymbol {
	if yearsBack <= 0 {
		return nil
	}
	out := make([]models.ContractSymbol, yearsBack)
	for k := 0; k < yearsBack; k++ {
		yy := ((startYear-k)%100 + 100) % 100
		out[k] = models.ContractSymbol{Ticker: ticker, Month: code, Year: yy}
	}
	return out
}

// ResolveLegs validates def and generates every leg's contract list. All
// problems are reported together.
func ResolveLegs(def models.SpreadDefinition, today time.Time) ([]ResolvedLeg, error) {
	var errs FieldErrors
	if def.Name == "" {
		errs = append(errs, invalid("name", "required"))
	}
	if len(def.Legs) == 0 {
		errs = append(errs, invalid("legs", "at least one leg required"))
	}
	if def.YearsBack < 1 || def.YearsBack > 99 {
		errs = append(errs, invalid("years_back", "must be within 1..99, got %d", def.YearsBack))
	}

	legs := make([]ResolvedLeg, 0, len(def.Legs))
	for i, spec := range def.Legs {
		if spec.Ticker == "" {
			errs = append(errs, invalid(fmt.Sprintf("legs[%d].ticker", i), "required"))
		}
		year, err := resolveYear(spec.ContractMonth, spec.YearOffset, today)
		if err != nil {
			e := err.(*InvalidInputError)
			e.Field = fmt.Sprintf("legs[%d].%s", i, e.Field)
			errs = append(errs, e)
			continue
		}
		if spec.YearsBack < 0 || spec.YearsBack > 99 {
			errs = append(errs, invalid(fmt.Sprintf("legs[%d].years_back", i), "must be within 0..99, got %d", spec.YearsBack))
			continue
		}
		legs = append(legs, ResolvedLeg{
			Spec:      spec,
			Contracts: GenerateContractList(spec.Ticker, spec.ContractMonth, year, def.LegYearsBack(i)),
		})
	}
	if err := errs.Err(); err != nil {
		return nil, err
	}
	return legs, nil
}

// ExpirySuffixes returns the month-code plus two-digit-year suffixes of
// contracts, used as expiry matching keys.
func ExpirySuffixes(contracts []models.ContractSymbol) []string {
	out := make([]string, len(contracts))
	for i, c := range contracts {
		out[i] = c.Suffix()
	}
	return out
}
