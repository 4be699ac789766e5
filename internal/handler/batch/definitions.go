package batch

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"RollSpread/internal/domain/models"
	"RollSpread/internal/services/spread"
	"RollSpread/pkg/util"
)

// Column names of the definitions table, matched case-insensitively.
const (
	ColName           = "name"
	ColTickers        = "tickerlist"
	ColContractMonths = "contractmonthslist"
	ColYearOffsets    = "yearoffsetlist"
	ColWeights        = "weightslist"
	ColConversions    = "convlist"
	ColYearsBack      = "yearsback"
	ColRollFlag       = "rollflag"
	ColGroup          = "group"
	ColRegion         = "region"
	ColMonths         = "months"
	ColDesc           = "desc"
)

var requiredColumns = []string{ColName, ColTickers, ColContractMonths, ColYearOffsets}

// Row is one parsed definition. Err is set when the row is invalid; the
// other rows are unaffected.
type Row struct {
	Line       int
	Definition models.SpreadDefinition
	Err        error
}

// LoadDefinitions reads the definitions file at path.
func LoadDefinitions(ctx context.Context, path string) ([]Row, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open definitions: %w", err)
	}
	defer f.Close()
	return ReadDefinitions(ctx, f)
}

// ReadDefinitions parses a definitions CSV. A missing required column fails
// the whole read; problems in a single row only mark that row.
func ReadDefinitions(ctx context.Context, r io.Reader) ([]Row, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("read header: %w", err)
	}
	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))] = i
	}
	for _, col := range requiredColumns {
		if _, ok := idx[col]; !ok {
			return nil, fmt.Errorf("definitions: missing column %q", col)
		}
	}

	var rows []Row
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return rows, fmt.Errorf("definitions line %d: %w", line, err)
		}
		if blank(rec) {
			continue
		}
		fields := make(map[string]string, len(idx))
		for col, i := range idx {
			if i < len(rec) {
				fields[col] = strings.TrimSpace(rec[i])
			}
		}
		def, err := ParseDefinition(fields)
		if err == nil {
			err = ValidateDefinition(ctx, &def)
		}
		rows = append(rows, Row{Line: line, Definition: def, Err: err})
	}
	return rows, nil
}

// ParseDefinition converts one row, keyed by lower-case column name, into a
// definition. Ticker, month and offset lists must have equal length; shorter
// weight or conversion lists leave the remaining legs unset.
func ParseDefinition(fields map[string]string) (models.SpreadDefinition, error) {
	def := models.SpreadDefinition{
		Name:     fields[ColName],
		RollFlag: fields[ColRollFlag],
		Group:    fields[ColGroup],
		Region:   fields[ColRegion],
		Month:    fields[ColMonths],
		Desc:     fields[ColDesc],
	}

	var errs spread.FieldErrors
	tickers, err := util.SplitList(fields[ColTickers])
	if err != nil {
		errs = append(errs, &spread.InvalidInputError{Field: "tickerList", Reason: err.Error()})
	}
	months, err := util.SplitList(fields[ColContractMonths])
	if err != nil {
		errs = append(errs, &spread.InvalidInputError{Field: "contractMonthsList", Reason: err.Error()})
	}
	offsets, err := util.ParseIntList(fields[ColYearOffsets])
	if err != nil {
		errs = append(errs, &spread.InvalidInputError{Field: "yearOffsetList", Reason: err.Error()})
	}
	weights, err := util.ParseFloatList(fields[ColWeights])
	if err != nil {
		errs = append(errs, &spread.InvalidInputError{Field: "weightsList", Reason: err.Error()})
	}
	convs, err := util.ParseFloatList(fields[ColConversions])
	if err != nil {
		errs = append(errs, &spread.InvalidInputError{Field: "convList", Reason: err.Error()})
	}
	if raw := fields[ColYearsBack]; raw != "" {
		n, err := strconv.Atoi(strings.TrimSuffix(raw, ".0"))
		if err != nil {
			errs = append(errs, &spread.InvalidInputError{Field: "yearsBack", Reason: fmt.Sprintf("not an integer: %q", raw)})
		}
		def.YearsBack = n
	}
	if len(errs) > 0 {
		return def, errs
	}

	if len(months) != len(tickers) {
		errs = append(errs, &spread.InvalidInputError{
			Field:  "contractMonthsList",
			Reason: fmt.Sprintf("has %d items, tickerList has %d", len(months), len(tickers)),
		})
	}
	if len(offsets) != len(tickers) {
		errs = append(errs, &spread.InvalidInputError{
			Field:  "yearOffsetList",
			Reason: fmt.Sprintf("has %d items, tickerList has %d", len(offsets), len(tickers)),
		})
	}
	// an empty list leaves every leg's value unset
	if len(weights) > 0 && len(weights) != len(tickers) {
		errs = append(errs, &spread.InvalidInputError{
			Field:  "weightsList",
			Reason: fmt.Sprintf("has %d items, tickerList has %d", len(weights), len(tickers)),
		})
	}
	if len(convs) > 0 && len(convs) != len(tickers) {
		errs = append(errs, &spread.InvalidInputError{
			Field:  "convList",
			Reason: fmt.Sprintf("has %d items, tickerList has %d", len(convs), len(tickers)),
		})
	}
	if len(errs) > 0 {
		return def, errs
	}

	def.Legs = make([]models.LegSpec, len(tickers))
	for i, t := range tickers {
		code, err := models.ParseMonthCode(months[i])
		if err != nil {
			errs = append(errs, &spread.InvalidInputError{Field: fmt.Sprintf("contractMonthsList[%d]", i), Reason: err.Error()})
		}
		leg := models.LegSpec{Ticker: t, ContractMonth: code, YearOffset: offsets[i]}
		if i < len(weights) {
			w := weights[i]
			leg.Weight = &w
		}
		if i < len(convs) {
			c := convs[i]
			leg.ConversionFactor = &c
		}
		def.Legs[i] = leg
	}
	return def, errs.Err()
}

func blank(rec []string) bool {
	for _, f := range rec {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}
