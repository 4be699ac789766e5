package batch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"RollSpread/internal/domain/models"
	"RollSpread/internal/services/spread"
)

const header = "Name,tickerList,contractMonthsList,yearOffsetList,weightsList,convList,yearsBack,rollFlag,group,region,months,desc\n"

func TestReadDefinitionsParsesLiteralLists(t *testing.T) {
	in := header +
		`Brent Dec-Jun,"['#BRN', '#BRN']","['Z', 'M']","[0, 1]","[1, -1]","[1.0, 1.0]",5,CO,Crude,Europe,Dec,Brent calendar` + "\n"

	rows, err := ReadDefinitions(context.Background(), strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.NoError(t, rows[0].Err)
	assert.Equal(t, 2, rows[0].Line)

	def := rows[0].Definition
	assert.Equal(t, "Brent Dec-Jun", def.Name)
	assert.Equal(t, 5, def.YearsBack)
	assert.Equal(t, "CO", def.RollFlag)
	assert.Equal(t, "Crude", def.Group)
	assert.Equal(t, "Europe", def.Region)
	assert.Equal(t, "Dec", def.Month)
	require.Len(t, def.Legs, 2)
	assert.Equal(t, "#BRN", def.Legs[1].Ticker)
	assert.Equal(t, models.June, def.Legs[1].ContractMonth)
	assert.Equal(t, 1, def.Legs[1].YearOffset)
	require.NotNil(t, def.Legs[1].Weight)
	assert.Equal(t, -1.0, *def.Legs[1].Weight)
}

func TestReadDefinitionsAppliesDefaultsAndKeepsMissingWeights(t *testing.T) {
	in := header + `WTI,['CL'],['z'],[0],,,,,,,,` + "\n"

	rows, err := ReadDefinitions(context.Background(), strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.NoError(t, rows[0].Err)

	def := rows[0].Definition
	assert.Equal(t, 10, def.YearsBack)
	assert.Equal(t, models.December, def.Legs[0].ContractMonth)
	assert.Nil(t, def.Legs[0].Weight)
	assert.Nil(t, def.Legs[0].ConversionFactor)
	assert.Equal(t, "CL", def.ExpiryTicker())
}

func TestReadDefinitionsMarksInvalidRowsOnly(t *testing.T) {
	in := header +
		`Bad,"['A','B']","['Z']","[0,0]",,,,,,,,` + "\n" +
		`Good,['A'],['H'],[0],[1],[1],3,,,,,` + "\n" +
		`BadMonth,['A'],['Y'],[0],,,,,,,,` + "\n"

	rows, err := ReadDefinitions(context.Background(), strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.ErrorIs(t, rows[0].Err, spread.ErrInvalidInput)
	assert.Contains(t, rows[0].Err.Error(), "contractMonthsList")

	assert.NoError(t, rows[1].Err)
	assert.Equal(t, 3, rows[1].Line)

	var fe spread.FieldErrors
	require.True(t, errors.As(rows[2].Err, &fe))
	assert.Equal(t, "contractMonthsList[0]", fe[0].Field)
}

func TestReadDefinitionsRejectsMisalignedWeightAndConversionLists(t *testing.T) {
	in := header +
		`Mismatch,"['A','B']","['Z','M']","[0,1]","[1,-1,7]","[1.0]",,,,,,` + "\n" +
		`EmptyLists,"['A','B']","['Z','M']","[0,1]",[],[],,,,,,` + "\n"

	rows, err := ReadDefinitions(context.Background(), strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.ErrorIs(t, rows[0].Err, spread.ErrInvalidInput)
	var fe spread.FieldErrors
	require.True(t, errors.As(rows[0].Err, &fe))
	require.Len(t, fe, 2)
	assert.Equal(t, "weightsList", fe[0].Field)
	assert.Equal(t, "convList", fe[1].Field)

	require.NoError(t, rows[1].Err)
	for _, leg := range rows[1].Definition.Legs {
		assert.Nil(t, leg.Weight)
		assert.Nil(t, leg.ConversionFactor)
	}
}

func TestReadDefinitionsValidatesYearsBack(t *testing.T) {
	in := header + `Deep,['A'],['H'],[0],,,150,,,,,` + "\n"

	rows, err := ReadDefinitions(context.Background(), strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, rows, 1)

	var fe spread.FieldErrors
	require.True(t, errors.As(rows[0].Err, &fe))
	assert.Equal(t, "years_back", fe[0].Field)
	assert.Contains(t, fe[0].Reason, "99")
}

func TestReadDefinitionsRequiresColumns(t *testing.T) {
	_, err := ReadDefinitions(context.Background(), strings.NewReader("Name,tickerList\nX,['A']\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "contractmonthslist")

	rows, err := ReadDefinitions(context.Background(), strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestReadDefinitionsSkipsBlankLines(t *testing.T) {
	in := header + ",,,,,,,,,,,\n" + `One,['A'],['H'],[0],,,,,,,,` + "\n"
	rows, err := ReadDefinitions(context.Background(), strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 3, rows[0].Line)
}

func TestLoadDefinitions(t *testing.T) {
	p := filepath.Join(t.TempDir(), "spreads.csv")
	require.NoError(t, os.WriteFile(p, []byte(header+`One,['A'],['H'],[0],,,2.0,,,,,`+"\n"), 0o644))

	rows, err := LoadDefinitions(context.Background(), p)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 2, rows[0].Definition.YearsBack)

	_, err = LoadDefinitions(context.Background(), filepath.Join(t.TempDir(), "none.csv"))
	assert.Error(t, err)
}

func TestValidateDefinitionItemizesLegs(t *testing.T) {
	def := models.SpreadDefinition{
		Name: "x",
		Legs: []models.LegSpec{{Ticker: "", ContractMonth: "H"}, {Ticker: "B", ContractMonth: "H", YearOffset: -1}},
	}
	err := ValidateDefinition(context.Background(), &def)
	require.Error(t, err)

	var fe spread.FieldErrors
	require.True(t, errors.As(err, &fe))
	fields := make([]string, len(fe))
	for i, e := range fe {
		fields[i] = e.Field
	}
	assert.ElementsMatch(t, []string{"legs[0].ticker", "legs[1].year_offset"}, fields)
}
