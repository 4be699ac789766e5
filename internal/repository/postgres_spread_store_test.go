package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"RollSpread/internal/domain/models"
	pkgpg "RollSpread/pkg/postgres"
)

func newPGStore(t *testing.T) (*PostgresSpreadStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return NewPostgresSpreadStore(pkgpg.NewClientFromPool(mock), "contractMargins", nil), mock
}

func TestPostgresInitCreatesTableAndIndex(t *testing.T) {
	s, mock := newPGStore(t)
	mock.ExpectExec(regexp.QuoteMeta(`CREATE TABLE IF NOT EXISTS "contractMargins"`)).
		WillReturnResult(pgxmock.NewResult("CREATE", 0))
	mock.ExpectExec(regexp.QuoteMeta(`CREATE INDEX IF NOT EXISTS "contractMargins_instrument_idx"`)).
		WillReturnResult(pgxmock.NewResult("CREATE", 0))

	require.NoError(t, s.Init(context.Background()))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresReplaceRunsInTransaction(t *testing.T) {
	s, mock := newPGStore(t)
	recs := sampleRecords("Brent", 2)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`TRUNCATE TABLE "contractMargins"`)).
		WillReturnResult(pgxmock.NewResult("TRUNCATE", 0))
	mock.ExpectCopyFrom(pgx.Identifier{"contractMargins"}, models.SpreadColumns).WillReturnResult(2)
	mock.ExpectCommit()

	require.NoError(t, s.Replace(context.Background(), recs))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresReplaceInstrumentRollsBackOnCopyError(t *testing.T) {
	s, mock := newPGStore(t)
	recs := sampleRecords("Brent", 1)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "contractMargins" WHERE "InstrumentName" = ANY($1)`)).
		WithArgs([]string{"Brent"}).
		WillReturnResult(pgxmock.NewResult("DELETE", 4))
	mock.ExpectCopyFrom(pgx.Identifier{"contractMargins"}, models.SpreadColumns).
		WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	err := s.ReplaceInstrument(context.Background(), recs)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresAppendCopiesWithoutTransaction(t *testing.T) {
	s, mock := newPGStore(t)
	mock.ExpectCopyFrom(pgx.Identifier{"contractMargins"}, models.SpreadColumns).WillReturnResult(3)

	require.NoError(t, s.Append(context.Background(), sampleRecords("WTI", 3)))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresQueryAppliesFilter(t *testing.T) {
	s, mock := newPGStore(t)
	want := sampleRecords("Brent", 1)[0]

	mock.ExpectQuery(regexp.QuoteMeta(`WHERE "Region" = $1 AND "InstrumentName" = $2 ORDER BY "InstrumentName", "Year", "Date"`)).
		WithArgs("Europe", "Brent").
		WillReturnRows(pgxmock.NewRows(models.SpreadColumns).AddRow(
			want.Date, want.Year, want.Spread, want.LastTrade, want.InstrumentName,
			want.Group, want.Region, want.Month, want.RollFlag, want.Desc,
		))

	got, err := s.Query(context.Background(), models.SpreadFilter{Region: "Europe", InstrumentName: "Brent"})
	require.NoError(t, err)
	assert.Equal(t, []models.SpreadRecord{want}, got)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresDistinct(t *testing.T) {
	s, mock := newPGStore(t)
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT DISTINCT "Group" FROM "contractMargins" ORDER BY "Group"`)).
		WillReturnRows(pgxmock.NewRows([]string{"Group"}).AddRow("Crude").AddRow("Products"))

	got, err := s.Distinct(context.Background(), "Group", models.SpreadFilter{})
	require.NoError(t, err)
	assert.Equal(t, []string{"Crude", "Products"}, got)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresExpiryStore(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery(regexp.QuoteMeta(`FROM "ExpiryMatrix" WHERE "Ticker" = $1`)).
		WithArgs("CO").
		WillReturnRows(pgxmock.NewRows([]string{"Ticker", "MonthCode", "LastTrade"}).
			AddRow("CO", "Z", day(2024, 10, 31)).
			AddRow("CO", "Z", day(2025, 10, 31)))

	s := NewPostgresExpiryStore(pkgpg.NewClientFromPool(mock), "ExpiryMatrix")
	got, err := s.Expiries(context.Background(), "CO", nil)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, day(2025, 10, 31), got[1].LastTrade)
	require.NoError(t, mock.ExpectationsWereMet())
}
