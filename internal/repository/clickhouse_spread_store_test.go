package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"RollSpread/internal/domain/models"
	pkgch "RollSpread/pkg/clickhouse"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func sampleRecords(name string, n int) []models.SpreadRecord {
	out := make([]models.SpreadRecord, n)
	for i := range out {
		out[i] = models.SpreadRecord{
			Date:           day(2024, time.March, 1+i),
			Year:           "2024",
			Spread:         float64(i) + 0.5,
			LastTrade:      day(2024, time.November, 20),
			InstrumentName: name,
			Group:          "Crude",
			Region:         "Europe",
			Month:          "Dec",
			RollFlag:       "CO",
			Desc:           "Brent Dec-Jun",
		}
	}
	return out
}

func newCHStore(t *testing.T, chunk int) (*ClickHouseSpreadStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewClickHouseSpreadStore(pkgch.NewClientFromDB(db, "default"), "contractMargins", chunk, nil), mock
}

func TestClickHouseInitCreatesTable(t *testing.T) {
	s, mock := newCHStore(t, 0)
	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS `contractMargins`")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, s.Init(context.Background()))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestClickHouseReplaceTruncatesThenInsertsInChunks(t *testing.T) {
	s, mock := newCHStore(t, 2)
	recs := sampleRecords("Brent", 3)

	mock.ExpectExec(regexp.QuoteMeta("TRUNCATE TABLE IF EXISTS `contractMargins`")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO `contractMargins` (`Date`, `Year`, `spread`")).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO `contractMargins`")).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, s.Replace(context.Background(), recs))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestClickHouseAppendSkipsEmpty(t *testing.T) {
	s, mock := newCHStore(t, 0)
	require.NoError(t, s.Append(context.Background(), nil))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestClickHouseReplaceInstrumentDeletesEachName(t *testing.T) {
	s, mock := newCHStore(t, 0)
	recs := append(sampleRecords("Brent", 2), sampleRecords("WTI", 1)...)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM `contractMargins` WHERE `InstrumentName` IN (?, ?)")).
		WithArgs("Brent", "WTI").
		WillReturnResult(sqlmock.NewResult(0, 10))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO `contractMargins`")).
		WillReturnResult(sqlmock.NewResult(0, 3))

	require.NoError(t, s.ReplaceInstrument(context.Background(), recs))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestClickHouseQueryAppliesFilter(t *testing.T) {
	s, mock := newCHStore(t, 0)
	want := sampleRecords("Brent", 1)[0]

	rows := sqlmock.NewRows(models.SpreadColumns).AddRow(
		want.Date, want.Year, want.Spread, want.LastTrade, want.InstrumentName,
		want.Group, want.Region, want.Month, want.RollFlag, want.Desc,
	)
	mock.ExpectQuery(regexp.QuoteMeta("WHERE `Group` = ? AND `Month` = ?")).
		WithArgs("Crude", "Dec").
		WillReturnRows(rows)

	got, err := s.Query(context.Background(), models.SpreadFilter{Group: "Crude", Month: "Dec"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, want, got[0])
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestClickHouseDistinct(t *testing.T) {
	s, mock := newCHStore(t, 0)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT DISTINCT `Region` FROM `contractMargins` WHERE `Group` = ? ORDER BY `Region`")).
		WithArgs("Crude").
		WillReturnRows(sqlmock.NewRows([]string{"Region"}).AddRow("Asia").AddRow("Europe"))

	got, err := s.Distinct(context.Background(), "region", models.SpreadFilter{Group: "Crude"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Asia", "Europe"}, got)

	_, err = s.Distinct(context.Background(), "spread", models.SpreadFilter{})
	assert.ErrorIs(t, err, ErrUnknownColumn)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestClickHouseExpiryStore(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT Ticker, MonthCode, LastTrade FROM `ExpiryMatrix` WHERE Ticker = ?")).
		WithArgs("CO").
		WillReturnRows(sqlmock.NewRows([]string{"Ticker", "MonthCode", "LastTrade"}).
			AddRow("CO", " z", time.Date(2024, time.October, 31, 15, 0, 0, 0, time.UTC)))

	s := NewClickHouseExpiryStore(pkgch.NewClientFromDB(db, "default"), "ExpiryMatrix")
	got, err := s.Expiries(context.Background(), "CO", nil)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, models.December, got[0].MonthCode)
	assert.Equal(t, day(2024, time.October, 31), got[0].LastTrade)
	require.NoError(t, mock.ExpectationsWereMet())
}
