package repository

import (
	"context"
	"database/sql"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"RollSpread/internal/domain/models"
	"RollSpread/internal/domain/repository"
	pkgch "RollSpread/pkg/clickhouse"
	pkgpg "RollSpread/pkg/postgres"
	"RollSpread/pkg/util"
)

var (
	_ repository.ExpiryStore = (*ClickHouseExpiryStore)(nil)
	_ repository.ExpiryStore = (*PostgresExpiryStore)(nil)
	_ repository.ExpiryStore = (*CSVExpiryStore)(nil)
	_ repository.ExpiryStore = SyntheticExpiryStore{}
)

// ClickHouseExpiryStore reads the expiry table (Ticker, MonthCode, LastTrade).
type ClickHouseExpiryStore struct {
	db    *sql.DB
	table string
}

func NewClickHouseExpiryStore(ch *pkgch.Client, table string) *ClickHouseExpiryStore {
	return &ClickHouseExpiryStore{db: ch.DB(), table: table}
}

func (s *ClickHouseExpiryStore) Expiries(ctx context.Context, ticker string, _ []models.ContractSymbol) ([]models.ExpiryEntry, error) {
	q := fmt.Sprintf("SELECT Ticker, MonthCode, LastTrade FROM %s WHERE Ticker = ? ORDER BY LastTrade", pkgch.QuoteIdent(s.table))
	rows, err := s.db.QueryContext(ctx, q, ticker)
	if err != nil {
		return nil, fmt.Errorf("query expiries: %w", err)
	}
	defer rows.Close()

	var out []models.ExpiryEntry
	for rows.Next() {
		e, err := scanExpiry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// PostgresExpiryStore reads the expiry table from PostgreSQL.
type PostgresExpiryStore struct {
	pool  pkgpg.Pool
	ident string
}

func NewPostgresExpiryStore(pg *pkgpg.Client, table string) *PostgresExpiryStore {
	return &PostgresExpiryStore{pool: pg.Pool(), ident: pkgpg.Identifier(table).Sanitize()}
}

func (s *PostgresExpiryStore) Expiries(ctx context.Context, ticker string, _ []models.ContractSymbol) ([]models.ExpiryEntry, error) {
	q := fmt.Sprintf(`SELECT "Ticker", "MonthCode", "LastTrade" FROM %s WHERE "Ticker" = $1 ORDER BY "LastTrade"`, s.ident)
	rows, err := s.pool.Query(ctx, q, ticker)
	if err != nil {
		return nil, fmt.Errorf("query expiries: %w", err)
	}
	defer rows.Close()

	var out []models.ExpiryEntry
	for rows.Next() {
		e, err := scanExpiry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func scanExpiry(row scanner) (models.ExpiryEntry, error) {
	var (
		e    models.ExpiryEntry
		code string
	)
	if err := row.Scan(&e.Ticker, &code, &e.LastTrade); err != nil {
		return e, fmt.Errorf("scan expiry: %w", err)
	}
	e.MonthCode = models.MonthCode(strings.ToUpper(strings.TrimSpace(code)))
	e.LastTrade = expiryDay(e.LastTrade)
	return e, nil
}

// CSVExpiryStore reads expiries from a file with Ticker, MonthCode and
// LastTrade header columns.
type CSVExpiryStore struct {
	path string
}

func NewCSVExpiryStore(path string) *CSVExpiryStore {
	return &CSVExpiryStore{path: path}
}

func (s *CSVExpiryStore) Expiries(_ context.Context, ticker string, _ []models.ContractSymbol) ([]models.ExpiryEntry, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("open expiries: %w", err)
	}
	defer f.Close()
	return ReadExpiries(f, ticker)
}

// ReadExpiries parses expiry CSV rows, keeping those for ticker. An empty
// ticker keeps every row.
func ReadExpiries(r io.Reader, ticker string) ([]models.ExpiryEntry, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("read expiry header: %w", err)
	}
	idx := map[string]int{}
	for i, h := range header {
		idx[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, col := range []string{"ticker", "monthcode", "lasttrade"} {
		if _, ok := idx[col]; !ok {
			return nil, fmt.Errorf("expiry csv: missing column %q", col)
		}
	}

	var out []models.ExpiryEntry
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("expiry csv line %d: %w", line, err)
		}
		field := func(name string) string {
			if i := idx[name]; i < len(rec) {
				return strings.TrimSpace(rec[i])
			}
			return ""
		}
		t := field("ticker")
		if ticker != "" && t != ticker {
			continue
		}
		lt, err := util.ParseDate(field("lasttrade"))
		if err != nil {
			return nil, fmt.Errorf("expiry csv line %d: %w", line, err)
		}
		out = append(out, models.ExpiryEntry{
			Ticker:    t,
			MonthCode: models.MonthCode(strings.ToUpper(field("monthcode"))),
			LastTrade: lt,
		})
	}
	return out, nil
}

// SyntheticExpiryStore derives an expiry for every contract as the last
// calendar day of its delivery month. Used when no expiry table exists.
type SyntheticExpiryStore struct{}

func (SyntheticExpiryStore) Expiries(_ context.Context, ticker string, contracts []models.ContractSymbol) ([]models.ExpiryEntry, error) {
	out := make([]models.ExpiryEntry, 0, len(contracts))
	for _, c := range contracts {
		out = append(out, models.ExpiryEntry{
			Ticker:    ticker,
			MonthCode: c.Month,
			LastTrade: util.LastDayOfMonth(c.CalendarYear(), c.Month.Month()),
		})
	}
	return out, nil
}

// expiryDay normalizes a stored timestamp to its UTC day.
func expiryDay(t time.Time) time.Time {
	return util.DateOf(t)
}
