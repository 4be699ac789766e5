package repository

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"

	"RollSpread/internal/domain/models"
	"RollSpread/internal/domain/repository"
	applogger "RollSpread/pkg/logger"
	pkgpg "RollSpread/pkg/postgres"
)

// PostgresSpreadStore implements SpreadStore for PostgreSQL using COPY for writes.
type PostgresSpreadStore struct {
	pool  pkgpg.Pool
	ident pgx.Identifier
	l     *applogger.Logger
}

var _ repository.SpreadStore = (*PostgresSpreadStore)(nil)

func NewPostgresSpreadStore(pg *pkgpg.Client, table string, l *applogger.Logger) *PostgresSpreadStore {
	if l == nil {
		l = applogger.NewNop()
	}
	return &PostgresSpreadStore{pool: pg.Pool(), ident: pkgpg.Identifier(table), l: l}
}

func pgQuote(name string) string {
	return pgx.Identifier{name}.Sanitize()
}

func pgPlaceholder(n int) string {
	return "$" + strconv.Itoa(n)
}

func (s *PostgresSpreadStore) Init(ctx context.Context) error {
	table := s.ident.Sanitize()
	ddl := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
    "Date" date NOT NULL,
    "Year" text NOT NULL,
    "spread" double precision NOT NULL,
    "LastTrade" date NOT NULL,
    "InstrumentName" text NOT NULL,
    "Group" text NOT NULL DEFAULT '',
    "Region" text NOT NULL DEFAULT '',
    "Month" text NOT NULL DEFAULT '',
    "RollFlag" text NOT NULL DEFAULT '',
    "Desc" text NOT NULL DEFAULT ''
)`, table)
	if _, err := s.pool.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("create spread table: %w", err)
	}
	idx := pgQuote(strings.Join(s.ident, "_") + "_instrument_idx")
	q := fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s ON %s ("InstrumentName", "Year", "Date")`, idx, table)
	if _, err := s.pool.Exec(ctx, q); err != nil {
		return fmt.Errorf("create spread index: %w", err)
	}
	return nil
}

// Replace truncates and reloads the table in one transaction.
func (s *PostgresSpreadStore) Replace(ctx context.Context, records []models.SpreadRecord) error {
	return s.inTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, "TRUNCATE TABLE "+s.ident.Sanitize()); err != nil {
			return fmt.Errorf("truncate spreads: %w", err)
		}
		return s.copy(ctx, tx, records)
	})
}

func (s *PostgresSpreadStore) Append(ctx context.Context, records []models.SpreadRecord) error {
	if len(records) == 0 {
		return nil
	}
	return s.copy(ctx, s.pool, records)
}

func (s *PostgresSpreadStore) ReplaceInstrument(ctx context.Context, records []models.SpreadRecord) error {
	names := instrumentNames(records)
	if len(names) == 0 {
		return nil
	}
	return s.inTx(ctx, func(tx pgx.Tx) error {
		q := fmt.Sprintf(`DELETE FROM %s WHERE "InstrumentName" = ANY($1)`, s.ident.Sanitize())
		if _, err := tx.Exec(ctx, q, names); err != nil {
			return fmt.Errorf("delete instruments: %w", err)
		}
		return s.copy(ctx, tx, records)
	})
}

type copier interface {
	CopyFrom(ctx context.Context, table pgx.Identifier, columns []string, src pgx.CopyFromSource) (int64, error)
}

func (s *PostgresSpreadStore) copy(ctx context.Context, c copier, records []models.SpreadRecord) error {
	if len(records) == 0 {
		return nil
	}
	src := pgx.CopyFromSlice(len(records), func(i int) ([]any, error) {
		return recordValues(records[i]), nil
	})
	n, err := c.CopyFrom(ctx, s.ident, models.SpreadColumns, src)
	if err != nil {
		s.l.Error("postgres copy spreads error",
			applogger.String("table", s.ident.Sanitize()),
			applogger.Int("rows", len(records)),
			applogger.Error(err),
		)
		return fmt.Errorf("copy spreads: %w", err)
	}
	if int(n) != len(records) {
		return fmt.Errorf("copy spreads: wrote %d of %d rows", n, len(records))
	}
	return nil
}

func (s *PostgresSpreadStore) inTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (s *PostgresSpreadStore) Query(ctx context.Context, filter models.SpreadFilter) ([]models.SpreadRecord, error) {
	where, args := whereClause(filter, pgQuote, pgPlaceholder)
	q := fmt.Sprintf(`SELECT %s FROM %s%s ORDER BY "InstrumentName", "Year", "Date"`,
		quoteColumns(models.SpreadColumns, pgQuote), s.ident.Sanitize(), where)
	rows, err := s.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query spreads: %w", err)
	}
	defer rows.Close()

	var out []models.SpreadRecord
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan spread: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return out, nil
}

func (s *PostgresSpreadStore) Distinct(ctx context.Context, column string, filter models.SpreadFilter) ([]string, error) {
	col, err := canonicalColumn(column)
	if err != nil {
		return nil, err
	}
	where, args := whereClause(filter, pgQuote, pgPlaceholder)
	q := fmt.Sprintf("SELECT DISTINCT %[1]s FROM %[2]s%[3]s ORDER BY %[1]s", pgQuote(col), s.ident.Sanitize(), where)
	rows, err := s.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("distinct %s: %w", col, err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func (s *PostgresSpreadStore) Health(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *PostgresSpreadStore) Close() error {
	return nil // pool owned by pkg client
}
