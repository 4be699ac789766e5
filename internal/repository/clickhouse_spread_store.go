package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"RollSpread/internal/domain/models"
	"RollSpread/internal/domain/repository"
	pkgch "RollSpread/pkg/clickhouse"
	applogger "RollSpread/pkg/logger"
)

const defaultChunkSize = 2000

// ClickHouseSpreadStore implements SpreadStore for ClickHouse.
type ClickHouseSpreadStore struct {
	ch        *pkgch.Client
	db        *sql.DB
	table     string
	chunkSize int
	l         *applogger.Logger
}

var _ repository.SpreadStore = (*ClickHouseSpreadStore)(nil)

// NewClickHouseSpreadStore creates the store. chunkSize caps rows per INSERT.
func NewClickHouseSpreadStore(ch *pkgch.Client, table string, chunkSize int, l *applogger.Logger) *ClickHouseSpreadStore {
	if chunkSize <= 0 {
		chunkSize = defaultChunkSize
	}
	if l == nil {
		l = applogger.NewNop()
	}
	return &ClickHouseSpreadStore{ch: ch, db: ch.DB(), table: table, chunkSize: chunkSize, l: l}
}

func (s *ClickHouseSpreadStore) Init(ctx context.Context) error {
	q := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
    %s Date,
    %s String,
    %s Float64,
    %s Date,
    %s LowCardinality(String),
    %s LowCardinality(String),
    %s LowCardinality(String),
    %s LowCardinality(String),
    %s String,
    %s String
) ENGINE = MergeTree
ORDER BY (InstrumentName, Year, Date)`,
		pkgch.QuoteIdent(s.table),
		pkgch.QuoteIdent("Date"), pkgch.QuoteIdent("Year"), pkgch.QuoteIdent("spread"),
		pkgch.QuoteIdent("LastTrade"), pkgch.QuoteIdent("InstrumentName"), pkgch.QuoteIdent("Group"),
		pkgch.QuoteIdent("Region"), pkgch.QuoteIdent("Month"), pkgch.QuoteIdent("RollFlag"),
		pkgch.QuoteIdent("Desc"),
	)
	if err := s.ch.InitSchema(ctx, []string{q}); err != nil {
		return fmt.Errorf("create spread table: %w", err)
	}
	return nil
}

// Replace truncates the table and inserts records.
func (s *ClickHouseSpreadStore) Replace(ctx context.Context, records []models.SpreadRecord) error {
	if _, err := s.db.ExecContext(ctx, "TRUNCATE TABLE IF EXISTS "+pkgch.QuoteIdent(s.table)); err != nil {
		return fmt.Errorf("truncate spreads: %w", err)
	}
	return s.insert(ctx, records)
}

func (s *ClickHouseSpreadStore) Append(ctx context.Context, records []models.SpreadRecord) error {
	return s.insert(ctx, records)
}

func (s *ClickHouseSpreadStore) ReplaceInstrument(ctx context.Context, records []models.SpreadRecord) error {
	names := instrumentNames(records)
	if len(names) == 0 {
		return nil
	}
	marks := strings.TrimSuffix(strings.Repeat("?, ", len(names)), ", ")
	q := fmt.Sprintf("DELETE FROM %s WHERE %s IN (%s)", pkgch.QuoteIdent(s.table), pkgch.QuoteIdent("InstrumentName"), marks)
	args := make([]any, len(names))
	for i, n := range names {
		args[i] = n
	}
	if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
		return fmt.Errorf("delete instruments: %w", err)
	}
	return s.insert(ctx, records)
}

func (s *ClickHouseSpreadStore) insert(ctx context.Context, records []models.SpreadRecord) error {
	if len(records) == 0 {
		return nil
	}
	rowMarks := "(" + strings.TrimSuffix(strings.Repeat("?, ", len(models.SpreadColumns)), ", ") + ")"
	cols := quoteColumns(models.SpreadColumns, pkgch.QuoteIdent)
	for start := 0; start < len(records); start += s.chunkSize {
		end := start + s.chunkSize
		if end > len(records) {
			end = len(records)
		}
		values := make([]string, 0, end-start)
		args := make([]any, 0, (end-start)*len(models.SpreadColumns))
		for _, r := range records[start:end] {
			values = append(values, rowMarks)
			args = append(args, recordValues(r)...)
		}
		q := fmt.Sprintf("INSERT INTO %s (%s) VALUES %s", pkgch.QuoteIdent(s.table), cols, strings.Join(values, ","))
		if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
			s.l.Error("clickhouse insert spreads error",
				applogger.String("table", s.table),
				applogger.Int("rows", end-start),
				applogger.Error(err),
			)
			return fmt.Errorf("insert spreads: %w", err)
		}
	}
	return nil
}

func (s *ClickHouseSpreadStore) Query(ctx context.Context, filter models.SpreadFilter) ([]models.SpreadRecord, error) {
	where, args := whereClause(filter, pkgch.QuoteIdent, func(int) string { return "?" })
	q := fmt.Sprintf("SELECT %s FROM %s%s ORDER BY InstrumentName, Year, Date",
		quoteColumns(models.SpreadColumns, pkgch.QuoteIdent), pkgch.QuoteIdent(s.table), where)
	rows, err := s.db.QueryContext(ctx, q, args...)
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

func (s *ClickHouseSpreadStore) Distinct(ctx context.Context, column string, filter models.SpreadFilter) ([]string, error) {
	col, err := canonicalColumn(column)
	if err != nil {
		return nil, err
	}
	where, args := whereClause(filter, pkgch.QuoteIdent, func(int) string { return "?" })
	q := fmt.Sprintf("SELECT DISTINCT %[1]s FROM %[2]s%[3]s ORDER BY %[1]s", pkgch.QuoteIdent(col), pkgch.QuoteIdent(s.table), where)
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("distinct %s: %w", col, err)
	}
	defer rows.Close()
	return scanStrings(rows)
}

func (s *ClickHouseSpreadStore) Health(ctx context.Context) error {
	return s.ch.Health(ctx)
}

func (s *ClickHouseSpreadStore) Close() error {
	return nil // managed by pkg
}

func scanStrings(rows *sql.Rows) ([]string, error) {
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
