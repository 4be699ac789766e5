package usecase

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"RollSpread/internal/domain/models"
	"RollSpread/internal/service/marketdata"
	"RollSpread/internal/services/spread"
	"RollSpread/pkg/logger"
	"RollSpread/pkg/retry"
)

var october18 = time.Date(2025, time.October, 18, 12, 30, 0, 0, time.UTC)

func fixedClock() time.Time { return october18 }

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func closes(sym string, start time.Time, n int, price float64) []models.PriceObservation {
	out := make([]models.PriceObservation, n)
	for i := range out {
		out[i] = models.PriceObservation{Symbol: sym, Date: start.AddDate(0, 0, i), Close: price}
	}
	return out
}

type fakeSource struct {
	mu    sync.Mutex
	data  map[string][]models.PriceObservation
	errs  map[string]error
	calls map[string]int
}

func (f *fakeSource) FetchDaily(_ context.Context, symbol string, _, _ time.Time) ([]models.PriceObservation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.calls == nil {
		f.calls = map[string]int{}
	}
	f.calls[symbol]++
	if err := f.errs[symbol]; err != nil {
		return nil, err
	}
	return f.data[symbol], nil
}

func (f *fakeSource) total() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		n += c
	}
	return n
}

type fakeExpiries struct {
	entries []models.ExpiryEntry
	err     error
	ticker  string
}

func (f *fakeExpiries) Expiries(_ context.Context, ticker string, _ []models.ContractSymbol) ([]models.ExpiryEntry, error) {
	f.ticker = ticker
	return f.entries, f.err
}

// brentSource prices CO Z25/M27 and CO Z24/M26 on 20 shared days each.
func brentSource() *fakeSource {
	return &fakeSource{data: map[string][]models.PriceObservation{
		"COZ25": closes("COZ25", day(2025, time.September, 1), 20, 80),
		"COM27": closes("COM27", day(2025, time.September, 1), 20, 70),
		"COZ24": closes("COZ24", day(2024, time.September, 1), 20, 90),
		"COM26": closes("COM26", day(2024, time.September, 1), 20, 85),
	}}
}

func brentExpiries() *fakeExpiries {
	return &fakeExpiries{entries: []models.ExpiryEntry{
		{Ticker: "CO", MonthCode: models.December, LastTrade: day(2024, time.November, 28)},
		{Ticker: "CO", MonthCode: models.December, LastTrade: day(2025, time.November, 27)},
	}}
}

func brentDefinition() models.SpreadDefinition {
	return models.SpreadDefinition{
		Name:      "Brent Dec-Jun",
		YearsBack: 2,
		Group:     "Crude",
		Region:    "Europe",
		Month:     "Dec",
		Legs: []models.LegSpec{
			models.NewLeg("CO", models.December, 0, 1, 1),
			models.NewLeg("CO", models.June, 1, -1, 1),
		},
	}
}

func newTestBuilder(t *testing.T, src *fakeSource, exp *fakeExpiries, log *logger.Logger) *SpreadBuilder {
	t.Helper()
	if log == nil {
		log = logger.NewWriter(io.Discard, zerolog.DebugLevel)
	}
	policy := retry.New(
		retry.WithMaxAttempts(2),
		retry.WithSleeper(func(context.Context, time.Duration) error { return nil }),
	)
	fetcher := marketdata.NewFetcher(src, policy, log, nil)
	return NewSpreadBuilder(fetcher, exp, spread.DefaultOptions(), log, fixedClock)
}

type memStore struct {
	rows     []models.SpreadRecord
	calls    []string
	writeErr error
}

func (m *memStore) Init(context.Context) error { return nil }

func (m *memStore) Replace(_ context.Context, r []models.SpreadRecord) error {
	m.calls = append(m.calls, "replace")
	if m.writeErr != nil {
		return m.writeErr
	}
	m.rows = append([]models.SpreadRecord(nil), r...)
	return nil
}

func (m *memStore) Append(_ context.Context, r []models.SpreadRecord) error {
	m.calls = append(m.calls, "append")
	m.rows = append(m.rows, r...)
	return m.writeErr
}

func (m *memStore) ReplaceInstrument(_ context.Context, r []models.SpreadRecord) error {
	m.calls = append(m.calls, "replace_instrument")
	m.rows = append(m.rows, r...)
	return m.writeErr
}

func (m *memStore) Query(_ context.Context, f models.SpreadFilter) ([]models.SpreadRecord, error) {
	var out []models.SpreadRecord
	for _, r := range m.rows {
		if f.Matches(r) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memStore) Distinct(_ context.Context, column string, f models.SpreadFilter) ([]string, error) {
	seen := map[string]bool{}
	var out []string
	for _, r := range m.rows {
		if !f.Matches(r) {
			continue
		}
		var v string
		switch column {
		case "Group":
			v = r.Group
		case "Region":
			v = r.Region
		case "InstrumentName":
			v = r.InstrumentName
		case "Month":
			v = r.Month
		default:
			return nil, errors.New("unknown column")
		}
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	return out, nil
}

func (m *memStore) Health(context.Context) error { return nil }
func (m *memStore) Close() error                 { return nil }

type message struct {
	topic   string
	payload interface{}
}

type fakePublisher struct {
	events   []models.BuildEvent
	messages []message
}

func (p *fakePublisher) PublishBuild(_ context.Context, ev models.BuildEvent) error {
	p.events = append(p.events, ev)
	return nil
}

func (p *fakePublisher) PublishMessage(_ context.Context, topic string, payload interface{}) error {
	p.messages = append(p.messages, message{topic: topic, payload: payload})
	return nil
}

func (p *fakePublisher) Close() error { return nil }

type fakeArchiver struct {
	runID string
	rows  int
}

func (a *fakeArchiver) Archive(_ context.Context, runID string, _ time.Time, r []models.SpreadRecord) (string, error) {
	a.runID = runID
	a.rows = len(r)
	return "mem://" + runID, nil
}

type fakeMetrics struct {
	builds   map[string]int
	warnings map[string]int
	writes   []string
	pushed   int
}

func newFakeMetrics() *fakeMetrics {
	return &fakeMetrics{builds: map[string]int{}, warnings: map[string]int{}}
}

func (m *fakeMetrics) RecordBuild(_, status string, _ int, _ float64) { m.builds[status]++ }
func (m *fakeMetrics) RecordFetch(string, int)                        {}
func (m *fakeMetrics) RecordWarning(kind string)                      { m.warnings[kind]++ }
func (m *fakeMetrics) RecordStoreWrite(backend, mode string, _ int, _ error) {
	m.writes = append(m.writes, backend+"/"+mode)
}
func (m *fakeMetrics) Push(context.Context) error { m.pushed++; return nil }
