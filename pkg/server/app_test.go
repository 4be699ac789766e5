package server

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"RollSpread/internal/domain/models"
	"RollSpread/internal/handler/batch"
	"RollSpread/internal/usecase"
	"RollSpread/pkg/config"
	applogger "RollSpread/pkg/logger"
)

type stubStore struct {
	rows   []models.SpreadRecord
	inited bool
	closed bool
}

func (s *stubStore) Init(context.Context) error {
	s.inited = true
	return nil
}
func (s *stubStore) Replace(context.Context, []models.SpreadRecord) error           { return nil }
func (s *stubStore) Append(context.Context, []models.SpreadRecord) error            { return nil }
func (s *stubStore) ReplaceInstrument(context.Context, []models.SpreadRecord) error { return nil }
func (s *stubStore) Query(_ context.Context, f models.SpreadFilter) ([]models.SpreadRecord, error) {
	var out []models.SpreadRecord
	for _, r := range s.rows {
		if f.Matches(r) {
			out = append(out, r)
		}
	}
	return out, nil
}
func (s *stubStore) Distinct(context.Context, string, models.SpreadFilter) ([]string, error) {
	return []string{"Crude"}, nil
}
func (s *stubStore) Health(context.Context) error { return nil }
func (s *stubStore) Close() error {
	s.closed = true
	return nil
}

type stubPublisher struct{ closed bool }

func (p *stubPublisher) PublishBuild(context.Context, models.BuildEvent) error       { return nil }
func (p *stubPublisher) PublishMessage(context.Context, string, interface{}) error { return nil }
func (p *stubPublisher) Close() error {
	p.closed = true
	return nil
}

const defsHeader = "Name,tickerList,contractMonthsList,yearOffsetList\n"

func newTestApp(t *testing.T, defs string, store *stubStore, pub *stubPublisher) *App {
	t.Helper()
	p := filepath.Join(t.TempDir(), "spreads.csv")
	require.NoError(t, os.WriteFile(p, []byte(defsHeader+defs), 0o644))

	cfg := &config.Config{}
	cfg.Input.DefinitionsFile = p

	log := applogger.NewNop()
	bb := usecase.NewBatchBuilder(nil, store, pub, usecase.WriteReplace, "clickhouse", log)
	report := usecase.NewSeasonalReport(store, nil, 0, 0, nil)
	return New(cfg, log, batch.NewHandler(bb, log), report, store, &Resources{Publisher: pub})
}

func TestRunFailsWhenNothingBuilds(t *testing.T) {
	store, pub := &stubStore{}, &stubPublisher{}
	app := newTestApp(t, "Bad,['A'],['Y'],[0]\n", store, pub)

	err := app.Run()
	require.Error(t, err)
	assert.True(t, store.inited)
	assert.True(t, store.closed)
	assert.True(t, pub.closed)
}

func TestSeasonalFromStoreWithOptions(t *testing.T) {
	store := &stubStore{rows: []models.SpreadRecord{{InstrumentName: "A", Group: "Crude", Spread: 1}}}
	app := newTestApp(t, "", store, &stubPublisher{})

	out, err := app.Seasonal(context.Background(), SeasonalQuery{
		Filter:      models.SpreadFilter{InstrumentName: "A"},
		WithOptions: true,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, out.Report.Rows)
	require.NotNil(t, out.Options)
	assert.Equal(t, []string{"Crude"}, out.Options.Groups)
}

func TestSeasonalDefinitionRowErrors(t *testing.T) {
	app := newTestApp(t, "Bad,['A'],['Y'],[0]\n", &stubStore{}, &stubPublisher{})

	_, err := app.Seasonal(context.Background(), SeasonalQuery{DefinitionRow: 2})
	assert.ErrorContains(t, err, "out of range")

	_, err = app.Seasonal(context.Background(), SeasonalQuery{DefinitionRow: 1})
	assert.ErrorContains(t, err, "definition line 2")
}
