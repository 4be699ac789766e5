package marketdata

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"RollSpread/internal/domain/models"
	"RollSpread/pkg/util"
)

// CSVSource reads {dir}/{symbol}.csv files with a header containing "date"
// and "close" columns (any case, any order).
type CSVSource struct {
	dir string
}

func NewCSVSource(dir string) *CSVSource {
	return &CSVSource{dir: dir}
}

// FetchDaily implements repository.PriceSource. A missing file means no data.
func (s *CSVSource) FetchDaily(ctx context.Context, symbol string, start, end time.Time) ([]models.PriceObservation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	name := strings.NewReplacer("/", "_", "\\", "_").Replace(symbol) + ".csv"
	f, err := os.Open(filepath.Join(s.dir, name))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("open prices %s: %w", symbol, err)
	}
	defer f.Close()

	obs, err := readCloses(f, symbol)
	if err != nil {
		return nil, fmt.Errorf("read prices %s: %w", symbol, err)
	}

	from, to := util.DateOf(start), end
	out := obs[:0]
	for _, o := range obs {
		if o.Date.Before(from) || o.Date.After(to) {
			continue
		}
		out = append(out, o)
	}
	return out, nil
}

func readCloses(r io.Reader, symbol string) ([]models.PriceObservation, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, err
	}
	dateCol, closeCol := -1, -1
	for i, h := range header {
		switch strings.ToLower(strings.TrimSpace(h)) {
		case "date":
			dateCol = i
		case "close":
			closeCol = i
		}
	}
	if dateCol < 0 || closeCol < 0 {
		return nil, fmt.Errorf("header needs date and close columns, got %v", header)
	}

	var out []models.PriceObservation
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		raw := strings.TrimSpace(rec[closeCol])
		if raw == "" {
			continue
		}
		d, err := util.ParseDate(rec[dateCol])
		if err != nil {
			return nil, err
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("close %q: %w", raw, err)
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		out = append(out, models.PriceObservation{Symbol: symbol, Date: d, Close: v})
	}
	return out, nil
}
