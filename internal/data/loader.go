package data

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/floatband/bandscan/internal/models"
	"github.com/floatband/bandscan/pkg/logger"
)

// Column names expected in a session CSV. Matching is case-insensitive;
// the volume column is optional.
var requiredColumns = []string{"time", "open", "high", "low", "close"}

// Layouts tried in order when parsing the time column.
var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
}

// Loader reads session bar files from a base directory.
type Loader struct {
	baseDir string
}

// NewLoader creates a loader rooted at baseDir
func NewLoader(baseDir string) *Loader {
	return &Loader{baseDir: baseDir}
}

// LoadSession reads the named CSV file under the base directory and
// returns its bars in file order. The header is validated before any
// row is processed; a missing required column fails the whole load.
func (l *Loader) LoadSession(name string) ([]models.Bar, error) {
	path := name
	if l.baseDir != "" {
		path = filepath.Join(l.baseDir, name)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open session file: %w", err)
	}
	defer f.Close()

	bars, err := ReadBars(f)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}

	logger.Debug("session loaded",
		logger.String("file", name),
		logger.Int("bars", len(bars)),
	)
	return bars, nil
}

// ReadBars parses CSV bar data from r. The first record must be a
// header naming at least time, open, high, low and close.
func ReadBars(r io.Reader) ([]models.Bar, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("empty input: %w", models.ErrMissingColumn)
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	index, err := columnIndex(header)
	if err != nil {
		return nil, err
	}

	var bars []models.Bar
	row := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", row, err)
		}
		row++

		bar, err := parseBar(record, index)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", row, err)
		}
		bars = append(bars, bar)
	}
	return bars, nil
}

// columnIndex maps required and optional column names to their
// positions. All required columns must be present.
func columnIndex(header []string) (map[string]int, error) {
	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, name := range requiredColumns {
		if _, ok := index[name]; !ok {
			return nil, fmt.Errorf("column %q: %w", name, models.ErrMissingColumn)
		}
	}
	return index, nil
}

func parseBar(record []string, index map[string]int) (models.Bar, error) {
	field := func(name string) (string, bool) {
		i, ok := index[name]
		if !ok || i >= len(record) {
			return "", false
		}
		return strings.TrimSpace(record[i]), true
	}

	raw, _ := field("time")
	ts, err := parseTime(raw)
	if err != nil {
		return models.Bar{}, err
	}

	var bar models.Bar
	bar.Time = ts
	prices := []struct {
		name string
		dst  *float64
	}{
		{"open", &bar.Open},
		{"high", &bar.High},
		{"low", &bar.Low},
		{"close", &bar.Close},
	}
	for _, p := range prices {
		raw, _ := field(p.name)
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return models.Bar{}, fmt.Errorf("parse %s %q: %w", p.name, raw, models.ErrInvalidBar)
		}
		*p.dst = v
	}

	if raw, ok := field("volume"); ok && raw != "" {
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return models.Bar{}, fmt.Errorf("parse volume %q: %w", raw, models.ErrInvalidVolume)
		}
		bar.Volume = v
	}
	return bar, nil
}

func parseTime(raw string) (time.Time, error) {
	for _, layout := range timeLayouts {
		if ts, err := time.Parse(layout, raw); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("parse time %q: %w", raw, models.ErrInvalidTimestamp)
}
