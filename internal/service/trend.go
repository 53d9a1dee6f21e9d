package service

import (
	"errors"
	"fmt"
	"os"
)

// ErrTrendNotFound is returned when the production history export is missing.
var ErrTrendNotFound = errors.New("Archivo histórico no encontrado")

// trendWindow is how many trailing days the chart shows.
const trendWindow = 30

// Trend is a labelled production series.
type Trend struct {
	Labels []string
	Values []float64
}

// TrendService reads the daily production export (FECHA, LITROS columns).
type TrendService struct {
	Path string
}

// Latest returns the last trendWindow rows of the export.
func (s *TrendService) Latest() (Trend, error) {
	f, err := os.Open(s.Path)
	if errors.Is(err, os.ErrNotExist) {
		return Trend{}, ErrTrendNotFound
	}
	if err != nil {
		return Trend{}, fmt.Errorf("open trend: %w", err)
	}
	defer f.Close()

	table, err := readCSVTable(f)
	if err != nil {
		return Trend{}, fmt.Errorf("read trend: %w", err)
	}
	if _, ok := table.cols["FECHA"]; !ok {
		return Trend{}, fmt.Errorf("read trend: missing FECHA column")
	}
	if _, ok := table.cols["LITROS"]; !ok {
		return Trend{}, fmt.Errorf("read trend: missing LITROS column")
	}
	rows := table.rows
	if len(rows) > trendWindow {
		rows = rows[len(rows)-trendWindow:]
	}
	out := Trend{Labels: make([]string, 0, len(rows)), Values: make([]float64, 0, len(rows))}
	for _, rec := range rows {
		v, _ := parseNumber(table.get(rec, "LITROS"))
		out.Labels = append(out.Labels, table.get(rec, "FECHA"))
		out.Values = append(out.Values, v)
	}
	return out, nil
}
