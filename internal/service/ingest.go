package service

import (
	"bufio"
	"context"
	"database/sql"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/vialac/vialac/internal/database"
	"github.com/vialac/vialac/internal/database/repository"
)

// Export file names produced by the herd software.
const (
	HerdFile      = "VACAS_LF.csv"
	HistoryFile   = "HISTORIAL_REPRODUCCION.csv"
	GenealogyFile = "GENEALOGIA Y SALUD.csv"
)

// IngestService loads the herd CSV exports, replacing each table wholesale.
type IngestService struct {
	DB *sql.DB
}

// FileResult summarises one imported file.
type FileResult struct {
	File     string
	Imported int
	Errors   []error
}

// IngestResult lists the files that were present, in import order.
type IngestResult struct {
	Files []FileResult
}

// ImportDir imports every known export found in dir. Missing files are skipped.
func (s *IngestService) ImportDir(ctx context.Context, dir string) (IngestResult, error) {
	var res IngestResult
	steps := []struct {
		name string
		load func(ctx context.Context, tx *sql.Tx, t *csvTable) FileResult
	}{
		{HerdFile, s.loadHerd},
		{HistoryFile, s.loadHistory},
		{GenealogyFile, s.loadGenealogy},
	}
	for _, step := range steps {
		path := filepath.Join(dir, step.name)
		f, err := os.Open(path)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return res, fmt.Errorf("open %s: %w", step.name, err)
		}
		table, err := readCSVTable(f)
		_ = f.Close()
		if err != nil {
			return res, fmt.Errorf("read %s: %w", step.name, err)
		}
		var fr FileResult
		if err := database.WithTx(ctx, s.DB, func(tx *sql.Tx) error {
			fr = step.load(ctx, tx, table)
			return ctx.Err()
		}); err != nil {
			return res, fmt.Errorf("import %s: %w", step.name, err)
		}
		fr.File = step.name
		res.Files = append(res.Files, fr)
	}
	return res, nil
}

func (s *IngestService) loadHerd(ctx context.Context, tx *sql.Tx, t *csvTable) FileResult {
	repo := repository.NewHerdRepo(s.DB).WithTx(tx)
	res := FileResult{}
	if err := repo.DeleteAll(ctx); err != nil {
		res.Errors = append(res.Errors, err)
		return res
	}
	for i, rec := range t.rows {
		line := i + 2
		id := t.get(rec, "ID", "ID_VACA", "CARAVANA")
		if id == "" {
			res.Errors = append(res.Errors, fmt.Errorf("line %d: missing ID", line))
			continue
		}
		a := repository.Animal{
			ID:         id,
			Name:       nullableStr(t.get(rec, "NOMBRE")),
			Breed:      nullableStr(t.get(rec, "RAZA")),
			State:      nullableStr(t.get(rec, "RPRO", "ESTADO")),
			DaysInMilk: nullableStr(t.get(rec, "DEL")),
			Lactation:  nullableStr(t.get(rec, "LACT")),
		}
		if v, ok := parseNumber(t.get(rec, "LECHE", "ULT_LECHE")); ok {
			a.LastMilk = &v
		}
		if v, ok := parseNumber(t.get(rec, "DDP")); ok {
			d := int64(math.Round(v))
			a.DaysPregnant = &d
		}
		if err := repo.Upsert(ctx, a); err != nil {
			res.Errors = append(res.Errors, fmt.Errorf("line %d insert: %w", line, err))
			continue
		}
		res.Imported++
	}
	return res
}

func (s *IngestService) loadHistory(ctx context.Context, tx *sql.Tx, t *csvTable) FileResult {
	repo := repository.NewEventRepo(s.DB).WithTx(tx)
	res := FileResult{}
	if err := repo.DeleteAll(ctx); err != nil {
		res.Errors = append(res.Errors, err)
		return res
	}
	for i, rec := range t.rows {
		line := i + 2
		e := repository.Event{
			AnimalID: t.get(rec, "ID", "ID_VACA", "CARAVANA"),
			Type:     t.get(rec, "TIPO_EVENTO", "TIPO", "EVENTO"),
			Result:   t.get(rec, "RESULTADO", "RPRO"),
			Date:     t.get(rec, "FECHA"),
		}
		if e.AnimalID == "" {
			res.Errors = append(res.Errors, fmt.Errorf("line %d: missing ID", line))
			continue
		}
		if _, err := repo.Insert(ctx, e); err != nil {
			res.Errors = append(res.Errors, fmt.Errorf("line %d insert: %w", line, err))
			continue
		}
		res.Imported++
	}
	return res
}

func (s *IngestService) loadGenealogy(ctx context.Context, tx *sql.Tx, t *csvTable) FileResult {
	repo := repository.NewGenealogyRepo(s.DB).WithTx(tx)
	res := FileResult{}
	if err := repo.DeleteAll(ctx); err != nil {
		res.Errors = append(res.Errors, err)
		return res
	}
	for i, rec := range t.rows {
		line := i + 2
		id := t.get(rec, "ID", "ID_VACA")
		if id == "" {
			res.Errors = append(res.Errors, fmt.Errorf("line %d: missing ID", line))
			continue
		}
		g := repository.Genealogy{
			ID:   id,
			Sire: nullableStr(t.get(rec, "PAD", "PADRE")),
			Dam:  nullableStr(t.get(rec, "MAD", "MADRE")),
		}
		if err := repo.Upsert(ctx, g); err != nil {
			res.Errors = append(res.Errors, fmt.Errorf("line %d insert: %w", line, err))
			continue
		}
		res.Imported++
	}
	return res
}

// csvTable is a headered CSV addressed by upper-cased column name.
type csvTable struct {
	cols map[string]int
	rows [][]string
}

func readCSVTable(r io.Reader) (*csvTable, error) {
	csvr := csv.NewReader(bufio.NewReader(r))
	csvr.TrimLeadingSpace = true
	csvr.FieldsPerRecord = -1

	header, err := csvr.Read()
	if err == io.EOF {
		return &csvTable{cols: map[string]int{}}, nil
	}
	if err != nil {
		return nil, err
	}
	t := &csvTable{cols: make(map[string]int, len(header))}
	for i, h := range header {
		key := strings.ToUpper(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		if _, dup := t.cols[key]; !dup {
			t.cols[key] = i
		}
	}
	for {
		rec, err := csvr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		t.rows = append(t.rows, rec)
	}
	return t, nil
}

// get returns the first non-empty value among the aliased columns.
func (t *csvTable) get(rec []string, names ...string) string {
	for _, n := range names {
		idx, ok := t.cols[n]
		if !ok || idx >= len(rec) {
			continue
		}
		if v := strings.TrimSpace(rec[idx]); v != "" {
			return v
		}
	}
	return ""
}

// parseNumber accepts both "28.5" and "28,5".
func parseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	if !strings.Contains(s, ".") {
		s = strings.ReplaceAll(s, ",", ".")
	} else {
		s = strings.ReplaceAll(s, ",", "")
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func nullableStr(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
