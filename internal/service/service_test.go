package service

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/vialac/vialac/internal/database"
	"github.com/vialac/vialac/internal/database/repository"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	require.NoError(t, database.RunMigrations(path))
	db, err := database.Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func writeFile(t *testing.T, dir, name string, lines ...string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(strings.Join(lines, "\n")+"\n"), 0o600))
}

func TestImportDirAndSheet(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	db := openTestDB(t)
	dir := t.TempDir()

	writeFile(t, dir, HerdFile,
		"ID,RPRO,LECHE,DEL,LACT,DDP,EXTRA",
		"123,Inseminada,28.5,120,2,45,x",
		"124,Preñada,\"31,2\",80,1,10,y",
		",Vacía,10,1,1,0,z",
	)
	writeFile(t, dir, GenealogyFile,
		"ID,PAD,MAD",
		"123,TORO-7,9001",
	)

	svc := &IngestService{DB: db}
	res, err := svc.ImportDir(ctx, dir)
	require.NoError(t, err)
	require.Len(t, res.Files, 2)
	require.Equal(t, HerdFile, res.Files[0].File)
	require.Equal(t, 2, res.Files[0].Imported)
	require.Len(t, res.Files[0].Errors, 1)
	require.Equal(t, 1, res.Files[1].Imported)

	herd := &HerdService{Herd: repository.NewHerdRepo(db)}
	sheet, err := herd.Sheet(ctx, "123")
	require.NoError(t, err)
	require.Equal(t, "Inseminada", sheet.State)
	require.Equal(t, 28.5, sheet.Milk)
	require.Equal(t, "TORO-7", sheet.Sire)
	require.Equal(t, "120", sheet.DIM)
	require.Len(t, sheet.Alerts, 1)
	require.Equal(t, "#f1e05a", sheet.Alerts[0].Color)

	other, err := herd.Sheet(ctx, "124")
	require.NoError(t, err)
	require.Equal(t, 31.2, other.Milk)
	require.Equal(t, "-", other.Sire)
	require.Empty(t, other.Alerts)

	_, err = herd.Sheet(ctx, "999")
	require.ErrorIs(t, err, ErrAnimalNotFound)
}

func TestImportReplacesHerd(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := openTestDB(t)
	dir := t.TempDir()
	svc := &IngestService{DB: db}

	writeFile(t, dir, HerdFile, "ID,RPRO", "1,Seca", "2,Seca")
	_, err := svc.ImportDir(ctx, dir)
	require.NoError(t, err)
	writeFile(t, dir, HerdFile, "ID,RPRO", "3,Seca")
	_, err = svc.ImportDir(ctx, dir)
	require.NoError(t, err)

	list, err := repository.NewHerdRepo(db).List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, "3", list[0].ID)
}

func TestDashboardBuckets(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := openTestDB(t)
	herdRepo := repository.NewHerdRepo(db)

	states := map[string]string{"1": "Preñada", "2": "Inseminada", "3": "IA", "4": "Rechazo", "5": "Vacía"}
	milk := map[string]float64{"1": 20, "2": 25, "3": 30, "4": 0, "5": 10}
	for id, st := range states {
		st := st
		m := milk[id]
		require.NoError(t, herdRepo.Upsert(ctx, repository.Animal{ID: id, State: &st, LastMilk: &m}))
	}

	d, err := (&HerdService{Herd: herdRepo}).Dashboard(ctx)
	require.NoError(t, err)
	require.Equal(t, 5, d.TotalAnimals)
	require.Equal(t, 17.0, d.AvgLiters)
	require.Equal(t, "Ok", d.HealthAlerts)
	require.Equal(t, ReproCounts{Pregnant: 1, Inseminated: 2, Rejected: 1, Open: 1}, d.Repro)
}

func TestDashboardBucketsAreExclusive(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	herdRepo := repository.NewHerdRepo(openTestDB(t))

	for id, st := range map[string]string{"1": "PREÑADA RECHAZO", "2": "INSEMINADA RECHAZO"} {
		st := st
		require.NoError(t, herdRepo.Upsert(ctx, repository.Animal{ID: id, State: &st}))
	}

	d, err := (&HerdService{Herd: herdRepo}).Dashboard(ctx)
	require.NoError(t, err)
	require.Equal(t, ReproCounts{Pregnant: 1, Inseminated: 1}, d.Repro)
	r := d.Repro
	require.Equal(t, d.TotalAnimals, r.Pregnant+r.Inseminated+r.Rejected+r.Open)
}

func TestDashboardEmptyHerd(t *testing.T) {
	t.Parallel()
	d, err := (&HerdService{Herd: repository.NewHerdRepo(openTestDB(t))}).Dashboard(context.Background())
	require.NoError(t, err)
	require.Zero(t, d.TotalAnimals)
	require.Zero(t, d.AvgLiters)
}

func TestRegisterEventChangesCurrentState(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := openTestDB(t)
	herdRepo := repository.NewHerdRepo(db)
	require.NoError(t, herdRepo.Upsert(ctx, repository.Animal{ID: "77"}))

	rec := &RecordService{DB: db}
	require.NoError(t, rec.RegisterEvent(ctx, "77", "tacto", "Preñada"))
	require.ErrorIs(t, rec.RegisterEvent(ctx, "", "IA", "x"), ErrInvalidInput)
	require.ErrorIs(t, rec.RegisterEvent(ctx, "77", " ", "x"), ErrInvalidInput)

	sheet, err := (&HerdService{Herd: herdRepo}).Sheet(ctx, "77")
	require.NoError(t, err)
	require.Equal(t, "Preñada", sheet.State)

	events, err := repository.NewEventRepo(db).ListByAnimal(ctx, "77")
	require.NoError(t, err)
	require.Equal(t, "TACTO", events[0].Type)
}

func TestRegisterMilking(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := openTestDB(t)
	herdRepo := repository.NewHerdRepo(db)
	require.NoError(t, herdRepo.Upsert(ctx, repository.Animal{ID: "9"}))

	rec := &RecordService{DB: db}
	require.NoError(t, rec.RegisterMilking(ctx, "9", 33.4))
	require.ErrorIs(t, rec.RegisterMilking(ctx, "9", 0), ErrInvalidInput)

	sheet, err := (&HerdService{Herd: herdRepo}).Sheet(ctx, "9")
	require.NoError(t, err)
	require.Equal(t, 33.4, sheet.Milk)

	prod, err := repository.NewProductionRepo(db).ListByAnimal(ctx, "9")
	require.NoError(t, err)
	require.Len(t, prod, 1)
}

func TestAnalyzeMilk(t *testing.T) {
	_, ok := AnalyzeMilk(nil)
	require.False(t, ok)

	q, ok := AnalyzeMilk([]MilkRecord{
		{Liters: 100.123, Fat: 3.5, Protein: 3.2},
		{Liters: 50, Fat: 3.7, Protein: 3.2},
	})
	require.True(t, ok)
	require.Equal(t, MilkQuality{TotalLiters: 150.12, AvgFat: 3.6, AvgProtein: 3.2}, q)
}

func TestCheckMixer(t *testing.T) {
	alerts := CheckMixer([]MixerLoad{
		{ID: "1", Ingredient: "heno de alfalfa", MixOrder: 2, RealKg: 500, TheoreticKg: 500},
		{ID: "2", Ingredient: "Silo de Maíz", MixOrder: 1, RealKg: 1100, TheoreticKg: 1000},
		{ID: "3", Ingredient: "Heno de Alfafa", MixOrder: 1, RealKg: 510, TheoreticKg: 500},
		{ID: "4", Ingredient: "Expeller de soja", MixOrder: 3, RealKg: 200, TheoreticKg: 200},
	})
	require.Equal(t, []string{
		"CRÍTICO: Alfalfa fuera de orden en carga 1",
		"ADVERTENCIA: Carga Silo de Maíz con error > 5%",
	}, alerts)
	require.Empty(t, CheckMixer(nil))
}

func TestTrendLatest(t *testing.T) {
	dir := t.TempDir()
	lines := []string{"FECHA,LITROS"}
	for i := 1; i <= 35; i++ {
		lines = append(lines, time.Date(2026, 1, i, 0, 0, 0, 0, time.UTC).Format(time.DateOnly)+",1000")
	}
	writeFile(t, dir, "prod.csv", lines...)

	trend, err := (&TrendService{Path: filepath.Join(dir, "prod.csv")}).Latest()
	require.NoError(t, err)
	require.Len(t, trend.Labels, 30)
	require.Equal(t, "2026-01-06", trend.Labels[0])
	require.Equal(t, 1000.0, trend.Values[29])

	_, err = (&TrendService{Path: filepath.Join(dir, "missing.csv")}).Latest()
	require.ErrorIs(t, err, ErrTrendNotFound)
}
