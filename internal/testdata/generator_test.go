package testdata

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vialac/vialac/internal/database"
	"github.com/vialac/vialac/internal/database/repository"
	"github.com/vialac/vialac/internal/service"
)

func TestSeedIsDeterministic(t *testing.T) {
	ctx := context.Background()
	lists := make([][]repository.HerdEntry, 2)
	for i := range lists {
		path := filepath.Join(t.TempDir(), "seed.db")
		require.NoError(t, database.RunMigrations(path))
		db, err := database.Open(path)
		require.NoError(t, err)
		require.NoError(t, Seed(ctx, db, 25, 42))
		lists[i], err = repository.NewHerdRepo(db).List(ctx)
		require.NoError(t, err)
		require.NoError(t, db.Close())
	}
	require.Len(t, lists[0], 25)
	require.Equal(t, lists[0], lists[1])
}

func TestSeedFeedsDashboard(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "seed.db")
	require.NoError(t, database.RunMigrations(path))
	db, err := database.Open(path)
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, Seed(ctx, db, 40, 7))
	require.NoError(t, Seed(ctx, db, 10, 7))

	d, err := (&service.HerdService{Herd: repository.NewHerdRepo(db)}).Dashboard(ctx)
	require.NoError(t, err)
	require.Equal(t, 10, d.TotalAnimals)
	r := d.Repro
	require.Equal(t, 10, r.Pregnant+r.Inseminated+r.Rejected+r.Open)
	require.Greater(t, d.AvgLiters, 0.0)
}

func TestWriteTrend(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trend.csv")
	require.NoError(t, WriteTrend(path, 45, 1))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(string(raw), "FECHA,LITROS\n"))

	trend, err := (&service.TrendService{Path: path}).Latest()
	require.NoError(t, err)
	require.Len(t, trend.Values, 30)
	require.Equal(t, database.Now().Format("2006-01-02"), trend.Labels[29])
}
