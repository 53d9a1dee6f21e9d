// Package testdata generates a plausible sample herd for demos and tests.
package testdata

import (
	"context"
	"database/sql"
	"encoding/csv"
	"fmt"
	"math"
	"math/rand/v2"
	"os"
	"strconv"
	"time"

	"github.com/vialac/vialac/internal/database"
	"github.com/vialac/vialac/internal/database/repository"
)

var (
	states = []string{"Preñada", "Inseminada", "Inseminada", "Vacía", "Rechazo", "IA"}
	sires  = []string{"TORO-7", "SUPERSIRE", "MOGUL", "DELTA LAMBDA", "BEEMER"}
	breeds = []string{"Holando", "Jersey", "Holando x Jersey"}
)

// FirstTag is the caravana of the first generated animal.
const FirstTag = 1000

// Seed replaces the herd with n generated animals, their latest events,
// sires and one milking each. The same seed yields the same herd.
func Seed(ctx context.Context, db *sql.DB, n int, seed uint64) error {
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	return database.WithTx(ctx, db, func(tx *sql.Tx) error {
		herd := repository.NewHerdRepo(db).WithTx(tx)
		events := repository.NewEventRepo(db).WithTx(tx)
		genealogy := repository.NewGenealogyRepo(db).WithTx(tx)
		production := repository.NewProductionRepo(db).WithTx(tx)
		if err := herd.DeleteAll(ctx); err != nil {
			return err
		}
		if err := events.DeleteAll(ctx); err != nil {
			return err
		}
		if err := genealogy.DeleteAll(ctx); err != nil {
			return err
		}

		today := database.Now()
		for i := 0; i < n; i++ {
			tag := strconv.Itoa(FirstTag + i)
			state := states[rng.IntN(len(states))]
			breed := breeds[rng.IntN(len(breeds))]
			liters := math.Round((12+rng.Float64()*22)*10) / 10
			dim := strconv.Itoa(5 + rng.IntN(300))
			lact := strconv.Itoa(1 + rng.IntN(5))
			ddp := int64(rng.IntN(90))
			calving := today.AddDate(0, 0, -(30 + rng.IntN(300))).Format(time.DateOnly)

			a := repository.Animal{
				ID:           tag,
				Breed:        &breed,
				State:        &state,
				LastCalving:  &calving,
				LastMilk:     &liters,
				DaysInMilk:   &dim,
				Lactation:    &lact,
				DaysPregnant: &ddp,
			}
			if err := herd.Upsert(ctx, a); err != nil {
				return fmt.Errorf("seed animal %s: %w", tag, err)
			}
			if state == "Inseminada" || state == "Preñada" {
				when := today.AddDate(0, 0, -int(ddp)).Format(time.DateTime)
				if _, err := events.Insert(ctx, repository.Event{AnimalID: tag, Type: "SERVICIO", Result: state, Date: when}); err != nil {
					return fmt.Errorf("seed event %s: %w", tag, err)
				}
			}
			sire := sires[rng.IntN(len(sires))]
			if err := genealogy.Upsert(ctx, repository.Genealogy{ID: tag, Sire: &sire}); err != nil {
				return fmt.Errorf("seed genealogy %s: %w", tag, err)
			}
			if _, err := production.Insert(ctx, tag, liters); err != nil {
				return fmt.Errorf("seed milking %s: %w", tag, err)
			}
		}
		return nil
	})
}

// WriteTrend writes a FECHA,LITROS export with one row per day ending today.
func WriteTrend(path string, days int, seed uint64) error {
	rng := rand.New(rand.NewPCG(seed, seed+1))
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create trend: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"FECHA", "LITROS"}); err != nil {
		return err
	}
	start := database.Now().AddDate(0, 0, -days+1)
	base := 1400 + rng.Float64()*200
	for d := 0; d < days; d++ {
		base += rng.NormFloat64() * 15
		day := start.AddDate(0, 0, d).Format(time.DateOnly)
		if err := w.Write([]string{day, strconv.FormatFloat(math.Round(base*10)/10, 'f', 1, 64)}); err != nil {
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("write trend: %w", err)
	}
	return nil
}
