package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/vialac/vialac/internal/database/repository"
)

// ErrAnimalNotFound is returned when a tag number has no herd record.
var ErrAnimalNotFound = errors.New("animal not found")

// pendingCheckDays is how long an inseminated cow waits before a pregnancy check.
const pendingCheckDays = 30

// Alert is a flag shown on an animal sheet.
type Alert struct {
	Kind    string
	Message string
	Color   string
}

// Sheet is the chute view of one animal.
type Sheet struct {
	Tag       string
	State     string
	Milk      float64
	DIM       string
	Lactation string
	Sire      string
	Alerts    []Alert
}

// ReproCounts buckets the herd by current reproductive state.
type ReproCounts struct {
	Pregnant    int
	Inseminated int
	Rejected    int
	Open        int
}

// Dashboard is the herd summary.
type Dashboard struct {
	TotalAnimals int
	AvgLiters    float64
	HealthAlerts string
	Repro        ReproCounts
}

// HerdService answers herd queries.
type HerdService struct {
	Herd *repository.HerdRepo
}

// Sheet looks an animal up by tag number and derives its alerts.
func (s *HerdService) Sheet(ctx context.Context, tag string) (Sheet, error) {
	tag = strings.TrimSpace(tag)
	if tag == "" {
		return Sheet{}, fmt.Errorf("%w: empty tag", ErrAnimalNotFound)
	}
	rec, err := s.Herd.Sheet(ctx, tag)
	if err != nil {
		return Sheet{}, fmt.Errorf("herd sheet %s: %w", tag, err)
	}
	if rec == nil {
		return Sheet{}, fmt.Errorf("%w: %s", ErrAnimalNotFound, tag)
	}
	out := Sheet{
		Tag:       rec.ID,
		State:     rec.CurrentState,
		DIM:       deref(rec.DaysInMilk, "-"),
		Lactation: deref(rec.Lactation, "-"),
		Sire:      deref(rec.Sire, "-"),
	}
	if rec.LastMilk != nil {
		out.Milk = *rec.LastMilk
	}
	var ddp int64
	if rec.DaysPregnant != nil {
		ddp = *rec.DaysPregnant
	}
	if strings.Contains(strings.ToUpper(rec.CurrentState), "INS") && ddp > pendingCheckDays {
		out.Alerts = append(out.Alerts, Alert{Kind: "repro", Message: "⚠️ TACTO PENDIENTE", Color: "#f1e05a"})
	}
	return out, nil
}

// List returns the whole herd for the chute table.
func (s *HerdService) List(ctx context.Context) ([]repository.HerdEntry, error) {
	list, err := s.Herd.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("herd list: %w", err)
	}
	return list, nil
}

// Dashboard summarises herd size, milk average and reproductive buckets.
func (s *HerdService) Dashboard(ctx context.Context) (Dashboard, error) {
	list, err := s.Herd.List(ctx)
	if err != nil {
		return Dashboard{}, fmt.Errorf("dashboard: %w", err)
	}
	d := Dashboard{TotalAnimals: len(list), HealthAlerts: "Ok"}
	var liters float64
	for _, e := range list {
		liters += e.LastMilk
		d.Repro.add(e.Repro)
	}
	if len(list) > 0 {
		d.AvgLiters = round(liters/float64(len(list)), 1)
	}
	d.Repro.Open = max(0, d.TotalAnimals-(d.Repro.Pregnant+d.Repro.Inseminated+d.Repro.Rejected))
	return d, nil
}

// add places a state in at most one bucket; the first match wins.
func (c *ReproCounts) add(state string) {
	s := strings.ToUpper(state)
	switch {
	case strings.Contains(s, "PRE"):
		c.Pregnant++
	case (strings.Contains(s, "INS") || s == "IA") && !strings.Contains(s, "VAC"):
		c.Inseminated++
	case strings.Contains(s, "RECH"):
		c.Rejected++
	}
}

func deref(p *string, fallback string) string {
	if p == nil || strings.TrimSpace(*p) == "" {
		return fallback
	}
	return *p
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
