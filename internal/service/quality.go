package service

import (
	"fmt"
	"strings"

	"github.com/agnivade/levenshtein"
)

// AlfalfaHay must always be the first load in the mixer.
const AlfalfaHay = "Heno de Alfalfa"

// maxDeviation is the tolerated share of the theoretical load weight.
const maxDeviation = 0.05

// MilkRecord is one tank sample.
type MilkRecord struct {
	Liters  float64
	Fat     float64
	Protein float64
}

// MilkQuality is the aggregate of a batch of samples.
type MilkQuality struct {
	TotalLiters float64
	AvgFat      float64
	AvgProtein  float64
}

// AnalyzeMilk totals liters and averages fat and protein.
// ok is false for an empty batch.
func AnalyzeMilk(records []MilkRecord) (q MilkQuality, ok bool) {
	if len(records) == 0 {
		return MilkQuality{}, false
	}
	var liters, fat, protein float64
	for _, r := range records {
		liters += r.Liters
		fat += r.Fat
		protein += r.Protein
	}
	n := float64(len(records))
	return MilkQuality{
		TotalLiters: round(liters, 2),
		AvgFat:      round(fat/n, 2),
		AvgProtein:  round(protein/n, 2),
	}, true
}

// MixerLoad is one ingredient dropped into the feed mixer.
type MixerLoad struct {
	ID          string
	Ingredient  string
	MixOrder    int
	RealKg      float64
	TheoreticKg float64
}

// CheckMixer validates loading order and weight deviations.
func CheckMixer(loads []MixerLoad) []string {
	alerts := []string{}
	for _, c := range loads {
		if isAlfalfaHay(c.Ingredient) && c.MixOrder != 1 {
			alerts = append(alerts, fmt.Sprintf("CRÍTICO: Alfalfa fuera de orden en carga %s", c.ID))
		}
		dev := c.RealKg - c.TheoreticKg
		if dev < 0 {
			dev = -dev
		}
		if dev > c.TheoreticKg*maxDeviation {
			alerts = append(alerts, fmt.Sprintf("ADVERTENCIA: Carga %s con error > 5%%", c.Ingredient))
		}
	}
	return alerts
}

// isAlfalfaHay tolerates case differences and small typos from manual entry.
func isAlfalfaHay(name string) bool {
	n := strings.ToLower(strings.Join(strings.Fields(name), " "))
	if n == "" {
		return false
	}
	return levenshtein.ComputeDistance(n, strings.ToLower(AlfalfaHay)) <= 2
}
