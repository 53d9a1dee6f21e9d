package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/vialac/vialac/internal/database"
	"github.com/vialac/vialac/internal/database/repository"
)

// ErrInvalidInput marks a registration rejected before touching storage.
var ErrInvalidInput = errors.New("invalid input")

// RecordService registers chute events and milkings.
type RecordService struct {
	DB *sql.DB
}

// RegisterEvent stores a reproductive or health event for an animal.
func (s *RecordService) RegisterEvent(ctx context.Context, tag, kind, result string) error {
	tag, kind, result = strings.TrimSpace(tag), strings.ToUpper(strings.TrimSpace(kind)), strings.TrimSpace(result)
	if tag == "" {
		return fmt.Errorf("%w: caravana requerida", ErrInvalidInput)
	}
	if kind == "" {
		return fmt.Errorf("%w: tipo requerido", ErrInvalidInput)
	}
	events := repository.NewEventRepo(s.DB)
	if _, err := events.Insert(ctx, repository.Event{AnimalID: tag, Type: kind, Result: result}); err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

// RegisterMilking stores one milking and updates the animal's last yield.
func (s *RecordService) RegisterMilking(ctx context.Context, tag string, liters float64) error {
	tag = strings.TrimSpace(tag)
	if tag == "" {
		return fmt.Errorf("%w: caravana requerida", ErrInvalidInput)
	}
	if liters <= 0 {
		return fmt.Errorf("%w: litros debe ser positivo", ErrInvalidInput)
	}
	return database.WithTx(ctx, s.DB, func(tx *sql.Tx) error {
		if _, err := repository.NewProductionRepo(s.DB).WithTx(tx).Insert(ctx, tag, liters); err != nil {
			return fmt.Errorf("insert milking: %w", err)
		}
		if _, err := repository.NewHerdRepo(s.DB).WithTx(tx).UpdateLastMilk(ctx, tag, liters); err != nil {
			return fmt.Errorf("update last milk: %w", err)
		}
		return nil
	})
}
