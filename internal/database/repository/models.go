package repository

import (
	"context"
	"database/sql"
)

// dbtx is satisfied by *sql.DB and *sql.Tx so repos can join a transaction.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Animal represents a hato row.
type Animal struct {
	ID           string
	Name         *string
	Breed        *string
	State        *string
	EntryDate    *string
	LastCalving  *string
	LastMilk     *float64
	DaysInMilk   *string
	Lactation    *string
	DaysPregnant *int64
}

// AnimalSheet is an animal joined with its latest event and sire.
type AnimalSheet struct {
	Animal
	CurrentState string
	Sire         *string
}

// HerdEntry is one row of the chute list.
type HerdEntry struct {
	ID       string
	Repro    string
	LastMilk float64
}

// Event represents an eventos row.
type Event struct {
	ID       int64
	AnimalID string
	Type     string
	Result   string
	Date     string
}

// Production represents a produccion row.
type Production struct {
	ID       int64
	AnimalID string
	Liters   float64
	Date     string
}

// Genealogy represents a genealogia row.
type Genealogy struct {
	ID   string
	Sire *string
	Dam  *string
}
