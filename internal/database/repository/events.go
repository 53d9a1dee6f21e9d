package repository

import (
	"context"
	"database/sql"
)

// EventRepo handles eventos.
type EventRepo struct {
	db dbtx
}

func NewEventRepo(db *sql.DB) *EventRepo { return &EventRepo{db: db} }

func (r *EventRepo) WithTx(tx *sql.Tx) *EventRepo { return &EventRepo{db: tx} }

// Insert stores an event; an empty Date uses the database clock.
func (r *EventRepo) Insert(ctx context.Context, e Event) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
	INSERT INTO eventos(id_vaca, tipo_evento, resultado, fecha)
	VALUES (?, ?, ?, COALESCE(NULLIF(?, ''), CURRENT_TIMESTAMP))`,
		e.AnimalID, e.Type, e.Result, e.Date)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (r *EventRepo) DeleteAll(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM eventos`)
	return err
}

// ListByAnimal returns events newest first.
func (r *EventRepo) ListByAnimal(ctx context.Context, animalID string) ([]Event, error) {
	rows, err := r.db.QueryContext(ctx, `
	SELECT id, id_vaca, COALESCE(tipo_evento, ''), COALESCE(resultado, ''), COALESCE(CAST(fecha AS TEXT), '')
	FROM eventos WHERE id_vaca = ? ORDER BY id DESC`, animalID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Event
	for rows.Next() {
		var e Event
		if err := rows.Scan(&e.ID, &e.AnimalID, &e.Type, &e.Result, &e.Date); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
