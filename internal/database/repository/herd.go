package repository

import (
	"context"
	"database/sql"
	"errors"
)

// latestEvent selects the newest event result per animal.
const latestEvent = `
	LEFT JOIN (
		SELECT id_vaca, resultado
		FROM eventos
		WHERE id IN (SELECT MAX(id) FROM eventos GROUP BY id_vaca)
	) e ON h.id_vaca = e.id_vaca`

// HerdRepo handles the hato table.
type HerdRepo struct {
	db dbtx
}

func NewHerdRepo(db *sql.DB) *HerdRepo { return &HerdRepo{db: db} }

// WithTx returns a repo bound to tx.
func (r *HerdRepo) WithTx(tx *sql.Tx) *HerdRepo { return &HerdRepo{db: tx} }

func (r *HerdRepo) Upsert(ctx context.Context, a Animal) error {
	_, err := r.db.ExecContext(ctx, `
	INSERT INTO hato(id_vaca, nombre, raza, estado, fecha_ingreso, ultimo_parto, ult_leche, del, lact, ddp)
	VALUES (?, ?, ?, COALESCE(?, 'Abierta'), ?, ?, ?, ?, ?, ?)
	ON CONFLICT(id_vaca) DO UPDATE SET
	 nombre=excluded.nombre,
	 raza=excluded.raza,
	 estado=excluded.estado,
	 fecha_ingreso=excluded.fecha_ingreso,
	 ultimo_parto=excluded.ultimo_parto,
	 ult_leche=excluded.ult_leche,
	 del=excluded.del,
	 lact=excluded.lact,
	 ddp=excluded.ddp;
	`, a.ID, a.Name, a.Breed, a.State, a.EntryDate, a.LastCalving, a.LastMilk, a.DaysInMilk, a.Lactation, a.DaysPregnant)
	return err
}

// DeleteAll empties the table; used by imports that replace the herd.
func (r *HerdRepo) DeleteAll(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM hato`)
	return err
}

func (r *HerdRepo) UpdateLastMilk(ctx context.Context, id string, liters float64) (bool, error) {
	res, err := r.db.ExecContext(ctx, `UPDATE hato SET ult_leche = ? WHERE id_vaca = ?`, liters, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Sheet returns the animal with its current state and sire, or nil when absent.
func (r *HerdRepo) Sheet(ctx context.Context, id string) (*AnimalSheet, error) {
	row := r.db.QueryRowContext(ctx, `
	SELECT h.id_vaca, h.nombre, h.raza, h.estado, h.fecha_ingreso, h.ultimo_parto,
	       h.ult_leche, h.del, h.lact, h.ddp, g.pad,
	       COALESCE(e.resultado, h.estado, '') AS estado_actual
	FROM hato h
	LEFT JOIN genealogia g ON h.id_vaca = g.id`+latestEvent+`
	WHERE h.id_vaca = ?`, id)

	var s AnimalSheet
	err := row.Scan(&s.ID, &s.Name, &s.Breed, &s.State, &s.EntryDate, &s.LastCalving,
		&s.LastMilk, &s.DaysInMilk, &s.Lactation, &s.DaysPregnant, &s.Sire, &s.CurrentState)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// List returns every animal with its current reproductive state.
func (r *HerdRepo) List(ctx context.Context) ([]HerdEntry, error) {
	rows, err := r.db.QueryContext(ctx, `
	SELECT h.id_vaca, COALESCE(e.resultado, h.estado, '') AS rpro, COALESCE(h.ult_leche, 0)
	FROM hato h`+latestEvent+`
	ORDER BY h.id_vaca`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []HerdEntry
	for rows.Next() {
		var e HerdEntry
		if err := rows.Scan(&e.ID, &e.Repro, &e.LastMilk); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
