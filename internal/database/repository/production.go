package repository

import (
	"context"
	"database/sql"
)

// ProductionRepo handles produccion.
type ProductionRepo struct {
	db dbtx
}

func NewProductionRepo(db *sql.DB) *ProductionRepo { return &ProductionRepo{db: db} }

func (r *ProductionRepo) WithTx(tx *sql.Tx) *ProductionRepo { return &ProductionRepo{db: tx} }

func (r *ProductionRepo) Insert(ctx context.Context, animalID string, liters float64) (int64, error) {
	res, err := r.db.ExecContext(ctx, `INSERT INTO produccion(id_vaca, litros) VALUES (?, ?)`, animalID, liters)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (r *ProductionRepo) ListByAnimal(ctx context.Context, animalID string) ([]Production, error) {
	rows, err := r.db.QueryContext(ctx, `
	SELECT id, id_vaca, litros, COALESCE(fecha, '') FROM produccion WHERE id_vaca = ? ORDER BY id`, animalID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Production
	for rows.Next() {
		var p Production
		if err := rows.Scan(&p.ID, &p.AnimalID, &p.Liters, &p.Date); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
