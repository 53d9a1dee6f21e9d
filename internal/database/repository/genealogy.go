package repository

import (
	"context"
	"database/sql"
)

// GenealogyRepo handles genealogia.
type GenealogyRepo struct {
	db dbtx
}

func NewGenealogyRepo(db *sql.DB) *GenealogyRepo { return &GenealogyRepo{db: db} }

func (r *GenealogyRepo) WithTx(tx *sql.Tx) *GenealogyRepo { return &GenealogyRepo{db: tx} }

func (r *GenealogyRepo) Upsert(ctx context.Context, g Genealogy) error {
	_, err := r.db.ExecContext(ctx, `
	INSERT INTO genealogia(id, pad, mad) VALUES (?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET pad=excluded.pad, mad=excluded.mad;
	`, g.ID, g.Sire, g.Dam)
	return err
}

func (r *GenealogyRepo) DeleteAll(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM genealogia`)
	return err
}
