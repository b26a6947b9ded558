package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/edgepredict/simulation-service/internal/domain"
)

// MaterialRepository encapsulates material persistence. Materials have no
// update operation; they are immutable once created.
type MaterialRepository interface {
	Create(ctx context.Context, material *domain.Material) error
	GetByID(ctx context.Context, id string) (*domain.Material, error)
	ListByOwner(ctx context.Context, ownerID string, limit, offset int) ([]domain.Material, error)
	Delete(ctx context.Context, id string) error
}

type materialRepository struct {
	pool *pgxpool.Pool
}

// NewMaterialRepository instantiates repository.
func NewMaterialRepository(pool *pgxpool.Pool) MaterialRepository {
	return &materialRepository{pool: pool}
}

func (r *materialRepository) Create(ctx context.Context, material *domain.Material) error {
	const query = `
        INSERT INTO materials (name, properties, owner_id)
        VALUES ($1,$2,$3)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query,
		material.Name,
		material.Properties,
		material.OwnerID,
	).Scan(&material.ID, &material.CreatedAt)
}

func (r *materialRepository) GetByID(ctx context.Context, id string) (*domain.Material, error) {
	const query = `
        SELECT id, name, properties, owner_id, created_at
        FROM materials WHERE id=$1`
	var material domain.Material
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&material.ID,
		&material.Name,
		&material.Properties,
		&material.OwnerID,
		&material.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &material, nil
}

func (r *materialRepository) ListByOwner(ctx context.Context, ownerID string, limit, offset int) ([]domain.Material, error) {
	const query = `
        SELECT id, name, properties, owner_id, created_at
        FROM materials WHERE owner_id=$1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`

	rows, err := r.pool.Query(ctx, query, ownerID, normalizeLimit(limit), normalizeOffset(offset))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Material
	for rows.Next() {
		var material domain.Material
		if err := rows.Scan(
			&material.ID,
			&material.Name,
			&material.Properties,
			&material.OwnerID,
			&material.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, material)
	}
	return result, rows.Err()
}

func (r *materialRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM materials WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
