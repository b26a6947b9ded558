package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/edgepredict/simulation-service/internal/domain"
)

// ToolRepository encapsulates cutting-tool persistence.
type ToolRepository interface {
	Create(ctx context.Context, tool *domain.Tool) error
	GetByID(ctx context.Context, id string) (*domain.Tool, error)
	ListByOwner(ctx context.Context, ownerID string, limit, offset int) ([]domain.Tool, error)
	Delete(ctx context.Context, id string) error
}

type toolRepository struct {
	pool *pgxpool.Pool
}

// NewToolRepository instantiates repository.
func NewToolRepository(pool *pgxpool.Pool) ToolRepository {
	return &toolRepository{pool: pool}
}

func (r *toolRepository) Create(ctx context.Context, tool *domain.Tool) error {
	const query = `
        INSERT INTO tools (name, tool_type, storage_key, owner_id)
        VALUES ($1,$2,$3,$4)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query,
		tool.Name,
		tool.ToolType,
		tool.StorageKey,
		tool.OwnerID,
	).Scan(&tool.ID, &tool.CreatedAt)
}

func (r *toolRepository) GetByID(ctx context.Context, id string) (*domain.Tool, error) {
	const query = `
        SELECT id, name, tool_type, storage_key, owner_id, created_at
        FROM tools WHERE id=$1`
	var tool domain.Tool
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&tool.ID,
		&tool.Name,
		&tool.ToolType,
		&tool.StorageKey,
		&tool.OwnerID,
		&tool.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &tool, nil
}

func (r *toolRepository) ListByOwner(ctx context.Context, ownerID string, limit, offset int) ([]domain.Tool, error) {
	const query = `
        SELECT id, name, tool_type, storage_key, owner_id, created_at
        FROM tools WHERE owner_id=$1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`

	rows, err := r.pool.Query(ctx, query, ownerID, normalizeLimit(limit), normalizeOffset(offset))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Tool
	for rows.Next() {
		var tool domain.Tool
		if err := rows.Scan(
			&tool.ID,
			&tool.Name,
			&tool.ToolType,
			&tool.StorageKey,
			&tool.OwnerID,
			&tool.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, tool)
	}
	return result, rows.Err()
}

func (r *toolRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM tools WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
