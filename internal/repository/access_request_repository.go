package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/edgepredict/simulation-service/internal/domain"
)

// AccessRequestRepository manages onboarding request persistence.
type AccessRequestRepository interface {
	Create(ctx context.Context, req *domain.AccessRequest) error
	GetByID(ctx context.Context, id string) (*domain.AccessRequest, error)
	List(ctx context.Context, status *domain.AccessRequestStatus, limit, offset int) ([]domain.AccessRequest, error)
	// Decide transitions a PENDING request to its final status. A request
	// already decided is left untouched and pgx.ErrNoRows is returned.
	Decide(ctx context.Context, id string, status domain.AccessRequestStatus) error
}

type accessRequestRepository struct {
	pool *pgxpool.Pool
}

// NewAccessRequestRepository instantiates repository.
func NewAccessRequestRepository(pool *pgxpool.Pool) AccessRequestRepository {
	return &accessRequestRepository{pool: pool}
}

func (r *accessRequestRepository) Create(ctx context.Context, req *domain.AccessRequest) error {
	const query = `
        INSERT INTO access_requests (email, name, company, status)
        VALUES ($1,$2,$3,$4)
        RETURNING id, created_at`
	if req.Status == "" {
		req.Status = domain.AccessRequestPending
	}
	return r.pool.QueryRow(ctx, query,
		req.Email,
		req.Name,
		req.Company,
		req.Status,
	).Scan(&req.ID, &req.CreatedAt)
}

func (r *accessRequestRepository) GetByID(ctx context.Context, id string) (*domain.AccessRequest, error) {
	const query = `
        SELECT id, email, name, company, status, created_at
        FROM access_requests WHERE id=$1`
	var req domain.AccessRequest
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&req.ID,
		&req.Email,
		&req.Name,
		&req.Company,
		&req.Status,
		&req.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *accessRequestRepository) List(ctx context.Context, status *domain.AccessRequestStatus, limit, offset int) ([]domain.AccessRequest, error) {
	query := `
        SELECT id, email, name, company, status, created_at
        FROM access_requests`
	args := []any{}
	if status != nil {
		query += ` WHERE status=$1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`
		args = append(args, *status, normalizeLimit(limit), normalizeOffset(offset))
	} else {
		query += ` ORDER BY created_at DESC LIMIT $1 OFFSET $2`
		args = append(args, normalizeLimit(limit), normalizeOffset(offset))
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.AccessRequest
	for rows.Next() {
		var req domain.AccessRequest
		if err := rows.Scan(
			&req.ID,
			&req.Email,
			&req.Name,
			&req.Company,
			&req.Status,
			&req.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, req)
	}
	return result, rows.Err()
}

func (r *accessRequestRepository) Decide(ctx context.Context, id string, status domain.AccessRequestStatus) error {
	cmd, err := r.pool.Exec(ctx,
		`UPDATE access_requests SET status=$1 WHERE id=$2 AND status=$3`,
		status, id, domain.AccessRequestPending)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
