package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/edgepredict/simulation-service/internal/domain"
)

// SimulationRepository encapsulates simulation job persistence. Status
// transitions are guarded in SQL so they stay monotonic even under
// concurrent workers.
type SimulationRepository interface {
	Create(ctx context.Context, sim *domain.Simulation) error
	GetByID(ctx context.Context, id string) (*domain.Simulation, error)
	ListByOwner(ctx context.Context, ownerID string, limit, offset int) ([]domain.Simulation, error)
	List(ctx context.Context, limit, offset int) ([]domain.Simulation, error)
	SetTool(ctx context.Context, id, toolID string) error
	// ClaimRunning performs the conditional PENDING -> RUNNING transition and
	// reports whether this caller won the claim. A redelivered queue message
	// loses the claim and must not re-run the engine.
	ClaimRunning(ctx context.Context, id string) (bool, error)
	MarkCompleted(ctx context.Context, id string, results string) error
	MarkFailed(ctx context.Context, id string, detail string) error
	SetResults(ctx context.Context, id string, results string) error
	Delete(ctx context.Context, id string) error
}

type simulationRepository struct {
	pool *pgxpool.Pool
}

// NewSimulationRepository instantiates repository.
func NewSimulationRepository(pool *pgxpool.Pool) SimulationRepository {
	return &simulationRepository{pool: pool}
}

const simulationColumns = `id, name, description, owner_id, tool_id,
               simulation_params, physics_params, material_params, cfd_params,
               status, results, failure_detail, created_at, updated_at`

func (r *simulationRepository) Create(ctx context.Context, sim *domain.Simulation) error {
	const query = `
        INSERT INTO simulations (name, description, owner_id, tool_id,
            simulation_params, physics_params, material_params, cfd_params, status)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
        RETURNING id, created_at, updated_at`
	if sim.Status == "" {
		sim.Status = domain.SimulationStatusPending
	}
	return r.pool.QueryRow(ctx, query,
		sim.Name,
		sim.Description,
		sim.OwnerID,
		sim.ToolID,
		sim.SimulationParams,
		sim.PhysicsParams,
		sim.MaterialParams,
		sim.CFDParams,
		sim.Status,
	).Scan(&sim.ID, &sim.CreatedAt, &sim.UpdatedAt)
}

func (r *simulationRepository) GetByID(ctx context.Context, id string) (*domain.Simulation, error) {
	query := `SELECT ` + simulationColumns + ` FROM simulations WHERE id=$1`

	var sim domain.Simulation
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&sim.ID,
		&sim.Name,
		&sim.Description,
		&sim.OwnerID,
		&sim.ToolID,
		&sim.SimulationParams,
		&sim.PhysicsParams,
		&sim.MaterialParams,
		&sim.CFDParams,
		&sim.Status,
		&sim.Results,
		&sim.FailureDetail,
		&sim.CreatedAt,
		&sim.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &sim, nil
}

func (r *simulationRepository) ListByOwner(ctx context.Context, ownerID string, limit, offset int) ([]domain.Simulation, error) {
	query := `SELECT ` + simulationColumns + `
        FROM simulations WHERE owner_id=$1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`
	return r.list(ctx, query, ownerID, normalizeLimit(limit), normalizeOffset(offset))
}

func (r *simulationRepository) List(ctx context.Context, limit, offset int) ([]domain.Simulation, error) {
	query := `SELECT ` + simulationColumns + `
        FROM simulations ORDER BY created_at DESC LIMIT $1 OFFSET $2`
	return r.list(ctx, query, normalizeLimit(limit), normalizeOffset(offset))
}

func (r *simulationRepository) list(ctx context.Context, query string, args ...any) ([]domain.Simulation, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Simulation
	for rows.Next() {
		var sim domain.Simulation
		if err := rows.Scan(
			&sim.ID,
			&sim.Name,
			&sim.Description,
			&sim.OwnerID,
			&sim.ToolID,
			&sim.SimulationParams,
			&sim.PhysicsParams,
			&sim.MaterialParams,
			&sim.CFDParams,
			&sim.Status,
			&sim.Results,
			&sim.FailureDetail,
			&sim.CreatedAt,
			&sim.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, sim)
	}
	return result, rows.Err()
}

func (r *simulationRepository) SetTool(ctx context.Context, id, toolID string) error {
	cmd, err := r.pool.Exec(ctx,
		`UPDATE simulations SET tool_id=$1, updated_at=NOW() WHERE id=$2`, toolID, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *simulationRepository) ClaimRunning(ctx context.Context, id string) (bool, error) {
	cmd, err := r.pool.Exec(ctx,
		`UPDATE simulations SET status=$1, updated_at=NOW() WHERE id=$2 AND status=$3`,
		domain.SimulationStatusRunning, id, domain.SimulationStatusPending)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() == 1, nil
}

func (r *simulationRepository) MarkCompleted(ctx context.Context, id string, results string) error {
	cmd, err := r.pool.Exec(ctx,
		`UPDATE simulations SET status=$1, results=$2, failure_detail=NULL, updated_at=NOW()
         WHERE id=$3 AND status=$4`,
		domain.SimulationStatusCompleted, results, id, domain.SimulationStatusRunning)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *simulationRepository) MarkFailed(ctx context.Context, id string, detail string) error {
	// FAILED is reachable from PENDING (dispatch/build failures) and RUNNING,
	// never from a terminal state.
	cmd, err := r.pool.Exec(ctx,
		`UPDATE simulations SET status=$1, failure_detail=$2, updated_at=NOW()
         WHERE id=$3 AND status IN ($4,$5)`,
		domain.SimulationStatusFailed, detail, id,
		domain.SimulationStatusPending, domain.SimulationStatusRunning)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// SetResults rewrites the result payload of a COMPLETED job. Used by the
// analyzer to cache generated analysis text.
func (r *simulationRepository) SetResults(ctx context.Context, id string, results string) error {
	cmd, err := r.pool.Exec(ctx,
		`UPDATE simulations SET results=$1, updated_at=NOW() WHERE id=$2 AND status=$3`,
		results, id, domain.SimulationStatusCompleted)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *simulationRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM simulations WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func normalizeLimit(limit int) int {
	if limit <= 0 {
		return 100
	}
	return limit
}

func normalizeOffset(offset int) int {
	if offset < 0 {
		return 0
	}
	return offset
}
