package routing

import (
	"context"
	"fmt"
	"strings"

	"agri-supply/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// RepositoryInterface is the read side of the supply store the route planner needs.
type RepositoryInterface interface {
	// FindFarmsByNames matches names case-insensitively, in request order.
	FindFarmsByNames(ctx context.Context, names []string) ([]models.Farm, error)
	// ListFarmsByUserIDs returns every farm owned by the given farmers.
	ListFarmsByUserIDs(ctx context.Context, userIDs []string) ([]models.Farm, error)
	// ListFarmsWithOpenOrders returns farms that still have orders awaiting pickup.
	ListFarmsWithOpenOrders(ctx context.Context) ([]models.Farm, error)
}

// Repository implements RepositoryInterface on PostgreSQL.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new routing repository.
func NewRepository(db *pgxpool.Pool) RepositoryInterface {
	return &Repository{db: db}
}

const farmColumns = `f.id, f.farmer_id, f.name, COALESCE(f.address, ''), f.latitude, f.longitude`

func (r *Repository) FindFarmsByNames(ctx context.Context, names []string) ([]models.Farm, error) {
	lowered := make([]string, len(names))
	for i, n := range names {
		lowered[i] = strings.ToLower(strings.TrimSpace(n))
	}
	query := `
		SELECT ` + farmColumns + `
		FROM farms f
		WHERE lower(f.name) = ANY($1::text[])
		ORDER BY array_position($1::text[], lower(f.name)), f.created_at, f.id`
	rows, err := r.db.Query(ctx, query, lowered)
	if err != nil {
		return nil, fmt.Errorf("repository.FindFarmsByNames: %w", err)
	}
	return collectFarms(rows, "FindFarmsByNames")
}

func (r *Repository) ListFarmsByUserIDs(ctx context.Context, userIDs []string) ([]models.Farm, error) {
	query := `
		SELECT ` + farmColumns + `
		FROM farms f
		WHERE f.farmer_id::text = ANY($1::text[])
		ORDER BY array_position($1::text[], f.farmer_id::text), f.created_at, f.id`
	rows, err := r.db.Query(ctx, query, userIDs)
	if err != nil {
		return nil, fmt.Errorf("repository.ListFarmsByUserIDs: %w", err)
	}
	return collectFarms(rows, "ListFarmsByUserIDs")
}

func (r *Repository) ListFarmsWithOpenOrders(ctx context.Context) ([]models.Farm, error) {
	query := `
		SELECT ` + farmColumns + `
		FROM farms f
		WHERE EXISTS (
			SELECT 1 FROM orders o
			WHERE o.farm_id = f.id AND o.status IN ('pending', 'acknowledged')
		)
		ORDER BY f.created_at, f.id`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("repository.ListFarmsWithOpenOrders: %w", err)
	}
	return collectFarms(rows, "ListFarmsWithOpenOrders")
}

func collectFarms(rows pgx.Rows, op string) ([]models.Farm, error) {
	defer rows.Close()
	var farms []models.Farm
	for rows.Next() {
		var f models.Farm
		if err := rows.Scan(&f.ID, &f.FarmerID, &f.Name, &f.Address, &f.Latitude, &f.Longitude); err != nil {
			return nil, fmt.Errorf("repository.%s.Scan: %w", op, err)
		}
		farms = append(farms, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository.%s.Rows: %w", op, err)
	}
	return farms, nil
}
