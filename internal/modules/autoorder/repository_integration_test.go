package autoorder

import (
	"context"
	"sync"
	"testing"

	"agri-supply/internal/logging"
	"agri-supply/internal/models"
	"agri-supply/internal/modules/units"
	"agri-supply/internal/platform/database/dbtest"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type seeded struct {
	admin   string
	farmerA string
	farmerB string
}

func seed(t *testing.T, pool *pgxpool.Pool) seeded {
	t.Helper()
	ctx := context.Background()
	var s seeded
	require.NoError(t, pool.QueryRow(ctx,
		`INSERT INTO users (name, email, role) VALUES ('Admin', 'admin@example.com', 'admin') RETURNING id::text`).Scan(&s.admin))
	require.NoError(t, pool.QueryRow(ctx,
		`INSERT INTO users (name, email, role) VALUES ('Amina', 'a@example.com', 'farmer') RETURNING id::text`).Scan(&s.farmerA))
	require.NoError(t, pool.QueryRow(ctx,
		`INSERT INTO users (name, email, role, last_visited) VALUES ('Baraka', 'b@example.com', 'farmer', '2024-01-01') RETURNING id::text`).Scan(&s.farmerB))

	_, err := pool.Exec(ctx, `
		WITH c AS (INSERT INTO crops (name) VALUES ('maize') RETURNING id),
		     fa AS (INSERT INTO farms (farmer_id, name, latitude, longitude) VALUES ($1::uuid, 'Amina Farm', -1.28, 36.82) RETURNING id),
		     fb AS (INSERT INTO farms (farmer_id, name, latitude, longitude) VALUES ($2::uuid, 'Baraka Farm', -1.30, 36.90) RETURNING id)
		INSERT INTO stock_lots (farmer_id, farm_id, crop_id, available_kg)
		SELECT $1::uuid, fa.id, c.id, 50 FROM fa, c
		UNION ALL
		SELECT $2::uuid, fb.id, c.id, 30 FROM fb, c`, s.farmerA, s.farmerB)
	require.NoError(t, err)
	return s
}

func TestRepositoryAllocateAgainstPostgres(t *testing.T) {
	pool := dbtest.StartPostgres(t)
	s := seed(t, pool)
	ctx := context.Background()

	repo := NewRepository(pool)
	engine := NewEngine(repo, units.NewDefaultConverter(), nil, nil, logging.Nop())

	res, err := engine.Allocate(ctx, s.admin, []models.OrderRequestItem{{Crop: "Maize", Quantity: 60}})
	require.NoError(t, err)
	require.Len(t, res.OrdersCreated, 2)
	assert.Equal(t, s.farmerA, res.OrdersCreated[0].FarmerID)
	assert.InDelta(t, 50, res.OrdersCreated[0].AssignedKg, 1e-9)
	assert.Equal(t, s.farmerB, res.OrdersCreated[1].FarmerID)

	var left float64
	require.NoError(t, pool.QueryRow(ctx, `SELECT SUM(available_kg) FROM stock_lots`).Scan(&left))
	assert.InDelta(t, 20, left, 1e-9)

	var orders int
	require.NoError(t, pool.QueryRow(ctx, `SELECT COUNT(*) FROM orders WHERE status = 'pending'`).Scan(&orders))
	assert.Equal(t, 2, orders)

	report, err := repo.AvailabilityReport(ctx)
	require.NoError(t, err)
	require.Len(t, report, 1)
	assert.Equal(t, 1, report[0].FarmerCount)

	details, err := repo.AvailabilityDetails(ctx, "MAIZE")
	require.NoError(t, err)
	require.Len(t, details, 1)
	assert.Equal(t, "Baraka Farm", details[0].FarmName)
}

func TestRepositoryDecrementGuard(t *testing.T) {
	pool := dbtest.StartPostgres(t)
	seed(t, pool)
	ctx := context.Background()

	repo := NewRepository(pool)
	tx, err := repo.BeginTx(ctx)
	require.NoError(t, err)
	defer func() { _ = tx.Rollback(ctx) }()

	lots, err := tx.ListAvailableStock(ctx, "maize")
	require.NoError(t, err)
	require.Len(t, lots, 2)
	assert.Nil(t, lots[0].LastVisited)

	err = tx.DecrementStock(ctx, lots[0].ID, lots[0].AvailableKg+1)
	assert.ErrorIs(t, err, models.ErrInsufficientStock)
}

func TestRepositoryConcurrentBatchesNeverOversell(t *testing.T) {
	pool := dbtest.StartPostgres(t)
	s := seed(t, pool)
	ctx := context.Background()

	engine := NewEngine(NewRepository(pool), units.NewDefaultConverter(), nil, nil, logging.Nop())

	var wg sync.WaitGroup
	results := make([]*models.AllocationResult, 4)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			res, err := engine.Allocate(ctx, s.admin, []models.OrderRequestItem{{Crop: "maize", Quantity: 30}})
			if assert.NoError(t, err) {
				results[i] = res
			}
		}(i)
	}
	wg.Wait()

	var assigned float64
	for _, r := range results {
		if r == nil {
			continue
		}
		for _, o := range r.OrdersCreated {
			assigned += o.AssignedKg
		}
	}
	assert.InDelta(t, 80, assigned, 1e-9)

	var negative int
	require.NoError(t, pool.QueryRow(ctx, `SELECT COUNT(*) FROM stock_lots WHERE available_kg < 0`).Scan(&negative))
	assert.Zero(t, negative)
}
