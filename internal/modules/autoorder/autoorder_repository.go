package autoorder

import (
	"context"
	"errors"
	"fmt"

	"agri-supply/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// pgCheckViolation is the SQLSTATE raised by the available_kg >= 0 constraint.
const pgCheckViolation = "23514"

// RepositoryInterface defines the supply store used for allocation and reporting.
type RepositoryInterface interface {
	// BeginTx opens the unit of work a single batch runs in.
	BeginTx(ctx context.Context) (StockTx, error)
	AvailabilityReport(ctx context.Context) ([]models.CropAvailability, error)
	AvailabilityDetails(ctx context.Context, crop string) ([]models.FarmerAvailability, error)
}

// StockTx is one open transaction. Rollback after Commit is a no-op.
type StockTx interface {
	// ListAvailableStock locks and returns every farmer-owned lot of crop with stock left,
	// least recently visited farmer first, never-visited farmers before all others.
	ListAvailableStock(ctx context.Context, crop string) ([]models.StockLot, error)
	// DecrementStock fails with models.ErrInsufficientStock rather than going negative.
	DecrementStock(ctx context.Context, lotID string, kg float64) error
	CreateOrder(ctx context.Context, o models.AllocatedOrder) error
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// Repository implements RepositoryInterface.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new auto-order repository.
func NewRepository(db *pgxpool.Pool) RepositoryInterface {
	return &Repository{db: db}
}

func (r *Repository) BeginTx(ctx context.Context) (StockTx, error) {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return nil, fmt.Errorf("repository.BeginTx: %w", err)
	}
	return &stockTx{tx: tx}, nil
}

func (r *Repository) AvailabilityReport(ctx context.Context) ([]models.CropAvailability, error) {
	query := `
		SELECT c.id, c.name, SUM(sl.available_kg), COUNT(DISTINCT sl.farmer_id)
		FROM stock_lots sl
		JOIN crops c ON c.id = sl.crop_id
		JOIN users u ON u.id = sl.farmer_id
		WHERE u.role = 'farmer' AND sl.available_kg > 0
		GROUP BY c.id, c.name
		ORDER BY c.name`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("repository.AvailabilityReport: %w", err)
	}
	defer rows.Close()

	report := []models.CropAvailability{}
	for rows.Next() {
		var c models.CropAvailability
		if err := rows.Scan(&c.CropID, &c.CropName, &c.TotalAvailableKg, &c.FarmerCount); err != nil {
			return nil, fmt.Errorf("repository.AvailabilityReport.Scan: %w", err)
		}
		report = append(report, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository.AvailabilityReport.Rows: %w", err)
	}
	return report, nil
}

func (r *Repository) AvailabilityDetails(ctx context.Context, crop string) ([]models.FarmerAvailability, error) {
	query := `
		SELECT u.id, u.name, f.id, f.name, SUM(sl.available_kg), u.last_visited
		FROM stock_lots sl
		JOIN crops c ON c.id = sl.crop_id
		JOIN users u ON u.id = sl.farmer_id
		JOIN farms f ON f.id = sl.farm_id
		WHERE lower(c.name) = lower($1) AND u.role = 'farmer' AND sl.available_kg > 0
		GROUP BY u.id, u.name, u.last_visited, f.id, f.name
		ORDER BY u.last_visited ASC NULLS FIRST, u.name, f.name`
	rows, err := r.db.Query(ctx, query, crop)
	if err != nil {
		return nil, fmt.Errorf("repository.AvailabilityDetails: %w", err)
	}
	defer rows.Close()

	var details []models.FarmerAvailability
	for rows.Next() {
		var d models.FarmerAvailability
		if err := rows.Scan(&d.FarmerID, &d.FarmerName, &d.FarmID, &d.FarmName, &d.AvailableKg, &d.LastVisited); err != nil {
			return nil, fmt.Errorf("repository.AvailabilityDetails.Scan: %w", err)
		}
		details = append(details, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository.AvailabilityDetails.Rows: %w", err)
	}
	return details, nil
}

type stockTx struct {
	tx pgx.Tx
}

func (s *stockTx) ListAvailableStock(ctx context.Context, crop string) ([]models.StockLot, error) {
	query := `
		SELECT sl.id, sl.farmer_id, u.name, u.email, sl.farm_id, sl.crop_id, c.name,
		       sl.available_kg, u.last_visited, sl.created_at
		FROM stock_lots sl
		JOIN users u ON u.id = sl.farmer_id
		JOIN crops c ON c.id = sl.crop_id
		WHERE lower(c.name) = lower($1) AND u.role = 'farmer' AND sl.available_kg > 0
		ORDER BY u.last_visited ASC NULLS FIRST, sl.created_at, sl.id
		FOR UPDATE OF sl`
	rows, err := s.tx.Query(ctx, query, crop)
	if err != nil {
		return nil, fmt.Errorf("repository.ListAvailableStock: %w", err)
	}
	defer rows.Close()

	var lots []models.StockLot
	for rows.Next() {
		var l models.StockLot
		if err := rows.Scan(&l.ID, &l.FarmerID, &l.FarmerName, &l.FarmerEmail, &l.FarmID, &l.CropID,
			&l.CropName, &l.AvailableKg, &l.LastVisited, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("repository.ListAvailableStock.Scan: %w", err)
		}
		lots = append(lots, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository.ListAvailableStock.Rows: %w", err)
	}
	return lots, nil
}

func (s *stockTx) DecrementStock(ctx context.Context, lotID string, kg float64) error {
	tag, err := s.tx.Exec(ctx,
		`UPDATE stock_lots SET available_kg = available_kg - $2 WHERE id = $1 AND available_kg >= $2`,
		lotID, kg)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgCheckViolation {
			return fmt.Errorf("repository.DecrementStock: lot %s: %w", lotID, models.ErrInsufficientStock)
		}
		return fmt.Errorf("repository.DecrementStock: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("repository.DecrementStock: lot %s: %w", lotID, models.ErrInsufficientStock)
	}
	return nil
}

func (s *stockTx) CreateOrder(ctx context.Context, o models.AllocatedOrder) error {
	query := `
		INSERT INTO orders (id, farmer_id, farm_id, lot_id, crop_id, admin_id,
		                    quantity_kg, original_quantity, original_unit, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, 'pending')`
	_, err := s.tx.Exec(ctx, query, o.OrderID, o.FarmerID, o.FarmID, o.LotID, o.CropID, o.AdminID,
		o.AssignedKg, o.OriginalQuantity, o.OriginalUnit)
	if err != nil {
		return fmt.Errorf("repository.CreateOrder: %w", err)
	}
	return nil
}

func (s *stockTx) Commit(ctx context.Context) error {
	if err := s.tx.Commit(ctx); err != nil {
		return fmt.Errorf("repository.Commit: %w", err)
	}
	return nil
}

func (s *stockTx) Rollback(ctx context.Context) error {
	err := s.tx.Rollback(ctx)
	if err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		return fmt.Errorf("repository.Rollback: %w", err)
	}
	return nil
}
