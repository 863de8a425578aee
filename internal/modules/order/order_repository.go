package order

import (
	"context"
	"errors"
	"fmt"

	"agri-supply/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// RepositoryInterface defines the contract for the order repository.
type RepositoryInterface interface {
	FindByID(ctx context.Context, orderID string) (*models.Order, error)
	ListAll(ctx context.Context, page, limit int) ([]*models.Order, int, error)
	ListByFarmerID(ctx context.Context, farmerID string, page, limit int) ([]*models.Order, int, error)
	// Update applies patch only while the order is still in expectedStatus. Cancelling
	// returns the quantity to its stock lot and receiving stamps the farmer's visit,
	// both in the same transaction.
	Update(ctx context.Context, orderID, expectedStatus string, patch models.AdminUpdateOrderRequest) (*models.Order, error)
}

// Repository implements the RepositoryInterface.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new order repository.
func NewRepository(db *pgxpool.Pool) RepositoryInterface {
	return &Repository{db: db}
}

const orderColumns = `o.id, o.farmer_id, o.farm_id, o.lot_id, o.crop_id, c.name, o.admin_id,
	o.quantity_kg, o.original_quantity, o.original_unit, o.status, o.notes,
	o.scheduled_pickup_at, o.created_at, o.updated_at`

// scanOrder is a helper function to scan a row into an Order model.
func scanOrder(row pgx.Row) (*models.Order, error) {
	var o models.Order
	err := row.Scan(
		&o.ID,
		&o.FarmerID,
		&o.FarmID,
		&o.LotID,
		&o.CropID,
		&o.CropName,
		&o.AdminID,
		&o.QuantityKg,
		&o.OriginalQuantity,
		&o.OriginalUnit,
		&o.Status,
		&o.Notes,
		&o.ScheduledPickupAt,
		&o.CreatedAt,
		&o.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan order: %w", err)
	}
	return &o, nil
}

// FindByID retrieves a single order by its ID.
func (r *Repository) FindByID(ctx context.Context, orderID string) (*models.Order, error) {
	query := `
		SELECT ` + orderColumns + `
		FROM orders o
		JOIN crops c ON c.id = o.crop_id
		WHERE o.id::text = $1`
	order, err := scanOrder(r.db.QueryRow(ctx, query, orderID))
	if err != nil {
		return nil, fmt.Errorf("repository.FindByID: %w", err)
	}
	return order, nil
}

func (r *Repository) ListAll(ctx context.Context, page, limit int) ([]*models.Order, int, error) {
	return r.list(ctx, "ListAll", "", page, limit)
}

func (r *Repository) ListByFarmerID(ctx context.Context, farmerID string, page, limit int) ([]*models.Order, int, error) {
	return r.list(ctx, "ListByFarmerID", farmerID, page, limit)
}

// list pages through orders newest first; an empty farmerID means every farmer.
func (r *Repository) list(ctx context.Context, op, farmerID string, page, limit int) ([]*models.Order, int, error) {
	offset := (page - 1) * limit

	var total int
	countQuery := `SELECT COUNT(*) FROM orders o WHERE ($1 = '' OR o.farmer_id::text = $1)`
	if err := r.db.QueryRow(ctx, countQuery, farmerID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("repository.%s.Count: %w", op, err)
	}

	query := `
		SELECT ` + orderColumns + `
		FROM orders o
		JOIN crops c ON c.id = o.crop_id
		WHERE ($1 = '' OR o.farmer_id::text = $1)
		ORDER BY o.created_at DESC, o.id
		LIMIT $2 OFFSET $3`
	rows, err := r.db.Query(ctx, query, farmerID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("repository.%s: %w", op, err)
	}
	defer rows.Close()

	orders := []*models.Order{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("repository.%s: %w", op, err)
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("repository.%s.Rows: %w", op, err)
	}
	return orders, total, nil
}

func (r *Repository) Update(ctx context.Context, orderID, expectedStatus string, patch models.AdminUpdateOrderRequest) (*models.Order, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("repository.Update.Begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	query := `
		WITH updated AS (
			UPDATE orders
			SET status = COALESCE($3, status),
			    notes = COALESCE($4, notes),
			    scheduled_pickup_at = COALESCE($5, scheduled_pickup_at),
			    updated_at = now()
			WHERE id::text = $1 AND status = $2
			RETURNING *
		)
		SELECT ` + orderColumns + `
		FROM updated o
		JOIN crops c ON c.id = o.crop_id`
	order, err := scanOrder(tx.QueryRow(ctx, query, orderID, expectedStatus, patch.Status, patch.Notes, patch.ScheduledPickupAt))
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, fmt.Errorf("repository.Update: order %s is no longer %s: %w", orderID, expectedStatus, models.ErrInvalidStatusTransition)
		}
		return nil, fmt.Errorf("repository.Update: %w", err)
	}

	if patch.Status != nil && *patch.Status != expectedStatus {
		switch *patch.Status {
		case models.OrderStatusCancelled:
			if _, err := tx.Exec(ctx,
				`UPDATE stock_lots SET available_kg = available_kg + $2 WHERE id = $1`,
				order.LotID, order.QuantityKg); err != nil {
				return nil, fmt.Errorf("repository.Update.Restock: %w", err)
			}
		case models.OrderStatusReceived:
			if _, err := tx.Exec(ctx,
				`UPDATE users SET last_visited = now() WHERE id = $1`, order.FarmerID); err != nil {
				return nil, fmt.Errorf("repository.Update.LastVisited: %w", err)
			}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("repository.Update.Commit: %w", err)
	}
	return order, nil
}
