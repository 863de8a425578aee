package order

import (
	"context"
	"fmt"

	"agri-supply/internal/models"

	"github.com/rs/zerolog"
)

// ServiceInterface defines the contract for the order service.
type ServiceInterface interface {
	GetOrderDetails(ctx context.Context, orderID, userID, role string) (*models.Order, error)
	ListFarmerOrders(ctx context.Context, farmerID string, page, limit int) (*models.OrderList, error)
	ListAllOrders(ctx context.Context, page, limit int) (*models.OrderList, error)
	UpdateStatus(ctx context.Context, orderID, userID, role, status string) (*models.Order, error)
	AdminUpdate(ctx context.Context, orderID string, req models.AdminUpdateOrderRequest) (*models.Order, error)
}

// Service implements the order service logic.
type Service struct {
	repo RepositoryInterface
	log  zerolog.Logger
}

// NewService creates a new order service.
func NewService(repo RepositoryInterface, log zerolog.Logger) *Service {
	return &Service{repo: repo, log: log}
}

// GetOrderDetails returns an order to an admin or to the farmer it was placed with.
func (s *Service) GetOrderDetails(ctx context.Context, orderID, userID, role string) (*models.Order, error) {
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("service.GetOrderDetails: %w", err)
	}
	if role != models.RoleAdmin && order.FarmerID != userID {
		return nil, models.ErrForbidden
	}
	return order, nil
}

func (s *Service) ListFarmerOrders(ctx context.Context, farmerID string, page, limit int) (*models.OrderList, error) {
	orders, total, err := s.repo.ListByFarmerID(ctx, farmerID, page, limit)
	if err != nil {
		return nil, fmt.Errorf("service.ListFarmerOrders: %w", err)
	}
	return &models.OrderList{Orders: orders, Total: total}, nil
}

func (s *Service) ListAllOrders(ctx context.Context, page, limit int) (*models.OrderList, error) {
	orders, total, err := s.repo.ListAll(ctx, page, limit)
	if err != nil {
		return nil, fmt.Errorf("service.ListAllOrders: %w", err)
	}
	return &models.OrderList{Orders: orders, Total: total}, nil
}

// UpdateStatus moves an order along the state machine on behalf of role.
func (s *Service) UpdateStatus(ctx context.Context, orderID, userID, role, status string) (*models.Order, error) {
	order, err := s.GetOrderDetails(ctx, orderID, userID, role)
	if err != nil {
		return nil, err
	}
	if order.Status == status {
		return order, nil
	}
	if !CanTransition(role, order.Status, status) {
		return nil, fmt.Errorf("service.UpdateStatus: %s cannot move order from %s to %s: %w",
			role, order.Status, status, models.ErrInvalidStatusTransition)
	}

	updated, err := s.repo.Update(ctx, orderID, order.Status, models.AdminUpdateOrderRequest{Status: &status})
	if err != nil {
		return nil, fmt.Errorf("service.UpdateStatus: %w", err)
	}
	s.log.Info().
		Str("order_id", orderID).
		Str("by", userID).
		Str("from", order.Status).
		Str("to", status).
		Msg("order status changed")
	return updated, nil
}

// AdminUpdate applies a partial update. A status in the patch obeys the same state
// machine as UpdateStatus.
func (s *Service) AdminUpdate(ctx context.Context, orderID string, req models.AdminUpdateOrderRequest) (*models.Order, error) {
	if req.Empty() {
		return nil, fmt.Errorf("service.AdminUpdate: nothing to update: %w", models.ErrValidation)
	}
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("service.AdminUpdate: %w", err)
	}

	if req.Status != nil {
		if *req.Status == order.Status {
			req.Status = nil
		} else if !CanTransition(models.RoleAdmin, order.Status, *req.Status) {
			return nil, fmt.Errorf("service.AdminUpdate: cannot move order from %s to %s: %w",
				order.Status, *req.Status, models.ErrInvalidStatusTransition)
		}
	}
	if req.Empty() {
		return order, nil
	}

	updated, err := s.repo.Update(ctx, orderID, order.Status, req)
	if err != nil {
		return nil, fmt.Errorf("service.AdminUpdate: %w", err)
	}
	s.log.Info().Str("order_id", orderID).Str("status", updated.Status).Msg("order updated by admin")
	return updated, nil
}
