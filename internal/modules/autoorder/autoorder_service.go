package autoorder

import (
	"context"
	"fmt"
	"strings"

	"agri-supply/internal/models"
)

// ServiceInterface defines the business logic behind the auto-order endpoints.
type ServiceInterface interface {
	CreateAutoOrders(ctx context.Context, adminID string, req models.AutoOrderRequest) (*models.AllocationResult, error)
	AvailabilityReport(ctx context.Context) ([]models.CropAvailability, error)
	AvailabilityDetails(ctx context.Context, crop string) ([]models.FarmerAvailability, error)
}

type service struct {
	repo   RepositoryInterface
	engine *Engine
}

// NewService creates a new auto-order service.
func NewService(repo RepositoryInterface, engine *Engine) ServiceInterface {
	return &service{repo: repo, engine: engine}
}

func (s *service) CreateAutoOrders(ctx context.Context, adminID string, req models.AutoOrderRequest) (*models.AllocationResult, error) {
	return s.engine.Allocate(ctx, adminID, req.Crops)
}

func (s *service) AvailabilityReport(ctx context.Context) ([]models.CropAvailability, error) {
	report, err := s.repo.AvailabilityReport(ctx)
	if err != nil {
		return nil, fmt.Errorf("service.AvailabilityReport: %w", err)
	}
	return report, nil
}

func (s *service) AvailabilityDetails(ctx context.Context, crop string) ([]models.FarmerAvailability, error) {
	crop = strings.TrimSpace(crop)
	if crop == "" {
		return nil, fmt.Errorf("service.AvailabilityDetails: crop is required: %w", models.ErrValidation)
	}
	details, err := s.repo.AvailabilityDetails(ctx, crop)
	if err != nil {
		return nil, fmt.Errorf("service.AvailabilityDetails: %w", err)
	}
	if len(details) == 0 {
		return nil, fmt.Errorf("service.AvailabilityDetails: %s: %w", crop, models.ErrNotFound)
	}
	return details, nil
}
