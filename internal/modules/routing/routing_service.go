package routing

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"agri-supply/internal/metrics"
	"agri-supply/internal/models"

	"github.com/rs/zerolog"
)

// Plan kinds, used as the metrics label.
const (
	KindFarmNames     = "farm_names"
	KindUserFarms     = "user_farms"
	KindPendingOrders = "pending_orders"
)

// ServiceInterface defines the business logic for pickup route planning.
type ServiceInterface interface {
	PlanRoute(ctx context.Context, req models.RoutePlanRequest) (*models.RoutePlanResponse, error)
	PlanUserFarms(ctx context.Context, req models.UserFarmsRouteRequest) (*models.RoutePlanResponse, error)
	PlanPendingOrders(ctx context.Context, startingFarmID *string) (*models.RoutePlanResponse, error)
}

type service struct {
	repo    RepositoryInterface
	metrics metrics.Recorder
	log     zerolog.Logger
}

// NewService creates a new routing service. A nil recorder disables metrics.
func NewService(repo RepositoryInterface, rec metrics.Recorder, log zerolog.Logger) ServiceInterface {
	if rec == nil {
		rec = metrics.NopRecorder{}
	}
	return &service{repo: repo, metrics: rec, log: log}
}

func (s *service) PlanRoute(ctx context.Context, req models.RoutePlanRequest) (*models.RoutePlanResponse, error) {
	farms, err := s.repo.FindFarmsByNames(ctx, req.FarmNames)
	if err != nil {
		return nil, fmt.Errorf("service.PlanRoute: %w", err)
	}
	resp, err := s.plan(KindFarmNames, farms, req.StartingFarmID)
	if err != nil {
		return nil, fmt.Errorf("service.PlanRoute: %w", err)
	}
	resp.Summary.NotFound = missingNames(req.FarmNames, farms)
	return resp, nil
}

func (s *service) PlanUserFarms(ctx context.Context, req models.UserFarmsRouteRequest) (*models.RoutePlanResponse, error) {
	farms, err := s.repo.ListFarmsByUserIDs(ctx, req.UserIDs)
	if err != nil {
		return nil, fmt.Errorf("service.PlanUserFarms: %w", err)
	}
	resp, err := s.plan(KindUserFarms, farms, req.StartingFarmID)
	if err != nil {
		return nil, fmt.Errorf("service.PlanUserFarms: %w", err)
	}
	return resp, nil
}

func (s *service) PlanPendingOrders(ctx context.Context, startingFarmID *string) (*models.RoutePlanResponse, error) {
	farms, err := s.repo.ListFarmsWithOpenOrders(ctx)
	if err != nil {
		return nil, fmt.Errorf("service.PlanPendingOrders: %w", err)
	}
	resp, err := s.plan(KindPendingOrders, farms, startingFarmID)
	if err != nil {
		return nil, fmt.Errorf("service.PlanPendingOrders: %w", err)
	}
	return resp, nil
}

// plan solves over farms, forcing startingFarmID to be the first stop when given.
func (s *service) plan(kind string, farms []models.Farm, startingFarmID *string) (*models.RoutePlanResponse, error) {
	if len(farms) == 0 {
		return nil, models.ErrNotFound
	}

	points := make([]models.GeoPoint, len(farms))
	for i, f := range farms {
		points[i] = f.Point()
	}

	if startingFarmID != nil && *startingFarmID != "" {
		var ok bool
		points, ok = MoveToFront(points, *startingFarmID)
		if !ok {
			return nil, fmt.Errorf("starting farm %q is not among the requested farms: %w", *startingFarmID, models.ErrNotFound)
		}
		if !points[0].Routable() {
			return nil, fmt.Errorf("starting farm %q has no coordinates: %w", *startingFarmID, models.ErrValidation)
		}
	}

	start := time.Now()
	sol, err := Solve(points)
	if err != nil {
		return nil, err
	}
	elapsed := time.Since(start)

	resp := buildResponse(sol)
	s.metrics.RecordRoutePlan(kind, resp.Summary.StopCount, elapsed)
	s.log.Info().
		Str("kind", kind).
		Int("stops", resp.Summary.StopCount).
		Int("unroutable", len(sol.Unroutable)).
		Float64("total_km", resp.Summary.TotalDistanceKm).
		Dur("elapsed", elapsed).
		Msg("route planned")
	return resp, nil
}

func buildResponse(sol *Solution) *models.RoutePlanResponse {
	stops := make([]models.RouteStop, len(sol.Order))
	cumulative := 0.0
	for k, idx := range sol.Order {
		p := sol.Points[idx]
		leg := 0.0
		if k > 0 {
			leg = sol.Legs[k-1]
		}
		cumulative += leg
		stops[k] = models.RouteStop{
			Sequence:             k,
			FarmID:               p.ID,
			FarmName:             p.Name,
			Latitude:             p.Latitude,
			Longitude:            p.Longitude,
			LegDistanceKm:        roundKm(leg),
			CumulativeDistanceKm: roundKm(cumulative),
		}
	}

	matrix := MatrixRows(sol.Matrix)
	for _, row := range matrix {
		for j := range row {
			row[j] = roundKm(row[j])
		}
	}

	unroutable := sol.Unroutable
	if unroutable == nil {
		unroutable = []models.GeoPoint{}
	}
	return &models.RoutePlanResponse{
		Route: stops,
		Summary: models.RouteSummary{
			TotalDistanceKm: roundKm(sol.TotalDistanceKm),
			StopCount:       len(sol.Points),
			StartFarmID:     sol.Points[0].ID,
			Unroutable:      unroutable,
		},
		DistanceMatrix: matrix,
	}
}

// missingNames lists requested names that matched no farm, compared case-insensitively.
func missingNames(requested []string, farms []models.Farm) []string {
	found := make(map[string]bool, len(farms))
	for _, f := range farms {
		found[strings.ToLower(f.Name)] = true
	}
	var missing []string
	for _, n := range requested {
		if !found[strings.ToLower(strings.TrimSpace(n))] {
			missing = append(missing, n)
		}
	}
	return missing
}

func roundKm(v float64) float64 {
	return math.Round(v*1000) / 1000
}
