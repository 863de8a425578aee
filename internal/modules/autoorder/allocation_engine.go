package autoorder

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"agri-supply/internal/metrics"
	"agri-supply/internal/models"
	"agri-supply/internal/modules/units"
	"agri-supply/pkg/notify"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// epsilonKg absorbs floating point residue when deciding a line is satisfied.
const epsilonKg = 1e-9

// Engine splits a batch of crop requests across farmers' stock lots.
type Engine struct {
	repo     RepositoryInterface
	units    *units.Converter
	notifier notify.ServiceInterface
	metrics  metrics.Recorder
	log      zerolog.Logger
	newID    func() string
}

// NewEngine wires an allocation engine. Nil notifier and recorder are replaced by no-ops.
func NewEngine(repo RepositoryInterface, conv *units.Converter, notifier notify.ServiceInterface, rec metrics.Recorder, log zerolog.Logger) *Engine {
	if conv == nil {
		conv = units.NewDefaultConverter()
	}
	if notifier == nil {
		notifier = notify.NopService{}
	}
	if rec == nil {
		rec = metrics.NopRecorder{}
	}
	return &Engine{
		repo:     repo,
		units:    conv,
		notifier: notifier,
		metrics:  rec,
		log:      log,
		newID:    uuid.NewString,
	}
}

// line is a validated batch item with its quantity in kilograms.
type line struct {
	crop     string
	quantity float64
	unit     string
	kg       float64
}

// Allocate runs the whole batch in one transaction. Either every order of the batch
// is committed or none is; shortfalls are part of the result, not errors.
func (e *Engine) Allocate(ctx context.Context, adminID string, batch []models.OrderRequestItem) (*models.AllocationResult, error) {
	lines, err := e.prepare(batch)
	if err != nil {
		e.metrics.RecordBatch(metrics.OutcomeRejected, nil)
		return nil, fmt.Errorf("service.Allocate: %w", err)
	}

	result, err := e.allocate(ctx, adminID, lines)
	if err != nil {
		e.metrics.RecordBatch(metrics.OutcomeRolledBack, nil)
		e.log.Error().Err(err).Str("admin_id", adminID).Int("lines", len(lines)).Msg("allocation batch rolled back")
		return nil, fmt.Errorf("service.Allocate: %w: %w", models.ErrTransactionFailure, err)
	}

	e.metrics.RecordBatch(metrics.OutcomeCommitted, result)
	e.log.Info().
		Str("admin_id", adminID).
		Int("lines", len(lines)).
		Int("orders", len(result.OrdersCreated)).
		Int("unfulfilled", len(result.Unfulfilled)).
		Msg("allocation batch committed")

	e.notify(ctx, result.OrdersCreated)
	return result, nil
}

// prepare validates every item and converts it to kilograms before anything is locked.
func (e *Engine) prepare(batch []models.OrderRequestItem) ([]line, error) {
	if len(batch) == 0 {
		return nil, fmt.Errorf("empty batch: %w", models.ErrValidation)
	}
	lines := make([]line, 0, len(batch))
	for i, item := range batch {
		crop := strings.TrimSpace(item.Crop)
		if crop == "" {
			return nil, fmt.Errorf("item %d: crop is required: %w", i, models.ErrValidation)
		}
		if !(item.Quantity > 0) || math.IsInf(item.Quantity, 0) {
			return nil, fmt.Errorf("item %d (%s): quantity must be positive: %w", i, crop, models.ErrValidation)
		}
		kg, err := e.units.ToCanonical(item.Quantity, item.Unit, crop)
		if err != nil {
			return nil, fmt.Errorf("item %d (%s): %w (supported: %s)", i, crop, err,
				strings.Join(e.units.SupportedUnits(crop), ", "))
		}
		if math.IsInf(kg, 0) || math.IsNaN(kg) {
			return nil, fmt.Errorf("item %d (%s): quantity out of range: %w", i, crop, models.ErrValidation)
		}
		lines = append(lines, line{
			crop:     crop,
			quantity: item.Quantity,
			unit:     e.units.NormalizeUnit(item.Unit),
			kg:       kg,
		})
	}
	return lines, nil
}

func (e *Engine) allocate(ctx context.Context, adminID string, lines []line) (*models.AllocationResult, error) {
	tx, err := e.repo.BeginTx(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	result := &models.AllocationResult{OrdersCreated: []models.AllocatedOrder{}}
	for _, l := range lines {
		lots, err := tx.ListAvailableStock(ctx, l.crop)
		if err != nil {
			return nil, err
		}
		if len(lots) == 0 {
			result.Unfulfilled = append(result.Unfulfilled, models.UnfulfilledRequest{
				Crop:              l.crop,
				ShortfallQuantity: l.quantity,
				ShortfallKg:       l.kg,
				Unit:              l.unit,
				Reason:            models.ReasonNoFarmers,
			})
			continue
		}
		sortByLastVisited(lots)

		remaining := l.kg
		for _, lot := range lots {
			if remaining <= epsilonKg {
				break
			}
			assignable := math.Min(lot.AvailableKg, remaining)
			if assignable <= 0 {
				continue
			}
			if err := tx.DecrementStock(ctx, lot.ID, assignable); err != nil {
				return nil, err
			}
			order := models.AllocatedOrder{
				OrderID:          e.newID(),
				LotID:            lot.ID,
				FarmerID:         lot.FarmerID,
				FarmerName:       lot.FarmerName,
				FarmerEmail:      lot.FarmerEmail,
				FarmID:           lot.FarmID,
				CropID:           lot.CropID,
				CropName:         lot.CropName,
				AdminID:          adminID,
				AssignedKg:       assignable,
				OriginalQuantity: l.quantity,
				OriginalUnit:     l.unit,
			}
			if err := tx.CreateOrder(ctx, order); err != nil {
				return nil, err
			}
			result.OrdersCreated = append(result.OrdersCreated, order)
			remaining -= assignable
		}

		if remaining > epsilonKg {
			shortfall, err := e.units.FromCanonical(remaining, l.unit, l.crop)
			if err != nil {
				return nil, err
			}
			result.Unfulfilled = append(result.Unfulfilled, models.UnfulfilledRequest{
				Crop:              l.crop,
				ShortfallQuantity: round2(shortfall),
				ShortfallKg:       round2(remaining),
				Unit:              l.unit,
				Reason:            models.ReasonPartial,
			})
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return result, nil
}

// sortByLastVisited orders never-visited farmers first, then oldest visit first.
// The sort is stable so lots of the same farmer keep the store's order.
func sortByLastVisited(lots []models.StockLot) {
	sort.SliceStable(lots, func(i, j int) bool {
		a, b := lots[i].LastVisited, lots[j].LastVisited
		switch {
		case a == nil:
			return b != nil
		case b == nil:
			return false
		default:
			return a.Before(*b)
		}
	})
}

func (e *Engine) notify(ctx context.Context, orders []models.AllocatedOrder) {
	for _, a := range notify.GroupByFarmer(orders) {
		if err := e.notifier.NotifyAllocation(ctx, a); err != nil {
			e.log.Warn().Err(err).Str("farmer_id", a.FarmerID).Msg("farmer notification failed")
		}
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
