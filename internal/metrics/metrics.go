package metrics

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"agri-supply/internal/models"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/text/cases"
)

// UnknownCrop labels shortfalls for crops no farmer stocks.
const UnknownCrop = "unknown"

// Batch outcomes.
const (
	OutcomeCommitted  = "committed"
	OutcomeRolledBack = "rolled_back"
	OutcomeRejected   = "rejected"
)

// Recorder receives allocation and routing observations.
type Recorder interface {
	RecordBatch(outcome string, result *models.AllocationResult)
	RecordRoutePlan(kind string, stops int, elapsed time.Duration)
}

// NopRecorder drops every observation.
type NopRecorder struct{}

func (NopRecorder) RecordBatch(string, *models.AllocationResult) {}
func (NopRecorder) RecordRoutePlan(string, int, time.Duration)   {}

// PromRecorder exports observations as Prometheus metrics.
type PromRecorder struct {
	batches     *prometheus.CounterVec
	allocatedKg *prometheus.CounterVec
	shortfallKg *prometheus.CounterVec
	routePlans  *prometheus.CounterVec
	routeStops  prometheus.Histogram
	routeSolve  *prometheus.HistogramVec
}

// NewPromRecorder registers the collectors on reg; nil means the default registerer.
func NewPromRecorder(reg prometheus.Registerer) (*PromRecorder, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	r := &PromRecorder{
		batches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "autoorder_batches_total",
			Help: "Auto-order batches by outcome",
		}, []string{"outcome"}),
		allocatedKg: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "autoorder_allocated_kg_total",
			Help: "Kilograms assigned to farmers by committed batches",
		}, []string{"crop"}),
		shortfallKg: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "autoorder_shortfall_kg_total",
			Help: "Kilograms requested but not available",
		}, []string{"crop", "reason"}),
		routePlans: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "route_plans_total",
			Help: "Route plans computed by kind",
		}, []string{"kind"}),
		routeStops: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "route_plan_stops",
			Help:    "Routable stops per planned route",
			Buckets: []float64{1, 2, 5, 10, 20, 50, 100},
		}),
		routeSolve: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "route_solve_seconds",
			Help:    "Time spent building the distance matrix and ordering stops",
			Buckets: prometheus.DefBuckets,
		}, []string{"kind"}),
	}

	var err error
	if r.batches, err = register(reg, r.batches); err != nil {
		return nil, err
	}
	if r.allocatedKg, err = register(reg, r.allocatedKg); err != nil {
		return nil, err
	}
	if r.shortfallKg, err = register(reg, r.shortfallKg); err != nil {
		return nil, err
	}
	if r.routePlans, err = register(reg, r.routePlans); err != nil {
		return nil, err
	}
	if r.routeStops, err = register(reg, r.routeStops); err != nil {
		return nil, err
	}
	if r.routeSolve, err = register(reg, r.routeSolve); err != nil {
		return nil, err
	}
	return r, nil
}

// register reuses an already registered collector of the same shape.
func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

func (r *PromRecorder) RecordBatch(outcome string, result *models.AllocationResult) {
	r.batches.WithLabelValues(outcome).Inc()
	if result == nil || outcome != OutcomeCommitted {
		return
	}
	for _, o := range result.OrdersCreated {
		r.allocatedKg.WithLabelValues(o.CropName).Add(o.AssignedKg)
	}
	for _, u := range result.Unfulfilled {
		r.shortfallKg.WithLabelValues(shortfallCropLabel(u), u.Reason).Add(u.ShortfallKg)
	}
}

// shortfallCropLabel keeps the label set bounded: crops nobody stocks share one
// value, known crops are case folded.
func shortfallCropLabel(u models.UnfulfilledRequest) string {
	if u.Reason == models.ReasonNoFarmers {
		return UnknownCrop
	}
	return cases.Fold().String(strings.TrimSpace(u.Crop))
}

func (r *PromRecorder) RecordRoutePlan(kind string, stops int, elapsed time.Duration) {
	r.routePlans.WithLabelValues(kind).Inc()
	r.routeStops.Observe(float64(stops))
	r.routeSolve.WithLabelValues(kind).Observe(elapsed.Seconds())
}

// Handler exposes the default gatherer.
func Handler() http.Handler {
	return promhttp.Handler()
}
