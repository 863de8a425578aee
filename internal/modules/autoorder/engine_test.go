package autoorder

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"agri-supply/internal/logging"
	"agri-supply/internal/metrics"
	"agri-supply/internal/models"
	"agri-supply/internal/modules/units"
	"agri-supply/pkg/notify"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeStore keeps committed state in memory. Each transaction works on a copy and
// only publishes it on Commit, so a rollback leaves the store untouched.
type fakeStore struct {
	lots      []models.StockLot
	orders    []models.AllocatedOrder
	failOp    string
	failAfter int
	opCalls   int
	begun     int
	commits   int
	rollbacks int
	report    []models.CropAvailability
	details   map[string][]models.FarmerAvailability
}

func (f *fakeStore) BeginTx(ctx context.Context) (StockTx, error) {
	if f.failOp == "begin" {
		return nil, errors.New("pool exhausted")
	}
	f.begun++
	lots := append([]models.StockLot(nil), f.lots...)
	return &fakeTx{store: f, lots: lots}, nil
}

func (f *fakeStore) AvailabilityReport(ctx context.Context) ([]models.CropAvailability, error) {
	return f.report, nil
}

func (f *fakeStore) AvailabilityDetails(ctx context.Context, crop string) ([]models.FarmerAvailability, error) {
	return f.details[strings.ToLower(crop)], nil
}

// fail reports whether op is the injected failure and its call budget is used up.
func (f *fakeStore) fail(op string) error {
	if f.failOp != op {
		return nil
	}
	f.opCalls++
	if f.opCalls > f.failAfter {
		return fmt.Errorf("injected %s failure", op)
	}
	return nil
}

func (f *fakeStore) lot(id string) models.StockLot {
	for _, l := range f.lots {
		if l.ID == id {
			return l
		}
	}
	return models.StockLot{}
}

type fakeTx struct {
	store  *fakeStore
	lots   []models.StockLot
	orders []models.AllocatedOrder
	closed bool
}

func (t *fakeTx) ListAvailableStock(ctx context.Context, crop string) ([]models.StockLot, error) {
	if err := t.store.fail("list"); err != nil {
		return nil, err
	}
	var out []models.StockLot
	for _, l := range t.lots {
		if strings.EqualFold(l.CropName, crop) && l.AvailableKg > 0 {
			out = append(out, l)
		}
	}
	return out, nil
}

func (t *fakeTx) DecrementStock(ctx context.Context, lotID string, kg float64) error {
	if err := t.store.fail("decrement"); err != nil {
		return err
	}
	for i := range t.lots {
		if t.lots[i].ID == lotID {
			if t.lots[i].AvailableKg < kg {
				return models.ErrInsufficientStock
			}
			t.lots[i].AvailableKg -= kg
			return nil
		}
	}
	return models.ErrNotFound
}

func (t *fakeTx) CreateOrder(ctx context.Context, o models.AllocatedOrder) error {
	if err := t.store.fail("create"); err != nil {
		return err
	}
	t.orders = append(t.orders, o)
	return nil
}

func (t *fakeTx) Commit(ctx context.Context) error {
	if err := t.store.fail("commit"); err != nil {
		return err
	}
	t.store.lots = t.lots
	t.store.orders = append(t.store.orders, t.orders...)
	t.store.commits++
	t.closed = true
	return nil
}

func (t *fakeTx) Rollback(ctx context.Context) error {
	if !t.closed {
		t.store.rollbacks++
		t.closed = true
	}
	return nil
}

type batchRecord struct {
	outcome string
	result  *models.AllocationResult
}

type fakeRecorder struct {
	batches []batchRecord
}

func (r *fakeRecorder) RecordBatch(outcome string, result *models.AllocationResult) {
	r.batches = append(r.batches, batchRecord{outcome, result})
}

func (r *fakeRecorder) RecordRoutePlan(string, int, time.Duration) {}

type fakeNotifier struct {
	sent []notify.Allocation
	err  error
}

func (n *fakeNotifier) NotifyAllocation(ctx context.Context, a notify.Allocation) error {
	n.sent = append(n.sent, a)
	return n.err
}

func visited(day string) *time.Time {
	t, err := time.Parse("2006-01-02", day)
	if err != nil {
		panic(err)
	}
	return &t
}

func stockLot(id, farmer, crop string, kg float64, lastVisited *time.Time) models.StockLot {
	return models.StockLot{
		ID:          id,
		FarmerID:    farmer,
		FarmerName:  "Farmer " + farmer,
		FarmerEmail: farmer + "@example.com",
		FarmID:      "farm-" + farmer,
		CropID:      "crop-" + crop,
		CropName:    crop,
		AvailableKg: kg,
		LastVisited: lastVisited,
	}
}

func newTestEngine(store *fakeStore) (*Engine, *fakeRecorder, *fakeNotifier) {
	rec := &fakeRecorder{}
	n := &fakeNotifier{}
	e := NewEngine(store, units.NewDefaultConverter(), n, rec, logging.Nop())
	seq := 0
	e.newID = func() string {
		seq++
		return fmt.Sprintf("order-%d", seq)
	}
	return e, rec, n
}

func totalKg(lots []models.StockLot) float64 {
	var sum float64
	for _, l := range lots {
		sum += l.AvailableKg
	}
	return sum
}

func TestAllocateSplitsAcrossFarmersNeverVisitedFirst(t *testing.T) {
	store := &fakeStore{lots: []models.StockLot{
		stockLot("lot-b", "B", "maize", 30, visited("2024-01-01")),
		stockLot("lot-a", "A", "maize", 50, nil),
	}}
	e, rec, n := newTestEngine(store)

	res, err := e.Allocate(context.Background(), "admin-1", []models.OrderRequestItem{{Crop: "maize", Quantity: 60, Unit: "kg"}})
	require.NoError(t, err)

	require.Len(t, res.OrdersCreated, 2)
	assert.Empty(t, res.Unfulfilled)
	assert.Equal(t, "A", res.OrdersCreated[0].FarmerID)
	assert.InDelta(t, 50, res.OrdersCreated[0].AssignedKg, 1e-9)
	assert.Equal(t, "B", res.OrdersCreated[1].FarmerID)
	assert.InDelta(t, 10, res.OrdersCreated[1].AssignedKg, 1e-9)
	assert.Equal(t, "admin-1", res.OrdersCreated[0].AdminID)

	assert.InDelta(t, 0, store.lot("lot-a").AvailableKg, 1e-9)
	assert.InDelta(t, 20, store.lot("lot-b").AvailableKg, 1e-9)
	assert.Len(t, store.orders, 2)
	assert.Equal(t, 1, store.commits)

	require.Len(t, rec.batches, 1)
	assert.Equal(t, metrics.OutcomeCommitted, rec.batches[0].outcome)
	assert.Len(t, n.sent, 2)
}

func TestAllocateReportsPartialShortfall(t *testing.T) {
	store := &fakeStore{lots: []models.StockLot{
		stockLot("lot-a", "A", "beans", 25, nil),
		stockLot("lot-b", "B", "beans", 35, visited("2024-03-01")),
	}}
	e, _, _ := newTestEngine(store)

	res, err := e.Allocate(context.Background(), "admin-1", []models.OrderRequestItem{{Crop: "beans", Quantity: 100}})
	require.NoError(t, err)

	var assigned float64
	for _, o := range res.OrdersCreated {
		assigned += o.AssignedKg
	}
	assert.InDelta(t, 60, assigned, 1e-9)
	require.Len(t, res.Unfulfilled, 1)
	u := res.Unfulfilled[0]
	assert.Equal(t, "beans", u.Crop)
	assert.Equal(t, 40.0, u.ShortfallQuantity)
	assert.Equal(t, "kg", u.Unit)
	assert.Equal(t, models.ReasonPartial, u.Reason)
	assert.Zero(t, totalKg(store.lots))
}

func TestAllocateNoFarmersFound(t *testing.T) {
	store := &fakeStore{lots: []models.StockLot{stockLot("lot-a", "A", "maize", 10, nil)}}
	e, _, n := newTestEngine(store)

	res, err := e.Allocate(context.Background(), "admin-1", []models.OrderRequestItem{{Crop: "cassava", Quantity: 3, Unit: "tonne"}})
	require.NoError(t, err)

	assert.Empty(t, res.OrdersCreated)
	require.Len(t, res.Unfulfilled, 1)
	assert.Equal(t, models.ReasonNoFarmers, res.Unfulfilled[0].Reason)
	assert.Equal(t, 3.0, res.Unfulfilled[0].ShortfallQuantity)
	assert.Equal(t, 3000.0, res.Unfulfilled[0].ShortfallKg)
	assert.Empty(t, n.sent)
}

func TestAllocateFullSatisfactionConservesStock(t *testing.T) {
	store := &fakeStore{lots: []models.StockLot{
		stockLot("m1", "A", "maize", 120, visited("2024-02-01")),
		stockLot("m2", "B", "maize", 80, visited("2024-01-01")),
		stockLot("t1", "C", "tomatoes", 500, nil),
	}}
	before := totalKg(store.lots)
	e, _, _ := newTestEngine(store)

	res, err := e.Allocate(context.Background(), "admin-1", []models.OrderRequestItem{
		{Crop: "maize", Quantity: 2, Unit: "bag"},
		{Crop: "Tomatoes", Quantity: 1500, Unit: "g"},
	})
	require.NoError(t, err)
	assert.Empty(t, res.Unfulfilled)

	var assigned float64
	for _, o := range res.OrdersCreated {
		assigned += o.AssignedKg
	}
	assert.InDelta(t, 180+1.5, assigned, 1e-9)
	assert.InDelta(t, before, totalKg(store.lots)+assigned, 1e-9)
	for _, l := range store.lots {
		assert.GreaterOrEqual(t, l.AvailableKg, 0.0)
	}

	// B was visited longest ago, so it is drained before A.
	assert.Equal(t, "B", res.OrdersCreated[0].FarmerID)
	assert.InDelta(t, 80, res.OrdersCreated[0].AssignedKg, 1e-9)
	assert.Equal(t, "A", res.OrdersCreated[1].FarmerID)
	assert.InDelta(t, 100, res.OrdersCreated[1].AssignedKg, 1e-9)
	assert.Equal(t, "bag", res.OrdersCreated[0].OriginalUnit)
	assert.Equal(t, 2.0, res.OrdersCreated[0].OriginalQuantity)
}

func TestAllocateSameFarmerLotsKeepStoreOrder(t *testing.T) {
	store := &fakeStore{lots: []models.StockLot{
		stockLot("a-old", "A", "maize", 5, nil),
		stockLot("a-new", "A", "maize", 5, nil),
	}}
	e, _, _ := newTestEngine(store)

	res, err := e.Allocate(context.Background(), "admin-1", []models.OrderRequestItem{{Crop: "maize", Quantity: 7}})
	require.NoError(t, err)
	require.Len(t, res.OrdersCreated, 2)
	assert.Equal(t, "a-old", res.OrdersCreated[0].LotID)
	assert.Equal(t, "a-new", res.OrdersCreated[1].LotID)
	assert.InDelta(t, 2, res.OrdersCreated[1].AssignedKg, 1e-9)
}

func TestAllocateRollsBackOnMidBatchFailure(t *testing.T) {
	for _, op := range []string{"list", "decrement", "create", "commit"} {
		t.Run(op, func(t *testing.T) {
			store := &fakeStore{
				lots: []models.StockLot{
					stockLot("m1", "A", "maize", 50, nil),
					stockLot("b1", "B", "beans", 50, nil),
					stockLot("s1", "C", "sorghum", 50, nil),
				},
				failOp:    op,
				failAfter: 2,
			}
			if op == "commit" {
				store.failAfter = 0
			}
			e, rec, n := newTestEngine(store)

			res, err := e.Allocate(context.Background(), "admin-1", []models.OrderRequestItem{
				{Crop: "maize", Quantity: 10},
				{Crop: "beans", Quantity: 10},
				{Crop: "sorghum", Quantity: 10},
			})
			require.Error(t, err)
			assert.Nil(t, res)
			assert.ErrorIs(t, err, models.ErrTransactionFailure)

			assert.Equal(t, 150.0, totalKg(store.lots))
			assert.Empty(t, store.orders)
			assert.Zero(t, store.commits)
			assert.Equal(t, 1, store.rollbacks)
			require.Len(t, rec.batches, 1)
			assert.Equal(t, metrics.OutcomeRolledBack, rec.batches[0].outcome)
			assert.Empty(t, n.sent)
		})
	}
}

func TestAllocateBeginFailure(t *testing.T) {
	store := &fakeStore{failOp: "begin"}
	e, _, _ := newTestEngine(store)

	_, err := e.Allocate(context.Background(), "admin-1", []models.OrderRequestItem{{Crop: "maize", Quantity: 1}})
	assert.ErrorIs(t, err, models.ErrTransactionFailure)
}

func TestAllocateValidatesBeforeOpeningTransaction(t *testing.T) {
	cases := []struct {
		name  string
		batch []models.OrderRequestItem
		want  error
	}{
		{"empty batch", nil, models.ErrValidation},
		{"blank crop", []models.OrderRequestItem{{Crop: "  ", Quantity: 1}}, models.ErrValidation},
		{"zero quantity", []models.OrderRequestItem{{Crop: "maize", Quantity: 0}}, models.ErrValidation},
		{"negative quantity", []models.OrderRequestItem{{Crop: "maize", Quantity: -4}}, models.ErrValidation},
		{"quantity overflows kilograms", []models.OrderRequestItem{{Crop: "maize", Quantity: 1e307, Unit: "tonne"}}, models.ErrValidation},
		{"unknown unit in later item", []models.OrderRequestItem{
			{Crop: "maize", Quantity: 1},
			{Crop: "maize", Quantity: 1, Unit: "bushel-ish"},
		}, models.ErrInvalidUnit},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			store := &fakeStore{lots: []models.StockLot{stockLot("m1", "A", "maize", 50, nil)}}
			e, rec, _ := newTestEngine(store)

			_, err := e.Allocate(context.Background(), "admin-1", tc.batch)
			assert.ErrorIs(t, err, tc.want)
			assert.Zero(t, store.begun)
			assert.Equal(t, 50.0, store.lots[0].AvailableKg)
			require.Len(t, rec.batches, 1)
			assert.Equal(t, metrics.OutcomeRejected, rec.batches[0].outcome)
		})
	}
}

func TestAllocateNotificationFailureDoesNotFailBatch(t *testing.T) {
	store := &fakeStore{lots: []models.StockLot{stockLot("m1", "A", "maize", 50, nil)}}
	e, _, n := newTestEngine(store)
	n.err = errors.New("ses throttled")

	res, err := e.Allocate(context.Background(), "admin-1", []models.OrderRequestItem{{Crop: "maize", Quantity: 5}})
	require.NoError(t, err)
	assert.Len(t, res.OrdersCreated, 1)
	assert.Equal(t, 1, store.commits)
}

func TestSortByLastVisited(t *testing.T) {
	lots := []models.StockLot{
		stockLot("c", "C", "maize", 1, visited("2024-05-01")),
		stockLot("a", "A", "maize", 1, nil),
		stockLot("b", "B", "maize", 1, visited("2024-01-01")),
		stockLot("d", "D", "maize", 1, nil),
	}
	sortByLastVisited(lots)

	var got []string
	for _, l := range lots {
		got = append(got, l.ID)
	}
	assert.Equal(t, []string{"a", "d", "b", "c"}, got)
}
