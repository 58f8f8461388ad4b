package inventory

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fabrica/config"
	"fabrica/protocol"
	"fabrica/store"
)

type fixture struct {
	db       *store.DB
	svc      *Service
	customer *store.Customer
	gear     *store.Product
	frame    *store.Product
	steel    *store.RawMaterial
	bolt     *store.RawMaterial
	worker   *store.Employee
}

func newFixture(t *testing.T, cfg Config) *fixture {
	t.Helper()
	db, err := store.Open(&config.DatabaseConfig{
		Driver: "sqlite",
		SQLite: config.SQLiteConfig{Path: filepath.Join(t.TempDir(), "inventory.db")},
	})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	f := &fixture{db: db, svc: New(db, cfg)}
	f.customer = &store.Customer{Name: "Ana", Phone: "5551234", Email: "ana@example.com", PostalCode: "12345-678"}
	require.NoError(t, db.CreateCustomer(f.customer))

	f.gear = &store.Product{Name: "Gear", Stock: 20, Threshold: 5, UnitCost: decimal.RequireFromString("2.50")}
	require.NoError(t, db.CreateProduct(f.gear))
	f.frame = &store.Product{Name: "Frame", Stock: 10, Threshold: 0, UnitCost: decimal.RequireFromString("40")}
	require.NoError(t, db.CreateProduct(f.frame))

	f.steel = &store.RawMaterial{Name: "Steel", Stock: 100, Threshold: 10, UnitCost: decimal.RequireFromString("1")}
	require.NoError(t, db.CreateRawMaterial(f.steel))
	f.bolt = &store.RawMaterial{Name: "Bolt", Stock: 50, Threshold: 0, UnitCost: decimal.RequireFromString("0.10")}
	require.NoError(t, db.CreateRawMaterial(f.bolt))

	// Gear: 2 steel. Frame: 5 steel, 4 bolts.
	require.NoError(t, db.SetBOMItem(&store.BOMItem{ProductID: f.gear.ID, RawMaterialID: f.steel.ID, Quantity: 2}))
	require.NoError(t, db.SetBOMItem(&store.BOMItem{ProductID: f.frame.ID, RawMaterialID: f.steel.ID, Quantity: 5}))
	require.NoError(t, db.SetBOMItem(&store.BOMItem{ProductID: f.frame.ID, RawMaterialID: f.bolt.ID, Quantity: 4}))

	f.worker = &store.Employee{Name: "Bruno", Role: "assembler", Salary: decimal.RequireFromString("3000")}
	require.NoError(t, db.CreateEmployee(f.worker))
	return f
}

func (f *fixture) productStock(t *testing.T, id int64) int {
	t.Helper()
	p, err := f.db.GetProduct(id)
	require.NoError(t, err)
	return p.Stock
}

func (f *fixture) materialStock(t *testing.T, id int64) int {
	t.Helper()
	m, err := f.db.GetRawMaterial(id)
	require.NoError(t, err)
	return m.Stock
}

func (f *fixture) order(status string) *store.Order {
	today := store.Today()
	return &store.Order{
		OrderDate:     today,
		Status:        status,
		PaymentMethod: store.PaymentPix,
		PaymentDate:   today,
		CustomerID:    f.customer.ID,
	}
}

func production(status string) *store.ProductionOrder {
	return &store.ProductionOrder{Status: status, CreatedDate: store.Today()}
}

func TestProcessedOrderDecrementsProducts(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, Config{})

	o := f.order(store.OrderPending)
	lines := []store.LineInput{{ProductID: f.gear.ID, Quantity: 3}, {ProductID: f.frame.ID, Quantity: 1}}
	res, err := f.svc.SaveOrder(ctx, o, lines, nil, "tester")
	require.NoError(t, err)
	assert.Empty(t, res.Adjustments)
	assert.True(t, res.Status.Created)
	assert.Equal(t, 20, f.productStock(t, f.gear.ID))

	res, err = f.svc.SetOrderStatus(ctx, o.ID, store.OrderProcessed, "tester")
	require.NoError(t, err)
	require.Len(t, res.Adjustments, 2)
	assert.Equal(t, store.OrderPending, res.Status.OldStatus)
	assert.Equal(t, 17, f.productStock(t, f.gear.ID))
	assert.Equal(t, 9, f.productStock(t, f.frame.ID))

	moves, err := f.db.ListSourceMovements(SourceOrder, o.ID)
	require.NoError(t, err)
	require.Len(t, moves, 2)
	for _, m := range moves {
		assert.Equal(t, store.ReasonOrderProcessed, m.Reason)
		assert.Equal(t, "tester", m.Actor)
		assert.Less(t, m.Delta, 0)
	}
}

func TestCreateOrderAlreadyProcessed(t *testing.T) {
	f := newFixture(t, Config{})
	_, err := f.svc.SaveOrder(context.Background(), f.order(store.OrderProcessed),
		[]store.LineInput{{ProductID: f.gear.ID, Quantity: 4}}, nil, "")
	require.NoError(t, err)
	assert.Equal(t, 16, f.productStock(t, f.gear.ID))
}

func TestResaveProcessedOrder(t *testing.T) {
	tests := []struct {
		name           string
		transitionOnly bool
		want           int
	}{
		{"default reapplies", false, 14},
		{"transition only", true, 17},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			ctx := context.Background()
			f := newFixture(t, Config{TransitionOnly: tc.transitionOnly})
			o := f.order(store.OrderProcessed)
			_, err := f.svc.SaveOrder(ctx, o, []store.LineInput{{ProductID: f.gear.ID, Quantity: 3}}, nil, "")
			require.NoError(t, err)
			require.Equal(t, 17, f.productStock(t, f.gear.ID))

			res, err := f.svc.SaveOrder(ctx, o, nil, nil, "")
			require.NoError(t, err)
			assert.False(t, res.Status.Changed())
			assert.Equal(t, tc.want, f.productStock(t, f.gear.ID))
		})
	}
}

func TestDeliveredOrderDoesNotAdjust(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, Config{})
	o := f.order(store.OrderPending)
	_, err := f.svc.SaveOrder(ctx, o, []store.LineInput{{ProductID: f.gear.ID, Quantity: 3}}, nil, "")
	require.NoError(t, err)
	res, err := f.svc.SetOrderStatus(ctx, o.ID, store.OrderDelivered, "")
	require.NoError(t, err)
	assert.Empty(t, res.Adjustments)
	assert.Equal(t, 20, f.productStock(t, f.gear.ID))
}

func TestStockMayGoNegative(t *testing.T) {
	f := newFixture(t, Config{})
	res, err := f.svc.SaveOrder(context.Background(), f.order(store.OrderProcessed),
		[]store.LineInput{{ProductID: f.frame.ID, Quantity: 12}}, nil, "")
	require.NoError(t, err)
	assert.Equal(t, -2, f.productStock(t, f.frame.ID))
	require.Len(t, res.Adjustments, 1)
	assert.Equal(t, -2, res.Adjustments[0].StockAfter)
}

func TestCompletedProductionIncrementsProducts(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, Config{TransitionOnly: true})
	po := production(store.ProductionCompleted)
	res, err := f.svc.SaveProductionOrder(ctx, po,
		[]store.LineInput{{ProductID: f.gear.ID, Quantity: 6}, {ProductID: f.frame.ID, Quantity: 2}},
		[]int64{f.worker.ID}, "")
	require.NoError(t, err)
	require.Len(t, res.Adjustments, 2)
	assert.Equal(t, 26, f.productStock(t, f.gear.ID))
	assert.Equal(t, 12, f.productStock(t, f.frame.ID))
	assert.Equal(t, 100, f.materialStock(t, f.steel.ID), "completion must not consume materials")

	emps, err := f.db.ProductionOrderEmployees(po.ID)
	require.NoError(t, err)
	require.Len(t, emps, 1)
	assert.Equal(t, "Bruno", emps[0].Name)
}

func TestPendingProductionConsumesMaterials(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, Config{})
	po := production(store.ProductionPending)
	_, err := f.svc.SaveProductionOrder(ctx, po,
		[]store.LineInput{{ProductID: f.gear.ID, Quantity: 3}, {ProductID: f.frame.ID, Quantity: 2}}, nil, "")
	require.NoError(t, err)

	// steel: 3*2 + 2*5 = 16, bolts: 2*4 = 8
	assert.Equal(t, 84, f.materialStock(t, f.steel.ID))
	assert.Equal(t, 42, f.materialStock(t, f.bolt.ID))
	assert.Equal(t, 20, f.productStock(t, f.gear.ID))

	// Re-saving as Pending consumes again in the default mode.
	_, err = f.svc.SaveProductionOrder(ctx, po, nil, nil, "")
	require.NoError(t, err)
	assert.Equal(t, 68, f.materialStock(t, f.steel.ID))

	res, err := f.svc.SetProductionOrderStatus(ctx, po.ID, store.ProductionCompleted, "")
	require.NoError(t, err)
	require.Len(t, res.Adjustments, 2)
	assert.Equal(t, 23, f.productStock(t, f.gear.ID))
	assert.Equal(t, 68, f.materialStock(t, f.steel.ID))
}

func TestPendingProductionTransitionOnly(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, Config{TransitionOnly: true})
	po := production(store.ProductionPending)
	_, err := f.svc.SaveProductionOrder(ctx, po, []store.LineInput{{ProductID: f.gear.ID, Quantity: 5}}, nil, "")
	require.NoError(t, err)
	assert.Equal(t, 90, f.materialStock(t, f.steel.ID))

	_, err = f.svc.SetProductionOrderStatus(ctx, po.ID, store.ProductionPending, "")
	require.NoError(t, err)
	assert.Equal(t, 90, f.materialStock(t, f.steel.ID))
}

func TestFailedAdjustmentRollsBack(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, Config{})
	o := f.order(store.OrderPending)
	_, err := f.svc.SaveOrder(ctx, o, []store.LineInput{{ProductID: f.gear.ID, Quantity: 3}}, nil, "")
	require.NoError(t, err)

	// The unknown product fails the line insert after the status write.
	o.Status = store.OrderProcessed
	_, err = f.svc.SaveOrder(ctx, o, []store.LineInput{{ProductID: f.gear.ID, Quantity: 1}, {ProductID: 9999, Quantity: 1}}, nil, "")
	require.Error(t, err)

	got, err := f.db.GetOrder(o.ID)
	require.NoError(t, err)
	assert.Equal(t, store.OrderPending, got.Status)
	assert.Equal(t, 20, f.productStock(t, f.gear.ID))
	lines, err := f.db.OrderLines(o.ID)
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, 3, lines[0].Quantity)

	moves, err := f.db.ListMovements(10)
	require.NoError(t, err)
	assert.Empty(t, moves)
}

func TestUnknownEmployeeRollsBackOrder(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, Config{})

	_, err := f.svc.SaveOrder(ctx, f.order(store.OrderProcessed),
		[]store.LineInput{{ProductID: f.gear.ID, Quantity: 3}}, []int64{9999}, "")
	require.Error(t, err)

	orders, err := f.db.ListOrders()
	require.NoError(t, err)
	assert.Empty(t, orders)
	assert.Equal(t, 20, f.productStock(t, f.gear.ID))
	moves, err := f.db.ListMovements(10)
	require.NoError(t, err)
	assert.Empty(t, moves)

	o := f.order(store.OrderProcessed)
	_, err = f.svc.SaveOrder(ctx, o, []store.LineInput{{ProductID: f.gear.ID, Quantity: 3}}, []int64{f.worker.ID}, "")
	require.NoError(t, err)
	assert.Equal(t, 17, f.productStock(t, f.gear.ID))
	emps, err := f.db.OrderEmployees(o.ID)
	require.NoError(t, err)
	require.Len(t, emps, 1)
	assert.Equal(t, f.worker.ID, emps[0].ID)
}

func TestPurchaseRawMaterial(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, Config{})
	res, err := f.svc.PurchaseRawMaterial(ctx, f.bolt.ID, 25, "buyer")
	require.NoError(t, err)
	require.Len(t, res.Adjustments, 1)
	assert.Equal(t, 75, f.materialStock(t, f.bolt.ID))
	assert.Equal(t, store.ReasonPurchase, res.Adjustments[0].Reason)

	_, err = f.svc.PurchaseRawMaterial(ctx, f.bolt.ID, 0, "buyer")
	var verr *store.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "quantity", verr.Field)

	_, err = f.svc.PurchaseRawMaterial(ctx, 9999, 5, "buyer")
	assert.True(t, errors.Is(err, store.ErrNotFound))
}

func TestCorrectStock(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, Config{})
	res, err := f.svc.CorrectStock(ctx, store.KindProduct, f.gear.ID, -4, " damaged ", "admin")
	require.NoError(t, err)
	assert.Equal(t, 16, f.productStock(t, f.gear.ID))
	assert.Equal(t, "correction: damaged", res.Adjustments[0].Reason)
	assert.Equal(t, SourceManual, res.Adjustments[0].SourceKind)

	_, err = f.svc.CorrectStock(ctx, store.KindProduct, f.gear.ID, 1, "  ", "admin")
	assert.Error(t, err)
	_, err = f.svc.CorrectStock(ctx, store.KindProduct, f.gear.ID, 0, "x", "admin")
	assert.Error(t, err)
	_, err = f.svc.CorrectStock(ctx, "widget", f.gear.ID, 1, "x", "admin")
	assert.Error(t, err)
}

func TestOutboxEvents(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, Config{Outbox: true, LowStockEvents: true, EventsTopic: "fabrica.events", SourceID: "test"})

	o := f.order(store.OrderPending)
	_, err := f.svc.SaveOrder(ctx, o, []store.LineInput{{ProductID: f.gear.ID, Quantity: 18}}, nil, "")
	require.NoError(t, err)
	_, err = f.svc.SetOrderStatus(ctx, o.ID, store.OrderProcessed, "")
	require.NoError(t, err)

	msgs, err := f.db.ListPendingOutbox(50)
	require.NoError(t, err)
	var types []string
	for _, m := range msgs {
		assert.Equal(t, "fabrica.events", m.Topic)
		types = append(types, m.MsgType)
	}
	// created, processed, gear adjusted and left at 2 < 5
	assert.Equal(t, []string{
		protocol.TypeOrderStatus,
		protocol.TypeOrderStatus,
		protocol.TypeStockAdjusted,
		protocol.TypeStockLow,
	}, types)

	env, err := protocol.Decode(msgs[3].Payload)
	require.NoError(t, err)
	var low protocol.StockLow
	require.NoError(t, env.DecodePayload(&low))
	assert.Equal(t, f.gear.ID, low.ItemID)
	assert.Equal(t, 3, low.Shortfall)
	assert.Equal(t, "test", env.Src.Node)
}

func TestNoOutboxWhenDisabled(t *testing.T) {
	f := newFixture(t, Config{})
	_, err := f.svc.PurchaseRawMaterial(context.Background(), f.steel.ID, 1, "")
	require.NoError(t, err)
	n, err := f.db.PendingOutboxCount()
	require.NoError(t, err)
	assert.Zero(t, n)
}
