package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"fabrica/config"
	"fabrica/filter"

	"github.com/shopspring/decimal"
)

// testDB creates a temporary SQLite database for testing.
func testDB(t *testing.T) *DB {
	t.Helper()
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "test.db")

	db, err := Open(&config.DatabaseConfig{
		Driver: "sqlite",
		SQLite: config.SQLiteConfig{Path: dbPath},
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() {
		db.Close()
		os.Remove(dbPath)
	})
	return db
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func mustCustomer(t *testing.T, db *DB, name string) *Customer {
	t.Helper()
	c := &Customer{Name: name, Phone: "5511999990000", Email: "x@example.com", Number: 10, PostalCode: "01234-567"}
	if err := db.CreateCustomer(c); err != nil {
		t.Fatalf("create customer: %v", err)
	}
	return c
}

func mustProduct(t *testing.T, db *DB, name string, stock, threshold int, cost string) *Product {
	t.Helper()
	p := &Product{Name: name, Stock: stock, Threshold: threshold, UnitCost: dec(cost)}
	if err := db.CreateProduct(p); err != nil {
		t.Fatalf("create product: %v", err)
	}
	return p
}

func mustRawMaterial(t *testing.T, db *DB, name string, stock, threshold int) *RawMaterial {
	t.Helper()
	m := &RawMaterial{Name: name, UnitCost: dec("1.50"), Stock: stock, Threshold: threshold}
	if err := db.CreateRawMaterial(m); err != nil {
		t.Fatalf("create raw material: %v", err)
	}
	return m
}

func mustOrder(t *testing.T, db *DB, customerID int64, date Date, status string, lines ...LineInput) *Order {
	t.Helper()
	o := &Order{OrderDate: date, Status: status, PaymentMethod: PaymentPix, PaymentDate: date, CustomerID: customerID}
	err := db.InTx(context.Background(), func(tx *Tx) error {
		if err := tx.InsertOrder(o); err != nil {
			return err
		}
		return tx.ReplaceOrderLines(o.ID, lines)
	})
	if err != nil {
		t.Fatalf("create order: %v", err)
	}
	return o
}

func TestCustomerCRUD(t *testing.T) {
	db := testDB(t)

	c := &Customer{Name: "Ana Souza", Phone: "11999990000", Email: "ana@example.com", Number: 42, PostalCode: "12345-678", Street: "Rua A"}
	if err := db.CreateCustomer(c); err != nil {
		t.Fatalf("create: %v", err)
	}
	if c.ID == 0 {
		t.Fatal("ID should be assigned")
	}

	got, err := db.GetCustomer(c.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Name != "Ana Souza" || got.Street != "Rua A" || got.Complement != "" {
		t.Errorf("got %+v", got)
	}

	got.Complement = "apto 3"
	if err := db.UpdateCustomer(got); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, _ = db.GetCustomer(c.ID)
	if got.Complement != "apto 3" {
		t.Errorf("Complement = %q, want %q", got.Complement, "apto 3")
	}

	if err := db.DeleteCustomer(c.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := db.GetCustomer(c.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("get after delete: err = %v, want ErrNotFound", err)
	}
	if err := db.DeleteCustomer(c.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("second delete: err = %v, want ErrNotFound", err)
	}
}

func TestCustomerValidation(t *testing.T) {
	db := testDB(t)
	tests := []struct {
		name  string
		c     Customer
		field string
	}{
		{"bad email", Customer{Name: "A", Phone: "1", Email: "nope", PostalCode: "12345-678"}, "email"},
		{"bad postal code", Customer{Name: "A", Phone: "1", Email: "a@b.co", PostalCode: "12345678"}, "postal_code"},
		{"negative number", Customer{Name: "A", Phone: "1", Email: "a@b.co", PostalCode: "12345-678", Number: -1}, "number"},
		{"missing name", Customer{Phone: "1", Email: "a@b.co", PostalCode: "12345-678"}, "name"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := db.CreateCustomer(&tc.c)
			var ve *ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("err = %v, want ValidationError", err)
			}
			if ve.Field != tc.field {
				t.Errorf("Field = %q, want %q", ve.Field, tc.field)
			}
		})
	}
}

func TestOrderDateValidation(t *testing.T) {
	db := testDB(t)
	c := mustCustomer(t, db, "Bia")
	today := Today()

	future := &Order{OrderDate: today.AddDays(1), Status: OrderPending, PaymentMethod: PaymentCash, PaymentDate: today.AddDays(1), CustomerID: c.ID}
	err := db.InTx(context.Background(), func(tx *Tx) error { return tx.InsertOrder(future) })
	var ve *ValidationError
	if !errors.As(err, &ve) || ve.Field != "order_date" {
		t.Errorf("future order: err = %v, want order_date validation error", err)
	}

	early := today.AddDays(-5)
	o := &Order{OrderDate: today.AddDays(-2), DeliveryDate: &early, Status: OrderPending, PaymentMethod: PaymentCash, PaymentDate: today.AddDays(-2), CustomerID: c.ID}
	err = db.InTx(context.Background(), func(tx *Tx) error { return tx.InsertOrder(o) })
	if !errors.As(err, &ve) || ve.Field != "delivery_date" {
		t.Errorf("early delivery: err = %v, want delivery_date validation error", err)
	}

	o.Status = "Shipped"
	o.DeliveryDate = nil
	err = db.InTx(context.Background(), func(tx *Tx) error { return tx.InsertOrder(o) })
	if !errors.As(err, &ve) || ve.Field != "status" {
		t.Errorf("bad status: err = %v, want status validation error", err)
	}
}

func TestOrderRoundTrip(t *testing.T) {
	db := testDB(t)
	c := mustCustomer(t, db, "Caio")
	p1 := mustProduct(t, db, "Bolt", 10, 0, "2.50")
	p2 := mustProduct(t, db, "Nut", 10, 0, "0.75")
	day := Today().AddDays(-3)

	o := mustOrder(t, db, c.ID, day, OrderPending, LineInput{ProductID: p1.ID, Quantity: 4}, LineInput{ProductID: p2.ID, Quantity: 2})

	got, err := db.GetOrder(o.ID)
	if err != nil {
		t.Fatalf("get order: %v", err)
	}
	if got.OrderDate.String() != day.String() {
		t.Errorf("OrderDate = %s, want %s", got.OrderDate, day)
	}
	if got.DeliveryDate != nil {
		t.Errorf("DeliveryDate = %v, want nil", got.DeliveryDate)
	}
	if got.CustomerName != "Caio" {
		t.Errorf("CustomerName = %q, want Caio", got.CustomerName)
	}

	lines, err := db.OrderLines(o.ID)
	if err != nil {
		t.Fatalf("lines: %v", err)
	}
	if len(lines) != 2 {
		t.Fatalf("len(lines) = %d, want 2", len(lines))
	}
	if !lines[0].Subtotal.Equal(dec("10")) {
		t.Errorf("Subtotal = %s, want 10", lines[0].Subtotal)
	}

	err = db.InTx(context.Background(), func(tx *Tx) error {
		return tx.ReplaceOrderLines(o.ID, []LineInput{{ProductID: p1.ID, Quantity: 1}, {ProductID: p1.ID, Quantity: 2}})
	})
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Errorf("duplicate product lines: err = %v, want ValidationError", err)
	}
}

func TestAdjustStockAndMovements(t *testing.T) {
	db := testDB(t)
	p := mustProduct(t, db, "Gear", 5, 3, "9.90")

	err := db.InTx(context.Background(), func(tx *Tx) error {
		lvl, err := tx.AdjustStock(KindProduct, p.ID, -4)
		if err != nil {
			return err
		}
		if lvl.Stock != 1 || !lvl.Low() || lvl.Name != "Gear" {
			t.Errorf("level = %+v", lvl)
		}
		return tx.RecordMovement(&StockMovement{ItemKind: KindProduct, ItemID: p.ID, Delta: -4, StockAfter: lvl.Stock, Reason: ReasonCorrection})
	})
	if err != nil {
		t.Fatalf("adjust: %v", err)
	}

	got, _ := db.GetProduct(p.ID)
	if got.Stock != 1 {
		t.Errorf("Stock = %d, want 1", got.Stock)
	}
	moves, err := db.ListItemMovements(KindProduct, p.ID, 10)
	if err != nil {
		t.Fatalf("movements: %v", err)
	}
	if len(moves) != 1 || moves[0].Delta != -4 || moves[0].Actor != "system" {
		t.Errorf("movements = %+v", moves)
	}

	low, err := db.ListLowStock()
	if err != nil {
		t.Fatalf("low stock: %v", err)
	}
	if len(low) != 1 || low[0].ID != p.ID || low[0].Kind != KindProduct {
		t.Errorf("low = %+v", low)
	}

	err = db.InTx(context.Background(), func(tx *Tx) error {
		_, err := tx.AdjustStock(KindRawMaterial, 999, 1)
		return err
	})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("adjust missing item: err = %v, want ErrNotFound", err)
	}
}

func TestInTxRollback(t *testing.T) {
	db := testDB(t)
	p := mustProduct(t, db, "Gear", 5, 0, "1")
	boom := errors.New("boom")

	err := db.InTx(context.Background(), func(tx *Tx) error {
		if _, err := tx.AdjustStock(KindProduct, p.ID, 10); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want boom", err)
	}
	got, _ := db.GetProduct(p.ID)
	if got.Stock != 5 {
		t.Errorf("Stock = %d after rollback, want 5", got.Stock)
	}
}

func TestMaterialRequirements(t *testing.T) {
	db := testDB(t)
	chair := mustProduct(t, db, "Chair", 0, 0, "50")
	table := mustProduct(t, db, "Table", 0, 0, "120")
	wood := mustRawMaterial(t, db, "Wood", 100, 10)
	screw := mustRawMaterial(t, db, "Screw", 500, 50)
	for _, b := range []*BOMItem{
		{ProductID: chair.ID, RawMaterialID: wood.ID, Quantity: 2},
		{ProductID: chair.ID, RawMaterialID: screw.ID, Quantity: 8},
		{ProductID: table.ID, RawMaterialID: wood.ID, Quantity: 5},
	} {
		if err := db.SetBOMItem(b); err != nil {
			t.Fatalf("bom: %v", err)
		}
	}

	var reqs []MaterialRequirement
	err := db.InTx(context.Background(), func(tx *Tx) error {
		po := &ProductionOrder{Status: ProductionPending, CreatedDate: Today()}
		if err := tx.InsertProductionOrder(po); err != nil {
			return err
		}
		if err := tx.ReplaceProductionOrderLines(po.ID, []LineInput{{ProductID: chair.ID, Quantity: 3}, {ProductID: table.ID, Quantity: 1}}); err != nil {
			return err
		}
		var err error
		reqs, err = tx.MaterialRequirements(po.ID)
		return err
	})
	if err != nil {
		t.Fatalf("requirements: %v", err)
	}
	want := map[int64]int{wood.ID: 3*2 + 5, screw.ID: 3 * 8}
	if len(reqs) != len(want) {
		t.Fatalf("reqs = %+v", reqs)
	}
	for _, r := range reqs {
		if r.Quantity != want[r.RawMaterialID] {
			t.Errorf("material %d: quantity = %d, want %d", r.RawMaterialID, r.Quantity, want[r.RawMaterialID])
		}
	}

	bom, _ := db.ListBOM(chair.ID)
	if len(bom) != 2 {
		t.Errorf("len(bom) = %d, want 2", len(bom))
	}
	if err := db.SetBOMItem(&BOMItem{ProductID: chair.ID, RawMaterialID: wood.ID, Quantity: 3}); err != nil {
		t.Fatalf("bom upsert: %v", err)
	}
	bom, _ = db.ListBOM(chair.ID)
	if len(bom) != 2 {
		t.Errorf("len(bom) after upsert = %d, want 2", len(bom))
	}
}

func TestSearchCustomers(t *testing.T) {
	db := testDB(t)
	mustCustomer(t, db, "Ana Lima")
	mustCustomer(t, db, "Bruno Lima")
	mustCustomer(t, db, "Carla Dias")

	got, err := db.SearchCustomers(filter.CustomerCriteria{Name: "Lima"})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	for _, c := range got {
		if c.Name == "Carla Dias" {
			t.Errorf("unexpected %q", c.Name)
		}
	}

	all, _ := db.SearchCustomers(filter.CustomerCriteria{})
	if len(all) != 3 {
		t.Errorf("unfiltered len = %d, want 3", len(all))
	}
}

func TestSearchOrdersTotalsAndFilters(t *testing.T) {
	db := testDB(t)
	c1 := mustCustomer(t, db, "Ana")
	c2 := mustCustomer(t, db, "Beto")
	bolt := mustProduct(t, db, "Bolt", 100, 0, "2.50")
	gear := mustProduct(t, db, "Gear", 100, 0, "10.00")
	today := Today()

	small := mustOrder(t, db, c1.ID, today.AddDays(-10), OrderPending, LineInput{ProductID: bolt.ID, Quantity: 2})
	big := mustOrder(t, db, c2.ID, today.AddDays(-1), OrderProcessed,
		LineInput{ProductID: bolt.ID, Quantity: 4}, LineInput{ProductID: gear.ID, Quantity: 3})
	mustOrder(t, db, c1.ID, today.AddDays(-2), OrderPending)

	all, err := db.SearchOrders(filter.OrderCriteria{})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("len = %d, want 2 (orders without lines are excluded)", len(all))
	}
	if all[0].ID != big.ID {
		t.Errorf("first order = %d, want newest %d", all[0].ID, big.ID)
	}
	if !all[0].Total.Equal(dec("40")) {
		t.Errorf("big total = %s, want 40", all[0].Total)
	}
	if len(all[0].Lines) != 2 {
		t.Errorf("big lines = %d, want 2", len(all[0].Lines))
	}
	if !all[1].Total.Equal(dec("5")) {
		t.Errorf("small total = %s, want 5", all[1].Total)
	}

	minTotal := dec("6")
	got, err := db.SearchOrders(filter.OrderCriteria{Total: filter.DecimalRange{Min: &minTotal}})
	if err != nil {
		t.Fatalf("search total: %v", err)
	}
	if len(got) != 1 || got[0].ID != big.ID {
		t.Errorf("total >= 6: got %d orders", len(got))
	}

	got, _ = db.SearchOrders(filter.OrderCriteria{Status: "Pend", CustomerID: &c1.ID})
	if len(got) != 1 || got[0].ID != small.ID {
		t.Errorf("status/customer filter: got %d orders", len(got))
	}

	from := today.AddDays(-5).Time
	got, _ = db.SearchOrders(filter.OrderCriteria{OrderDate: filter.DateRange{From: &from}})
	if len(got) != 1 || got[0].ID != big.ID {
		t.Errorf("order date filter: got %d orders", len(got))
	}

	// delivery ranges keep orders without a delivery date
	to := today.AddDays(-30).Time
	got, _ = db.SearchOrders(filter.OrderCriteria{DeliveryDate: filter.DateRange{To: &to}})
	if len(got) != 2 {
		t.Errorf("delivery date filter: got %d orders, want 2", len(got))
	}
}

func TestSearchOrdersTotalBoundaryIsExact(t *testing.T) {
	db := testDB(t)
	c := mustCustomer(t, db, "Ana")
	clip := mustProduct(t, db, "Clip", 100, 0, "0.10")
	o := mustOrder(t, db, c.ID, Today(), OrderPending, LineInput{ProductID: clip.ID, Quantity: 3})

	// 0.10 * 3 is 0.30000000000000004 in REAL arithmetic
	exact := dec("0.30")
	for name, r := range map[string]filter.DecimalRange{
		"max":  {Max: &exact},
		"min":  {Min: &exact},
		"both": {Min: &exact, Max: &exact},
	} {
		got, err := db.SearchOrders(filter.OrderCriteria{Total: r})
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		if len(got) != 1 || got[0].ID != o.ID {
			t.Errorf("%s = 0.30: got %d orders, want 1", name, len(got))
			continue
		}
		if !got[0].Total.Equal(exact) {
			t.Errorf("%s: total = %s, want 0.30", name, got[0].Total)
		}
	}

	below := dec("0.29")
	got, _ := db.SearchOrders(filter.OrderCriteria{Total: filter.DecimalRange{Max: &below}})
	if len(got) != 0 {
		t.Errorf("max 0.29: got %d orders, want 0", len(got))
	}
}

func TestCustomerRecentOrders(t *testing.T) {
	db := testDB(t)
	c := mustCustomer(t, db, "Ana")
	bolt := mustProduct(t, db, "Bolt", 100, 0, "2.50")
	gear := mustProduct(t, db, "Gear", 100, 0, "10")
	today := Today()

	recent := mustOrder(t, db, c.ID, today.AddDays(-3), OrderPending,
		LineInput{ProductID: bolt.ID, Quantity: 2}, LineInput{ProductID: gear.ID, Quantity: 1})
	mustOrder(t, db, c.ID, today.AddDays(-45), OrderPending, LineInput{ProductID: bolt.ID, Quantity: 1})

	got, err := db.CustomerRecentOrders(c.ID, today)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(got) != 1 || got[0].ID != recent.ID {
		t.Fatalf("got %d orders, want only the recent one", len(got))
	}
	if len(got[0].Lines) != 2 {
		t.Errorf("lines = %d, want 2", len(got[0].Lines))
	}
	if !got[0].Total.Equal(dec("15")) {
		t.Errorf("Total = %s, want 15", got[0].Total)
	}
}

func TestSearchSuppliers(t *testing.T) {
	db := testDB(t)
	wood := mustRawMaterial(t, db, "Oak wood", 0, 0)
	steel := mustRawMaterial(t, db, "Steel", 0, 0)
	mk := func(name, rating string) *Supplier {
		s := &Supplier{Name: name, Phone: "1", Email: "s@example.com"}
		if rating != "" {
			s.Rating = decimal.NullDecimal{Decimal: dec(rating), Valid: true}
		}
		if err := db.CreateSupplier(s); err != nil {
			t.Fatalf("create supplier: %v", err)
		}
		return s
	}
	a := mk("Alpha", "3.5")
	b := mk("Beta", "4.8")
	mk("Gamma", "")
	db.SetSupplyOffer(&SupplyOffer{SupplierID: a.ID, RawMaterialID: wood.ID, Price: dec("10")})
	db.SetSupplyOffer(&SupplyOffer{SupplierID: b.ID, RawMaterialID: steel.ID, Price: dec("30")})
	db.SetSupplyOffer(&SupplyOffer{SupplierID: b.ID, RawMaterialID: wood.ID, Price: dec("12")})

	all, err := db.SearchSuppliers(filter.SupplierCriteria{})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(all) != 3 || all[0].ID != b.ID || all[1].ID != a.ID || all[2].Rating.Valid {
		t.Fatalf("order by rating wrong: %+v", all)
	}
	if len(all[0].Offers) != 2 {
		t.Errorf("Beta offers = %d, want 2", len(all[0].Offers))
	}

	got, _ := db.SearchSuppliers(filter.SupplierCriteria{Material: "steel"})
	if len(got) != 1 || got[0].ID != b.ID {
		t.Errorf("material filter: got %+v", got)
	}

	minRating := dec("4")
	got, _ = db.SearchSuppliers(filter.SupplierCriteria{Rating: filter.DecimalRange{Min: &minRating}})
	if len(got) != 1 || got[0].ID != b.ID {
		t.Errorf("rating filter: got %+v", got)
	}

	offers, err := db.ListMaterialOffers(wood.ID)
	if err != nil {
		t.Fatalf("offers: %v", err)
	}
	if len(offers) != 2 || offers[0].SupplierID != a.ID {
		t.Errorf("offers not ordered by price: %+v", offers)
	}

	if err := db.SetSupplierRating(a.ID, dec("5")); err != nil {
		t.Fatalf("rate: %v", err)
	}
	got1, _ := db.GetSupplier(a.ID)
	if !got1.Rating.Valid || !got1.Rating.Decimal.Equal(dec("5")) {
		t.Errorf("Rating = %v, want 5", got1.Rating)
	}
	var ve *ValidationError
	if err := db.SetSupplierRating(a.ID, dec("5.5")); !errors.As(err, &ve) {
		t.Errorf("rating 5.5: err = %v, want ValidationError", err)
	}
}

func TestSearchStock(t *testing.T) {
	db := testDB(t)
	mustProduct(t, db, "Bolt", 10, 2, "1")
	low := mustProduct(t, db, "Gear", 1, 20, "5")
	mustProduct(t, db, "Nut", 7, 7, "0.5")

	all, err := db.SearchProducts(filter.StockCriteria{})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(all) != 3 || all[0].ID != low.ID {
		t.Fatalf("expected largest shortfall first, got %+v", all)
	}

	minStock := 5
	got, _ := db.SearchProducts(filter.StockCriteria{Stock: filter.IntRange{Min: &minStock}})
	if len(got) != 2 {
		t.Errorf("stock >= 5: len = %d, want 2", len(got))
	}

	maxCost := dec("1")
	got, _ = db.SearchProducts(filter.StockCriteria{UnitCost: filter.DecimalRange{Max: &maxCost}})
	if len(got) != 2 {
		t.Errorf("cost <= 1: len = %d, want 2", len(got))
	}

	lows, _ := db.LowStockProducts()
	if len(lows) != 1 || lows[0].ID != low.ID {
		t.Errorf("low stock = %+v", lows)
	}

	mustRawMaterial(t, db, "Wood", 3, 10)
	mats, _ := db.SearchRawMaterials(filter.StockCriteria{Name: "oo"})
	if len(mats) != 1 {
		t.Errorf("raw material name filter: len = %d, want 1", len(mats))
	}
	if lm, _ := db.LowStockRawMaterials(); len(lm) != 1 {
		t.Errorf("low stock raw materials = %d, want 1", len(lm))
	}
}

func TestSearchProductionOrders(t *testing.T) {
	db := testDB(t)
	chair := mustProduct(t, db, "Chair", 0, 0, "50")
	table := mustProduct(t, db, "Table", 0, 0, "120")
	welder := &Employee{Name: "Rui", Role: "welder", Salary: dec("3000")}
	painter := &Employee{Name: "Lia", Role: "painter", Salary: dec("2800")}
	db.CreateEmployee(welder)
	db.CreateEmployee(painter)
	today := Today()

	create := func(status string, created Date, lines []LineInput, emps []int64) *ProductionOrder {
		po := &ProductionOrder{Status: status, CreatedDate: created}
		err := db.InTx(context.Background(), func(tx *Tx) error {
			if err := tx.InsertProductionOrder(po); err != nil {
				return err
			}
			if err := tx.ReplaceProductionOrderLines(po.ID, lines); err != nil {
				return err
			}
			return tx.ReplaceProductionOrderEmployees(po.ID, emps)
		})
		if err != nil {
			t.Fatalf("create production order: %v", err)
		}
		return po
	}
	done := create(ProductionCompleted, today.AddDays(-9), []LineInput{{ProductID: chair.ID, Quantity: 4}}, []int64{welder.ID})
	pending := create(ProductionPending, today.AddDays(-2), []LineInput{{ProductID: table.ID, Quantity: 1}, {ProductID: chair.ID, Quantity: 10}}, []int64{painter.ID, welder.ID})
	create(ProductionPending, today.AddDays(-1), []LineInput{{ProductID: table.ID, Quantity: 2}}, nil)

	all, err := db.SearchProductionOrders(filter.ProductionCriteria{})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("len = %d, want 2 (order without employees is hidden)", len(all))
	}
	if all[0].ID != pending.ID || all[1].ID != done.ID {
		t.Errorf("expected pending first, got %d then %d", all[0].ID, all[1].ID)
	}

	got, _ := db.SearchProductionOrders(filter.ProductionCriteria{EmployeeRole: "paint"})
	if len(got) != 1 || got[0].ID != pending.ID || len(got[0].Employees) != 1 {
		t.Errorf("employee role filter: %+v", got)
	}

	minQty := 5
	got, _ = db.SearchProductionOrders(filter.ProductionCriteria{LineQuantity: filter.IntRange{Min: &minQty}})
	if len(got) != 1 || got[0].ID != pending.ID || len(got[0].Lines) != 1 || got[0].Lines[0].ProductName != "Chair" {
		t.Errorf("line quantity filter: %+v", got)
	}

	got, _ = db.SearchProductionOrders(filter.ProductionCriteria{Status: ProductionCompleted})
	if len(got) != 1 || got[0].ID != done.ID {
		t.Errorf("status filter: %+v", got)
	}
}

func TestAdminSearch(t *testing.T) {
	db := testDB(t)
	c := mustCustomer(t, db, "Zeca")
	mustCustomer(t, db, "Maria")
	p := mustProduct(t, db, "Bolt", 10, 0, "1")
	o := mustOrder(t, db, c.ID, Today(), OrderPending, LineInput{ProductID: p.ID, Quantity: 1})

	cs, err := db.AdminSearchCustomers("zec")
	if err != nil {
		t.Fatalf("customers: %v", err)
	}
	if len(cs) != 1 {
		t.Errorf("customers = %d, want 1", len(cs))
	}
	orders, err := db.AdminSearchOrders("Zeca")
	if err != nil {
		t.Fatalf("orders: %v", err)
	}
	if len(orders) != 1 || orders[0].ID != o.ID {
		t.Errorf("orders by customer name = %+v", orders)
	}
}

func TestOutbox(t *testing.T) {
	db := testDB(t)
	if err := db.EnqueueOutbox("fabrica.events", []byte(`{"a":1}`), "stock.adjusted", "fabrica"); err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	msgs, err := db.ListPendingOutbox(10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(msgs) != 1 || msgs[0].MsgType != "stock.adjusted" || string(msgs[0].Payload) != `{"a":1}` {
		t.Fatalf("msgs = %+v", msgs)
	}
	if err := db.IncrementOutboxRetries(msgs[0].ID); err != nil {
		t.Fatalf("retry: %v", err)
	}
	if err := db.AckOutbox(msgs[0].ID); err != nil {
		t.Fatalf("ack: %v", err)
	}
	if n, _ := db.PendingOutboxCount(); n != 0 {
		t.Errorf("pending = %d, want 0", n)
	}
}

func TestAuditLog(t *testing.T) {
	db := testDB(t)
	db.AppendAudit("order", 3, "status", "Pending", "Processed", "admin")
	db.AppendAudit("product", 1, "stock", "5", "3", "")

	all, err := db.ListAuditLog(10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 2 || all[0].EntityType != "product" || all[0].Actor != "system" {
		t.Errorf("audit = %+v", all)
	}
	entries, _ := db.ListEntityAudit("order", 3)
	if len(entries) != 1 || entries[0].NewValue != "Processed" {
		t.Errorf("entity audit = %+v", entries)
	}
	if entries[0].CreatedAt.IsZero() {
		t.Error("CreatedAt should be parsed")
	}
	mine, err := db.ListActorAudit("admin", 10)
	if err != nil || len(mine) != 1 || mine[0].EntityType != "order" {
		t.Errorf("actor audit = %+v, err = %v", mine, err)
	}
}

func TestAdminUsers(t *testing.T) {
	db := testDB(t)
	exists, err := db.AdminUserExists()
	if err != nil || exists {
		t.Fatalf("exists = %v, err = %v", exists, err)
	}
	var verr *ValidationError
	if err := db.CreateAdminUser(" ", "hash"); !errors.As(err, &verr) {
		t.Errorf("blank username: err = %v, want ValidationError", err)
	}
	if err := db.CreateAdminUser("admin", "hash"); err != nil {
		t.Fatalf("create: %v", err)
	}
	u, err := db.GetAdminUser("admin")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if u.PasswordHash != "hash" {
		t.Errorf("PasswordHash = %q", u.PasswordHash)
	}
	if err := db.SetAdminPassword("admin", "hash2"); err != nil {
		t.Fatalf("set password: %v", err)
	}
	if u, _ := db.GetAdminUser("admin"); u.PasswordHash != "hash2" {
		t.Errorf("PasswordHash after change = %q", u.PasswordHash)
	}
	if err := db.SetAdminPassword("ghost", "x"); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing user: err = %v, want ErrNotFound", err)
	}
	if _, err := db.GetAdminUser("ghost"); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing user: err = %v, want ErrNotFound", err)
	}
}
