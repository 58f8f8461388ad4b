package store

import (
	"fmt"

	"fabrica/filter"

	"github.com/shopspring/decimal"
)

// Reporting queries behind the list pages. Each one renders its criteria
// through a filter.Builder so user input only ever reaches bound parameters.

func (db *DB) SearchCustomers(c filter.CustomerCriteria) ([]*Customer, error) {
	b := filter.New().
		IDEq("id", c.ID).
		Like("name", c.Name).
		Like("phone", c.Phone).
		Like("email", c.Email).
		Like("postal_code", c.PostalCode).
		Like("complement", c.Complement).
		Like("street", c.Street)
	if c.Number != nil {
		b.Eq("number", *c.Number)
	}
	query, args := b.Query(`SELECT `+customerSelectCols+` FROM customers`, "", "ORDER BY name, id")
	rows, err := db.c().query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("search customers: %w", err)
	}
	defer rows.Close()
	return scanCustomers(rows)
}

// OrderSummary is an order with its computed total and lines.
type OrderSummary struct {
	Order
	Total decimal.Decimal `json:"total"`
	Lines []*OrderLine    `json:"lines"`
}

const orderTotalExpr = `SUM(p.unit_cost * l.quantity)`

// SearchOrders lists orders matching c with their totals, newest order date first.
// Orders without lines have no total and are not listed.
func (db *DB) SearchOrders(c filter.OrderCriteria) ([]*OrderSummary, error) {
	b := filter.New().
		IDEq("o.id", c.ID).
		Like("o.status", c.Status).
		IDEq("o.customer_id", c.CustomerID).
		Like("o.payment_method", c.PaymentMethod).
		DateRange("o.order_date", c.OrderDate, false).
		DateRange("o.delivery_date", c.DeliveryDate, true).
		DateRange("o.payment_date", c.PaymentDate, false).
		HavingRange(orderTotalExpr, c.Total)

	query, args := b.Query(
		`SELECT `+orderSelectCols+`, `+orderTotalExpr+orderFrom+`
		JOIN order_lines l ON l.order_id = o.id
		JOIN products p ON p.id = l.product_id`,
		"GROUP BY o.id, c.id",
		"ORDER BY o.order_date DESC, o.id DESC")
	rows, err := db.c().query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("search orders: %w", err)
	}
	defer rows.Close()

	var out []*OrderSummary
	byID := map[int64]*OrderSummary{}
	for rows.Next() {
		var s OrderSummary
		o := &s.Order
		if err := rows.Scan(&o.ID, &o.OrderDate, &o.DeliveryDate, &o.Status, &o.PaymentMethod, &o.PaymentDate, &o.CustomerID, &o.CustomerName, &s.Total); err != nil {
			return nil, err
		}
		s.Total = s.Total.Round(2)
		out = append(out, &s)
		byID[o.ID] = &s
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	rows.Close()

	if len(out) == 0 {
		return out, nil
	}
	lines, err := db.allOrderLines()
	if err != nil {
		return nil, err
	}
	for _, l := range lines {
		if s, ok := byID[l.OrderID]; ok {
			s.Lines = append(s.Lines, l)
		}
	}
	return out, nil
}

func (db *DB) allOrderLines() ([]*OrderLine, error) {
	rows, err := db.Query(orderLineSelect + ` ORDER BY l.order_id, l.id`)
	if err != nil {
		return nil, fmt.Errorf("list order lines: %w", err)
	}
	defer rows.Close()
	return scanOrderLines(rows)
}

// CustomerRecentOrders returns the customer's orders dated within the 30 days
// up to today, newest first, each with lines, subtotals and total.
func (db *DB) CustomerRecentOrders(customerID int64, today Date) ([]*OrderSummary, error) {
	rows, err := db.c().query(`SELECT `+orderSelectCols+`, l.id, l.product_id, l.quantity, p.name, p.unit_cost`+orderFrom+`
		JOIN order_lines l ON l.order_id = o.id
		JOIN products p ON p.id = l.product_id
		WHERE o.customer_id=? AND o.order_date BETWEEN ? AND ?
		ORDER BY o.order_date DESC, o.id DESC, l.id`,
		customerID, today.AddDays(-30), today)
	if err != nil {
		return nil, fmt.Errorf("customer %d recent orders: %w", customerID, err)
	}
	defer rows.Close()

	var out []*OrderSummary
	byID := map[int64]*OrderSummary{}
	for rows.Next() {
		var o Order
		var l OrderLine
		if err := rows.Scan(&o.ID, &o.OrderDate, &o.DeliveryDate, &o.Status, &o.PaymentMethod, &o.PaymentDate, &o.CustomerID, &o.CustomerName,
			&l.ID, &l.ProductID, &l.Quantity, &l.ProductName, &l.UnitCost); err != nil {
			return nil, err
		}
		s, ok := byID[o.ID]
		if !ok {
			s = &OrderSummary{Order: o}
			byID[o.ID] = s
			out = append(out, s)
		}
		l.OrderID = o.ID
		l.Subtotal = l.UnitCost.Mul(decimal.NewFromInt(int64(l.Quantity)))
		s.Lines = append(s.Lines, &l)
		s.Total = s.Total.Add(l.Subtotal)
	}
	return out, rows.Err()
}

// SupplierSummary is a supplier with the raw materials it offers.
type SupplierSummary struct {
	Supplier
	Offers []*SupplyOffer `json:"offers"`
}

// SearchSuppliers lists suppliers matching c, best rated first.
func (db *DB) SearchSuppliers(c filter.SupplierCriteria) ([]*SupplierSummary, error) {
	b := filter.New().
		IDEq("id", c.ID).
		Like("name", c.Name).
		DecimalRange("rating", c.Rating)
	if c.Material != "" {
		b.InSub("id", `SELECT o.supplier_id FROM supply_offers o
			JOIN raw_materials m ON m.id = o.raw_material_id
			WHERE m.name LIKE ?`, "%"+c.Material+"%")
	}
	query, args := b.Query(`SELECT `+supplierSelectCols+` FROM suppliers`, "", "ORDER BY rating DESC NULLS LAST, id")
	rows, err := db.c().query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("search suppliers: %w", err)
	}
	defer rows.Close()
	var out []*SupplierSummary
	byID := map[int64]*SupplierSummary{}
	for rows.Next() {
		s, err := scanSupplier(rows)
		if err != nil {
			return nil, err
		}
		sum := &SupplierSummary{Supplier: *s}
		out = append(out, sum)
		byID[s.ID] = sum
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	rows.Close()

	if len(out) == 0 {
		return out, nil
	}
	offers, err := db.ListAllOffers()
	if err != nil {
		return nil, err
	}
	for _, o := range offers {
		if s, ok := byID[o.SupplierID]; ok {
			s.Offers = append(s.Offers, o)
		}
	}
	return out, nil
}

func stockFilter(c filter.StockCriteria) *filter.Builder {
	return filter.New().
		IDEq("id", c.ID).
		Like("name", c.Name).
		IntRange("stock", c.Stock).
		DecimalRange("unit_cost", c.UnitCost)
}

// SearchProducts lists products matching c, largest shortfall first.
func (db *DB) SearchProducts(c filter.StockCriteria) ([]*Product, error) {
	query, args := stockFilter(c).Query(`SELECT `+productSelectCols+` FROM products`, "", "ORDER BY threshold - stock DESC, id")
	rows, err := db.c().query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("search products: %w", err)
	}
	defer rows.Close()
	return scanProducts(rows)
}

// SearchRawMaterials lists raw materials matching c, largest shortfall first.
func (db *DB) SearchRawMaterials(c filter.StockCriteria) ([]*RawMaterial, error) {
	query, args := stockFilter(c).Query(`SELECT `+rawMaterialSelectCols+` FROM raw_materials`, "", "ORDER BY threshold - stock DESC, id")
	rows, err := db.c().query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("search raw materials: %w", err)
	}
	defer rows.Close()
	return scanRawMaterials(rows)
}

func (db *DB) LowStockProducts() ([]*Product, error) {
	rows, err := db.Query(`SELECT ` + productSelectCols + ` FROM products WHERE stock < threshold ORDER BY threshold - stock DESC, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanProducts(rows)
}

func (db *DB) LowStockRawMaterials() ([]*RawMaterial, error) {
	rows, err := db.Query(`SELECT ` + rawMaterialSelectCols + ` FROM raw_materials WHERE stock < threshold ORDER BY threshold - stock DESC, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRawMaterials(rows)
}

// ProductionSummary is a production order with the lines and employees that
// matched the search.
type ProductionSummary struct {
	ProductionOrder
	Lines     []*ProductionOrderLine `json:"lines"`
	Employees []*Employee            `json:"employees"`
}

// SearchProductionOrders lists production orders matching c, pending first
// then by creation date. Line and employee criteria filter each order's
// lists, and an order appears only when both lists are non-empty.
func (db *DB) SearchProductionOrders(c filter.ProductionCriteria) ([]*ProductionSummary, error) {
	b := filter.New().
		IDEq("id", c.ID).
		Like("status", c.Status).
		DateRange("created_date", c.CreatedDate, false).
		DateRange("completed_date", c.CompletedDate, false).
		DecimalRange("total_cost", c.TotalCost)
	query, args := b.Query(`SELECT `+productionSelectCols+` FROM production_orders`, "", "ORDER BY status DESC, created_date, id")
	rows, err := db.c().query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("search production orders: %w", err)
	}
	orders, err := scanProductionOrders(rows)
	rows.Close()
	if err != nil {
		return nil, err
	}

	lineFilter := filter.New().
		Like("p.name", c.ProductName).
		IntRange("l.quantity", c.LineQuantity)
	lineAnd, lineArgs := lineFilter.And()
	empFilter := filter.New().
		Like("e.name", c.EmployeeName).
		Like("e.role", c.EmployeeRole)
	empAnd, empArgs := empFilter.And()

	var out []*ProductionSummary
	for _, po := range orders {
		lines, err := db.filteredProductionLines(po.ID, lineAnd, lineArgs)
		if err != nil {
			return nil, err
		}
		emps, err := db.filteredProductionEmployees(po.ID, empAnd, empArgs)
		if err != nil {
			return nil, err
		}
		if len(lines) == 0 || len(emps) == 0 {
			continue
		}
		out = append(out, &ProductionSummary{ProductionOrder: *po, Lines: lines, Employees: emps})
	}
	return out, nil
}

func (db *DB) filteredProductionLines(id int64, and string, args []any) ([]*ProductionOrderLine, error) {
	rows, err := db.c().query(productionLineSelect+` WHERE l.production_order_id=?`+and+` ORDER BY l.id`,
		append([]any{id}, args...)...)
	if err != nil {
		return nil, fmt.Errorf("production order %d lines: %w", id, err)
	}
	defer rows.Close()
	return scanProductionLines(rows)
}

func (db *DB) filteredProductionEmployees(id int64, and string, args []any) ([]*Employee, error) {
	rows, err := db.c().query(`SELECT e.id, e.name, e.role, e.salary FROM employees e
		JOIN production_order_employees pe ON pe.employee_id = e.id
		WHERE pe.production_order_id=?`+and+` ORDER BY e.name`,
		append([]any{id}, args...)...)
	if err != nil {
		return nil, fmt.Errorf("production order %d employees: %w", id, err)
	}
	defer rows.Close()
	return scanEmployees(rows)
}
