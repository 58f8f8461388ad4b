package store

import (
	"database/sql"
	"fmt"

	"github.com/shopspring/decimal"
)

const (
	ProductionPending   = "Pending"
	ProductionCompleted = "Completed"
)

var ProductionStatuses = []string{ProductionPending, ProductionCompleted}

func ValidProductionStatus(s string) bool { return contains(ProductionStatuses, s) }

type ProductionOrder struct {
	ID            int64               `json:"id"`
	Status        string              `json:"status"`
	TotalCost     decimal.NullDecimal `json:"total_cost"`
	CreatedDate   Date                `json:"created_date"`
	CompletedDate *Date               `json:"completed_date"`
}

type ProductionOrderLine struct {
	ID                int64  `json:"id"`
	ProductionOrderID int64  `json:"production_order_id"`
	ProductID         int64  `json:"product_id"`
	Quantity          int    `json:"quantity"`
	ProductName       string `json:"product_name"`
}

// MaterialRequirement is the total quantity of a raw material consumed by a production order.
type MaterialRequirement struct {
	RawMaterialID int64
	Quantity      int
}

const productionSelectCols = `id, status, total_cost, created_date, completed_date`

func scanProductionOrder(row interface{ Scan(...any) error }) (*ProductionOrder, error) {
	var p ProductionOrder
	if err := row.Scan(&p.ID, &p.Status, &p.TotalCost, &p.CreatedDate, &p.CompletedDate); err != nil {
		return nil, err
	}
	return &p, nil
}

func scanProductionOrders(rows *sql.Rows) ([]*ProductionOrder, error) {
	var out []*ProductionOrder
	for rows.Next() {
		p, err := scanProductionOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

const productionLineSelect = `SELECT l.id, l.production_order_id, l.product_id, l.quantity, p.name
	FROM production_order_lines l JOIN products p ON p.id = l.product_id`

func scanProductionLines(rows *sql.Rows) ([]*ProductionOrderLine, error) {
	var out []*ProductionOrderLine
	for rows.Next() {
		var l ProductionOrderLine
		if err := rows.Scan(&l.ID, &l.ProductionOrderID, &l.ProductID, &l.Quantity, &l.ProductName); err != nil {
			return nil, err
		}
		out = append(out, &l)
	}
	return out, rows.Err()
}

func getProductionOrder(c conn, id int64) (*ProductionOrder, error) {
	p, err := scanProductionOrder(c.queryRow(`SELECT `+productionSelectCols+` FROM production_orders WHERE id=?`, id))
	if err != nil {
		return nil, notFound(err)
	}
	return p, nil
}

func productionLines(c conn, productionOrderID int64) ([]*ProductionOrderLine, error) {
	rows, err := c.query(productionLineSelect+` WHERE l.production_order_id=? ORDER BY l.id`, productionOrderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanProductionLines(rows)
}

func (db *DB) GetProductionOrder(id int64) (*ProductionOrder, error) {
	return getProductionOrder(db.c(), id)
}

func (db *DB) ProductionOrderLines(productionOrderID int64) ([]*ProductionOrderLine, error) {
	return productionLines(db.c(), productionOrderID)
}

func (db *DB) ListProductionOrders() ([]*ProductionOrder, error) {
	rows, err := db.Query(`SELECT ` + productionSelectCols + ` FROM production_orders ORDER BY created_date DESC, id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanProductionOrders(rows)
}

func (db *DB) DeleteProductionOrder(id int64) error {
	return mustAffect(db.c().exec(`DELETE FROM production_orders WHERE id=?`, id))
}

func (tx *Tx) GetProductionOrder(id int64) (*ProductionOrder, error) {
	return getProductionOrder(tx.c(), id)
}

func (tx *Tx) ProductionOrderLines(productionOrderID int64) ([]*ProductionOrderLine, error) {
	return productionLines(tx.c(), productionOrderID)
}

func (tx *Tx) InsertProductionOrder(p *ProductionOrder) error {
	if err := p.Validate(Today()); err != nil {
		return err
	}
	id, err := tx.c().insert(`INSERT INTO production_orders (status, total_cost, created_date, completed_date) VALUES (?, ?, ?, ?)`,
		p.Status, p.TotalCost, p.CreatedDate, p.CompletedDate)
	if err != nil {
		return fmt.Errorf("create production order: %w", err)
	}
	p.ID = id
	return nil
}

func (tx *Tx) UpdateProductionOrder(p *ProductionOrder) error {
	if err := p.Validate(Today()); err != nil {
		return err
	}
	err := mustAffect(tx.c().exec(`UPDATE production_orders SET status=?, total_cost=?, created_date=?, completed_date=? WHERE id=?`,
		p.Status, p.TotalCost, p.CreatedDate, p.CompletedDate, p.ID))
	if err != nil {
		return fmt.Errorf("update production order %d: %w", p.ID, err)
	}
	return nil
}

func (tx *Tx) SetProductionOrderStatus(id int64, status string) error {
	if !ValidProductionStatus(status) {
		return invalid("status", "unknown production order status "+status)
	}
	err := mustAffect(tx.c().exec(`UPDATE production_orders SET status=? WHERE id=?`, status, id))
	if err != nil {
		return fmt.Errorf("set production order %d status: %w", id, err)
	}
	return nil
}

func (tx *Tx) ReplaceProductionOrderLines(productionOrderID int64, lines []LineInput) error {
	if err := validateLines(lines); err != nil {
		return err
	}
	c := tx.c()
	if _, err := c.exec(`DELETE FROM production_order_lines WHERE production_order_id=?`, productionOrderID); err != nil {
		return fmt.Errorf("clear production order %d lines: %w", productionOrderID, err)
	}
	for _, l := range lines {
		if _, err := c.exec(`INSERT INTO production_order_lines (production_order_id, product_id, quantity) VALUES (?, ?, ?)`,
			productionOrderID, l.ProductID, l.Quantity); err != nil {
			return fmt.Errorf("add production order %d line: %w", productionOrderID, err)
		}
	}
	return nil
}

func (tx *Tx) ReplaceProductionOrderEmployees(productionOrderID int64, employeeIDs []int64) error {
	if err := replaceEmployees(tx.c(), "production_order_employees", "production_order_id", productionOrderID, employeeIDs); err != nil {
		return fmt.Errorf("set production order %d employees: %w", productionOrderID, err)
	}
	return nil
}

// MaterialRequirements multiplies each production line by its product's bill
// of materials and sums the result per raw material.
func (tx *Tx) MaterialRequirements(productionOrderID int64) ([]MaterialRequirement, error) {
	rows, err := tx.c().query(`SELECT b.raw_material_id, SUM(b.quantity * l.quantity)
		FROM production_order_lines l
		JOIN bill_of_materials b ON b.product_id = l.product_id
		WHERE l.production_order_id=?
		GROUP BY b.raw_material_id
		ORDER BY b.raw_material_id`, productionOrderID)
	if err != nil {
		return nil, fmt.Errorf("material requirements for %d: %w", productionOrderID, err)
	}
	defer rows.Close()
	var out []MaterialRequirement
	for rows.Next() {
		var r MaterialRequirement
		if err := rows.Scan(&r.RawMaterialID, &r.Quantity); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
