package store

import (
	"database/sql"
	"fmt"

	"github.com/shopspring/decimal"
)

const (
	OrderPending   = "Pending"
	OrderProcessed = "Processed"
	OrderDelivered = "Delivered"
)

const (
	PaymentCreditCard = "Credit Card"
	PaymentDebitCard  = "Debit Card"
	PaymentCash       = "Cash"
	PaymentPix        = "Pix"
)

var (
	OrderStatuses  = []string{OrderPending, OrderProcessed, OrderDelivered}
	PaymentMethods = []string{PaymentCreditCard, PaymentDebitCard, PaymentCash, PaymentPix}
)

func ValidOrderStatus(s string) bool   { return contains(OrderStatuses, s) }
func ValidPaymentMethod(s string) bool { return contains(PaymentMethods, s) }

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

type Order struct {
	ID            int64  `json:"id"`
	OrderDate     Date   `json:"order_date"`
	DeliveryDate  *Date  `json:"delivery_date"`
	Status        string `json:"status"`
	PaymentMethod string `json:"payment_method"`
	PaymentDate   Date   `json:"payment_date"`
	CustomerID    int64  `json:"customer_id"`
	CustomerName  string `json:"customer_name,omitempty"`
}

// LineInput is a product and quantity submitted for an order or production order.
type LineInput struct {
	ProductID int64 `json:"product_id"`
	Quantity  int   `json:"quantity"`
}

// OrderLine is an order line joined with its product.
type OrderLine struct {
	ID          int64           `json:"id"`
	OrderID     int64           `json:"order_id"`
	ProductID   int64           `json:"product_id"`
	Quantity    int             `json:"quantity"`
	ProductName string          `json:"product_name"`
	UnitCost    decimal.Decimal `json:"unit_cost"`
	Subtotal    decimal.Decimal `json:"subtotal"`
}

const orderSelectCols = `o.id, o.order_date, o.delivery_date, o.status, o.payment_method, o.payment_date, o.customer_id, c.name`

const orderFrom = ` FROM orders o JOIN customers c ON c.id = o.customer_id`

func scanOrder(row interface{ Scan(...any) error }) (*Order, error) {
	var o Order
	err := row.Scan(&o.ID, &o.OrderDate, &o.DeliveryDate, &o.Status, &o.PaymentMethod, &o.PaymentDate, &o.CustomerID, &o.CustomerName)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func scanOrders(rows *sql.Rows) ([]*Order, error) {
	var out []*Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

const orderLineSelect = `SELECT l.id, l.order_id, l.product_id, l.quantity, p.name, p.unit_cost
	FROM order_lines l JOIN products p ON p.id = l.product_id`

func scanOrderLines(rows *sql.Rows) ([]*OrderLine, error) {
	var out []*OrderLine
	for rows.Next() {
		var l OrderLine
		if err := rows.Scan(&l.ID, &l.OrderID, &l.ProductID, &l.Quantity, &l.ProductName, &l.UnitCost); err != nil {
			return nil, err
		}
		l.Subtotal = l.UnitCost.Mul(decimal.NewFromInt(int64(l.Quantity)))
		out = append(out, &l)
	}
	return out, rows.Err()
}

func getOrder(c conn, id int64) (*Order, error) {
	o, err := scanOrder(c.queryRow(`SELECT `+orderSelectCols+orderFrom+` WHERE o.id=?`, id))
	if err != nil {
		return nil, notFound(err)
	}
	return o, nil
}

func orderLines(c conn, orderID int64) ([]*OrderLine, error) {
	rows, err := c.query(orderLineSelect+` WHERE l.order_id=? ORDER BY l.id`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanOrderLines(rows)
}

func (db *DB) GetOrder(id int64) (*Order, error) { return getOrder(db.c(), id) }

func (db *DB) OrderLines(orderID int64) ([]*OrderLine, error) { return orderLines(db.c(), orderID) }

func (db *DB) ListOrders() ([]*Order, error) {
	rows, err := db.Query(`SELECT ` + orderSelectCols + orderFrom + ` ORDER BY o.order_date DESC, o.id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanOrders(rows)
}

func (db *DB) DeleteOrder(id int64) error {
	return mustAffect(db.c().exec(`DELETE FROM orders WHERE id=?`, id))
}

// GetOrder reads an order inside the transaction.
func (tx *Tx) GetOrder(id int64) (*Order, error) { return getOrder(tx.c(), id) }

func (tx *Tx) OrderLines(orderID int64) ([]*OrderLine, error) { return orderLines(tx.c(), orderID) }

func (tx *Tx) InsertOrder(o *Order) error {
	if err := o.Validate(Today()); err != nil {
		return err
	}
	id, err := tx.c().insert(`INSERT INTO orders (order_date, delivery_date, status, payment_method, payment_date, customer_id) VALUES (?, ?, ?, ?, ?, ?)`,
		o.OrderDate, o.DeliveryDate, o.Status, o.PaymentMethod, o.PaymentDate, o.CustomerID)
	if err != nil {
		return fmt.Errorf("create order: %w", err)
	}
	o.ID = id
	return nil
}

func (tx *Tx) UpdateOrder(o *Order) error {
	if err := o.Validate(Today()); err != nil {
		return err
	}
	err := mustAffect(tx.c().exec(`UPDATE orders SET order_date=?, delivery_date=?, status=?, payment_method=?, payment_date=?, customer_id=? WHERE id=?`,
		o.OrderDate, o.DeliveryDate, o.Status, o.PaymentMethod, o.PaymentDate, o.CustomerID, o.ID))
	if err != nil {
		return fmt.Errorf("update order %d: %w", o.ID, err)
	}
	return nil
}

func (tx *Tx) SetOrderStatus(id int64, status string) error {
	if !ValidOrderStatus(status) {
		return invalid("status", "unknown order status "+status)
	}
	err := mustAffect(tx.c().exec(`UPDATE orders SET status=? WHERE id=?`, status, id))
	if err != nil {
		return fmt.Errorf("set order %d status: %w", id, err)
	}
	return nil
}

// ReplaceOrderLines swaps the order's lines for the given set.
func (tx *Tx) ReplaceOrderLines(orderID int64, lines []LineInput) error {
	if err := validateLines(lines); err != nil {
		return err
	}
	c := tx.c()
	if _, err := c.exec(`DELETE FROM order_lines WHERE order_id=?`, orderID); err != nil {
		return fmt.Errorf("clear order %d lines: %w", orderID, err)
	}
	for _, l := range lines {
		if _, err := c.exec(`INSERT INTO order_lines (order_id, product_id, quantity) VALUES (?, ?, ?)`, orderID, l.ProductID, l.Quantity); err != nil {
			return fmt.Errorf("add order %d line: %w", orderID, err)
		}
	}
	return nil
}

func (tx *Tx) ReplaceOrderEmployees(orderID int64, employeeIDs []int64) error {
	if err := replaceEmployees(tx.c(), "order_employees", "order_id", orderID, employeeIDs); err != nil {
		return fmt.Errorf("set order %d employees: %w", orderID, err)
	}
	return nil
}
