package store

import (
	"database/sql"
	"fmt"
)

type Customer struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	Phone      string `json:"phone"`
	Email      string `json:"email"`
	Number     int    `json:"number"`
	PostalCode string `json:"postal_code"`
	Complement string `json:"complement"`
	Street     string `json:"street"`
}

const customerSelectCols = `id, name, phone, email, number, postal_code, COALESCE(complement, ''), COALESCE(street, '')`

func scanCustomer(row interface{ Scan(...any) error }) (*Customer, error) {
	var c Customer
	err := row.Scan(&c.ID, &c.Name, &c.Phone, &c.Email, &c.Number, &c.PostalCode, &c.Complement, &c.Street)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func scanCustomers(rows *sql.Rows) ([]*Customer, error) {
	var out []*Customer
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func (db *DB) CreateCustomer(c *Customer) error {
	if err := c.Validate(); err != nil {
		return err
	}
	id, err := db.c().insert(`INSERT INTO customers (name, phone, email, number, postal_code, complement, street) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		c.Name, c.Phone, c.Email, c.Number, c.PostalCode, nullString(c.Complement), nullString(c.Street))
	if err != nil {
		return fmt.Errorf("create customer: %w", err)
	}
	c.ID = id
	return nil
}

func (db *DB) UpdateCustomer(c *Customer) error {
	if err := c.Validate(); err != nil {
		return err
	}
	err := mustAffect(db.c().exec(`UPDATE customers SET name=?, phone=?, email=?, number=?, postal_code=?, complement=?, street=? WHERE id=?`,
		c.Name, c.Phone, c.Email, c.Number, c.PostalCode, nullString(c.Complement), nullString(c.Street), c.ID))
	if err != nil {
		return fmt.Errorf("update customer %d: %w", c.ID, err)
	}
	return nil
}

func (db *DB) GetCustomer(id int64) (*Customer, error) {
	row := db.c().queryRow(`SELECT `+customerSelectCols+` FROM customers WHERE id=?`, id)
	c, err := scanCustomer(row)
	if err != nil {
		return nil, notFound(err)
	}
	return c, nil
}

func (db *DB) ListCustomers() ([]*Customer, error) {
	rows, err := db.Query(`SELECT ` + customerSelectCols + ` FROM customers ORDER BY name, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanCustomers(rows)
}

func (db *DB) DeleteCustomer(id int64) error {
	return mustAffect(db.c().exec(`DELETE FROM customers WHERE id=?`, id))
}
