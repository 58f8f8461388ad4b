package store

import (
	"database/sql"
	"fmt"

	"github.com/shopspring/decimal"
)

type Employee struct {
	ID     int64           `json:"id"`
	Name   string          `json:"name"`
	Role   string          `json:"role"`
	Salary decimal.Decimal `json:"salary"`
}

const employeeSelectCols = `id, name, role, salary`

func scanEmployees(rows *sql.Rows) ([]*Employee, error) {
	var out []*Employee
	for rows.Next() {
		var e Employee
		if err := rows.Scan(&e.ID, &e.Name, &e.Role, &e.Salary); err != nil {
			return nil, err
		}
		out = append(out, &e)
	}
	return out, rows.Err()
}

func (db *DB) CreateEmployee(e *Employee) error {
	if err := e.Validate(); err != nil {
		return err
	}
	id, err := db.c().insert(`INSERT INTO employees (name, role, salary) VALUES (?, ?, ?)`, e.Name, e.Role, e.Salary)
	if err != nil {
		return fmt.Errorf("create employee: %w", err)
	}
	e.ID = id
	return nil
}

func (db *DB) UpdateEmployee(e *Employee) error {
	if err := e.Validate(); err != nil {
		return err
	}
	err := mustAffect(db.c().exec(`UPDATE employees SET name=?, role=?, salary=? WHERE id=?`, e.Name, e.Role, e.Salary, e.ID))
	if err != nil {
		return fmt.Errorf("update employee %d: %w", e.ID, err)
	}
	return nil
}

func (db *DB) GetEmployee(id int64) (*Employee, error) {
	var e Employee
	err := db.c().queryRow(`SELECT `+employeeSelectCols+` FROM employees WHERE id=?`, id).
		Scan(&e.ID, &e.Name, &e.Role, &e.Salary)
	if err != nil {
		return nil, notFound(err)
	}
	return &e, nil
}

func (db *DB) ListEmployees() ([]*Employee, error) {
	rows, err := db.Query(`SELECT ` + employeeSelectCols + ` FROM employees ORDER BY name, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanEmployees(rows)
}

func (db *DB) DeleteEmployee(id int64) error {
	return mustAffect(db.c().exec(`DELETE FROM employees WHERE id=?`, id))
}

// OrderEmployees lists the employees attached to a customer order.
func (db *DB) OrderEmployees(orderID int64) ([]*Employee, error) {
	rows, err := db.c().query(`SELECT e.id, e.name, e.role, e.salary FROM employees e
		JOIN order_employees oe ON oe.employee_id = e.id
		WHERE oe.order_id=? ORDER BY e.name`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanEmployees(rows)
}

// ProductionOrderEmployees lists the employees attached to a production order.
func (db *DB) ProductionOrderEmployees(productionOrderID int64) ([]*Employee, error) {
	rows, err := db.c().query(`SELECT e.id, e.name, e.role, e.salary FROM employees e
		JOIN production_order_employees pe ON pe.employee_id = e.id
		WHERE pe.production_order_id=? ORDER BY e.name`, productionOrderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanEmployees(rows)
}

func replaceEmployees(c conn, table, parentCol string, parentID int64, employeeIDs []int64) error {
	if _, err := c.exec(`DELETE FROM `+table+` WHERE `+parentCol+`=?`, parentID); err != nil {
		return err
	}
	seen := make(map[int64]bool, len(employeeIDs))
	for _, eid := range employeeIDs {
		if seen[eid] {
			continue
		}
		seen[eid] = true
		if _, err := c.exec(`INSERT INTO `+table+` (employee_id, `+parentCol+`) VALUES (?, ?)`, eid, parentID); err != nil {
			return err
		}
	}
	return nil
}
