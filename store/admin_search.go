package store

import (
	"fabrica/filter"
)

// Admin searches match q as a substring of each entity's search fields.

func idText(col string) string { return "CAST(" + col + " AS TEXT)" }

func (db *DB) AdminSearchCustomers(q string) ([]*Customer, error) {
	query, args := filter.New().AnyLike(q, "name", "email").
		Query(`SELECT `+customerSelectCols+` FROM customers`, "", "ORDER BY name, id")
	rows, err := db.c().query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanCustomers(rows)
}

func (db *DB) AdminSearchOrders(q string) ([]*Order, error) {
	query, args := filter.New().AnyLike(q, idText("o.id"), "c.name").
		Query(`SELECT `+orderSelectCols+orderFrom, "", "ORDER BY o.order_date DESC, o.id DESC")
	rows, err := db.c().query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanOrders(rows)
}

func (db *DB) AdminSearchProducts(q string) ([]*Product, error) {
	query, args := filter.New().AnyLike(q, "name", "description").
		Query(`SELECT `+productSelectCols+` FROM products`, "", "ORDER BY name, id")
	rows, err := db.c().query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanProducts(rows)
}

func (db *DB) AdminSearchRawMaterials(q string) ([]*RawMaterial, error) {
	query, args := filter.New().AnyLike(q, "name").
		Query(`SELECT `+rawMaterialSelectCols+` FROM raw_materials`, "", "ORDER BY name, id")
	rows, err := db.c().query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRawMaterials(rows)
}

func (db *DB) AdminSearchSuppliers(q string) ([]*Supplier, error) {
	query, args := filter.New().AnyLike(q, "name", "email").
		Query(`SELECT `+supplierSelectCols+` FROM suppliers`, "", "ORDER BY name, id")
	rows, err := db.c().query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanSuppliers(rows)
}

func (db *DB) AdminSearchEmployees(q string) ([]*Employee, error) {
	query, args := filter.New().AnyLike(q, "name", "role").
		Query(`SELECT `+employeeSelectCols+` FROM employees`, "", "ORDER BY name, id")
	rows, err := db.c().query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanEmployees(rows)
}

func (db *DB) AdminSearchProductionOrders(q string) ([]*ProductionOrder, error) {
	query, args := filter.New().AnyLike(q, idText("id"), "status").
		Query(`SELECT `+productionSelectCols+` FROM production_orders`, "", "ORDER BY created_date DESC, id DESC")
	rows, err := db.c().query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanProductionOrders(rows)
}
