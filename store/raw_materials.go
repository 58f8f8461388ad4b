package store

import (
	"database/sql"
	"fmt"

	"github.com/shopspring/decimal"
)

type RawMaterial struct {
	ID        int64           `json:"id"`
	Name      string          `json:"name"`
	UnitCost  decimal.Decimal `json:"unit_cost"`
	Stock     int             `json:"stock"`
	Threshold int             `json:"threshold"`
}

func (m *RawMaterial) Shortfall() int { return m.Threshold - m.Stock }

func (m *RawMaterial) LowStock() bool { return m.Stock < m.Threshold }

// SuggestedPurchase is the quantity that brings stock back to the threshold,
// or zero when stock is not below it.
func (m *RawMaterial) SuggestedPurchase() int {
	if m.Stock < m.Threshold {
		return m.Threshold - m.Stock
	}
	return 0
}

const rawMaterialSelectCols = `id, name, unit_cost, stock, threshold`

func scanRawMaterial(row interface{ Scan(...any) error }) (*RawMaterial, error) {
	var m RawMaterial
	if err := row.Scan(&m.ID, &m.Name, &m.UnitCost, &m.Stock, &m.Threshold); err != nil {
		return nil, err
	}
	return &m, nil
}

func scanRawMaterials(rows *sql.Rows) ([]*RawMaterial, error) {
	var out []*RawMaterial
	for rows.Next() {
		m, err := scanRawMaterial(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (db *DB) CreateRawMaterial(m *RawMaterial) error {
	if err := m.Validate(); err != nil {
		return err
	}
	id, err := db.c().insert(`INSERT INTO raw_materials (name, unit_cost, stock, threshold) VALUES (?, ?, ?, ?)`,
		m.Name, m.UnitCost, m.Stock, m.Threshold)
	if err != nil {
		return fmt.Errorf("create raw material: %w", err)
	}
	m.ID = id
	return nil
}

func (db *DB) UpdateRawMaterial(m *RawMaterial) error {
	if err := m.Validate(); err != nil {
		return err
	}
	err := mustAffect(db.c().exec(`UPDATE raw_materials SET name=?, unit_cost=?, threshold=? WHERE id=?`,
		m.Name, m.UnitCost, m.Threshold, m.ID))
	if err != nil {
		return fmt.Errorf("update raw material %d: %w", m.ID, err)
	}
	return nil
}

func (db *DB) GetRawMaterial(id int64) (*RawMaterial, error) {
	m, err := scanRawMaterial(db.c().queryRow(`SELECT `+rawMaterialSelectCols+` FROM raw_materials WHERE id=?`, id))
	if err != nil {
		return nil, notFound(err)
	}
	return m, nil
}

func (db *DB) ListRawMaterials() ([]*RawMaterial, error) {
	rows, err := db.Query(`SELECT ` + rawMaterialSelectCols + ` FROM raw_materials ORDER BY name, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRawMaterials(rows)
}

func (db *DB) DeleteRawMaterial(id int64) error {
	return mustAffect(db.c().exec(`DELETE FROM raw_materials WHERE id=?`, id))
}
