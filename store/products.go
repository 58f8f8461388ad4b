package store

import (
	"database/sql"
	"fmt"

	"github.com/shopspring/decimal"
)

type Product struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Stock       int             `json:"stock"`
	Threshold   int             `json:"threshold"`
	UnitCost    decimal.Decimal `json:"unit_cost"`
}

// Shortfall is the amount by which stock trails the low-stock threshold.
// Negative when stock is above the threshold.
func (p *Product) Shortfall() int { return p.Threshold - p.Stock }

func (p *Product) LowStock() bool { return p.Stock < p.Threshold }

const productSelectCols = `id, name, COALESCE(description, ''), stock, threshold, unit_cost`

func scanProduct(row interface{ Scan(...any) error }) (*Product, error) {
	var p Product
	if err := row.Scan(&p.ID, &p.Name, &p.Description, &p.Stock, &p.Threshold, &p.UnitCost); err != nil {
		return nil, err
	}
	return &p, nil
}

func scanProducts(rows *sql.Rows) ([]*Product, error) {
	var out []*Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (db *DB) CreateProduct(p *Product) error {
	if err := p.Validate(); err != nil {
		return err
	}
	id, err := db.c().insert(`INSERT INTO products (name, description, stock, threshold, unit_cost) VALUES (?, ?, ?, ?, ?)`,
		p.Name, nullString(p.Description), p.Stock, p.Threshold, p.UnitCost)
	if err != nil {
		return fmt.Errorf("create product: %w", err)
	}
	p.ID = id
	return nil
}

// UpdateProduct writes the descriptive fields. Stock only changes through
// Tx.AdjustStock so every change lands in the movement ledger.
func (db *DB) UpdateProduct(p *Product) error {
	if err := p.Validate(); err != nil {
		return err
	}
	err := mustAffect(db.c().exec(`UPDATE products SET name=?, description=?, threshold=?, unit_cost=? WHERE id=?`,
		p.Name, nullString(p.Description), p.Threshold, p.UnitCost, p.ID))
	if err != nil {
		return fmt.Errorf("update product %d: %w", p.ID, err)
	}
	return nil
}

func (db *DB) GetProduct(id int64) (*Product, error) {
	p, err := scanProduct(db.c().queryRow(`SELECT `+productSelectCols+` FROM products WHERE id=?`, id))
	if err != nil {
		return nil, notFound(err)
	}
	return p, nil
}

func (db *DB) ListProducts() ([]*Product, error) {
	rows, err := db.Query(`SELECT ` + productSelectCols + ` FROM products ORDER BY name, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanProducts(rows)
}

func (db *DB) DeleteProduct(id int64) error {
	return mustAffect(db.c().exec(`DELETE FROM products WHERE id=?`, id))
}

// BOMItem is one bill-of-materials row: the raw material quantity needed per product unit.
type BOMItem struct {
	ID            int64  `json:"id"`
	ProductID     int64  `json:"product_id"`
	RawMaterialID int64  `json:"raw_material_id"`
	Quantity      int    `json:"quantity"`
	MaterialName  string `json:"material_name,omitempty"`
}

func (db *DB) ListBOM(productID int64) ([]*BOMItem, error) {
	rows, err := db.c().query(`SELECT b.id, b.product_id, b.raw_material_id, b.quantity, m.name
		FROM bill_of_materials b JOIN raw_materials m ON m.id = b.raw_material_id
		WHERE b.product_id=? ORDER BY m.name`, productID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*BOMItem
	for rows.Next() {
		var b BOMItem
		if err := rows.Scan(&b.ID, &b.ProductID, &b.RawMaterialID, &b.Quantity, &b.MaterialName); err != nil {
			return nil, err
		}
		out = append(out, &b)
	}
	return out, rows.Err()
}

// SetBOMItem inserts or replaces the quantity of one raw material in a product's bill of materials.
func (db *DB) SetBOMItem(b *BOMItem) error {
	if err := b.Validate(); err != nil {
		return err
	}
	id, err := db.c().insert(`INSERT INTO bill_of_materials (product_id, raw_material_id, quantity) VALUES (?, ?, ?)
		ON CONFLICT (product_id, raw_material_id) DO UPDATE SET quantity=excluded.quantity`,
		b.ProductID, b.RawMaterialID, b.Quantity)
	if err != nil {
		return fmt.Errorf("set bom item: %w", err)
	}
	b.ID = id
	return nil
}

func (db *DB) DeleteBOMItem(id int64) error {
	return mustAffect(db.c().exec(`DELETE FROM bill_of_materials WHERE id=?`, id))
}
