package store

import (
	"database/sql"
	"fmt"

	"github.com/shopspring/decimal"
)

type Supplier struct {
	ID     int64               `json:"id"`
	Name   string              `json:"name"`
	Rating decimal.NullDecimal `json:"rating"`
	Phone  string              `json:"phone"`
	Email  string              `json:"email"`
}

const supplierSelectCols = `id, name, rating, phone, email`

func scanSupplier(row interface{ Scan(...any) error }) (*Supplier, error) {
	var s Supplier
	if err := row.Scan(&s.ID, &s.Name, &s.Rating, &s.Phone, &s.Email); err != nil {
		return nil, err
	}
	return &s, nil
}

func scanSuppliers(rows *sql.Rows) ([]*Supplier, error) {
	var out []*Supplier
	for rows.Next() {
		s, err := scanSupplier(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (db *DB) CreateSupplier(s *Supplier) error {
	if err := s.Validate(); err != nil {
		return err
	}
	id, err := db.c().insert(`INSERT INTO suppliers (name, rating, phone, email) VALUES (?, ?, ?, ?)`,
		s.Name, s.Rating, s.Phone, s.Email)
	if err != nil {
		return fmt.Errorf("create supplier: %w", err)
	}
	s.ID = id
	return nil
}

func (db *DB) UpdateSupplier(s *Supplier) error {
	if err := s.Validate(); err != nil {
		return err
	}
	err := mustAffect(db.c().exec(`UPDATE suppliers SET name=?, rating=?, phone=?, email=? WHERE id=?`,
		s.Name, s.Rating, s.Phone, s.Email, s.ID))
	if err != nil {
		return fmt.Errorf("update supplier %d: %w", s.ID, err)
	}
	return nil
}

// SetSupplierRating updates only the rating, as the supplier list form does.
func (db *DB) SetSupplierRating(id int64, rating decimal.Decimal) error {
	r := decimal.NullDecimal{Decimal: rating.Round(2), Valid: true}
	if err := ValidateRating(r); err != nil {
		return err
	}
	err := mustAffect(db.c().exec(`UPDATE suppliers SET rating=? WHERE id=?`, r, id))
	if err != nil {
		return fmt.Errorf("rate supplier %d: %w", id, err)
	}
	return nil
}

func (db *DB) GetSupplier(id int64) (*Supplier, error) {
	s, err := scanSupplier(db.c().queryRow(`SELECT `+supplierSelectCols+` FROM suppliers WHERE id=?`, id))
	if err != nil {
		return nil, notFound(err)
	}
	return s, nil
}

func (db *DB) ListSuppliers() ([]*Supplier, error) {
	rows, err := db.Query(`SELECT ` + supplierSelectCols + ` FROM suppliers ORDER BY name, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanSuppliers(rows)
}

func (db *DB) DeleteSupplier(id int64) error {
	return mustAffect(db.c().exec(`DELETE FROM suppliers WHERE id=?`, id))
}

// SupplyOffer is a supplier's unit price for a raw material. The joined
// name and rating fields are filled by the listing queries.
type SupplyOffer struct {
	ID             int64               `json:"id"`
	SupplierID     int64               `json:"supplier_id"`
	RawMaterialID  int64               `json:"raw_material_id"`
	Price          decimal.Decimal     `json:"price"`
	SupplierName   string              `json:"supplier_name,omitempty"`
	SupplierRating decimal.NullDecimal `json:"supplier_rating"`
	MaterialName   string              `json:"material_name,omitempty"`
}

const offerSelect = `SELECT o.id, o.supplier_id, o.raw_material_id, o.price, s.name, s.rating, m.name
	FROM supply_offers o
	JOIN suppliers s ON s.id = o.supplier_id
	JOIN raw_materials m ON m.id = o.raw_material_id`

func scanOffers(rows *sql.Rows) ([]*SupplyOffer, error) {
	var out []*SupplyOffer
	for rows.Next() {
		var o SupplyOffer
		if err := rows.Scan(&o.ID, &o.SupplierID, &o.RawMaterialID, &o.Price, &o.SupplierName, &o.SupplierRating, &o.MaterialName); err != nil {
			return nil, err
		}
		out = append(out, &o)
	}
	return out, rows.Err()
}

// SetSupplyOffer inserts or replaces a supplier's price for a raw material.
func (db *DB) SetSupplyOffer(o *SupplyOffer) error {
	if err := o.Validate(); err != nil {
		return err
	}
	id, err := db.c().insert(`INSERT INTO supply_offers (supplier_id, raw_material_id, price) VALUES (?, ?, ?)
		ON CONFLICT (supplier_id, raw_material_id) DO UPDATE SET price=excluded.price`,
		o.SupplierID, o.RawMaterialID, o.Price)
	if err != nil {
		return fmt.Errorf("set supply offer: %w", err)
	}
	o.ID = id
	return nil
}

func (db *DB) DeleteSupplyOffer(id int64) error {
	return mustAffect(db.c().exec(`DELETE FROM supply_offers WHERE id=?`, id))
}

// ListAllOffers returns every offer with supplier and material names.
func (db *DB) ListAllOffers() ([]*SupplyOffer, error) {
	rows, err := db.Query(offerSelect + ` ORDER BY s.name, m.name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanOffers(rows)
}

func (db *DB) ListSupplierOffers(supplierID int64) ([]*SupplyOffer, error) {
	rows, err := db.c().query(offerSelect+` WHERE o.supplier_id=? ORDER BY m.name`, supplierID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanOffers(rows)
}

// ListMaterialOffers returns the offers for one raw material, cheapest first
// and then by supplier rating.
func (db *DB) ListMaterialOffers(rawMaterialID int64) ([]*SupplyOffer, error) {
	rows, err := db.c().query(offerSelect+` WHERE o.raw_material_id=? ORDER BY o.price, s.rating DESC NULLS LAST, s.id`, rawMaterialID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanOffers(rows)
}
