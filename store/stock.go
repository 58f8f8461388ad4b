package store

import (
	"fmt"
	"time"
)

// Stock item kinds.
const (
	KindProduct     = "product"
	KindRawMaterial = "raw_material"
)

// Movement reasons written by the inventory service.
const (
	ReasonOrderProcessed      = "order processed"
	ReasonProductionCompleted = "production completed"
	ReasonProductionConsumed  = "production consumption"
	ReasonPurchase            = "purchase"
	ReasonCorrection          = "correction"
)

// StockLevel is the current stock of a product or raw material.
type StockLevel struct {
	Kind      string `json:"kind"`
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Stock     int    `json:"stock"`
	Threshold int    `json:"threshold"`
}

func (s *StockLevel) Low() bool { return s.Stock < s.Threshold }

type StockMovement struct {
	ID         int64     `json:"id"`
	ItemKind   string    `json:"item_kind"`
	ItemID     int64     `json:"item_id"`
	Delta      int       `json:"delta"`
	StockAfter int       `json:"stock_after"`
	Reason     string    `json:"reason"`
	SourceKind string    `json:"source_kind"`
	SourceID   int64     `json:"source_id"`
	Actor      string    `json:"actor"`
	CreatedAt  time.Time `json:"created_at"`
}

func stockTable(kind string) (string, error) {
	switch kind {
	case KindProduct:
		return "products", nil
	case KindRawMaterial:
		return "raw_materials", nil
	}
	return "", invalid("kind", "unknown stock item kind "+kind)
}

// AdjustStock applies a relative change to an item's stock and returns the new level.
func (tx *Tx) AdjustStock(kind string, id int64, delta int) (*StockLevel, error) {
	table, err := stockTable(kind)
	if err != nil {
		return nil, err
	}
	lvl := StockLevel{Kind: kind, ID: id}
	err = tx.c().queryRow(`UPDATE `+table+` SET stock = stock + ? WHERE id=? RETURNING name, stock, threshold`, delta, id).
		Scan(&lvl.Name, &lvl.Stock, &lvl.Threshold)
	if err != nil {
		return nil, fmt.Errorf("adjust %s %d stock: %w", kind, id, notFound(err))
	}
	return &lvl, nil
}

func (tx *Tx) RecordMovement(m *StockMovement) error {
	if m.Actor == "" {
		m.Actor = "system"
	}
	id, err := tx.c().insert(`INSERT INTO stock_movements (item_kind, item_id, delta, stock_after, reason, source_kind, source_id, actor) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		m.ItemKind, m.ItemID, m.Delta, m.StockAfter, m.Reason, m.SourceKind, m.SourceID, m.Actor)
	if err != nil {
		return fmt.Errorf("record movement: %w", err)
	}
	m.ID = id
	return nil
}

const movementSelectCols = `id, item_kind, item_id, delta, stock_after, reason, source_kind, source_id, actor, created_at`

func (db *DB) scanMovementQuery(query string, args ...any) ([]*StockMovement, error) {
	rows, err := db.c().query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*StockMovement
	for rows.Next() {
		var m StockMovement
		var createdAt any
		if err := rows.Scan(&m.ID, &m.ItemKind, &m.ItemID, &m.Delta, &m.StockAfter, &m.Reason, &m.SourceKind, &m.SourceID, &m.Actor, &createdAt); err != nil {
			return nil, err
		}
		m.CreatedAt = parseTime(createdAt)
		out = append(out, &m)
	}
	return out, rows.Err()
}

// ListMovements returns the most recent stock movements, newest first.
func (db *DB) ListMovements(limit int) ([]*StockMovement, error) {
	return db.scanMovementQuery(`SELECT `+movementSelectCols+` FROM stock_movements ORDER BY id DESC LIMIT ?`, limit)
}

func (db *DB) ListItemMovements(kind string, id int64, limit int) ([]*StockMovement, error) {
	return db.scanMovementQuery(`SELECT `+movementSelectCols+` FROM stock_movements WHERE item_kind=? AND item_id=? ORDER BY id DESC LIMIT ?`, kind, id, limit)
}

// ListSourceMovements returns the movements caused by one order or production order.
func (db *DB) ListSourceMovements(sourceKind string, sourceID int64) ([]*StockMovement, error) {
	return db.scanMovementQuery(`SELECT `+movementSelectCols+` FROM stock_movements WHERE source_kind=? AND source_id=? ORDER BY id`, sourceKind, sourceID)
}

const stockLevelsQuery = `SELECT 'product', id, name, stock, threshold FROM products
	UNION ALL
	SELECT 'raw_material', id, name, stock, threshold FROM raw_materials`

func (db *DB) scanLevels(query string, args ...any) ([]*StockLevel, error) {
	rows, err := db.c().query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*StockLevel
	for rows.Next() {
		var l StockLevel
		if err := rows.Scan(&l.Kind, &l.ID, &l.Name, &l.Stock, &l.Threshold); err != nil {
			return nil, err
		}
		out = append(out, &l)
	}
	return out, rows.Err()
}

// ListStockLevels returns every product and raw material stock level.
func (db *DB) ListStockLevels() ([]*StockLevel, error) {
	return db.scanLevels(`SELECT * FROM (` + stockLevelsQuery + `) s ORDER BY 1, 2`)
}

// GetStockLevel reads one item's stock level.
func (db *DB) GetStockLevel(kind string, id int64) (*StockLevel, error) {
	table, err := stockTable(kind)
	if err != nil {
		return nil, err
	}
	lvl := StockLevel{Kind: kind, ID: id}
	err = db.c().queryRow(`SELECT name, stock, threshold FROM `+table+` WHERE id=?`, id).Scan(&lvl.Name, &lvl.Stock, &lvl.Threshold)
	if err != nil {
		return nil, notFound(err)
	}
	return &lvl, nil
}

// ListLowStock returns items whose stock is below their threshold.
func (db *DB) ListLowStock() ([]*StockLevel, error) {
	return db.scanLevels(`SELECT * FROM (` + stockLevelsQuery + `) s WHERE stock < threshold ORDER BY threshold - stock DESC, 1, 2`)
}
