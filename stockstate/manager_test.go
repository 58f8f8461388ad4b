package stockstate

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"

	"fabrica/config"
	"fabrica/store"
)

func testDB(t *testing.T) *store.DB {
	t.Helper()
	db, err := store.Open(&config.DatabaseConfig{
		Driver: "sqlite",
		SQLite: config.SQLiteConfig{Path: filepath.Join(t.TempDir(), "test.db")},
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestMemberRoundTrip(t *testing.T) {
	m := member(store.KindRawMaterial, 42)
	if m != "raw_material:42" {
		t.Fatalf("member = %q", m)
	}
	kind, id, ok := parseMember(m)
	if !ok || kind != store.KindRawMaterial || id != 42 {
		t.Errorf("parseMember = %q %d %v", kind, id, ok)
	}
	if _, _, ok := parseMember("garbage"); ok {
		t.Error("expected garbage member to be rejected")
	}
	if _, _, ok := parseMember("product:x"); ok {
		t.Error("expected non-numeric id to be rejected")
	}
	if k := levelKey(store.KindProduct, 7); k != "fabrica:stock:product:7" {
		t.Errorf("levelKey = %q", k)
	}
}

func TestManagerFallsBackToSQL(t *testing.T) {
	db := testDB(t)
	p := &store.Product{Name: "Gear", Stock: 1, Threshold: 4, UnitCost: decimal.NewFromInt(1)}
	if err := db.CreateProduct(p); err != nil {
		t.Fatalf("create product: %v", err)
	}
	m := &store.RawMaterial{Name: "Steel", Stock: 50, Threshold: 5, UnitCost: decimal.NewFromInt(1)}
	if err := db.CreateRawMaterial(m); err != nil {
		t.Fatalf("create raw material: %v", err)
	}

	mgr := NewManager(db, nil)
	if mgr.Cached() {
		t.Error("manager without redis should not report cached")
	}
	if err := mgr.SyncRedisFromSQL(); err != nil {
		t.Fatalf("sync without redis: %v", err)
	}
	mgr.Refresh(store.KindProduct, p.ID)
	mgr.Forget(store.KindProduct, p.ID)

	lvl, err := mgr.Level(store.KindProduct, p.ID)
	if err != nil {
		t.Fatalf("level: %v", err)
	}
	if lvl.Name != "Gear" || lvl.Stock != 1 || !lvl.Low() {
		t.Errorf("level = %+v", lvl)
	}

	levels, err := mgr.Levels()
	if err != nil {
		t.Fatalf("levels: %v", err)
	}
	if len(levels) != 2 {
		t.Errorf("levels = %d, want 2", len(levels))
	}

	low, err := mgr.LowStock()
	if err != nil {
		t.Fatalf("low stock: %v", err)
	}
	if len(low) != 1 || low[0].ID != p.ID {
		t.Errorf("low stock = %+v", low)
	}

	err = db.InTx(context.Background(), func(tx *store.Tx) error {
		_, err := tx.AdjustStock(store.KindProduct, p.ID, 10)
		return err
	})
	if err != nil {
		t.Fatalf("adjust: %v", err)
	}
	low, _ = mgr.LowStock()
	if len(low) != 0 {
		t.Errorf("expected no low stock after restock, got %d", len(low))
	}
}
