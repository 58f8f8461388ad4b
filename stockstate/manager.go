// Package stockstate caches product and raw material stock levels in Redis.
// SQL stays authoritative: writes go to the database first and the cache is
// refreshed from it, and reads fall back to SQL when Redis is absent or cold.
package stockstate

import (
	"context"
	"log"
	"time"

	"fabrica/store"
)

type Manager struct {
	db    *store.DB
	redis *RedisStore
}

// NewManager returns a manager; redis may be nil, in which case every read
// goes to SQL.
func NewManager(db *store.DB, redis *RedisStore) *Manager {
	return &Manager{db: db, redis: redis}
}

// Cached reports whether a Redis store is attached.
func (m *Manager) Cached() bool { return m.redis != nil }

// Ping checks the Redis connection; without Redis there is nothing to reach.
func (m *Manager) Ping() error {
	if m.redis == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	return m.redis.Ping(ctx)
}

// Refresh re-reads an item from SQL and writes it to Redis.
func (m *Manager) Refresh(kind string, id int64) {
	if m.redis == nil {
		return
	}
	ctx := context.Background()
	lvl, err := m.db.GetStockLevel(kind, id)
	if err != nil {
		log.Printf("stockstate: refresh %s %d: %v", kind, id, err)
		m.redis.RemoveItem(ctx, kind, id)
		return
	}
	if err := m.redis.SetLevel(ctx, lvl); err != nil {
		log.Printf("stockstate: cache %s %d: %v", kind, id, err)
	}
}

// Forget drops a deleted item from the cache.
func (m *Manager) Forget(kind string, id int64) {
	if m.redis == nil {
		return
	}
	if err := m.redis.RemoveItem(context.Background(), kind, id); err != nil {
		log.Printf("stockstate: remove %s %d: %v", kind, id, err)
	}
}

// Level reads an item's stock level from Redis, falling back to SQL.
func (m *Manager) Level(kind string, id int64) (*store.StockLevel, error) {
	if m.redis != nil {
		lvl, err := m.redis.GetLevel(context.Background(), kind, id)
		if err == nil && lvl != nil {
			return lvl, nil
		}
	}
	return m.db.GetStockLevel(kind, id)
}

// Levels returns every stock level, preferring Redis.
func (m *Manager) Levels() ([]*store.StockLevel, error) {
	if m.redis != nil {
		levels, err := m.redis.AllLevels(context.Background())
		if err == nil && len(levels) > 0 {
			return levels, nil
		}
	}
	return m.db.ListStockLevels()
}

// LowStock returns items below their threshold, largest shortfall first.
func (m *Manager) LowStock() ([]*store.StockLevel, error) {
	if m.redis != nil {
		ctx := context.Background()
		if n, err := m.redis.ItemCount(ctx); err == nil && n > 0 {
			if levels, err := m.redis.LowLevels(ctx); err == nil {
				return levels, nil
			}
		}
	}
	return m.db.ListLowStock()
}

// SyncRedisFromSQL rebuilds the cache from SQL. Called on startup.
func (m *Manager) SyncRedisFromSQL() error {
	if m.redis == nil {
		return nil
	}
	ctx := context.Background()
	if err := m.redis.FlushAll(ctx); err != nil {
		return err
	}

	levels, err := m.db.ListStockLevels()
	if err != nil {
		return err
	}
	for _, lvl := range levels {
		if err := m.redis.SetLevel(ctx, lvl); err != nil {
			log.Printf("stockstate: sync %s %d: %v", lvl.Kind, lvl.ID, err)
		}
	}

	log.Printf("stockstate: synced %d items to redis", len(levels))
	return nil
}
