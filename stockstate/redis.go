package stockstate

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/redis/go-redis/v9"

	"fabrica/store"
)

type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

const (
	allItemsKey = "fabrica:stock:items"
	lowStockKey = "fabrica:stock:low"
)

func member(kind string, id int64) string {
	return kind + ":" + strconv.FormatInt(id, 10)
}

func parseMember(m string) (string, int64, bool) {
	kind, idText, ok := strings.Cut(m, ":")
	if !ok {
		return "", 0, false
	}
	id, err := strconv.ParseInt(idText, 10, 64)
	if err != nil {
		return "", 0, false
	}
	return kind, id, true
}

func levelKey(kind string, id int64) string {
	return fmt.Sprintf("fabrica:stock:%s:%d", kind, id)
}

// SetLevel stores a level and keeps the item and low-stock sets in step with it.
// The low-stock set is scored by shortfall.
func (r *RedisStore) SetLevel(ctx context.Context, lvl *store.StockLevel) error {
	data, err := json.Marshal(lvl)
	if err != nil {
		return err
	}
	m := member(lvl.Kind, lvl.ID)
	pipe := r.client.TxPipeline()
	pipe.Set(ctx, levelKey(lvl.Kind, lvl.ID), data, 0)
	pipe.SAdd(ctx, allItemsKey, m)
	if lvl.Low() {
		pipe.ZAdd(ctx, lowStockKey, redis.Z{Score: float64(lvl.Threshold - lvl.Stock), Member: m})
	} else {
		pipe.ZRem(ctx, lowStockKey, m)
	}
	_, err = pipe.Exec(ctx)
	return err
}

// GetLevel returns nil without error when the item is not cached.
func (r *RedisStore) GetLevel(ctx context.Context, kind string, id int64) (*store.StockLevel, error) {
	data, err := r.client.Get(ctx, levelKey(kind, id)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var lvl store.StockLevel
	return &lvl, json.Unmarshal(data, &lvl)
}

func (r *RedisStore) levels(ctx context.Context, members []string) ([]*store.StockLevel, error) {
	out := make([]*store.StockLevel, 0, len(members))
	for _, m := range members {
		kind, id, ok := parseMember(m)
		if !ok {
			continue
		}
		lvl, err := r.GetLevel(ctx, kind, id)
		if err != nil {
			return nil, err
		}
		if lvl != nil {
			out = append(out, lvl)
		}
	}
	return out, nil
}

func (r *RedisStore) AllLevels(ctx context.Context) ([]*store.StockLevel, error) {
	members, err := r.client.SMembers(ctx, allItemsKey).Result()
	if err != nil {
		return nil, err
	}
	return r.levels(ctx, members)
}

// LowLevels returns cached low-stock items, largest shortfall first.
func (r *RedisStore) LowLevels(ctx context.Context) ([]*store.StockLevel, error) {
	members, err := r.client.ZRevRange(ctx, lowStockKey, 0, -1).Result()
	if err != nil {
		return nil, err
	}
	return r.levels(ctx, members)
}

func (r *RedisStore) ItemCount(ctx context.Context) (int64, error) {
	return r.client.SCard(ctx, allItemsKey).Result()
}

func (r *RedisStore) RemoveItem(ctx context.Context, kind string, id int64) error {
	m := member(kind, id)
	pipe := r.client.TxPipeline()
	pipe.Del(ctx, levelKey(kind, id))
	pipe.SRem(ctx, allItemsKey, m)
	pipe.ZRem(ctx, lowStockKey, m)
	_, err := pipe.Exec(ctx)
	return err
}

func (r *RedisStore) FlushAll(ctx context.Context) error {
	members, err := r.client.SMembers(ctx, allItemsKey).Result()
	if err != nil {
		return err
	}
	for _, m := range members {
		if kind, id, ok := parseMember(m); ok {
			r.client.Del(ctx, levelKey(kind, id))
		}
	}
	return r.client.Del(ctx, allItemsKey, lowStockKey).Err()
}

func (r *RedisStore) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
