// Package inventory keeps product and raw material stock consistent with
// order fulfillment, production and purchases. Every operation runs in one
// database transaction together with the write that triggers it.
package inventory

import (
	"context"
	"fmt"
	"log"
	"sync"

	"fabrica/protocol"
	"fabrica/store"
)

// Source kinds recorded on stock movements.
const (
	SourceOrder      = "order"
	SourceProduction = "production_order"
	SourceManual     = "manual"
)

type Config struct {
	// TransitionOnly applies a status trigger only when the stored status
	// differs from the one being saved. When false every save with the
	// trigger status applies it again.
	TransitionOnly bool
	LowStockEvents bool

	// Outbox enables writing event envelopes to the outbox table.
	Outbox      bool
	EventsTopic string
	SourceID    string
}

type Service struct {
	db  *store.DB
	mu  sync.RWMutex
	cfg Config
}

func New(db *store.DB, cfg Config) *Service {
	return &Service{db: db, cfg: cfg}
}

// Configure replaces the configuration; operations already running keep the old one.
func (s *Service) Configure(cfg Config) {
	s.mu.Lock()
	s.cfg = cfg
	s.mu.Unlock()
}

func (s *Service) Config() Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg
}

// Adjustment is one stock change applied by a committed operation.
type Adjustment struct {
	store.StockMovement
	Name      string `json:"name"`
	Threshold int    `json:"threshold"`
}

// Low reports whether the adjustment left the item below its threshold.
func (a *Adjustment) Low() bool { return a.StockAfter < a.Threshold }

// StatusChange describes the status written by a save.
type StatusChange struct {
	Kind      string `json:"kind"`
	ID        int64  `json:"id"`
	OldStatus string `json:"old_status"`
	Status    string `json:"status"`
	Created   bool   `json:"created"`
}

// Changed is false when the record was re-saved with its stored status.
func (s *StatusChange) Changed() bool { return s.Created || s.OldStatus != s.Status }

// Result lists what a committed operation did, for post-commit events.
type Result struct {
	Status      *StatusChange `json:"status,omitempty"`
	Adjustments []Adjustment  `json:"adjustments"`
}

// shouldApply decides whether a save with status triggers the side effect of target.
func (o *op) shouldApply(old, status, target string, created bool) bool {
	if status != target {
		return false
	}
	if o.cfg.TransitionOnly && !created && old == target {
		return false
	}
	return true
}

// op accumulates adjustments and outbox events for one transaction.
type op struct {
	cfg    Config
	tx     *store.Tx
	actor  string
	result Result
}

func (s *Service) run(ctx context.Context, actor string, fn func(*op) error) (*Result, error) {
	var o *op
	err := s.db.InTx(ctx, func(tx *store.Tx) error {
		o = &op{cfg: s.Config(), tx: tx, actor: actor}
		return fn(o)
	})
	if err != nil {
		return nil, err
	}
	return &o.result, nil
}

func (o *op) adjust(kind string, id int64, delta int, reason, sourceKind string, sourceID int64) error {
	lvl, err := o.tx.AdjustStock(kind, id, delta)
	if err != nil {
		return err
	}
	m := store.StockMovement{
		ItemKind:   kind,
		ItemID:     id,
		Delta:      delta,
		StockAfter: lvl.Stock,
		Reason:     reason,
		SourceKind: sourceKind,
		SourceID:   sourceID,
		Actor:      o.actor,
	}
	if err := o.tx.RecordMovement(&m); err != nil {
		return err
	}
	adj := Adjustment{StockMovement: m, Name: lvl.Name, Threshold: lvl.Threshold}
	o.result.Adjustments = append(o.result.Adjustments, adj)

	if err := o.publish(protocol.TypeStockAdjusted, &protocol.StockAdjusted{
		Kind:       kind,
		ItemID:     id,
		Name:       lvl.Name,
		Delta:      delta,
		StockAfter: lvl.Stock,
		Reason:     reason,
		SourceKind: sourceKind,
		SourceID:   sourceID,
		Actor:      m.Actor,
	}); err != nil {
		return err
	}
	if adj.Low() && o.cfg.LowStockEvents {
		log.Printf("inventory: %s %d (%s) below threshold: %d < %d", kind, id, lvl.Name, lvl.Stock, lvl.Threshold)
		return o.publish(protocol.TypeStockLow, &protocol.StockLow{
			Kind:      kind,
			ItemID:    id,
			Name:      lvl.Name,
			Stock:     lvl.Stock,
			Threshold: lvl.Threshold,
			Shortfall: lvl.Threshold - lvl.Stock,
		})
	}
	return nil
}

// publish writes an event envelope to the outbox inside the transaction.
func (o *op) publish(msgType string, payload any) error {
	cfg := o.cfg
	if !cfg.Outbox {
		return nil
	}
	env, err := protocol.NewEnvelope(msgType, protocol.Server(cfg.SourceID), protocol.Broadcast, payload)
	if err != nil {
		return err
	}
	data, err := env.Encode()
	if err != nil {
		return fmt.Errorf("encode %s: %w", msgType, err)
	}
	return o.tx.EnqueueOutbox(cfg.EventsTopic, data, msgType, cfg.SourceID)
}
