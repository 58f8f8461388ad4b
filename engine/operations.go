package engine

import (
	"context"

	"fabrica/inventory"
	"fabrica/store"
)

// Stock-changing operations run through the inventory service; once the
// transaction commits the engine announces what happened on the event bus.

func (e *Engine) SaveOrder(ctx context.Context, o *store.Order, lines []store.LineInput, employeeIDs []int64, actor string) (*inventory.Result, error) {
	res, err := e.inventory.SaveOrder(ctx, o, lines, employeeIDs, actor)
	if err != nil {
		return nil, err
	}
	e.announce(res, actor)
	return res, nil
}

func (e *Engine) SetOrderStatus(ctx context.Context, id int64, status, actor string) (*inventory.Result, error) {
	res, err := e.inventory.SetOrderStatus(ctx, id, status, actor)
	if err != nil {
		return nil, err
	}
	e.announce(res, actor)
	return res, nil
}

func (e *Engine) SaveProductionOrder(ctx context.Context, po *store.ProductionOrder, lines []store.LineInput, employeeIDs []int64, actor string) (*inventory.Result, error) {
	res, err := e.inventory.SaveProductionOrder(ctx, po, lines, employeeIDs, actor)
	if err != nil {
		return nil, err
	}
	e.announce(res, actor)
	return res, nil
}

func (e *Engine) SetProductionOrderStatus(ctx context.Context, id int64, status, actor string) (*inventory.Result, error) {
	res, err := e.inventory.SetProductionOrderStatus(ctx, id, status, actor)
	if err != nil {
		return nil, err
	}
	e.announce(res, actor)
	return res, nil
}

func (e *Engine) PurchaseRawMaterial(ctx context.Context, rawMaterialID int64, quantity int, actor string) (*inventory.Result, error) {
	res, err := e.inventory.PurchaseRawMaterial(ctx, rawMaterialID, quantity, actor)
	if err != nil {
		return nil, err
	}
	e.announce(res, actor)
	return res, nil
}

func (e *Engine) CorrectStock(ctx context.Context, kind string, id int64, delta int, reason, actor string) (*inventory.Result, error) {
	res, err := e.inventory.CorrectStock(ctx, kind, id, delta, reason, actor)
	if err != nil {
		return nil, err
	}
	e.announce(res, actor)
	return res, nil
}

func (e *Engine) announce(res *inventory.Result, actor string) {
	if s := res.Status; s != nil {
		evt := StatusChangedEvent{ID: s.ID, OldStatus: s.OldStatus, NewStatus: s.Status, Created: s.Created, Actor: actor}
		switch s.Kind {
		case inventory.SourceOrder:
			e.Events.Emit(Event{Type: EventOrderStatusChanged, Payload: evt})
		case inventory.SourceProduction:
			e.Events.Emit(Event{Type: EventProductionStatusChanged, Payload: evt})
		}
	}
	for _, a := range res.Adjustments {
		e.Events.Emit(Event{Type: EventStockAdjusted, Payload: StockAdjustedEvent{
			Kind:       a.ItemKind,
			ItemID:     a.ItemID,
			Name:       a.Name,
			Delta:      a.Delta,
			StockAfter: a.StockAfter,
			Threshold:  a.Threshold,
			Reason:     a.Reason,
			SourceKind: a.SourceKind,
			SourceID:   a.SourceID,
			Actor:      a.Actor,
		}})
		if a.Low() {
			e.Events.Emit(Event{Type: EventStockLow, Payload: StockLowEvent{
				Kind:      a.ItemKind,
				ItemID:    a.ItemID,
				Name:      a.Name,
				Stock:     a.StockAfter,
				Threshold: a.Threshold,
			}})
		}
	}
}
