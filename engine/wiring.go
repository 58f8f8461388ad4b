package engine

import (
	"fmt"

	"fabrica/inventory"
	"fabrica/protocol"
	"fabrica/store"
)

func (e *Engine) wireEventHandlers() {
	// Status saves: audit
	e.Events.SubscribeTypes(func(evt Event) {
		ev := evt.Payload.(StatusChangedEvent)
		e.auditStatus("order", ev)
	}, EventOrderStatusChanged)

	e.Events.SubscribeTypes(func(evt Event) {
		ev := evt.Payload.(StatusChangedEvent)
		e.auditStatus("production_order", ev)
	}, EventProductionStatusChanged)

	// Stock changes: refresh the cache; purchases and corrections also go to the audit log
	e.Events.SubscribeTypes(func(evt Event) {
		ev := evt.Payload.(StockAdjustedEvent)
		e.stockState.Refresh(ev.Kind, ev.ItemID)
		if ev.SourceKind == "" || ev.SourceKind == inventory.SourceManual {
			detail := fmt.Sprintf("%+d -> %d (%s)", ev.Delta, ev.StockAfter, ev.Reason)
			if err := e.db.AppendAudit(ev.Kind, ev.ItemID, "stock", "", detail, ev.Actor); err != nil {
				e.logFn("engine: audit %s %d stock: %v", ev.Kind, ev.ItemID, err)
			}
		}
	}, EventStockAdjusted)

	e.Events.SubscribeTypes(func(evt Event) {
		ev := evt.Payload.(StockLowEvent)
		e.logFn("engine: %s %d (%s) low: %d of %d", ev.Kind, ev.ItemID, ev.Name, ev.Stock, ev.Threshold)
	}, EventStockLow)

	e.Events.SubscribeTypes(func(evt Event) {
		ev := evt.Payload.(PeerStockAdjustedEvent)
		e.stockState.Refresh(ev.Kind, ev.ItemID)
	}, EventPeerStockAdjusted)

	// Catalog changes: audit, and keep cached stock items in step
	e.Events.SubscribeTypes(func(evt Event) {
		ev := evt.Payload.(EntityChangedEvent)
		if err := e.db.AppendAudit(ev.Entity, ev.ID, ev.Action, "", ev.Detail, ev.Actor); err != nil {
			e.logFn("engine: audit %s %d %s: %v", ev.Entity, ev.ID, ev.Action, err)
		}
		if ev.Entity != store.KindProduct && ev.Entity != store.KindRawMaterial {
			return
		}
		if ev.Action == "deleted" {
			e.stockState.Forget(ev.Entity, ev.ID)
		} else {
			e.stockState.Refresh(ev.Entity, ev.ID)
		}
	}, EventEntityChanged)

	e.Events.SubscribeTypes(func(evt Event) {
		e.logFn("engine: %s", evt.Payload.(ConnectionEvent).Detail)
	}, EventMessagingConnected, EventMessagingDisconnected, EventCacheConnected, EventCacheDisconnected)
}

func (e *Engine) auditStatus(entity string, ev StatusChangedEvent) {
	action := "status"
	if ev.Created {
		action = "created"
	}
	if err := e.db.AppendAudit(entity, ev.ID, action, ev.OldStatus, ev.NewStatus, ev.Actor); err != nil {
		e.logFn("engine: audit %s %d: %v", entity, ev.ID, err)
	}
}

// handlePeerEvent reacts to events another instance published on the shared topic.
func (e *Engine) handlePeerEvent(env *protocol.Envelope) {
	if env.Type != protocol.TypeStockAdjusted {
		return
	}
	var p protocol.StockAdjusted
	if err := env.DecodePayload(&p); err != nil {
		e.logFn("engine: decode peer %s: %v", env.Type, err)
		return
	}
	e.Events.Emit(Event{Type: EventPeerStockAdjusted, Payload: PeerStockAdjustedEvent{
		Source: env.Src.Node,
		Kind:   p.Kind,
		ItemID: p.ItemID,
	}})
}
