package engine

import (
	"github.com/shopspring/decimal"

	"fabrica/store"
)

// Catalog writes that affect cached stock levels or deserve an audit entry go
// through the engine so the cache and audit log follow them.

func (e *Engine) changed(entity string, id int64, action, detail, actor string) {
	e.Events.Emit(Event{Type: EventEntityChanged, Payload: EntityChangedEvent{
		Entity: entity, ID: id, Action: action, Detail: detail, Actor: actor,
	}})
}

func (e *Engine) SaveProduct(p *store.Product, actor string) error {
	action := "updated"
	var err error
	if p.ID == 0 {
		action = "created"
		err = e.db.CreateProduct(p)
	} else {
		err = e.db.UpdateProduct(p)
	}
	if err != nil {
		return err
	}
	e.changed(store.KindProduct, p.ID, action, p.Name, actor)
	return nil
}

func (e *Engine) DeleteProduct(id int64, actor string) error {
	if err := e.db.DeleteProduct(id); err != nil {
		return err
	}
	e.changed(store.KindProduct, id, "deleted", "", actor)
	return nil
}

func (e *Engine) SaveRawMaterial(m *store.RawMaterial, actor string) error {
	action := "updated"
	var err error
	if m.ID == 0 {
		action = "created"
		err = e.db.CreateRawMaterial(m)
	} else {
		err = e.db.UpdateRawMaterial(m)
	}
	if err != nil {
		return err
	}
	e.changed(store.KindRawMaterial, m.ID, action, m.Name, actor)
	return nil
}

func (e *Engine) DeleteRawMaterial(id int64, actor string) error {
	if err := e.db.DeleteRawMaterial(id); err != nil {
		return err
	}
	e.changed(store.KindRawMaterial, id, "deleted", "", actor)
	return nil
}

// RateSupplier stores a supplier rating in [0, 5].
func (e *Engine) RateSupplier(id int64, rating decimal.Decimal, actor string) error {
	if err := e.db.SetSupplierRating(id, rating); err != nil {
		return err
	}
	e.changed("supplier", id, "rated", rating.StringFixed(2), actor)
	return nil
}

func (e *Engine) DeleteOrder(id int64, actor string) error {
	if err := e.db.DeleteOrder(id); err != nil {
		return err
	}
	e.changed("order", id, "deleted", "", actor)
	return nil
}

func (e *Engine) DeleteProductionOrder(id int64, actor string) error {
	if err := e.db.DeleteProductionOrder(id); err != nil {
		return err
	}
	e.changed("production_order", id, "deleted", "", actor)
	return nil
}

// Record writes an audit entry for a catalog change made directly on the store.
func (e *Engine) Record(entity string, id int64, action, detail, actor string) {
	e.changed(entity, id, action, detail, actor)
}
