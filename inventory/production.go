package inventory

import (
	"context"
	"strings"

	"fabrica/protocol"
	"fabrica/store"
)

// SaveProductionOrder inserts or updates po. Non-nil lines and employeeIDs
// replace the stored sets. Saving with status Completed adds each line's
// quantity to its product; saving with status Pending consumes the raw
// materials of every line's bill of materials.
func (s *Service) SaveProductionOrder(ctx context.Context, po *store.ProductionOrder, lines []store.LineInput, employeeIDs []int64, actor string) (*Result, error) {
	return s.run(ctx, actor, func(op *op) error {
		change := &StatusChange{Kind: SourceProduction, Status: po.Status}
		if po.ID == 0 {
			if err := op.tx.InsertProductionOrder(po); err != nil {
				return err
			}
			change.Created = true
		} else {
			old, err := op.tx.GetProductionOrder(po.ID)
			if err != nil {
				return err
			}
			change.OldStatus = old.Status
			if err := op.tx.UpdateProductionOrder(po); err != nil {
				return err
			}
		}
		change.ID = po.ID
		if lines != nil {
			if err := op.tx.ReplaceProductionOrderLines(po.ID, lines); err != nil {
				return err
			}
		}
		if employeeIDs != nil {
			if err := op.tx.ReplaceProductionOrderEmployees(po.ID, employeeIDs); err != nil {
				return err
			}
		}
		return op.productionSaved(change, po)
	})
}

// SetProductionOrderStatus saves only the status of production order id.
func (s *Service) SetProductionOrderStatus(ctx context.Context, id int64, status, actor string) (*Result, error) {
	return s.run(ctx, actor, func(op *op) error {
		old, err := op.tx.GetProductionOrder(id)
		if err != nil {
			return err
		}
		if err := op.tx.SetProductionOrderStatus(id, status); err != nil {
			return err
		}
		change := &StatusChange{Kind: SourceProduction, ID: id, OldStatus: old.Status, Status: status}
		old.Status = status
		return op.productionSaved(change, old)
	})
}

func (op *op) productionSaved(change *StatusChange, po *store.ProductionOrder) error {
	op.result.Status = change
	if change.Changed() {
		if err := op.publish(protocol.TypeProductionStatus, &protocol.ProductionStatus{
			ProductionOrderID: change.ID,
			OldStatus:         change.OldStatus,
			Status:            change.Status,
			TotalCost:         po.TotalCost,
			Actor:             op.actor,
		}); err != nil {
			return err
		}
	}

	switch {
	case op.shouldApply(change.OldStatus, change.Status, store.ProductionCompleted, change.Created):
		lines, err := op.tx.ProductionOrderLines(change.ID)
		if err != nil {
			return err
		}
		for _, l := range lines {
			if err := op.adjust(store.KindProduct, l.ProductID, l.Quantity, store.ReasonProductionCompleted, SourceProduction, change.ID); err != nil {
				return err
			}
		}
	case op.shouldApply(change.OldStatus, change.Status, store.ProductionPending, change.Created):
		reqs, err := op.tx.MaterialRequirements(change.ID)
		if err != nil {
			return err
		}
		for _, r := range reqs {
			if err := op.adjust(store.KindRawMaterial, r.RawMaterialID, -r.Quantity, store.ReasonProductionConsumed, SourceProduction, change.ID); err != nil {
				return err
			}
		}
	}
	return nil
}

// PurchaseRawMaterial adds a purchased quantity to a raw material's stock.
func (s *Service) PurchaseRawMaterial(ctx context.Context, rawMaterialID int64, quantity int, actor string) (*Result, error) {
	if quantity <= 0 {
		return nil, &store.ValidationError{Field: "quantity", Message: "must be greater than zero"}
	}
	return s.run(ctx, actor, func(op *op) error {
		return op.adjust(store.KindRawMaterial, rawMaterialID, quantity, store.ReasonPurchase, "", 0)
	})
}

// CorrectStock applies a manual stock correction. The reason is mandatory
// and stored on the movement.
func (s *Service) CorrectStock(ctx context.Context, kind string, id int64, delta int, reason, actor string) (*Result, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, &store.ValidationError{Field: "reason", Message: "is required"}
	}
	if delta == 0 {
		return nil, &store.ValidationError{Field: "delta", Message: "must not be zero"}
	}
	return s.run(ctx, actor, func(op *op) error {
		return op.adjust(kind, id, delta, store.ReasonCorrection+": "+reason, SourceManual, 0)
	})
}
