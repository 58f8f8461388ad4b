package inventory

import (
	"context"

	"fabrica/protocol"
	"fabrica/store"
)

// SaveOrder inserts o when its ID is zero and updates it otherwise. A non-nil
// lines or employeeIDs replaces the stored set; nil keeps it. Saving with
// status Processed decrements each line's product stock by the line quantity.
func (s *Service) SaveOrder(ctx context.Context, o *store.Order, lines []store.LineInput, employeeIDs []int64, actor string) (*Result, error) {
	return s.run(ctx, actor, func(op *op) error {
		change := &StatusChange{Kind: SourceOrder, Status: o.Status}
		if o.ID == 0 {
			if err := op.tx.InsertOrder(o); err != nil {
				return err
			}
			change.Created = true
		} else {
			old, err := op.tx.GetOrder(o.ID)
			if err != nil {
				return err
			}
			change.OldStatus = old.Status
			if err := op.tx.UpdateOrder(o); err != nil {
				return err
			}
		}
		change.ID = o.ID
		if lines != nil {
			if err := op.tx.ReplaceOrderLines(o.ID, lines); err != nil {
				return err
			}
		}
		if employeeIDs != nil {
			if err := op.tx.ReplaceOrderEmployees(o.ID, employeeIDs); err != nil {
				return err
			}
		}
		return op.orderSaved(change, o.CustomerID)
	})
}

// SetOrderStatus saves only the status of order id.
func (s *Service) SetOrderStatus(ctx context.Context, id int64, status, actor string) (*Result, error) {
	return s.run(ctx, actor, func(op *op) error {
		old, err := op.tx.GetOrder(id)
		if err != nil {
			return err
		}
		if err := op.tx.SetOrderStatus(id, status); err != nil {
			return err
		}
		return op.orderSaved(&StatusChange{Kind: SourceOrder, ID: id, OldStatus: old.Status, Status: status}, old.CustomerID)
	})
}

func (op *op) orderSaved(change *StatusChange, customerID int64) error {
	op.result.Status = change
	if change.Changed() {
		if err := op.publish(protocol.TypeOrderStatus, &protocol.OrderStatus{
			OrderID:    change.ID,
			CustomerID: customerID,
			OldStatus:  change.OldStatus,
			Status:     change.Status,
			Actor:      op.actor,
		}); err != nil {
			return err
		}
	}
	if !op.shouldApply(change.OldStatus, change.Status, store.OrderProcessed, change.Created) {
		return nil
	}
	lines, err := op.tx.OrderLines(change.ID)
	if err != nil {
		return err
	}
	for _, l := range lines {
		if err := op.adjust(store.KindProduct, l.ProductID, -l.Quantity, store.ReasonOrderProcessed, SourceOrder, change.ID); err != nil {
			return err
		}
	}
	return nil
}
