package www

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"fabrica/store"
)

func (h *Handlers) handleAdmin(w http.ResponseWriter, r *http.Request) {
	db := h.engine.DB()
	orders, err := db.ListOrders()
	if err != nil {
		h.pageError(w, r, err)
		return
	}
	production, err := db.ListProductionOrders()
	if err != nil {
		h.pageError(w, r, err)
		return
	}
	levels, err := h.engine.StockState().Levels()
	if err != nil {
		h.pageError(w, r, err)
		return
	}
	audit, err := db.ListAuditLog(25)
	if err != nil {
		h.pageError(w, r, err)
		return
	}
	pending, _ := db.PendingOutboxCount()

	data := h.pageData(r, "admin")
	data["Orders"] = orders
	data["ProductionOrders"] = production
	data["StockLevels"] = levels
	data["Audit"] = audit
	data["OutboxPending"] = pending
	data["OrderStatuses"] = store.OrderStatuses
	data["ProductionStatuses"] = store.ProductionStatuses
	data["Notice"] = r.URL.Query().Get("notice")
	data["Error"] = r.URL.Query().Get("error")
	h.render(w, "admin/index.html", data)
}

// parseLines reads the parallel product_id / quantity form arrays, skipping
// rows without a product.
func parseLines(form url.Values) ([]store.LineInput, error) {
	products := form["product_id"]
	quantities := form["quantity"]
	lines := []store.LineInput{}
	for i, p := range products {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		pid, err := strconv.ParseInt(p, 10, 64)
		if err != nil {
			return nil, &store.ValidationError{Field: "product_id", Message: "must be a number"}
		}
		var qty int
		if i < len(quantities) {
			qty, err = strconv.Atoi(strings.TrimSpace(quantities[i]))
			if err != nil {
				return nil, &store.ValidationError{Field: "quantity", Message: "must be a whole number"}
			}
		}
		lines = append(lines, store.LineInput{ProductID: pid, Quantity: qty})
	}
	return lines, nil
}

func parseIDs(values []string) []int64 {
	ids := []int64{}
	for _, v := range values {
		if id, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64); err == nil && id > 0 {
			ids = append(ids, id)
		}
	}
	return ids
}

func formDate(form url.Values, field string) (store.Date, error) {
	d, err := store.ParseDate(form.Get(field))
	if err != nil {
		return store.Date{}, &store.ValidationError{Field: field, Message: "must be a date (YYYY-MM-DD)"}
	}
	return d, nil
}

func formOptionalDate(form url.Values, field string) (*store.Date, error) {
	if strings.TrimSpace(form.Get(field)) == "" {
		return nil, nil
	}
	d, err := formDate(form, field)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func formID(form url.Values, field string) int64 {
	id, _ := strconv.ParseInt(strings.TrimSpace(form.Get(field)), 10, 64)
	return id
}

// --- Orders ---

type orderForm struct {
	Order       store.Order
	Lines       []*store.OrderLine
	EmployeeIDs map[int64]bool
}

func (h *Handlers) renderOrderForm(w http.ResponseWriter, r *http.Request, f orderForm, formErr error) {
	db := h.engine.DB()
	customers, err := db.ListCustomers()
	if err != nil {
		h.pageError(w, r, err)
		return
	}
	products, err := db.ListProducts()
	if err != nil {
		h.pageError(w, r, err)
		return
	}
	employees, err := db.ListEmployees()
	if err != nil {
		h.pageError(w, r, err)
		return
	}
	data := h.pageData(r, "admin")
	data["Form"] = f
	data["Customers"] = customers
	data["Products"] = products
	data["Employees"] = employees
	data["Statuses"] = store.OrderStatuses
	data["PaymentMethods"] = store.PaymentMethods
	if formErr != nil {
		data["Error"] = formErr.Error()
		w.WriteHeader(errorStatus(formErr))
	}
	h.render(w, "admin/order_form.html", data)
}

func (h *Handlers) handleOrderForm(w http.ResponseWriter, r *http.Request) {
	f := orderForm{
		Order:       store.Order{Status: store.OrderPending, OrderDate: store.Today(), PaymentDate: store.Today()},
		EmployeeIDs: map[int64]bool{},
	}
	if id, err := optionalID(r); err != nil {
		h.pageError(w, r, err)
		return
	} else if id > 0 {
		d, err := h.orderDetail(id)
		if err != nil {
			h.pageError(w, r, err)
			return
		}
		f.Order = *d.Order
		f.Lines = d.Lines
		for _, e := range d.Employees {
			f.EmployeeIDs[e.ID] = true
		}
	}
	h.renderOrderForm(w, r, f, nil)
}

func (h *Handlers) handleOrderSave(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	form := r.PostForm
	o := store.Order{
		ID:            formID(form, "id"),
		Status:        form.Get("status"),
		PaymentMethod: form.Get("payment_method"),
		CustomerID:    formID(form, "customer_id"),
	}
	employeeIDs := parseIDs(form["employee_id"])
	f := orderForm{Order: o, EmployeeIDs: map[int64]bool{}}
	for _, id := range employeeIDs {
		f.EmployeeIDs[id] = true
	}

	lines, err := h.readOrderForm(form, &o)
	if err == nil {
		_, err = h.engine.SaveOrder(r.Context(), &o, lines, employeeIDs, h.actor(r))
	}
	if err != nil {
		var verr *store.ValidationError
		if errors.As(err, &verr) {
			f.Order = o
			h.renderOrderForm(w, r, f, err)
			return
		}
		h.pageError(w, r, err)
		return
	}
	http.Redirect(w, r, "/admin?notice="+url.QueryEscape("Order "+strconv.FormatInt(o.ID, 10)+" saved"), http.StatusSeeOther)
}

func (h *Handlers) readOrderForm(form url.Values, o *store.Order) ([]store.LineInput, error) {
	var err error
	if o.OrderDate, err = formDate(form, "order_date"); err != nil {
		return nil, err
	}
	if o.PaymentDate, err = formDate(form, "payment_date"); err != nil {
		return nil, err
	}
	if o.DeliveryDate, err = formOptionalDate(form, "delivery_date"); err != nil {
		return nil, err
	}
	return parseLines(form)
}

func (h *Handlers) handleOrderStatus(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.pageError(w, r, err)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	res, err := h.engine.SetOrderStatus(r.Context(), id, r.FormValue("status"), h.actor(r))
	if err != nil {
		h.redirectAdminError(w, r, err)
		return
	}
	notice := "Order " + strconv.FormatInt(id, 10) + " is " + res.Status.Status
	if n := len(res.Adjustments); n > 0 {
		notice += ", " + strconv.Itoa(n) + " stock adjustments"
	}
	http.Redirect(w, r, "/admin?notice="+url.QueryEscape(notice), http.StatusSeeOther)
}

// --- Production orders ---

type productionForm struct {
	Order       store.ProductionOrder
	Lines       []*store.ProductionOrderLine
	EmployeeIDs map[int64]bool
}

func (h *Handlers) renderProductionForm(w http.ResponseWriter, r *http.Request, f productionForm, formErr error) {
	db := h.engine.DB()
	products, err := db.ListProducts()
	if err != nil {
		h.pageError(w, r, err)
		return
	}
	employees, err := db.ListEmployees()
	if err != nil {
		h.pageError(w, r, err)
		return
	}
	data := h.pageData(r, "admin")
	data["Form"] = f
	data["Products"] = products
	data["Employees"] = employees
	data["Statuses"] = store.ProductionStatuses
	if formErr != nil {
		data["Error"] = formErr.Error()
		w.WriteHeader(errorStatus(formErr))
	}
	h.render(w, "admin/production_form.html", data)
}

func (h *Handlers) handleProductionForm(w http.ResponseWriter, r *http.Request) {
	f := productionForm{
		Order:       store.ProductionOrder{Status: store.ProductionPending, CreatedDate: store.Today()},
		EmployeeIDs: map[int64]bool{},
	}
	if id, err := optionalID(r); err != nil {
		h.pageError(w, r, err)
		return
	} else if id > 0 {
		d, err := h.productionDetail(id)
		if err != nil {
			h.pageError(w, r, err)
			return
		}
		f.Order = *d.ProductionOrder
		f.Lines = d.Lines
		for _, e := range d.Employees {
			f.EmployeeIDs[e.ID] = true
		}
	}
	h.renderProductionForm(w, r, f, nil)
}

func (h *Handlers) handleProductionSave(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	form := r.PostForm
	po := store.ProductionOrder{
		ID:     formID(form, "id"),
		Status: form.Get("status"),
	}
	employeeIDs := parseIDs(form["employee_id"])
	f := productionForm{EmployeeIDs: map[int64]bool{}}
	for _, id := range employeeIDs {
		f.EmployeeIDs[id] = true
	}

	lines, err := readProductionForm(form, &po)
	if err == nil {
		_, err = h.engine.SaveProductionOrder(r.Context(), &po, lines, employeeIDs, h.actor(r))
	}
	if err != nil {
		var verr *store.ValidationError
		if errors.As(err, &verr) {
			f.Order = po
			h.renderProductionForm(w, r, f, err)
			return
		}
		h.pageError(w, r, err)
		return
	}
	http.Redirect(w, r, "/admin?notice="+url.QueryEscape("Production order "+strconv.FormatInt(po.ID, 10)+" saved"), http.StatusSeeOther)
}

func readProductionForm(form url.Values, po *store.ProductionOrder) ([]store.LineInput, error) {
	var err error
	if po.CreatedDate, err = formDate(form, "created_date"); err != nil {
		return nil, err
	}
	if po.CompletedDate, err = formOptionalDate(form, "completed_date"); err != nil {
		return nil, err
	}
	if s := strings.TrimSpace(form.Get("total_cost")); s != "" {
		d, err := decimal.NewFromString(strings.Replace(s, ",", ".", 1))
		if err != nil {
			return nil, &store.ValidationError{Field: "total_cost", Message: "must be a number"}
		}
		po.TotalCost = decimal.NullDecimal{Decimal: d, Valid: true}
	}
	return parseLines(form)
}

func (h *Handlers) handleProductionStatus(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.pageError(w, r, err)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	res, err := h.engine.SetProductionOrderStatus(r.Context(), id, r.FormValue("status"), h.actor(r))
	if err != nil {
		h.redirectAdminError(w, r, err)
		return
	}
	notice := "Production order " + strconv.FormatInt(id, 10) + " is " + res.Status.Status
	if n := len(res.Adjustments); n > 0 {
		notice += ", " + strconv.Itoa(n) + " stock adjustments"
	}
	http.Redirect(w, r, "/admin?notice="+url.QueryEscape(notice), http.StatusSeeOther)
}

// --- Stock ---

func (h *Handlers) handleStockCorrection(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	// item is "<kind>:<id>" from the stock select.
	kind, idStr, _ := strings.Cut(r.FormValue("item"), ":")
	id, _ := strconv.ParseInt(idStr, 10, 64)
	delta, err := strconv.Atoi(strings.TrimSpace(r.FormValue("delta")))
	if err != nil {
		h.redirectAdminError(w, r, &store.ValidationError{Field: "delta", Message: "must be a whole number"})
		return
	}
	res, err := h.engine.CorrectStock(r.Context(), kind, id, delta, r.FormValue("reason"), h.actor(r))
	if err != nil {
		h.redirectAdminError(w, r, err)
		return
	}
	a := res.Adjustments[0]
	notice := a.Name + " corrected to " + strconv.Itoa(a.StockAfter)
	http.Redirect(w, r, "/admin?notice="+url.QueryEscape(notice), http.StatusSeeOther)
}

// redirectAdminError sends validation and not-found failures back to the
// admin page; anything else is a server error.
func (h *Handlers) redirectAdminError(w http.ResponseWriter, r *http.Request, err error) {
	if errorStatus(err) == http.StatusInternalServerError {
		h.pageError(w, r, err)
		return
	}
	http.Redirect(w, r, "/admin?error="+url.QueryEscape(err.Error()), http.StatusSeeOther)
}
