package www

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"fabrica/store"
)

// adminRoutes mounts the JSON admin API: create, update, delete and search
// for every entity plus the inline line, employee, BOM and offer sets.
func (h *Handlers) adminRoutes(r chi.Router) {
	r.Route("/customers", func(r chi.Router) {
		r.Get("/", h.apiAdminCustomers)
		r.Post("/", h.apiAdminSaveCustomer)
		r.Get("/{id}", h.apiAdminCustomer)
		r.Put("/{id}", h.apiAdminSaveCustomer)
		r.Delete("/{id}", h.apiAdminDeleteCustomer)
	})
	r.Route("/orders", func(r chi.Router) {
		r.Get("/", h.apiAdminOrders)
		r.Post("/", h.apiAdminSaveOrder)
		r.Get("/{id}", h.apiAdminOrder)
		r.Put("/{id}", h.apiAdminSaveOrder)
		r.Delete("/{id}", h.apiAdminDeleteOrder)
		r.Post("/{id}/status", h.apiAdminOrderStatus)
	})
	r.Route("/products", func(r chi.Router) {
		r.Get("/", h.apiAdminProducts)
		r.Post("/", h.apiAdminSaveProduct)
		r.Get("/{id}", h.apiAdminProduct)
		r.Put("/{id}", h.apiAdminSaveProduct)
		r.Delete("/{id}", h.apiAdminDeleteProduct)
		r.Put("/{id}/bom", h.apiAdminSetBOMItem)
		r.Delete("/bom/{itemID}", h.apiAdminDeleteBOMItem)
	})
	r.Route("/raw-materials", func(r chi.Router) {
		r.Get("/", h.apiAdminRawMaterials)
		r.Post("/", h.apiAdminSaveRawMaterial)
		r.Get("/{id}", h.apiAdminRawMaterial)
		r.Put("/{id}", h.apiAdminSaveRawMaterial)
		r.Delete("/{id}", h.apiAdminDeleteRawMaterial)
	})
	r.Route("/suppliers", func(r chi.Router) {
		r.Get("/", h.apiAdminSuppliers)
		r.Post("/", h.apiAdminSaveSupplier)
		r.Get("/{id}", h.apiAdminSupplier)
		r.Put("/{id}", h.apiAdminSaveSupplier)
		r.Delete("/{id}", h.apiAdminDeleteSupplier)
		r.Put("/{id}/offers", h.apiAdminSetOffer)
		r.Delete("/offers/{itemID}", h.apiAdminDeleteOffer)
	})
	r.Route("/employees", func(r chi.Router) {
		r.Get("/", h.apiAdminEmployees)
		r.Post("/", h.apiAdminSaveEmployee)
		r.Get("/{id}", h.apiAdminEmployee)
		r.Put("/{id}", h.apiAdminSaveEmployee)
		r.Delete("/{id}", h.apiAdminDeleteEmployee)
	})
	r.Route("/production-orders", func(r chi.Router) {
		r.Get("/", h.apiAdminProductionOrders)
		r.Post("/", h.apiAdminSaveProductionOrder)
		r.Get("/{id}", h.apiAdminProductionOrder)
		r.Put("/{id}", h.apiAdminSaveProductionOrder)
		r.Delete("/{id}", h.apiAdminDeleteProductionOrder)
		r.Post("/{id}/status", h.apiAdminProductionStatus)
	})
	r.Post("/stock/correct", h.apiAdminCorrectStock)
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return &store.ValidationError{Field: "body", Message: err.Error()}
	}
	return nil
}

// optionalID returns the {id} path value, or zero on a create route.
func optionalID(r *http.Request) (int64, error) {
	if chi.URLParam(r, "id") == "" {
		return 0, nil
	}
	return pathID(r)
}

func itemID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "itemID"), 10, 64)
	if err != nil || id <= 0 {
		return 0, store.ErrNotFound
	}
	return id, nil
}

// saved answers 201 for a create and 200 for an update.
func (h *Handlers) saved(w http.ResponseWriter, created bool, data any) {
	if created {
		h.jsonCreated(w, data)
		return
	}
	h.jsonOK(w, data)
}

// --- Customers ---

func (h *Handlers) apiAdminCustomers(w http.ResponseWriter, r *http.Request) {
	list, err := h.engine.DB().AdminSearchCustomers(r.URL.Query().Get("q"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.jsonOK(w, orEmpty(list))
}

func (h *Handlers) apiAdminCustomer(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.writeError(w, err)
		return
	}
	c, err := h.engine.DB().GetCustomer(id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.jsonOK(w, c)
}

func (h *Handlers) apiAdminSaveCustomer(w http.ResponseWriter, r *http.Request) {
	id, err := optionalID(r)
	if err != nil {
		h.writeError(w, err)
		return
	}
	var c store.Customer
	if err := decodeJSON(r, &c); err != nil {
		h.writeError(w, err)
		return
	}
	c.ID = id
	db := h.engine.DB()
	if id == 0 {
		err = db.CreateCustomer(&c)
	} else {
		err = db.UpdateCustomer(&c)
	}
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.engine.Record("customer", c.ID, savedAction(id), c.Name, h.actor(r))
	h.saved(w, id == 0, c)
}

func (h *Handlers) apiAdminDeleteCustomer(w http.ResponseWriter, r *http.Request) {
	h.deleteWith(w, r, "customer", h.engine.DB().DeleteCustomer)
}

// --- Orders ---

type orderRequest struct {
	store.Order
	Lines       []store.LineInput `json:"lines"`
	EmployeeIDs []int64           `json:"employee_ids"`
}

type orderDetail struct {
	*store.Order
	Lines     []*store.OrderLine `json:"lines"`
	Employees []*store.Employee  `json:"employees"`
}

func (h *Handlers) apiAdminOrders(w http.ResponseWriter, r *http.Request) {
	list, err := h.engine.DB().AdminSearchOrders(r.URL.Query().Get("q"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.jsonOK(w, orEmpty(list))
}

func (h *Handlers) orderDetail(id int64) (*orderDetail, error) {
	db := h.engine.DB()
	o, err := db.GetOrder(id)
	if err != nil {
		return nil, err
	}
	lines, err := db.OrderLines(id)
	if err != nil {
		return nil, err
	}
	emps, err := db.OrderEmployees(id)
	if err != nil {
		return nil, err
	}
	return &orderDetail{Order: o, Lines: orEmpty(lines), Employees: orEmpty(emps)}, nil
}

func (h *Handlers) apiAdminOrder(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.writeError(w, err)
		return
	}
	d, err := h.orderDetail(id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.jsonOK(w, d)
}

func (h *Handlers) apiAdminSaveOrder(w http.ResponseWriter, r *http.Request) {
	id, err := optionalID(r)
	if err != nil {
		h.writeError(w, err)
		return
	}
	var req orderRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, err)
		return
	}
	o := req.Order
	o.ID = id
	res, err := h.engine.SaveOrder(r.Context(), &o, req.Lines, req.EmployeeIDs, h.actor(r))
	if err != nil {
		h.writeError(w, err)
		return
	}
	d, err := h.orderDetail(o.ID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.saved(w, id == 0, map[string]any{"order": d, "adjustments": orEmpty(res.Adjustments)})
}

func (h *Handlers) apiAdminOrderStatus(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.writeError(w, err)
		return
	}
	var req struct {
		Status string `json:"status"`
	}
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, err)
		return
	}
	res, err := h.engine.SetOrderStatus(r.Context(), id, req.Status, h.actor(r))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.jsonOK(w, map[string]any{"status": res.Status, "adjustments": orEmpty(res.Adjustments)})
}

func (h *Handlers) apiAdminDeleteOrder(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.writeError(w, err)
		return
	}
	if err := h.engine.DeleteOrder(id, h.actor(r)); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- Products ---

type productDetail struct {
	*store.Product
	BOM []*store.BOMItem `json:"bom"`
}

func (h *Handlers) apiAdminProducts(w http.ResponseWriter, r *http.Request) {
	list, err := h.engine.DB().AdminSearchProducts(r.URL.Query().Get("q"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.jsonOK(w, orEmpty(list))
}

func (h *Handlers) apiAdminProduct(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.writeError(w, err)
		return
	}
	db := h.engine.DB()
	p, err := db.GetProduct(id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	bom, err := db.ListBOM(id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.jsonOK(w, productDetail{Product: p, BOM: orEmpty(bom)})
}

func (h *Handlers) apiAdminSaveProduct(w http.ResponseWriter, r *http.Request) {
	id, err := optionalID(r)
	if err != nil {
		h.writeError(w, err)
		return
	}
	var p store.Product
	if err := decodeJSON(r, &p); err != nil {
		h.writeError(w, err)
		return
	}
	p.ID = id
	if err := h.engine.SaveProduct(&p, h.actor(r)); err != nil {
		h.writeError(w, err)
		return
	}
	h.saved(w, id == 0, p)
}

func (h *Handlers) apiAdminDeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.writeError(w, err)
		return
	}
	if err := h.engine.DeleteProduct(id, h.actor(r)); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) apiAdminSetBOMItem(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.writeError(w, err)
		return
	}
	var b store.BOMItem
	if err := decodeJSON(r, &b); err != nil {
		h.writeError(w, err)
		return
	}
	b.ProductID = id
	if err := h.engine.DB().SetBOMItem(&b); err != nil {
		h.writeError(w, err)
		return
	}
	h.engine.Record(store.KindProduct, id, "bom", "raw material "+strconv.FormatInt(b.RawMaterialID, 10)+" x"+strconv.Itoa(b.Quantity), h.actor(r))
	h.jsonOK(w, b)
}

func (h *Handlers) apiAdminDeleteBOMItem(w http.ResponseWriter, r *http.Request) {
	id, err := itemID(r)
	if err != nil {
		h.writeError(w, err)
		return
	}
	if err := h.engine.DB().DeleteBOMItem(id); err != nil {
		h.writeError(w, err)
		return
	}
	h.engine.Record("bom_item", id, "deleted", "", h.actor(r))
	w.WriteHeader(http.StatusNoContent)
}

// --- Raw materials ---

func (h *Handlers) apiAdminRawMaterials(w http.ResponseWriter, r *http.Request) {
	list, err := h.engine.DB().AdminSearchRawMaterials(r.URL.Query().Get("q"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.jsonOK(w, orEmpty(list))
}

func (h *Handlers) apiAdminRawMaterial(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.writeError(w, err)
		return
	}
	m, err := h.engine.DB().GetRawMaterial(id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.jsonOK(w, m)
}

func (h *Handlers) apiAdminSaveRawMaterial(w http.ResponseWriter, r *http.Request) {
	id, err := optionalID(r)
	if err != nil {
		h.writeError(w, err)
		return
	}
	var m store.RawMaterial
	if err := decodeJSON(r, &m); err != nil {
		h.writeError(w, err)
		return
	}
	m.ID = id
	if err := h.engine.SaveRawMaterial(&m, h.actor(r)); err != nil {
		h.writeError(w, err)
		return
	}
	h.saved(w, id == 0, m)
}

func (h *Handlers) apiAdminDeleteRawMaterial(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.writeError(w, err)
		return
	}
	if err := h.engine.DeleteRawMaterial(id, h.actor(r)); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- Suppliers ---

type supplierDetail struct {
	*store.Supplier
	Offers []*store.SupplyOffer `json:"offers"`
}

func (h *Handlers) apiAdminSuppliers(w http.ResponseWriter, r *http.Request) {
	list, err := h.engine.DB().AdminSearchSuppliers(r.URL.Query().Get("q"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.jsonOK(w, orEmpty(list))
}

func (h *Handlers) apiAdminSupplier(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.writeError(w, err)
		return
	}
	db := h.engine.DB()
	s, err := db.GetSupplier(id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	offers, err := db.ListSupplierOffers(id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.jsonOK(w, supplierDetail{Supplier: s, Offers: orEmpty(offers)})
}

func (h *Handlers) apiAdminSaveSupplier(w http.ResponseWriter, r *http.Request) {
	id, err := optionalID(r)
	if err != nil {
		h.writeError(w, err)
		return
	}
	var s store.Supplier
	if err := decodeJSON(r, &s); err != nil {
		h.writeError(w, err)
		return
	}
	s.ID = id
	db := h.engine.DB()
	if id == 0 {
		err = db.CreateSupplier(&s)
	} else {
		err = db.UpdateSupplier(&s)
	}
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.engine.Record("supplier", s.ID, savedAction(id), s.Name, h.actor(r))
	h.saved(w, id == 0, s)
}

func (h *Handlers) apiAdminDeleteSupplier(w http.ResponseWriter, r *http.Request) {
	h.deleteWith(w, r, "supplier", h.engine.DB().DeleteSupplier)
}

func (h *Handlers) apiAdminSetOffer(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.writeError(w, err)
		return
	}
	var req struct {
		RawMaterialID int64           `json:"raw_material_id"`
		Price         decimal.Decimal `json:"price"`
	}
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, err)
		return
	}
	o := store.SupplyOffer{SupplierID: id, RawMaterialID: req.RawMaterialID, Price: req.Price}
	if err := h.engine.DB().SetSupplyOffer(&o); err != nil {
		h.writeError(w, err)
		return
	}
	h.engine.Record("supplier", id, "offer", "raw material "+strconv.FormatInt(o.RawMaterialID, 10)+" at "+o.Price.StringFixed(2), h.actor(r))
	h.jsonOK(w, o)
}

func (h *Handlers) apiAdminDeleteOffer(w http.ResponseWriter, r *http.Request) {
	id, err := itemID(r)
	if err != nil {
		h.writeError(w, err)
		return
	}
	if err := h.engine.DB().DeleteSupplyOffer(id); err != nil {
		h.writeError(w, err)
		return
	}
	h.engine.Record("supply_offer", id, "deleted", "", h.actor(r))
	w.WriteHeader(http.StatusNoContent)
}

// --- Employees ---

func (h *Handlers) apiAdminEmployees(w http.ResponseWriter, r *http.Request) {
	list, err := h.engine.DB().AdminSearchEmployees(r.URL.Query().Get("q"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.jsonOK(w, orEmpty(list))
}

func (h *Handlers) apiAdminEmployee(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.writeError(w, err)
		return
	}
	e, err := h.engine.DB().GetEmployee(id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.jsonOK(w, e)
}

func (h *Handlers) apiAdminSaveEmployee(w http.ResponseWriter, r *http.Request) {
	id, err := optionalID(r)
	if err != nil {
		h.writeError(w, err)
		return
	}
	var e store.Employee
	if err := decodeJSON(r, &e); err != nil {
		h.writeError(w, err)
		return
	}
	e.ID = id
	db := h.engine.DB()
	if id == 0 {
		err = db.CreateEmployee(&e)
	} else {
		err = db.UpdateEmployee(&e)
	}
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.engine.Record("employee", e.ID, savedAction(id), e.Name, h.actor(r))
	h.saved(w, id == 0, e)
}

func (h *Handlers) apiAdminDeleteEmployee(w http.ResponseWriter, r *http.Request) {
	h.deleteWith(w, r, "employee", h.engine.DB().DeleteEmployee)
}

// --- Production orders ---

type productionRequest struct {
	store.ProductionOrder
	Lines       []store.LineInput `json:"lines"`
	EmployeeIDs []int64           `json:"employee_ids"`
}

type productionDetail struct {
	*store.ProductionOrder
	Lines     []*store.ProductionOrderLine `json:"lines"`
	Employees []*store.Employee            `json:"employees"`
}

func (h *Handlers) apiAdminProductionOrders(w http.ResponseWriter, r *http.Request) {
	list, err := h.engine.DB().AdminSearchProductionOrders(r.URL.Query().Get("q"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.jsonOK(w, orEmpty(list))
}

func (h *Handlers) productionDetail(id int64) (*productionDetail, error) {
	db := h.engine.DB()
	po, err := db.GetProductionOrder(id)
	if err != nil {
		return nil, err
	}
	lines, err := db.ProductionOrderLines(id)
	if err != nil {
		return nil, err
	}
	emps, err := db.ProductionOrderEmployees(id)
	if err != nil {
		return nil, err
	}
	return &productionDetail{ProductionOrder: po, Lines: orEmpty(lines), Employees: orEmpty(emps)}, nil
}

func (h *Handlers) apiAdminProductionOrder(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.writeError(w, err)
		return
	}
	d, err := h.productionDetail(id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.jsonOK(w, d)
}

func (h *Handlers) apiAdminSaveProductionOrder(w http.ResponseWriter, r *http.Request) {
	id, err := optionalID(r)
	if err != nil {
		h.writeError(w, err)
		return
	}
	var req productionRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, err)
		return
	}
	po := req.ProductionOrder
	po.ID = id
	res, err := h.engine.SaveProductionOrder(r.Context(), &po, req.Lines, req.EmployeeIDs, h.actor(r))
	if err != nil {
		h.writeError(w, err)
		return
	}
	d, err := h.productionDetail(po.ID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.saved(w, id == 0, map[string]any{"production_order": d, "adjustments": orEmpty(res.Adjustments)})
}

func (h *Handlers) apiAdminProductionStatus(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.writeError(w, err)
		return
	}
	var req struct {
		Status string `json:"status"`
	}
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, err)
		return
	}
	res, err := h.engine.SetProductionOrderStatus(r.Context(), id, req.Status, h.actor(r))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.jsonOK(w, map[string]any{"status": res.Status, "adjustments": orEmpty(res.Adjustments)})
}

func (h *Handlers) apiAdminDeleteProductionOrder(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.writeError(w, err)
		return
	}
	if err := h.engine.DeleteProductionOrder(id, h.actor(r)); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- Stock ---

func (h *Handlers) apiAdminCorrectStock(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Kind   string `json:"kind"`
		ID     int64  `json:"id"`
		Delta  int    `json:"delta"`
		Reason string `json:"reason"`
	}
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, err)
		return
	}
	res, err := h.engine.CorrectStock(r.Context(), req.Kind, req.ID, req.Delta, req.Reason, h.actor(r))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.jsonOK(w, map[string]any{"adjustments": orEmpty(res.Adjustments)})
}

func savedAction(id int64) string {
	if id == 0 {
		return "created"
	}
	return "updated"
}

func (h *Handlers) deleteWith(w http.ResponseWriter, r *http.Request, entity string, del func(int64) error) {
	id, err := pathID(r)
	if err != nil {
		h.writeError(w, err)
		return
	}
	if err := del(id); err != nil {
		h.writeError(w, err)
		return
	}
	h.engine.Record(entity, id, "deleted", "", h.actor(r))
	w.WriteHeader(http.StatusNoContent)
}
