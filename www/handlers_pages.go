package www

import (
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"fabrica/filter"
	"fabrica/store"
)

func (h *Handlers) pageError(w http.ResponseWriter, r *http.Request, err error) {
	code := errorStatus(err)
	msg := err.Error()
	if code == http.StatusInternalServerError {
		log.Printf("page %s: %v", r.URL.Path, err)
		msg = "Internal error"
	}
	data := h.pageData(r, "error")
	data["Code"] = code
	data["Message"] = msg
	w.WriteHeader(code)
	h.render(w, "error.html", data)
}

func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, store.ErrNotFound
	}
	return id, nil
}

func (h *Handlers) handleHome(w http.ResponseWriter, r *http.Request) {
	db := h.engine.DB()
	data := h.pageData(r, "home")

	low, err := h.engine.StockState().LowStock()
	if err != nil {
		h.pageError(w, r, err)
		return
	}
	moves, err := db.ListMovements(10)
	if err != nil {
		h.pageError(w, r, err)
		return
	}
	data["LowStock"] = low
	data["Movements"] = moves
	data["Status"] = h.engine.Status()
	h.render(w, "home.html", data)
}

func (h *Handlers) handleCustomers(w http.ResponseWriter, r *http.Request) {
	customers, err := h.engine.DB().SearchCustomers(filter.ParseCustomer(r.URL.Query()))
	if err != nil {
		h.pageError(w, r, err)
		return
	}
	data := h.pageData(r, "customers")
	data["Customers"] = customers
	h.render(w, "customers.html", data)
}

func (h *Handlers) handleCustomerDetail(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.pageError(w, r, err)
		return
	}
	db := h.engine.DB()
	customer, err := db.GetCustomer(id)
	if err != nil {
		h.pageError(w, r, err)
		return
	}
	orders, err := db.CustomerRecentOrders(id, store.Today())
	if err != nil {
		h.pageError(w, r, err)
		return
	}
	data := h.pageData(r, "customers")
	data["Customer"] = customer
	data["Orders"] = orders
	h.render(w, "customer_detail.html", data)
}

func (h *Handlers) handleInventory(w http.ResponseWriter, r *http.Request) {
	db := h.engine.DB()
	q := r.URL.Query()

	productCriteria, _ := filter.ParseStock(q, "product")
	materialCriteria, _ := filter.ParseStock(q, "material")

	products, err := db.SearchProducts(productCriteria)
	if err != nil {
		h.pageError(w, r, err)
		return
	}
	materials, err := db.SearchRawMaterials(materialCriteria)
	if err != nil {
		h.pageError(w, r, err)
		return
	}
	lowProducts, err := db.LowStockProducts()
	if err != nil {
		h.pageError(w, r, err)
		return
	}
	lowMaterials, err := db.LowStockRawMaterials()
	if err != nil {
		h.pageError(w, r, err)
		return
	}

	data := h.pageData(r, "inventory")
	data["Products"] = products
	data["RawMaterials"] = materials
	data["LowProducts"] = lowProducts
	data["LowRawMaterials"] = lowMaterials
	h.render(w, "inventory.html", data)
}

func (h *Handlers) handleOrders(w http.ResponseWriter, r *http.Request) {
	db := h.engine.DB()
	orders, err := db.SearchOrders(filter.ParseOrder(r.URL.Query()))
	if err != nil {
		h.pageError(w, r, err)
		return
	}
	customers, err := db.ListCustomers()
	if err != nil {
		h.pageError(w, r, err)
		return
	}
	data := h.pageData(r, "orders")
	data["Orders"] = orders
	data["Customers"] = customers
	data["Statuses"] = store.OrderStatuses
	data["PaymentMethods"] = store.PaymentMethods
	h.render(w, "orders.html", data)
}

func (h *Handlers) handleSuppliers(w http.ResponseWriter, r *http.Request) {
	suppliers, err := h.engine.DB().SearchSuppliers(filter.ParseSupplier(r.URL.Query()))
	if err != nil {
		h.pageError(w, r, err)
		return
	}
	data := h.pageData(r, "suppliers")
	data["Suppliers"] = suppliers
	data["Rated"] = r.URL.Query().Get("rated")
	h.render(w, "suppliers.html", data)
}

func (h *Handlers) handleSupplierRating(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	id, err := strconv.ParseInt(r.FormValue("supplier_id"), 10, 64)
	if err != nil {
		h.pageError(w, r, &store.ValidationError{Field: "supplier_id", Message: "is required"})
		return
	}
	rating, err := decimal.NewFromString(strings.Replace(strings.TrimSpace(r.FormValue("rating")), ",", ".", 1))
	if err != nil {
		h.pageError(w, r, &store.ValidationError{Field: "rating", Message: "must be a number"})
		return
	}
	if err := h.engine.RateSupplier(id, rating, h.actor(r)); err != nil {
		h.pageError(w, r, err)
		return
	}
	http.Redirect(w, r, "/suppliers?rated="+strconv.FormatInt(id, 10), http.StatusSeeOther)
}

func (h *Handlers) handlePurchasePage(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.pageError(w, r, err)
		return
	}
	db := h.engine.DB()
	material, err := db.GetRawMaterial(id)
	if err != nil {
		h.pageError(w, r, err)
		return
	}
	offers, err := db.ListMaterialOffers(id)
	if err != nil {
		h.pageError(w, r, err)
		return
	}
	data := h.pageData(r, "inventory")
	data["Material"] = material
	data["Offers"] = offers
	if n := material.SuggestedPurchase(); n > 0 {
		data["Suggested"] = n
	}
	data["Purchased"] = r.URL.Query().Get("purchased")
	h.render(w, "purchase.html", data)
}

func (h *Handlers) handlePurchase(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.pageError(w, r, err)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	qty, err := strconv.Atoi(strings.TrimSpace(r.FormValue("quantity")))
	if err != nil {
		h.pageError(w, r, &store.ValidationError{Field: "quantity", Message: "must be a whole number"})
		return
	}
	if _, err := h.engine.PurchaseRawMaterial(r.Context(), id, qty, h.actor(r)); err != nil {
		h.pageError(w, r, err)
		return
	}
	http.Redirect(w, r, "/raw-materials/"+strconv.FormatInt(id, 10)+"/purchase?purchased="+strconv.Itoa(qty), http.StatusSeeOther)
}

func (h *Handlers) handleProductionOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.engine.DB().SearchProductionOrders(filter.ParseProduction(r.URL.Query()))
	if err != nil {
		h.pageError(w, r, err)
		return
	}
	data := h.pageData(r, "production")
	data["ProductionOrders"] = orders
	data["Statuses"] = store.ProductionStatuses
	h.render(w, "production_orders.html", data)
}
