package www

import (
	"html/template"
	"io/fs"
	"log"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/sessions"

	"fabrica/engine"
)

type Handlers struct {
	engine   *engine.Engine
	sessions *sessions.CookieStore
	tmpls    map[string]*template.Template
	eventHub *EventHub
}

var pages = []string{
	"templates/home.html",
	"templates/customers.html",
	"templates/customer_detail.html",
	"templates/inventory.html",
	"templates/orders.html",
	"templates/suppliers.html",
	"templates/purchase.html",
	"templates/production_orders.html",
	"templates/login.html",
	"templates/error.html",
	"templates/admin/index.html",
	"templates/admin/order_form.html",
	"templates/admin/production_form.html",
	"templates/admin/config.html",
}

func parseTemplates() map[string]*template.Template {
	// Each page gets its own clone of layout + partials so every page can
	// define "content".
	base := template.New("").Funcs(templateFuncs())
	base = template.Must(base.ParseFS(templateFS, "templates/layout.html", "templates/partials/*.html"))

	tmpls := make(map[string]*template.Template, len(pages))
	for _, p := range pages {
		clone := template.Must(base.Clone())
		clone = template.Must(clone.ParseFS(templateFS, p))
		tmpls[strings.TrimPrefix(p, "templates/")] = clone
	}
	return tmpls
}

func NewRouter(eng *engine.Engine) (http.Handler, func()) {
	hub := NewEventHub()
	hub.Start()
	hub.SetupEngineListeners(eng)

	h := &Handlers{
		engine:   eng,
		sessions: newSessionStore(eng.AppConfig().Web.SessionSecret),
		tmpls:    parseTemplates(),
		eventHub: hub,
	}

	h.ensureDefaultAdmin(eng.DB())

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))

	staticSub, _ := fs.Sub(staticFS, "static")
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(staticSub))))

	r.Get("/events", hub.SSEHandler)

	// Public pages
	r.Get("/", h.handleHome)
	r.Get("/login", h.handleLoginPage)
	r.Post("/login", h.handleLogin)
	r.Get("/logout", h.handleLogout)
	r.Get("/customers", h.handleCustomers)
	r.Get("/customers/{id}", h.handleCustomerDetail)
	r.Get("/inventory", h.handleInventory)
	r.Get("/orders", h.handleOrders)
	r.Get("/suppliers", h.handleSuppliers)
	r.Post("/suppliers", h.handleSupplierRating)
	r.Get("/raw-materials/{id}/purchase", h.handlePurchasePage)
	r.Post("/raw-materials/{id}/purchase", h.handlePurchase)
	r.Get("/production-orders", h.handleProductionOrders)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", h.apiHealthCheck)
		r.Get("/stock", h.apiStockLevels)
		r.Get("/stock/low", h.apiLowStock)
		r.Get("/movements", h.apiMovements)
		r.Get("/audit", h.apiAuditLog)

		r.Route("/admin", func(r chi.Router) {
			r.Use(h.requireAPIAuth)
			h.adminRoutes(r)
		})
	})

	// Protected pages
	r.Group(func(r chi.Router) {
		r.Use(h.requireAuth)
		r.Get("/admin", h.handleAdmin)
		r.Get("/admin/orders/new", h.handleOrderForm)
		r.Get("/admin/orders/{id}/edit", h.handleOrderForm)
		r.Post("/admin/orders/save", h.handleOrderSave)
		r.Post("/admin/orders/{id}/status", h.handleOrderStatus)
		r.Get("/admin/production-orders/new", h.handleProductionForm)
		r.Get("/admin/production-orders/{id}/edit", h.handleProductionForm)
		r.Post("/admin/production-orders/save", h.handleProductionSave)
		r.Post("/admin/production-orders/{id}/status", h.handleProductionStatus)
		r.Post("/admin/stock/correct", h.handleStockCorrection)
		r.Get("/admin/config", h.handleConfig)
		r.Post("/admin/config/save", h.handleConfigSave)
		r.Post("/admin/password", h.handlePasswordChange)
	})

	stopFn := func() {
		hub.Stop()
	}

	return r, stopFn
}

func (h *Handlers) render(w http.ResponseWriter, name string, data any) {
	tmpl, ok := h.tmpls[name]
	if !ok {
		log.Printf("render: template %q not found", name)
		http.Error(w, "template not found", http.StatusInternalServerError)
		return
	}
	if err := tmpl.ExecuteTemplate(w, "layout", data); err != nil {
		log.Printf("render %s: %v", name, err)
		http.Error(w, "template error", http.StatusInternalServerError)
	}
}

// pageData starts the data map every page template receives.
func (h *Handlers) pageData(r *http.Request, page string) map[string]any {
	return map[string]any{
		"Page":          page,
		"Authenticated": h.isAuthenticated(r),
		"Username":      h.getUsername(r),
		"Query":         r.URL.Query(),
	}
}

func (h *Handlers) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	data := h.pageData(r, "login")
	data["Next"] = r.URL.Query().Get("next")
	h.render(w, "login.html", data)
}

func (h *Handlers) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	username := r.FormValue("username")
	password := r.FormValue("password")

	user, err := h.engine.DB().GetAdminUser(username)
	if err != nil || !checkPassword(user.PasswordHash, password) {
		data := h.pageData(r, "login")
		data["Error"] = "Invalid username or password"
		data["Next"] = r.FormValue("next")
		w.WriteHeader(http.StatusUnauthorized)
		h.render(w, "login.html", data)
		return
	}

	session, _ := h.sessions.Get(r, sessionName)
	session.Values["authenticated"] = true
	session.Values["username"] = username
	if err := session.Save(r, w); err != nil {
		log.Printf("auth: session save error: %v", err)
	}

	next := r.FormValue("next")
	if !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") {
		next = "/admin"
	}
	http.Redirect(w, r, next, http.StatusSeeOther)
}

func (h *Handlers) handleLogout(w http.ResponseWriter, r *http.Request) {
	session, _ := h.sessions.Get(r, sessionName)
	session.Values["authenticated"] = false
	session.Values["username"] = ""
	session.Save(r, w)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}
