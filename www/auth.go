package www

import (
	"log"
	"net/http"
	"net/url"

	"github.com/gorilla/sessions"
	"golang.org/x/crypto/bcrypt"

	"fabrica/store"
)

const (
	sessionName       = "fabrica-session"
	minPasswordLength = 8
)

func newSessionStore(secret string) *sessions.CookieStore {
	if secret == "" {
		secret = "fabrica-default-secret-change-me"
	}
	s := sessions.NewCookieStore([]byte(secret))
	s.Options.HttpOnly = true
	s.Options.Secure = false
	s.Options.SameSite = http.SameSiteLaxMode
	return s
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(hash), err
}

func checkPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

func (h *Handlers) isAuthenticated(r *http.Request) bool {
	session, err := h.sessions.Get(r, sessionName)
	if err != nil {
		return false
	}
	auth, ok := session.Values["authenticated"].(bool)
	return ok && auth
}

func (h *Handlers) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !h.isAuthenticated(r) {
			http.Redirect(w, r, "/login?next="+url.QueryEscape(r.URL.RequestURI()), http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// requireAPIAuth answers 401 instead of redirecting.
func (h *Handlers) requireAPIAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !h.isAuthenticated(r) {
			h.jsonError(w, "authentication required", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (h *Handlers) getUsername(r *http.Request) string {
	session, err := h.sessions.Get(r, sessionName)
	if err != nil {
		return ""
	}
	username, _ := session.Values["username"].(string)
	return username
}

// actor names the user behind a write; anonymous page posts are "web".
func (h *Handlers) actor(r *http.Request) string {
	if u := h.getUsername(r); u != "" {
		return u
	}
	return "web"
}

func (h *Handlers) ensureDefaultAdmin(db *store.DB) {
	exists, err := db.AdminUserExists()
	if err != nil || exists {
		return
	}
	hash, err := hashPassword("admin")
	if err != nil {
		return
	}
	if err := db.CreateAdminUser("admin", hash); err != nil {
		log.Printf("auth: create default admin: %v", err)
		return
	}
	log.Printf("auth: created default admin user (admin/admin)")
}

// handlePasswordChange lets the signed-in user replace their own password.
func (h *Handlers) handlePasswordChange(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	fail := func(msg string) {
		http.Redirect(w, r, "/admin/config?error="+url.QueryEscape(msg), http.StatusSeeOther)
	}

	username := h.getUsername(r)
	db := h.engine.DB()
	user, err := db.GetAdminUser(username)
	if err != nil {
		h.pageError(w, r, err)
		return
	}
	if !checkPassword(user.PasswordHash, r.FormValue("current_password")) {
		fail("Current password is wrong")
		return
	}
	next := r.FormValue("new_password")
	if len(next) < minPasswordLength {
		fail("New password must have at least 8 characters")
		return
	}
	if next != r.FormValue("confirm_password") {
		fail("New passwords do not match")
		return
	}
	hash, err := hashPassword(next)
	if err != nil {
		h.pageError(w, r, err)
		return
	}
	if err := db.SetAdminPassword(username, hash); err != nil {
		h.pageError(w, r, err)
		return
	}
	log.Printf("auth: password changed for %s", username)
	http.Redirect(w, r, "/admin/config?saved=password", http.StatusSeeOther)
}
