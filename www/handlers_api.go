package www

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"fabrica/store"
)

func (h *Handlers) apiHealthCheck(w http.ResponseWriter, r *http.Request) {
	st := h.engine.Status()
	dbOK := h.engine.DB().PingContext(r.Context()) == nil
	pending, _ := h.engine.DB().PendingOutboxCount()
	status := "ok"
	if !dbOK {
		status = "degraded"
	}
	h.jsonOK(w, map[string]any{
		"status":         status,
		"database":       dbOK,
		"messaging":      st.Messaging,
		"cache":          st.Cache,
		"outbox_pending": pending,
		"sse_clients":    h.eventHub.ClientCount(),
	})
}

func (h *Handlers) apiStockLevels(w http.ResponseWriter, r *http.Request) {
	kind := r.URL.Query().Get("kind")
	if idStr := r.URL.Query().Get("id"); idStr != "" {
		id, err := strconv.ParseInt(idStr, 10, 64)
		if err != nil || kind == "" {
			h.jsonError(w, "kind and numeric id required", http.StatusBadRequest)
			return
		}
		level, err := h.engine.StockState().Level(kind, id)
		if err != nil {
			h.writeError(w, err)
			return
		}
		h.jsonOK(w, level)
		return
	}
	levels, err := h.engine.StockState().Levels()
	if err != nil {
		h.writeError(w, err)
		return
	}
	if kind != "" {
		filtered := levels[:0]
		for _, l := range levels {
			if l.Kind == kind {
				filtered = append(filtered, l)
			}
		}
		levels = filtered
	}
	h.jsonOK(w, orEmpty(levels))
}

func (h *Handlers) apiLowStock(w http.ResponseWriter, r *http.Request) {
	levels, err := h.engine.StockState().LowStock()
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.jsonOK(w, orEmpty(levels))
}

func (h *Handlers) apiMovements(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit := queryLimit(r, 100)
	var (
		moves []*store.StockMovement
		err   error
	)
	switch {
	case q.Get("source_kind") != "":
		id, perr := strconv.ParseInt(q.Get("source_id"), 10, 64)
		if perr != nil {
			h.jsonError(w, "invalid source_id", http.StatusBadRequest)
			return
		}
		moves, err = h.engine.DB().ListSourceMovements(q.Get("source_kind"), id)
	case q.Get("kind") != "":
		id, perr := strconv.ParseInt(q.Get("id"), 10, 64)
		if perr != nil {
			h.jsonError(w, "invalid id", http.StatusBadRequest)
			return
		}
		moves, err = h.engine.DB().ListItemMovements(q.Get("kind"), id, limit)
	default:
		moves, err = h.engine.DB().ListMovements(limit)
	}
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.jsonOK(w, orEmpty(moves))
}

func (h *Handlers) apiAuditLog(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var (
		entries []*store.AuditEntry
		err     error
	)
	if entity := q.Get("entity"); entity != "" {
		id, perr := strconv.ParseInt(q.Get("id"), 10, 64)
		if perr != nil {
			h.jsonError(w, "invalid id", http.StatusBadRequest)
			return
		}
		entries, err = h.engine.DB().ListEntityAudit(entity, id)
	} else if who := q.Get("actor"); who != "" {
		entries, err = h.engine.DB().ListActorAudit(who, queryLimit(r, 100))
	} else {
		entries, err = h.engine.DB().ListAuditLog(queryLimit(r, 100))
	}
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.jsonOK(w, orEmpty(entries))
}

func queryLimit(r *http.Request, def int) int {
	if l := r.URL.Query().Get("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil && n > 0 {
			return n
		}
	}
	return def
}

// orEmpty keeps nil slices from encoding as null.
func orEmpty[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

// errorStatus maps store errors onto HTTP status codes.
func errorStatus(err error) int {
	var verr *store.ValidationError
	switch {
	case errors.As(err, &verr):
		return http.StatusBadRequest
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handlers) writeError(w http.ResponseWriter, err error) {
	code := errorStatus(err)
	if code == http.StatusInternalServerError {
		log.Printf("api: %v", err)
	}
	h.jsonError(w, err.Error(), code)
}

func (h *Handlers) jsonOK(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(data)
}

func (h *Handlers) jsonCreated(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(data)
}

func (h *Handlers) jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
