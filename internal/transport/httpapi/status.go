package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/jx"
)

type changeStatusRequest struct {
	StatusID string `json:"status_id"`
}

// changeStatus applies a status transition and responds with the updated
// status and the order's breakdown, which the change never affects.
func (h *Handler) changeStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req changeStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.StatusID == "" {
		writeError(w, http.StatusBadRequest, "status_id is required")
		return
	}

	st, err := h.statuses.ChangeStatus(r.Context(), id, req.StatusID)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	view, err := h.orders.GetOrder(r.Context(), id)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	e := &jx.Encoder{}
	encodeOrderView(e, view, st)
	writeJSON(w, http.StatusOK, e)
}

func (h *Handler) orderHistory(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	entries, err := h.statuses.History(r.Context(), id)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	e := &jx.Encoder{}
	encodeHistory(e, entries)
	writeJSON(w, http.StatusOK, e)
}

func (h *Handler) listStatuses(w http.ResponseWriter, r *http.Request) {
	statuses, err := h.catalog.List(r.Context())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	e := &jx.Encoder{}
	e.Arr(func(e *jx.Encoder) {
		for i := range statuses {
			encodeStatus(e, &statuses[i])
		}
	})
	writeJSON(w, http.StatusOK, e)
}
