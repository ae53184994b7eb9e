package handlers

import (
	"net/http"

	"github.com/choncance/choncance-backend/internal/apperr"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// ListHostRequests lists host applications, PENDING unless ?status= says otherwise.
func (h *Handlers) ListHostRequests(w http.ResponseWriter, r *http.Request) {
	limit, offset := parsePagination(r)

	views, err := h.userService.ListHostRequests(r.Context(), r.URL.Query().Get("status"), limit, offset)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"host_requests": views,
		"limit":         limit,
		"offset":        offset,
	})
}

func (h *Handlers) ApproveHostRequest(w http.ResponseWriter, r *http.Request) {
	h.reviewHostRequest(w, r, true)
}

func (h *Handlers) RejectHostRequest(w http.ResponseWriter, r *http.Request) {
	h.reviewHostRequest(w, r, false)
}

func (h *Handlers) reviewHostRequest(w http.ResponseWriter, r *http.Request, approve bool) {
	userID, err := uuid.Parse(chi.URLParam(r, "userID"))
	if err != nil {
		writeError(w, r, apperr.BadRequest(apperr.CodeValidation, "Invalid user ID"))
		return
	}

	profile, err := h.userService.ReviewHostRequest(r.Context(), userID, approve)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, profile)
}
