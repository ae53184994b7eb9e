package handlers

import (
	"net/http"

	"github.com/choncance/choncance-backend/internal/domain"
)

func (h *Handlers) ListTags(w http.ResponseWriter, r *http.Request) {
	tags, err := h.tagService.List(r.Context(), r.URL.Query().Get("category"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, domain.TagListResponse{Tags: tags})
}
