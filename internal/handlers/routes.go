package handlers

import (
	"errors"
	"io"
	"mime"
	"net/http"
	"path"
	"path/filepath"

	"github.com/choncance/choncance-backend/internal/domain"
	"github.com/choncance/choncance-backend/internal/storage"
	"github.com/choncance/choncance-backend/pkg/logger"
	"github.com/go-chi/chi/v5"
)

// Mount registers the public API under /api/v1 together with the root
// banner and the uploaded-image route.
func (h *Handlers) Mount(r chi.Router) {
	r.Get("/", h.Root)
	r.Get(path.Join("/", h.config.Storage.PublicPrefix, "{name}"), h.ServeUpload)
	r.Route("/api/v1", h.apiRoutes)
}

func (h *Handlers) apiRoutes(r chi.Router) {
	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", h.Register)
		r.With(h.RateLimit("login")).Post("/login", h.Login)
		r.With(h.RateLimit("forgot_password")).Post("/forgot-password", h.ForgotPassword)
		r.Post("/reset-password", h.ResetPassword)
	})

	r.Route("/user", func(r chi.Router) {
		r.Use(h.RequireAuth)
		r.Get("/profile", h.GetProfile)
		r.Put("/profile", h.UpdateProfile)
		r.Post("/profile/upload-photo", h.UploadPhoto)
		r.Post("/request-host", h.RequestHost)
	})

	r.Get("/tags", h.ListTags)

	r.Route("/admin", func(r chi.Router) {
		r.Use(h.RequireAuth)
		r.Use(h.RequireRole(domain.RoleAdmin))
		r.Get("/host-requests", h.ListHostRequests)
		r.Post("/host-requests/{userID}/approve", h.ApproveHostRequest)
		r.Post("/host-requests/{userID}/reject", h.RejectHostRequest)
	})
}

func (h *Handlers) Root(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"message": h.config.AppName,
		"version": h.config.Version,
	})
}

// ServeUpload streams a stored profile image.
func (h *Handlers) ServeUpload(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	rc, err := h.store.Open(r.Context(), name)
	if errors.Is(err, storage.ErrNotFound) || errors.Is(err, storage.ErrInvalidName) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		logger.ErrorContext(r.Context(), "Failed to open upload", "error", err, "name", name)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	defer rc.Close()

	if ct := mime.TypeByExtension(filepath.Ext(name)); ct != "" {
		w.Header().Set("Content-Type", ct)
	}
	w.Header().Set("X-Content-Type-Options", "nosniff")
	if _, err := io.Copy(w, rc); err != nil {
		logger.WarnContext(r.Context(), "Failed to stream upload", "error", err, "name", name)
	}
}
