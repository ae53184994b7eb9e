package handlers

import (
	"errors"
	"net/http"

	"github.com/choncance/choncance-backend/internal/apperr"
	"github.com/choncance/choncance-backend/internal/domain"
)

// multipart framing allowance on top of the image limit
const multipartOverhead = 1 << 20

func (h *Handlers) GetProfile(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, currentUser(r).ToUserInfo())
}

func (h *Handlers) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req domain.UpdateProfileRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	info, err := h.userService.UpdateProfile(r.Context(), currentUser(r).ID, &req)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, info)
}

// UploadPhoto accepts a multipart form with the image in field "file".
func (h *Handlers) UploadPhoto(w http.ResponseWriter, r *http.Request) {
	limit := h.config.Storage.MaxUploadBytes
	r.Body = http.MaxBytesReader(w, r.Body, limit+multipartOverhead)

	if err := r.ParseMultipartForm(multipartOverhead); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, r, apperr.BadRequest(apperr.CodeFileTooLarge, "Uploaded file is too large"))
			return
		}
		writeError(w, r, apperr.BadRequest(apperr.CodeValidation, "Invalid multipart form"))
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, r, apperr.Validation(apperr.CodeValidation, "file: is required").WithDetail("file", "is required"))
		return
	}
	defer file.Close()

	resp, err := h.userService.UploadPhoto(r.Context(), currentUser(r).ID, header.Filename, header.Size, file)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

func (h *Handlers) RequestHost(w http.ResponseWriter, r *http.Request) {
	var req domain.HostRequestRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	resp, err := h.userService.RequestHost(r.Context(), currentUser(r), &req)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}
