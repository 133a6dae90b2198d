// Package httperrors переводит доменные ошибки в HTTP-статусы и JSON-конверты.
package httperrors

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/sir_venger/portal_lite/internal/models"
)

type envelope struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// Write сериализует ошибку в конверт {"success":false,...} с подходящим статусом.
func Write(w http.ResponseWriter, err error) {
	status, kind := classify(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(envelope{
		Success: false,
		Error:   kind,
		Details: err.Error(),
	})
}

func classify(err error) (int, string) {
	var (
		missing    *models.MissingChunkError
		incomplete *models.IncompleteUploadError
		storage    *models.StorageError
	)

	switch {
	case errors.Is(err, models.ErrSessionNotFound):
		return http.StatusNotFound, "session_not_found"
	case errors.Is(err, models.ErrChunkNotFound):
		return http.StatusNotFound, "chunk_not_found"
	case errors.As(err, &missing):
		return http.StatusNotFound, "missing_chunk"
	case errors.Is(err, models.ErrFileNotFound):
		return http.StatusNotFound, "file_not_found"
	case errors.Is(err, models.ErrKeyNotFound):
		return http.StatusNotFound, "object_not_found"
	case errors.As(err, &incomplete):
		return http.StatusBadRequest, "incomplete_upload"
	case errors.Is(err, models.ErrPayloadTooLarge):
		return http.StatusRequestEntityTooLarge, "payload_too_large"
	case errors.Is(err, models.ErrSizeMismatch):
		return http.StatusUnprocessableEntity, "size_mismatch"
	case errors.Is(err, models.ErrBadChunkIndex), errors.Is(err, models.ErrWrongVariant):
		return http.StatusBadRequest, "bad_request"
	case errors.As(err, &storage):
		return http.StatusInternalServerError, "storage_error"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}
