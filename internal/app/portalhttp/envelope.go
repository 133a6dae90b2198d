package portalhttp

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/sir_venger/portal_lite/pkg/httperrors"
)

type successEnvelope struct {
	Success bool `json:"success"`
	Result  any  `json:"result"`
}

// respond пишет успешный конверт.
func respond(w http.ResponseWriter, status int, result any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(successEnvelope{Success: true, Result: result})
}

// badRequest — конверт ошибки валидации входа.
func badRequest(w http.ResponseWriter, detail string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusBadRequest)
	_ = json.NewEncoder(w).Encode(struct {
		Success bool   `json:"success"`
		Error   string `json:"error"`
		Details string `json:"details,omitempty"`
	}{Error: "bad_request", Details: detail})
}

// decode разбирает JSON-тело и прогоняет его через validator.
// Пустое тело допускается: структура остаётся нулевой.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		badRequest(w, "invalid json body: "+err.Error())
		return false
	}
	if err := s.validate.Struct(dst); err != nil {
		badRequest(w, err.Error())
		return false
	}
	return true
}

// fail логирует и пишет конверт ошибки по её виду.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	s.Log.Warnw("request failed", "path", r.URL.Path, "error", err)
	httperrors.Write(w, err)
}
