package portalhttp

import (
	"encoding/json"
	"net/http"
)

// health — простой признак живости сервиса.
func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(struct {
		OK bool `json:"ok"`
	}{OK: true})
}
