package portalhttp

import (
	"context"
	"encoding/json"
	"net/http"
)

// Identity — проверенная вышестоящим контуром личность вызывающего.
// Ядро доверяет этой границе полностью и само ничего не проверяет.
type Identity struct {
	User  string
	Admin bool
}

type ctxKey int

const identityKey ctxKey = iota

// identity извлекает личность из заголовков, проставленных аутентификацией.
func identity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user := r.Header.Get("X-User")
		if user == "" {
			writeDenied(w, http.StatusUnauthorized, "missing caller identity")
			return
		}
		admin := r.Header.Get("X-Admin")
		id := Identity{
			User:  user,
			Admin: admin == "true" || admin == "1",
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), identityKey, id)))
	})
}

// requireAdmin пропускает только администраторов.
func requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !callerIdentity(r).Admin {
			writeDenied(w, http.StatusForbidden, "admin only")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func callerIdentity(r *http.Request) Identity {
	id, _ := r.Context().Value(identityKey).(Identity)
	return id
}

func writeDenied(w http.ResponseWriter, status int, detail string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(struct {
		Success bool   `json:"success"`
		Error   string `json:"error"`
		Details string `json:"details,omitempty"`
	}{Error: "access_denied", Details: detail})
}
