package portalhttp

import "net/http"

type syncRequest struct {
	// DeleteOrphans — явное согласие на удаление осиротевших объектов.
	// Без него проход только читает и чинит метаданные.
	DeleteOrphans bool `json:"delete_orphans"`
}

func (s *Server) syncStores(w http.ResponseWriter, r *http.Request) {
	var req syncRequest
	if !s.decode(w, r, &req) {
		return
	}

	report, err := s.Sync.Reconcile(r.Context(), req.DeleteOrphans)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	respond(w, http.StatusOK, report)
}
