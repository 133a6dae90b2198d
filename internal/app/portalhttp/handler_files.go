package portalhttp

import (
	"net/http"
	"time"

	"github.com/samber/lo"

	"github.com/sir_venger/portal_lite/internal/blob"
	"github.com/sir_venger/portal_lite/internal/models"
)

const downloadURLTTL = 15 * time.Minute

// listFiles: администратор видит всё, пользователь — только назначенное ему.
func (s *Server) listFiles(w http.ResponseWriter, r *http.Request) {
	id := callerIdentity(r)

	var (
		files []models.FileRecord
		err   error
	)
	if id.Admin {
		files, err = s.Meta.ListFiles(r.Context())
	} else {
		files, err = s.Meta.ListFilesForUser(r.Context(), id.User)
	}
	if err != nil {
		s.fail(w, r, err)
		return
	}
	respond(w, http.StatusOK, struct {
		Files []models.FileRecord `json:"files"`
	}{Files: files})
}

type fileRequest struct {
	FileID string `json:"file_id" validate:"required"`
}

func (s *Server) downloadFile(w http.ResponseWriter, r *http.Request) {
	var req fileRequest
	if !s.decode(w, r, &req) {
		return
	}

	rec, err := s.Meta.GetFileByID(r.Context(), req.FileID)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	id := callerIdentity(r)
	if !id.Admin && rec.Uploader != id.User && !lo.Contains(rec.AssignedTo, id.User) {
		writeDenied(w, http.StatusForbidden, "file is not assigned to caller")
		return
	}

	url, err := s.Blobs.SignedURL(r.Context(), rec.StorageKey, downloadURLTTL, blob.SignGet)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	respond(w, http.StatusOK, struct {
		FileID   string `json:"file_id"`
		FileName string `json:"file_name"`
		URL      string `json:"url"`
	}{FileID: rec.ID, FileName: rec.FileName, URL: url})
}

type assignRequest struct {
	FileID  string   `json:"file_id" validate:"required"`
	UserIDs []string `json:"user_ids" validate:"required,min=1"`
}

func (s *Server) assignFile(w http.ResponseWriter, r *http.Request) {
	var req assignRequest
	if !s.decode(w, r, &req) {
		return
	}

	if err := s.Meta.AssignFileToUsers(r.Context(), req.FileID, req.UserIDs); err != nil {
		s.fail(w, r, err)
		return
	}
	respond(w, http.StatusOK, struct {
		FileID   string `json:"file_id"`
		Assigned int    `json:"assigned"`
	}{FileID: req.FileID, Assigned: len(req.UserIDs)})
}

func (s *Server) deleteFile(w http.ResponseWriter, r *http.Request) {
	var req fileRequest
	if !s.decode(w, r, &req) {
		return
	}

	res, err := s.Delete.DeleteFile(r.Context(), req.FileID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	respond(w, http.StatusOK, res)
}
