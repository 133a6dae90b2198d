package portalhttp

import (
	"encoding/base64"
	"net/http"

	"github.com/sir_venger/portal_lite/internal/models"
	"github.com/sir_venger/portal_lite/internal/usecase/uploadsvc"
)

type initRequest struct {
	Variant      string `json:"variant" validate:"required,oneof=eager lazy"`
	FileName     string `json:"file_name" validate:"required"`
	DeclaredSize int64  `json:"declared_size" validate:"required,gt=0"`
	MimeType     string `json:"mime_type"`
}

func (s *Server) uploadInit(w http.ResponseWriter, r *http.Request) {
	var req initRequest
	if !s.decode(w, r, &req) {
		return
	}

	res, err := s.Upload.Init(r.Context(), uploadsvc.InitParams{
		Variant:      models.Variant(req.Variant),
		FileName:     req.FileName,
		DeclaredSize: req.DeclaredSize,
		MimeType:     req.MimeType,
		Uploader:     callerIdentity(r).User,
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	respond(w, http.StatusCreated, res)
}

type chunkRequest struct {
	SessionID  string `json:"session_id" validate:"required"`
	ChunkIndex int    `json:"chunk_index" validate:"gte=0"`
	Data       string `json:"data" validate:"required,base64"`
}

func (s *Server) uploadChunk(w http.ResponseWriter, r *http.Request) {
	var req chunkRequest
	if !s.decode(w, r, &req) {
		return
	}

	data, err := base64.StdEncoding.DecodeString(req.Data)
	if err != nil {
		badRequest(w, "chunk data is not valid base64")
		return
	}

	res, err := s.Upload.UploadChunk(r.Context(), req.SessionID, req.ChunkIndex, data)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	respond(w, http.StatusOK, res)
}

type chunkRefRequest struct {
	SessionID  string `json:"session_id" validate:"required"`
	ChunkIndex int    `json:"chunk_index" validate:"gte=0"`
}

func (s *Server) uploadGetChunk(w http.ResponseWriter, r *http.Request) {
	var req chunkRefRequest
	if !s.decode(w, r, &req) {
		return
	}

	data, err := s.Upload.GetChunk(r.Context(), req.SessionID, req.ChunkIndex)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	respond(w, http.StatusOK, struct {
		ChunkIndex int    `json:"chunk_index"`
		Data       string `json:"data"`
	}{ChunkIndex: req.ChunkIndex, Data: base64.StdEncoding.EncodeToString(data)})
}

type sessionRequest struct {
	SessionID string `json:"session_id" validate:"required"`
}

func (s *Server) uploadSessionInfo(w http.ResponseWriter, r *http.Request) {
	var req sessionRequest
	if !s.decode(w, r, &req) {
		return
	}

	sess, err := s.Upload.SessionInfo(r.Context(), req.SessionID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	respond(w, http.StatusOK, sessionSnapshot(sess))
}

func (s *Server) uploadMarkCompleted(w http.ResponseWriter, r *http.Request) {
	var req sessionRequest
	if !s.decode(w, r, &req) {
		return
	}

	sess, err := s.Upload.MarkCompleted(r.Context(), req.SessionID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	respond(w, http.StatusOK, sessionSnapshot(sess))
}

func (s *Server) uploadCombine(w http.ResponseWriter, r *http.Request) {
	var req sessionRequest
	if !s.decode(w, r, &req) {
		return
	}

	res, err := s.Upload.Combine(r.Context(), req.SessionID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	respond(w, http.StatusOK, res)
}

type sessionView struct {
	SessionID      string               `json:"session_id"`
	Variant        models.Variant       `json:"variant"`
	FileName       string               `json:"file_name"`
	DeclaredSize   int64                `json:"declared_size"`
	MimeType       string               `json:"mime_type"`
	ChunkSize      int64                `json:"chunk_size"`
	TotalChunks    int                  `json:"total_chunks"`
	UploadedChunks int                  `json:"uploaded_chunks"`
	Status         models.SessionStatus `json:"status"`
	CreatedAt      string               `json:"created_at"`
}

func sessionSnapshot(sess models.UploadSession) sessionView {
	return sessionView{
		SessionID:      sess.ID,
		Variant:        sess.Variant,
		FileName:       sess.FileName,
		DeclaredSize:   sess.DeclaredSize,
		MimeType:       sess.MimeType,
		ChunkSize:      sess.ChunkSize,
		TotalChunks:    sess.TotalChunks,
		UploadedChunks: sess.UploadedCount(),
		Status:         sess.Status,
		CreatedAt:      sess.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}
