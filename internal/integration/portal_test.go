package integration

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/sir_venger/portal_lite/internal/app/portalhttp"
	"github.com/sir_venger/portal_lite/internal/blob"
	"github.com/sir_venger/portal_lite/internal/models"
	"github.com/sir_venger/portal_lite/internal/repo/meta"
	"github.com/sir_venger/portal_lite/internal/repo/session"
	"github.com/sir_venger/portal_lite/internal/usecase/deletesvc"
	"github.com/sir_venger/portal_lite/internal/usecase/syncsvc"
	"github.com/sir_venger/portal_lite/internal/usecase/uploadsvc"
	"github.com/sir_venger/portal_lite/pkg/retrypolicy"
)

type portal struct {
	srv   *httptest.Server
	blobs *blob.MemoryStore
	meta  *meta.MemoryStore
}

// newPortal поднимает полный стек на in-memory хранилищах, как боевой main,
// только без Postgres и S3.
func newPortal(t *testing.T) portal {
	t.Helper()

	blobs := blob.NewMemoryStore()
	metaStore := meta.NewMemoryStore()
	sessions := session.NewBlobStore(blobs)

	upload := uploadsvc.New(uploadsvc.Deps{
		Sessions: sessions,
		Blobs:    blobs,
		Meta:     metaStore,
		Lazy:     uploadsvc.VariantLimits{ChunkSize: 64, MaxFileSize: 1 << 20},
		Eager:    uploadsvc.VariantLimits{ChunkSize: 64, MaxFileSize: 1 << 20},
	})
	sync := syncsvc.New(syncsvc.Deps{Blobs: blobs, Meta: metaStore})
	del := deletesvc.New(deletesvc.Deps{
		Blobs: blobs,
		Meta:  metaStore,
		Retry: retrypolicy.Policy{Attempts: 2, Delay: time.Millisecond, Sleep: func(time.Duration) {}},
	})

	h := portalhttp.NewServer(portalhttp.Deps{
		Upload: upload,
		Sync:   sync,
		Delete: del,
		Meta:   metaStore,
		Blobs:  blobs,
	})
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	return portal{srv: srv, blobs: blobs, meta: metaStore}
}

type caller struct {
	user  string
	admin bool
}

var (
	alice = caller{user: "alice"}
	bob   = caller{user: "bob"}
	root  = caller{user: "root", admin: true}
)

// call шлёт JSON-запрос от имени вызывающего и разбирает конверт ответа.
func (p portal) call(t *testing.T, c caller, method, path string, body any) (int, map[string]json.RawMessage) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, p.srv.URL+path, &buf)
	require.NoError(t, err)
	if c.user != "" {
		req.Header.Set("X-User", c.user)
	}
	if c.admin {
		req.Header.Set("X-Admin", "true")
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())

	var envelope map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(raw, &envelope), "body: %s", raw)
	return resp.StatusCode, envelope
}

func result[T any](t *testing.T, envelope map[string]json.RawMessage) T {
	t.Helper()
	var out T
	require.Contains(t, envelope, "result")
	require.NoError(t, json.Unmarshal(envelope["result"], &out))
	return out
}

func errorKind(t *testing.T, envelope map[string]json.RawMessage) string {
	t.Helper()
	var kind string
	require.Contains(t, envelope, "error")
	require.NoError(t, json.Unmarshal(envelope["error"], &kind))
	return kind
}

type initView struct {
	SessionID   string `json:"session_id"`
	TotalChunks int    `json:"total_chunks"`
	ChunkSize   int64  `json:"chunk_size"`
}

type combineView struct {
	FileID     string `json:"file_id"`
	FileKey    string `json:"file_key"`
	Size       int64  `json:"size"`
	ChunkCount int    `json:"chunk_count"`
}

type chunkView struct {
	UploadedChunks int          `json:"uploaded_chunks"`
	TotalChunks    int          `json:"total_chunks"`
	Combined       *combineView `json:"combined"`
}

func uploadChunkBody(sessionID string, idx int, data []byte) map[string]any {
	return map[string]any{
		"session_id":  sessionID,
		"chunk_index": idx,
		"data":        base64.StdEncoding.EncodeToString(data),
	}
}

func payloadOf(n int) []byte {
	out := make([]byte, n)
	for i := range out {
		out[i] = byte(i*13 + 5)
	}
	return out
}

func Test_LazyFlow_EndToEnd(t *testing.T) {
	req := require.New(t)
	p := newPortal(t)

	payload := payloadOf(200) // 4 чанка по 64: 64+64+64+8
	want := sha256.Sum256(payload)

	status, env := p.call(t, alice, http.MethodPost, "/api/upload/init", map[string]any{
		"variant":       "lazy",
		"file_name":     "report.bin",
		"declared_size": len(payload),
	})
	req.Equal(http.StatusCreated, status)
	init := result[initView](t, env)
	req.Equal(4, init.TotalChunks)

	// Чанки уходят в перемешанном порядке.
	for _, idx := range []int{2, 0, 3, 1} {
		end := (idx + 1) * 64
		if end > len(payload) {
			end = len(payload)
		}
		status, env := p.call(t, alice, http.MethodPost, "/api/upload/chunk",
			uploadChunkBody(init.SessionID, idx, payload[idx*64:end]))
		req.Equal(http.StatusOK, status)
		req.Equal(4, result[chunkView](t, env).TotalChunks)
	}

	// Частичную загрузку можно инспектировать.
	status, env = p.call(t, alice, http.MethodPost, "/api/upload/get_chunk", map[string]any{
		"session_id":  init.SessionID,
		"chunk_index": 2,
	})
	req.Equal(http.StatusOK, status)
	got := result[struct {
		Data string `json:"data"`
	}](t, env)
	decoded, err := base64.StdEncoding.DecodeString(got.Data)
	req.NoError(err)
	req.Equal(payload[128:192], decoded)

	status, env = p.call(t, alice, http.MethodPost, "/api/upload/combine", map[string]any{
		"session_id": init.SessionID,
	})
	req.Equal(http.StatusOK, status)
	combined := result[combineView](t, env)
	req.Equal(int64(len(payload)), combined.Size)
	req.Equal(4, combined.ChunkCount)

	// Собранный объект побайтово совпадает с исходником.
	data, err := p.blobs.Get(context.Background(), combined.FileKey)
	req.NoError(err)
	gotSum := sha256.Sum256(data)
	req.Equal(hex.EncodeToString(want[:]), hex.EncodeToString(gotSum[:]))

	// Сессия вычищена.
	status, env = p.call(t, alice, http.MethodPost, "/api/upload/session_info", map[string]any{
		"session_id": init.SessionID,
	})
	req.Equal(http.StatusNotFound, status)
	req.Equal("session_not_found", errorKind(t, env))

	// Загрузивший скачивает по подписанной ссылке без назначения.
	status, env = p.call(t, alice, http.MethodPost, "/api/files/download", map[string]any{
		"file_id": combined.FileID,
	})
	req.Equal(http.StatusOK, status)

	// Чужому файл недоступен, пока администратор его не назначит.
	status, env = p.call(t, bob, http.MethodPost, "/api/files/download", map[string]any{
		"file_id": combined.FileID,
	})
	req.Equal(http.StatusForbidden, status)

	status, _ = p.call(t, root, http.MethodPost, "/api/files/assign", map[string]any{
		"file_id":  combined.FileID,
		"user_ids": []string{"bob"},
	})
	req.Equal(http.StatusOK, status)

	status, env = p.call(t, bob, http.MethodPost, "/api/files/download", map[string]any{
		"file_id": combined.FileID,
	})
	req.Equal(http.StatusOK, status)
	link := result[struct {
		URL string `json:"url"`
	}](t, env)
	req.NotEmpty(link.URL)
}

func Test_EagerFlow_AutoCombine(t *testing.T) {
	req := require.New(t)
	p := newPortal(t)

	payload := payloadOf(130) // 3 чанка: 64+64+2

	status, env := p.call(t, alice, http.MethodPost, "/api/upload/init", map[string]any{
		"variant":       "eager",
		"file_name":     "fast.bin",
		"declared_size": len(payload),
	})
	req.Equal(http.StatusCreated, status)
	init := result[initView](t, env)
	req.Equal(3, init.TotalChunks)

	for idx := 0; idx < 2; idx++ {
		status, env := p.call(t, alice, http.MethodPost, "/api/upload/chunk",
			uploadChunkBody(init.SessionID, idx, payload[idx*64:(idx+1)*64]))
		req.Equal(http.StatusOK, status)
		req.Nil(result[chunkView](t, env).Combined)
	}

	status, env = p.call(t, alice, http.MethodPost, "/api/upload/chunk",
		uploadChunkBody(init.SessionID, 2, payload[128:]))
	req.Equal(http.StatusOK, status)
	res := result[chunkView](t, env)
	req.NotNil(res.Combined)
	req.Equal(int64(len(payload)), res.Combined.Size)

	data, err := p.blobs.Get(context.Background(), res.Combined.FileKey)
	req.NoError(err)
	req.Equal(payload, data)

	// Явный combine для eager-сессии не предусмотрен: сессии уже нет,
	// она вычищена автосборкой.
	status, env = p.call(t, alice, http.MethodPost, "/api/upload/combine", map[string]any{
		"session_id": init.SessionID,
	})
	req.Equal(http.StatusNotFound, status)
	req.Equal("session_not_found", errorKind(t, env))
}

func Test_CombineIncomplete_Keeps(t *testing.T) {
	req := require.New(t)
	p := newPortal(t)

	payload := payloadOf(130)
	status, env := p.call(t, alice, http.MethodPost, "/api/upload/init", map[string]any{
		"variant":       "lazy",
		"file_name":     "partial.bin",
		"declared_size": len(payload),
	})
	req.Equal(http.StatusCreated, status)
	init := result[initView](t, env)

	status, _ = p.call(t, alice, http.MethodPost, "/api/upload/chunk",
		uploadChunkBody(init.SessionID, 0, payload[:64]))
	req.Equal(http.StatusOK, status)

	status, env = p.call(t, alice, http.MethodPost, "/api/upload/combine", map[string]any{
		"session_id": init.SessionID,
	})
	req.Equal(http.StatusBadRequest, status)
	req.Equal("incomplete_upload", errorKind(t, env))

	// Сессия пережила неудачную сборку, докачка возможна.
	status, env = p.call(t, alice, http.MethodPost, "/api/upload/session_info", map[string]any{
		"session_id": init.SessionID,
	})
	req.Equal(http.StatusOK, status)
	info := result[struct {
		UploadedChunks int `json:"uploaded_chunks"`
	}](t, env)
	req.Equal(1, info.UploadedChunks)
}

func Test_SyncEndpoint(t *testing.T) {
	req := require.New(t)
	p := newPortal(t)
	ctx := context.Background()

	// Сирота в файловом пространстве и запись с уехавшим размером.
	req.NoError(p.blobs.Put(ctx, "files/1_orphan.bin", []byte("nobody owns me")))
	req.NoError(p.blobs.Put(ctx, "files/2_drift.bin", make([]byte, 1024)))
	_, err := p.meta.InsertFile(ctx, metaRecord("drift.bin", "files/2_drift.bin", 1000))
	req.NoError(err)

	// Сверка доступна только администратору.
	status, _ := p.call(t, alice, http.MethodPost, "/api/admin/sync", map[string]any{})
	req.Equal(http.StatusForbidden, status)

	status, env := p.call(t, root, http.MethodPost, "/api/admin/sync", map[string]any{})
	req.Equal(http.StatusOK, status)
	report := result[struct {
		OrphanedCount  int `json:"orphaned_count"`
		CorrectedCount int `json:"corrected_count"`
		DeletedOrphans int `json:"deleted_orphans"`
	}](t, env)
	req.Equal(1, report.OrphanedCount)
	req.Equal(1, report.CorrectedCount)
	req.Zero(report.DeletedOrphans)

	// Сирота жива до явного согласия на удаление.
	ok, err := p.blobs.Exists(ctx, "files/1_orphan.bin")
	req.NoError(err)
	req.True(ok)

	status, env = p.call(t, root, http.MethodPost, "/api/admin/sync", map[string]any{
		"delete_orphans": true,
	})
	req.Equal(http.StatusOK, status)
	report = result[struct {
		OrphanedCount  int `json:"orphaned_count"`
		CorrectedCount int `json:"corrected_count"`
		DeletedOrphans int `json:"deleted_orphans"`
	}](t, env)
	req.Equal(1, report.DeletedOrphans)

	ok, err = p.blobs.Exists(ctx, "files/1_orphan.bin")
	req.NoError(err)
	req.False(ok)
}

func Test_DeleteEndpoint(t *testing.T) {
	req := require.New(t)
	p := newPortal(t)
	ctx := context.Background()

	req.NoError(p.blobs.Put(ctx, "files/3_doomed.bin", []byte("short-lived")))
	id, err := p.meta.InsertFile(ctx, metaRecord("doomed.bin", "files/3_doomed.bin", 11))
	req.NoError(err)

	// Удаление — административная операция.
	status, _ := p.call(t, alice, http.MethodDelete, "/api/files", map[string]any{"file_id": id})
	req.Equal(http.StatusForbidden, status)

	status, env := p.call(t, root, http.MethodDelete, "/api/files", map[string]any{"file_id": id})
	req.Equal(http.StatusOK, status)
	res := result[struct {
		BlobDeleted     bool `json:"blob_deleted"`
		MetadataDeleted bool `json:"metadata_deleted"`
	}](t, env)
	req.True(res.BlobDeleted)
	req.True(res.MetadataDeleted)

	ok, err := p.blobs.Exists(ctx, "files/3_doomed.bin")
	req.NoError(err)
	req.False(ok)

	status, env = p.call(t, root, http.MethodDelete, "/api/files", map[string]any{"file_id": id})
	req.Equal(http.StatusNotFound, status)
	req.Equal("file_not_found", errorKind(t, env))
}

func Test_ListFiles_Visibility(t *testing.T) {
	req := require.New(t)
	p := newPortal(t)
	ctx := context.Background()

	first, err := p.meta.InsertFile(ctx, metaRecord("a.bin", "files/4_a.bin", 1))
	req.NoError(err)
	_, err = p.meta.InsertFile(ctx, metaRecord("b.bin", "files/5_b.bin", 1))
	req.NoError(err)
	req.NoError(p.meta.AssignFileToUsers(ctx, first, []string{"bob"}))

	type listing struct {
		Files []struct {
			FileName string `json:"file_name"`
		} `json:"files"`
	}

	status, env := p.call(t, root, http.MethodGet, "/api/files", nil)
	req.Equal(http.StatusOK, status)
	req.Len(result[listing](t, env).Files, 2)

	status, env = p.call(t, bob, http.MethodGet, "/api/files", nil)
	req.Equal(http.StatusOK, status)
	forBob := result[listing](t, env)
	req.Len(forBob.Files, 1)
	req.Equal("a.bin", forBob.Files[0].FileName)
}

func Test_IdentityRequired(t *testing.T) {
	req := require.New(t)
	p := newPortal(t)

	status, env := p.call(t, caller{}, http.MethodGet, "/api/files", nil)
	req.Equal(http.StatusUnauthorized, status)
	req.Equal("access_denied", errorKind(t, env))

	// /health живёт вне контура аутентификации.
	resp, err := http.Get(p.srv.URL + "/health")
	req.NoError(err)
	req.Equal(http.StatusOK, resp.StatusCode)
	req.NoError(resp.Body.Close())
}

func Test_UploadValidation(t *testing.T) {
	req := require.New(t)
	p := newPortal(t)

	// Неизвестный вариант режется валидатором до сервиса.
	status, env := p.call(t, alice, http.MethodPost, "/api/upload/init", map[string]any{
		"variant":       "both",
		"file_name":     "x.bin",
		"declared_size": 10,
	})
	req.Equal(http.StatusBadRequest, status)
	req.Equal("bad_request", errorKind(t, env))

	// Превышение потолка варианта.
	status, env = p.call(t, alice, http.MethodPost, "/api/upload/init", map[string]any{
		"variant":       "eager",
		"file_name":     "x.bin",
		"declared_size": 2 << 20,
	})
	req.Equal(http.StatusRequestEntityTooLarge, status)
	req.Equal("payload_too_large", errorKind(t, env))

	// Чанк неположенного размера.
	status, env = p.call(t, alice, http.MethodPost, "/api/upload/init", map[string]any{
		"variant":       "lazy",
		"file_name":     "x.bin",
		"declared_size": 130,
	})
	req.Equal(http.StatusCreated, status)
	init := result[initView](t, env)

	status, env = p.call(t, alice, http.MethodPost, "/api/upload/chunk",
		uploadChunkBody(init.SessionID, 0, payloadOf(10)))
	req.Equal(http.StatusUnprocessableEntity, status)
	req.Equal("size_mismatch", errorKind(t, env))

	status, env = p.call(t, alice, http.MethodPost, "/api/upload/chunk",
		uploadChunkBody(init.SessionID, 7, payloadOf(64)))
	req.Equal(http.StatusBadRequest, status)
	req.Equal("bad_request", errorKind(t, env))
}

func metaRecord(name, key string, size int64) models.FileRecord {
	return models.FileRecord{FileName: name, StorageKey: key, Size: size, Uploader: "alice", UploadedAt: time.Now().UTC()}
}
