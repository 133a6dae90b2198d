package syncsvc

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/sir_venger/portal_lite/internal/blob"
	"github.com/sir_venger/portal_lite/internal/models"
	"github.com/sir_venger/portal_lite/internal/repo/meta"
)

func seedFile(t *testing.T, blobs *blob.MemoryStore, metaStore meta.Store, name string, data []byte) models.FileRecord {
	t.Helper()
	ctx := context.Background()

	key := blob.FileKey(time.Now().UTC(), name)
	require.NoError(t, blobs.Put(ctx, key, data))

	rec := models.FileRecord{
		FileName:   name,
		Size:       int64(len(data)),
		MimeType:   "application/octet-stream",
		StorageKey: key,
		Uploader:   "alice",
		UploadedAt: time.Now().UTC(),
	}
	id, err := metaStore.InsertFile(ctx, rec)
	require.NoError(t, err)
	rec.ID = id
	return rec
}

func TestReconcile_CleanState(t *testing.T) {
	req := require.New(t)
	blobs := blob.NewMemoryStore()
	metaStore := meta.NewMemoryStore()
	svc := New(Deps{Blobs: blobs, Meta: metaStore})

	seedFile(t, blobs, metaStore, "a.bin", []byte("hello"))
	seedFile(t, blobs, metaStore, "b.bin", []byte("world!"))

	report, err := svc.Reconcile(context.Background(), false)
	req.NoError(err)
	req.Empty(report.OrphanedBlobs)
	req.Empty(report.MissingBlobs)
	req.Empty(report.SizeCorrected)
	req.Empty(report.Errors)
	req.Zero(report.DeletedOrphans)
}

func TestReconcile_SizeDrift(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	blobs := blob.NewMemoryStore()
	metaStore := meta.NewMemoryStore()
	svc := New(Deps{Blobs: blobs, Meta: metaStore})

	rec := seedFile(t, blobs, metaStore, "drift.bin", make([]byte, 1000))
	// Объект в хранилище подрос до 1024, запись осталась на 1000.
	req.NoError(blobs.Put(ctx, rec.StorageKey, make([]byte, 1024)))

	report, err := svc.Reconcile(ctx, false)
	req.NoError(err)
	req.Len(report.SizeCorrected, 1)
	req.Equal(int64(1000), report.SizeCorrected[0].RecordedSize)
	req.Equal(int64(1024), report.SizeCorrected[0].ActualSize)
	req.Equal(1, report.CorrectedCount)

	got, err := metaStore.GetFileByID(ctx, rec.ID)
	req.NoError(err)
	req.Equal(int64(1024), got.Size)
}

func TestReconcile_MissingBlob(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	blobs := blob.NewMemoryStore()
	metaStore := meta.NewMemoryStore()
	svc := New(Deps{Blobs: blobs, Meta: metaStore})

	rec := seedFile(t, blobs, metaStore, "gone.bin", []byte("bytes"))
	req.NoError(metaStore.AssignFileToUsers(ctx, rec.ID, []string{"bob"}))
	req.NoError(blobs.Delete(ctx, rec.StorageKey))

	report, err := svc.Reconcile(ctx, false)
	req.NoError(err)
	req.Len(report.MissingBlobs, 1)
	req.Equal(rec.ID, report.MissingBlobs[0].FileID)

	// Запись удалена вместе с назначениями.
	_, err = metaStore.GetFileByID(ctx, rec.ID)
	req.ErrorIs(err, models.ErrFileNotFound)
	assigned, err := metaStore.ListFilesForUser(ctx, "bob")
	req.NoError(err)
	req.Empty(assigned)
}

func TestReconcile_OrphansReportedNotDeletedByDefault(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	blobs := blob.NewMemoryStore()
	metaStore := meta.NewMemoryStore()
	svc := New(Deps{Blobs: blobs, Meta: metaStore})

	orphanKey := blob.FileKey(time.Now().UTC(), "orphan.bin")
	req.NoError(blobs.Put(ctx, orphanKey, []byte("no record")))

	report, err := svc.Reconcile(ctx, false)
	req.NoError(err)
	req.Len(report.OrphanedBlobs, 1)
	req.Equal(orphanKey, report.OrphanedBlobs[0].Key)
	req.Zero(report.DeletedOrphans)

	ok, err := blobs.Exists(ctx, orphanKey)
	req.NoError(err)
	req.True(ok)
}

func TestReconcile_OrphanDeletionOptIn(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	blobs := blob.NewMemoryStore()
	metaStore := meta.NewMemoryStore()
	svc := New(Deps{Blobs: blobs, Meta: metaStore})

	keep := seedFile(t, blobs, metaStore, "keep.bin", []byte("owned"))
	orphanKey := blob.FileKey(time.Now().UTC(), "orphan.bin")
	req.NoError(blobs.Put(ctx, orphanKey, []byte("no record")))

	report, err := svc.Reconcile(ctx, true)
	req.NoError(err)
	req.Equal(1, report.DeletedOrphans)

	ok, err := blobs.Exists(ctx, orphanKey)
	req.NoError(err)
	req.False(ok)

	// Объект с записью не тронут.
	ok, err = blobs.Exists(ctx, keep.StorageKey)
	req.NoError(err)
	req.True(ok)
}

func TestReconcile_IgnoresSessionAndChunkNamespaces(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	blobs := blob.NewMemoryStore()
	metaStore := meta.NewMemoryStore()
	svc := New(Deps{Blobs: blobs, Meta: metaStore})

	// Живая сессия с чанками не должна выглядеть сиротами.
	req.NoError(blobs.Put(ctx, blob.SessionKey("sess-1"), []byte("{}")))
	req.NoError(blobs.Put(ctx, blob.ChunkKey("sess-1", 0), []byte("chunk")))

	report, err := svc.Reconcile(ctx, true)
	req.NoError(err)
	req.Empty(report.OrphanedBlobs)

	ok, err := blobs.Exists(ctx, blob.ChunkKey("sess-1", 0))
	req.NoError(err)
	req.True(ok)
}

type flakyMeta struct {
	*meta.MemoryStore
	failSizeFor string
}

func (f *flakyMeta) UpdateFileSize(ctx context.Context, id string, size int64) error {
	if id == f.failSizeFor {
		return errors.New("update rejected")
	}
	return f.MemoryStore.UpdateFileSize(ctx, id, size)
}

func TestReconcile_ItemErrorDoesNotAbortPass(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	blobs := blob.NewMemoryStore()
	inner := meta.NewMemoryStore()

	bad := seedFile(t, blobs, inner, "bad.bin", make([]byte, 10))
	good := seedFile(t, blobs, inner, "good.bin", make([]byte, 10))
	req.NoError(blobs.Put(ctx, bad.StorageKey, make([]byte, 20)))
	req.NoError(blobs.Put(ctx, good.StorageKey, make([]byte, 30)))

	svc := New(Deps{Blobs: blobs, Meta: &flakyMeta{MemoryStore: inner, failSizeFor: bad.ID}})

	report, err := svc.Reconcile(ctx, false)
	req.NoError(err)

	// Сбой на одной записи попал в отчёт, остальные обработаны.
	req.Len(report.Errors, 1)
	req.Equal(bad.StorageKey, report.Errors[0].Key)
	req.Len(report.SizeCorrected, 1)
	req.Equal(good.ID, report.SizeCorrected[0].FileID)

	got, err := inner.GetFileByID(ctx, good.ID)
	req.NoError(err)
	req.Equal(int64(30), got.Size)
}
