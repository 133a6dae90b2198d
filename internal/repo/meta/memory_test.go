package meta

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/sir_venger/portal_lite/internal/models"
)

func insertSample(t *testing.T, store *MemoryStore, name, key string) string {
	t.Helper()
	id, err := store.InsertFile(context.Background(), models.FileRecord{
		FileName:   name,
		Size:       10,
		MimeType:   "application/octet-stream",
		StorageKey: key,
		Uploader:   "alice",
		UploadedAt: time.Now().UTC(),
	})
	require.NoError(t, err)
	return id
}

func TestMemoryStore_InsertAndGet(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	store := NewMemoryStore()

	id := insertSample(t, store, "a.bin", "files/1_a.bin")
	req.NotEmpty(id)

	rec, err := store.GetFileByID(ctx, id)
	req.NoError(err)
	req.Equal("a.bin", rec.FileName)
	req.Equal("alice", rec.Uploader)
	req.Empty(rec.AssignedTo)

	_, err = store.GetFileByID(ctx, "missing")
	req.ErrorIs(err, models.ErrFileNotFound)
}

func TestMemoryStore_Assignments(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	store := NewMemoryStore()

	id := insertSample(t, store, "a.bin", "files/1_a.bin")
	other := insertSample(t, store, "b.bin", "files/2_b.bin")

	req.NoError(store.AssignFileToUsers(ctx, id, []string{"bob", "carol"}))
	// Повторное назначение того же пользователя не дублируется.
	req.NoError(store.AssignFileToUsers(ctx, id, []string{"bob"}))

	rec, err := store.GetFileByID(ctx, id)
	req.NoError(err)
	req.Equal([]string{"bob", "carol"}, rec.AssignedTo)

	forBob, err := store.ListFilesForUser(ctx, "bob")
	req.NoError(err)
	req.Len(forBob, 1)
	req.Equal(id, forBob[0].ID)

	forDave, err := store.ListFilesForUser(ctx, "dave")
	req.NoError(err)
	req.Empty(forDave)

	req.ErrorIs(store.AssignFileToUsers(ctx, "missing", []string{"bob"}), models.ErrFileNotFound)
	_ = other
}

func TestMemoryStore_DeleteTransactional(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	store := NewMemoryStore()

	id := insertSample(t, store, "a.bin", "files/1_a.bin")
	req.NoError(store.AssignFileToUsers(ctx, id, []string{"bob"}))

	req.NoError(store.DeleteFileTransactional(ctx, id))
	_, err := store.GetFileByID(ctx, id)
	req.ErrorIs(err, models.ErrFileNotFound)

	// Назначения уходят вместе с записью.
	forBob, err := store.ListFilesForUser(ctx, "bob")
	req.NoError(err)
	req.Empty(forBob)

	req.ErrorIs(store.DeleteFileTransactional(ctx, id), models.ErrFileNotFound)
}

func TestMemoryStore_UpdateFileSize(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	store := NewMemoryStore()

	id := insertSample(t, store, "a.bin", "files/1_a.bin")
	req.NoError(store.UpdateFileSize(ctx, id, 1024))

	rec, err := store.GetFileByID(ctx, id)
	req.NoError(err)
	req.Equal(int64(1024), rec.Size)

	req.ErrorIs(store.UpdateFileSize(ctx, "missing", 1), models.ErrFileNotFound)
}

func TestMemoryStore_ListFilesSortedByKey(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	store := NewMemoryStore()

	insertSample(t, store, "b.bin", "files/2_b.bin")
	insertSample(t, store, "a.bin", "files/1_a.bin")

	files, err := store.ListFiles(ctx)
	req.NoError(err)
	req.Len(files, 2)
	req.Equal("files/1_a.bin", files[0].StorageKey)
	req.Equal("files/2_b.bin", files[1].StorageKey)
}
