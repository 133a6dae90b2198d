package models

import (
	"errors"
	"fmt"
)

var (
	ErrSessionNotFound = errors.New("upload session not found")
	ErrChunkNotFound   = errors.New("chunk not found")
	ErrFileNotFound    = errors.New("file not found")
	ErrKeyNotFound     = errors.New("object not found")
	ErrPayloadTooLarge = errors.New("payload too large")
	ErrSizeMismatch    = errors.New("size mismatch")
	ErrBadChunkIndex   = errors.New("chunk index out of range")
	ErrWrongVariant    = errors.New("operation not available for this upload variant")
)

// MissingChunkError возникает при сборке, когда счётчик сошёлся,
// а конкретный чанк в хранилище отсутствует.
type MissingChunkError struct {
	Index int
}

func (e *MissingChunkError) Error() string {
	return fmt.Sprintf("missing chunk %d", e.Index)
}

// IncompleteUploadError — попытка собрать файл до прихода всех чанков.
type IncompleteUploadError struct {
	Uploaded int
	Total    int
}

func (e *IncompleteUploadError) Error() string {
	return fmt.Sprintf("upload incomplete: %d of %d chunks received", e.Uploaded, e.Total)
}

// StorageError оборачивает сбой нижележащего хранилища с контекстом операции и ключа.
type StorageError struct {
	Op  string
	Key string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s %q: %v", e.Op, e.Key, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }
