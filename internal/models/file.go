package models

import "time"

// FileRecord — метаданные собранного файла вместе со списком допущенных пользователей.
type FileRecord struct {
	ID         string    `json:"file_id"`
	FileName   string    `json:"file_name"`
	Size       int64     `json:"size"`
	MimeType   string    `json:"mime_type"`
	StorageKey string    `json:"storage_key"`
	Uploader   string    `json:"uploader"`
	UploadedAt time.Time `json:"uploaded_at"`
	AssignedTo []string  `json:"assigned_to,omitempty"`
}
