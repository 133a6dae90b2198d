package models

import "time"

// Variant определяет протокол загрузки: eager собирает файл сам на последнем
// чанке, lazy ждёт явного вызова combine.
type Variant string

const (
	VariantEager Variant = "eager"
	VariantLazy  Variant = "lazy"
)

// SessionStatus — состояние сессии загрузки.
type SessionStatus string

const (
	StatusUploading SessionStatus = "uploading"
	StatusCompleted SessionStatus = "completed"
)

// UploadSession описывает один собираемый файл.
type UploadSession struct {
	ID           string        `json:"session_id"`
	Variant      Variant       `json:"variant"`
	FileName     string        `json:"file_name"`
	DeclaredSize int64         `json:"declared_size"`
	MimeType     string        `json:"mime_type"`
	Uploader     string        `json:"uploader"`
	ChunkSize    int64         `json:"chunk_size"`
	TotalChunks  int           `json:"total_chunks"`
	Status       SessionStatus `json:"status"`
	CreatedAt    time.Time     `json:"created_at"`
	CompletedAt  *time.Time    `json:"completed_at,omitempty"`

	// Chunks хранит размер каждого принятого чанка по индексу.
	// Прогресс считается по числу различных индексов, а не по числу запросов.
	Chunks map[int]int64 `json:"chunks"`
}

// Clone возвращает копию сессии, чтобы не делиться внутренней картой.
func (s UploadSession) Clone() UploadSession {
	out := s
	out.Chunks = make(map[int]int64, len(s.Chunks))
	for idx, size := range s.Chunks {
		out.Chunks[idx] = size
	}
	if s.CompletedAt != nil {
		t := *s.CompletedAt
		out.CompletedAt = &t
	}
	return out
}

// UploadedCount — число различных принятых индексов.
func (s UploadSession) UploadedCount() int { return len(s.Chunks) }

// Complete сообщает, что приняты все ожидаемые чанки.
func (s UploadSession) Complete() bool { return len(s.Chunks) == s.TotalChunks }

// ExpectedChunkSize возвращает требуемую длину чанка: chunkSize для всех,
// кроме последнего, который добирает остаток объявленного размера.
func (s UploadSession) ExpectedChunkSize(idx int) int64 {
	if idx == s.TotalChunks-1 {
		return s.DeclaredSize - s.ChunkSize*int64(s.TotalChunks-1)
	}
	return s.ChunkSize
}
