package models

// OrphanedBlob — объект хранилища без записи в метаданных.
type OrphanedBlob struct {
	Key  string `json:"key"`
	Size int64  `json:"size"`
}

// MissingBlob — запись метаданных, чей объект в хранилище исчез.
type MissingBlob struct {
	FileID     string `json:"file_id"`
	FileName   string `json:"file_name"`
	StorageKey string `json:"storage_key"`
}

// SizeCorrection — расхождение размеров; хранилище считается источником истины.
type SizeCorrection struct {
	FileID       string `json:"file_id"`
	FileName     string `json:"file_name"`
	StorageKey   string `json:"storage_key"`
	RecordedSize int64  `json:"recorded_size"`
	ActualSize   int64  `json:"actual_size"`
}

// ItemError — сбой обработки одного элемента; проход продолжается дальше.
type ItemError struct {
	Key    string `json:"key"`
	Detail string `json:"detail"`
}

// ReconciliationReport — итог одного прохода сверки двух хранилищ.
// Отчёт не персистится, он возвращается вызвавшему администратору целиком.
type ReconciliationReport struct {
	OrphanedBlobs  []OrphanedBlob   `json:"orphaned_blobs"`
	MissingBlobs   []MissingBlob    `json:"missing_blobs"`
	SizeCorrected  []SizeCorrection `json:"size_corrected"`
	DeletedOrphans int              `json:"deleted_orphans"`
	Errors         []ItemError      `json:"errors,omitempty"`

	OrphanedCount  int `json:"orphaned_count"`
	MissingCount   int `json:"missing_count"`
	CorrectedCount int `json:"corrected_count"`
}

// DeletionResult — составной итог удаления одного файла из обоих хранилищ.
type DeletionResult struct {
	FileID            string `json:"file_id"`
	StorageKey        string `json:"storage_key"`
	BlobDeleted       bool   `json:"blob_deleted"`
	BlobExistedBefore bool   `json:"blob_existed_before"`
	BlobExistsAfter   bool   `json:"blob_exists_after"`
	MetadataDeleted   bool   `json:"metadata_deleted"`
	Attempts          int    `json:"attempts"`
}
