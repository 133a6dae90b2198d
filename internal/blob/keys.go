package blob

import (
	"fmt"
	"strings"
	"time"
)

// Пространства ключей разведены фиксированными префиксами, чтобы сверка,
// которая ничего не знает о незавершённых сессиях, не принимала живые
// чанки за осиротевшие файлы.
const (
	SessionPrefix = "sessions/"
	ChunkPrefix   = "chunks/"
	FilePrefix    = "files/"
)

// SessionKey — ключ записи сессии.
func SessionKey(sessionID string) string {
	return SessionPrefix + sessionID
}

// ChunkKey — ключ чанка, детерминированно выводится из сессии и индекса.
func ChunkKey(sessionID string, idx int) string {
	return fmt.Sprintf("%s%s/%06d", ChunkPrefix, sessionID, idx)
}

// SessionChunkPrefix — префикс всех чанков одной сессии.
func SessionChunkPrefix(sessionID string) string {
	return ChunkPrefix + sessionID + "/"
}

// FileKey строит ключ собранного файла из момента загрузки и исходного имени.
func FileKey(now time.Time, fileName string) string {
	return fmt.Sprintf("%s%d_%s", FilePrefix, now.UnixNano(), sanitizeName(fileName))
}

// sanitizeName оставляет в имени только безопасные для ключа символы.
func sanitizeName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "unnamed"
	}
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '.', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}
