package blob

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/sir_venger/portal_lite/internal/models"
)

// Внутренние пространства badger: данные и время модификации отдельно,
// чтобы листинг не тянул значения ради метаданных.
const (
	badgerDataPrefix = "o:"
	badgerModPrefix  = "m:"
)

// BadgerStore — легаси-хранилище на встраиваемом badger. Используется как
// альтернатива S3 в локальных и исторических установках.
type BadgerStore struct {
	db *badger.DB
}

// OpenBadger открывает базу по указанному пути.
func OpenBadger(path string) (*BadgerStore, error) {
	db, err := badger.Open(badger.DefaultOptions(path).WithLogger(nil))
	if err != nil {
		return nil, fmt.Errorf("open badger at %s: %w", path, err)
	}
	return &BadgerStore{db: db}, nil
}

// NewBadgerStore оборачивает уже открытую базу (для тестов — in-memory).
func NewBadgerStore(db *badger.DB) *BadgerStore {
	return &BadgerStore{db: db}
}

var _ Store = (*BadgerStore)(nil)

// Close закрывает базу.
func (s *BadgerStore) Close() error { return s.db.Close() }

func (s *BadgerStore) Put(ctx context.Context, key string, data []byte) error {
	mod := make([]byte, 8)
	binary.BigEndian.PutUint64(mod, uint64(time.Now().UnixNano()))

	err := s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set([]byte(badgerDataPrefix+key), data); err != nil {
			return err
		}
		return txn.Set([]byte(badgerModPrefix+key), mod)
	})
	if err != nil {
		return &models.StorageError{Op: "put", Key: key, Err: err}
	}
	return nil
}

func (s *BadgerStore) Get(ctx context.Context, key string) ([]byte, error) {
	var data []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(badgerDataPrefix + key))
		if err != nil {
			return err
		}
		data, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, models.ErrKeyNotFound
		}
		return nil, &models.StorageError{Op: "get", Key: key, Err: err}
	}
	return data, nil
}

func (s *BadgerStore) Delete(ctx context.Context, key string) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Delete([]byte(badgerDataPrefix + key)); err != nil {
			return err
		}
		return txn.Delete([]byte(badgerModPrefix + key))
	})
	if err != nil {
		return &models.StorageError{Op: "delete", Key: key, Err: err}
	}
	return nil
}

func (s *BadgerStore) Exists(ctx context.Context, key string) (bool, error) {
	err := s.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get([]byte(badgerDataPrefix + key))
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, &models.StorageError{Op: "exists", Key: key, Err: err}
	}
	return true, nil
}

// List идёт по префиксу в лексикографическом порядке; токен — последний
// выданный ключ, следующая страница начинается строго после него.
func (s *BadgerStore) List(ctx context.Context, prefix, token string, limit int) (ListPage, error) {
	if limit <= 0 {
		limit = defaultPageSize
	}

	var page ListPage
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(badgerDataPrefix + prefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		start := []byte(badgerDataPrefix + prefix)
		if token != "" {
			start = []byte(badgerDataPrefix + token)
		}

		for it.Seek(start); it.Valid(); it.Next() {
			key := string(it.Item().Key())[len(badgerDataPrefix):]
			if token != "" && key <= token {
				continue
			}
			if len(page.Objects) == limit {
				page.NextToken = page.Objects[limit-1].Key
				return nil
			}

			val, err := it.Item().ValueCopy(nil)
			if err != nil {
				return err
			}
			page.Objects = append(page.Objects, ObjectInfo{
				Key:          key,
				Size:         int64(len(val)),
				LastModified: s.modTime(txn, key),
			})
		}
		return nil
	})
	if err != nil {
		return ListPage{}, &models.StorageError{Op: "list", Key: prefix, Err: err}
	}

	sort.Slice(page.Objects, func(i, j int) bool { return page.Objects[i].Key < page.Objects[j].Key })
	return page, nil
}

func (s *BadgerStore) modTime(txn *badger.Txn, key string) time.Time {
	item, err := txn.Get([]byte(badgerModPrefix + key))
	if err != nil {
		return time.Time{}
	}
	raw, err := item.ValueCopy(nil)
	if err != nil || len(raw) != 8 {
		return time.Time{}
	}
	return time.Unix(0, int64(binary.BigEndian.Uint64(raw)))
}

// SignedURL легаси-хранилищем не поддерживается: у него нет внешнего HTTP-лица.
func (s *BadgerStore) SignedURL(ctx context.Context, key string, ttl time.Duration, dir SignDirection) (string, error) {
	return "", fmt.Errorf("signed urls are not supported by the legacy store")
}
