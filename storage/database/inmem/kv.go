package inmemdb

import (
	"context"

	"github.com/cebe/gestao/storage/kv"
)

type kvStore struct {
	db *slotTable
}

func NewKVStore(db *DB) kv.Store {
	return &kvStore{db: db.slots}
}

func (s *kvStore) Get(_ context.Context, key string) ([]byte, error) {
	s.db.RLock()
	defer s.db.RUnlock()

	v, ok := s.db.table[key]
	if !ok {
		return nil, nil
	}
	return append([]byte(nil), v...), nil
}

func (s *kvStore) Set(_ context.Context, key string, value []byte) error {
	s.db.Lock()
	defer s.db.Unlock()

	s.db.table[key] = append([]byte(nil), value...)
	return nil
}

func (s *kvStore) Close() error { return nil }
