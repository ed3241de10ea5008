package sqlxrepos

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/cebe/gestao/storage/kv"
)

const (
	getSlotQuery = `SELECT value FROM kv_slots WHERE key = $1`
	setSlotQuery = `
INSERT INTO kv_slots (key, value, updated_at) VALUES ($1, $2::jsonb, now())
ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at`
)

type kvStore struct {
	db *sqlx.DB
}

var _ kv.Store = (*kvStore)(nil)

// NewKVStore stores slots in the kv_slots table.
func NewKVStore(db *sqlx.DB) kv.Store {
	return &kvStore{db: db}
}

func (s *kvStore) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	if err := s.db.GetContext(ctx, &value, getSlotQuery, key); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return value, nil
}

func (s *kvStore) Set(ctx context.Context, key string, value []byte) error {
	_, err := s.db.ExecContext(ctx, setSlotQuery, key, string(value))
	return err
}

func (s *kvStore) Close() error { return s.db.Close() }
