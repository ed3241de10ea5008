package storage

import (
	"context"

	"github.com/pkg/errors"

	"github.com/cebe/gestao/core"
	"github.com/cebe/gestao/storage/database"
	inmemdb "github.com/cebe/gestao/storage/database/inmem"
	sqlxrepos "github.com/cebe/gestao/storage/database/sqlx"
	"github.com/cebe/gestao/storage/kv"
	"github.com/cebe/gestao/storage/kv/rediskv"
)

const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
	DriverRedis    = "redis"
)

var ErrUnknownDriver = errors.New("unknown storage driver")

// OpenKVStore opens the slot store selected by conf.Storage.Driver.
// The memory driver keeps its slots in db.
func OpenKVStore(ctx context.Context, conf *core.Config, db *inmemdb.DB) (kv.Store, error) {
	switch conf.Storage.Driver {
	case DriverMemory, "":
		return inmemdb.NewKVStore(db), nil
	case DriverPostgres:
		sqlDB, err := database.Open(ctx, conf)
		if err != nil {
			return nil, err
		}
		if err := database.Migrate(sqlDB.DB, "up"); err != nil {
			_ = sqlDB.Close()
			return nil, err
		}
		return sqlxrepos.NewKVStore(sqlDB), nil
	case DriverRedis:
		return rediskv.Open(ctx, conf.Storage.RedisURL)
	default:
		return nil, errors.Wrap(ErrUnknownDriver, conf.Storage.Driver)
	}
}
