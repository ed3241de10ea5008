package main

import (
	"context"
	"database/sql"
	"log"
	"os"

	"github.com/cebe/gestao/core"
	"github.com/cebe/gestao/core/credential"
	"github.com/cebe/gestao/core/identity"
	"github.com/cebe/gestao/core/school"
	emailsvc "github.com/cebe/gestao/services/email"
	logsvc "github.com/cebe/gestao/services/logger"
	"github.com/cebe/gestao/storage"
	"github.com/cebe/gestao/storage/database"
	inmemdb "github.com/cebe/gestao/storage/database/inmem"
	"github.com/cebe/gestao/storage/kv"
)

var logger core.Logger

func main() {
	conf := core.NewConfig()
	logger = logsvc.NewRollbarLogger(log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile), conf)

	if conf.Storage.Driver == storage.DriverMemory {
		logger.Warn("memory storage: changes are lost when the command exits")
	}

	db, err := inmemdb.Open(school.SeedFixtures())
	errAndDie(err)
	store, err := storage.OpenKVStore(context.Background(), conf, db)
	errAndDie(err)
	defer store.Close()

	translator := core.NewTranslator()
	validate := core.NewValidator(translator)
	repo := kv.NewCredentialRepository(store, conf, logger)
	mailSvc := emailsvc.NewConsoleService(conf, logger)
	core.ParseEmailTemplates(conf, logger)

	cli := commandLine{
		identitySvc: identity.NewService(credential.NewStore(repo, repo), inmemdb.NewRoster(db), validate, mailSvc, logger, conf),
		openDB: func(ctx context.Context) (*sql.DB, error) {
			sqlxDB, err := database.Open(ctx, conf)
			if err != nil {
				return nil, err
			}
			return sqlxDB.DB, nil
		},
	}
	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			logger.Error("command failed: "+err.Error(), err)
		}
		_ = store.Close()
		os.Exit(1)
	}
}

func errAndDie(err error) {
	if err != nil {
		logger.Fatal(err.Error(), err)
	}
}
