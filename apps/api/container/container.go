package container

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/pkg/errors"
	"go.uber.org/dig"

	echoapi "github.com/cebe/gestao/apps/api/echo"
	"github.com/cebe/gestao/core"
	"github.com/cebe/gestao/core/credential"
	"github.com/cebe/gestao/core/identity"
	"github.com/cebe/gestao/core/school"
	"github.com/cebe/gestao/core/session"
	emailsvc "github.com/cebe/gestao/services/email"
	logsvc "github.com/cebe/gestao/services/logger"
	"github.com/cebe/gestao/storage"
	inmemdb "github.com/cebe/gestao/storage/database/inmem"
	"github.com/cebe/gestao/storage/kv"
)

type StorageLoggerParam struct {
	dig.In
	Logger core.Logger `name:"storageLogger"`
}

func newLogger(conf *core.Config) core.Logger {
	stdLogger := log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	return logsvc.NewRollbarLogger(stdLogger, conf)
}

func newStorageLogger(conf *core.Config) core.Logger {
	stdLogger := log.New(os.Stdout, "STORAGE : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	return logsvc.NewRollbarLogger(stdLogger, conf)
}

func newDB() (*inmemdb.DB, error) {
	return inmemdb.Open(school.SeedFixtures())
}

func newKVStore(conf *core.Config, db *inmemdb.DB, loggerParam StorageLoggerParam) kv.Store {
	store, err := storage.OpenKVStore(context.Background(), conf, db)
	if err != nil {
		loggerParam.Logger.Fatal(fmt.Sprintf("setting up %s storage: %v", conf.Storage.Driver, err), err)
	}
	return store
}

func newCredentialRepository(store kv.Store, conf *core.Config, loggerParam StorageLoggerParam) *kv.CredentialRepository {
	return kv.NewCredentialRepository(store, conf, loggerParam.Logger)
}

func newCredentialStore(repo *kv.CredentialRepository) *credential.Store {
	return credential.NewStore(repo, repo)
}

func newEmailService(conf *core.Config, logger core.Logger) core.EmailService {
	if conf.Debug {
		return emailsvc.NewConsoleService(conf, logger)
	}
	return emailsvc.NewSendgridService(conf, logger)
}

func newAuthenticator(svc *identity.Service) session.Authenticator { return svc }

// New returns a new dependency injection dig.Container
func New() *dig.Container {
	c := dig.New()

	must(c.Provide(core.NewConfig))
	must(c.Provide(newLogger))
	must(c.Provide(newStorageLogger, dig.Name("storageLogger")))
	must(c.Provide(newDB))
	must(c.Provide(newKVStore))
	must(c.Provide(inmemdb.NewRoster))
	must(c.Provide(newCredentialRepository))
	must(c.Provide(newCredentialStore))
	must(c.Provide(newEmailService))
	must(c.Provide(core.NewTranslator))
	must(c.Provide(core.NewValidator))
	must(c.Provide(identity.NewService))
	must(c.Provide(newAuthenticator))
	must(c.Provide(session.NewRouter))
	must(c.Provide(session.NewController))
	must(c.Provide(echoapi.NewServer))

	return c
}

// must exits program if err happened
func must(err error) {
	if err != nil {
		log.Fatal(errors.Wrap(err, "failed to provide dependency").Error())
	}
}
