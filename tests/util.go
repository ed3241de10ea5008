package testutil

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/cebe/gestao/core"
	"github.com/cebe/gestao/core/credential"
	"github.com/cebe/gestao/core/school"
	inmemdb "github.com/cebe/gestao/storage/database/inmem"
	"github.com/cebe/gestao/storage/kv"
)

func init() {
	credential.SetHashCost(bcrypt.MinCost)
}

// NewConfig returns the configuration tests run with, independent of the environment.
func NewConfig() *core.Config {
	return &core.Config{
		Env:             "TEST",
		Build:           "test",
		TestMode:        true,
		AppName:         "CEBE Gestão",
		SecretKey:       "test-secret",
		FrontendBaseURL: "http://localhost:3000",
		Server: core.ServerConfig{
			Address:            ":0",
			Host:               "localhost",
			ShutdownTimeout:    time.Second,
			JWTExpirationDelta: time.Hour,
		},
		Storage: core.StorageConfig{
			Driver:       "memory",
			AdminSlot:    "admin-users",
			GuardianSlot: "guardian-credentials",
		},
		Auth: core.AuthConfig{
			BuiltinAdminIdentifier: "123.456.789-00",
			BuiltinAdminSecret:     "123456",
			GuardianDefaultSecret:  "123456",
			PasswordResetTimeout:   3 * 24 * time.Hour,
		},
		School: core.SchoolConfig{PixKey: "42.882.025/0001-06"},
	}
}

// Logger records log lines as "LEVEL: msg".
type Logger struct {
	mu    sync.Mutex
	lines []string
}

var _ core.Logger = (*Logger)(nil)

func NewLogger() *Logger { return new(Logger) }

func (l *Logger) log(level, msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lines = append(l.lines, fmt.Sprintf("%s: %s", level, msg))
}

func (l *Logger) Lines() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.lines...)
}

// Contains reports whether any line contains substr.
func (l *Logger) Contains(substr string) bool {
	for _, line := range l.Lines() {
		if strings.Contains(line, substr) {
			return true
		}
	}
	return false
}

func (l *Logger) Debug(msg string, _ ...interface{}) { l.log("DEBUG", msg) }
func (l *Logger) Info(msg string, _ ...interface{})  { l.log("INFO", msg) }
func (l *Logger) Warn(msg string, _ ...interface{})  { l.log("WARN", msg) }
func (l *Logger) Error(msg string, _ ...interface{}) { l.log("ERROR", msg) }
func (l *Logger) Fatal(msg string, _ ...interface{}) { l.log("FATAL", msg) }

// Mailer records messages without rendering them.
type Mailer struct {
	mu       sync.Mutex
	messages []*core.EmailMessage
}

var _ core.EmailService = (*Mailer)(nil)

func (m *Mailer) SendMessages(messages ...*core.EmailMessage) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, messages...)
}

func (m *Mailer) Messages() []*core.EmailMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*core.EmailMessage(nil), m.messages...)
}

// NewDB opens an in-memory database seeded with the default fixtures.
func NewDB(t *testing.T) *inmemdb.DB {
	t.Helper()
	db, err := inmemdb.Open(school.SeedFixtures())
	if err != nil {
		t.Fatalf("inmemdb.Open() failed: %v", err)
	}
	return db
}

// NewCredentialStore returns a credential store backed by db's slots.
func NewCredentialStore(db *inmemdb.DB, conf *core.Config, logger core.Logger) (*credential.Store, kv.Store) {
	slots := inmemdb.NewKVStore(db)
	repo := kv.NewCredentialRepository(slots, conf, logger)
	return credential.NewStore(repo, repo), slots
}

func CreateAdmin(t *testing.T, store *credential.Store, name, cpf, email, pwd string) credential.Admin {
	t.Helper()
	adm := credential.Admin{
		Identifier: cpf,
		Name:       name,
		Phone:      "(11) 99999-0000",
		Email:      email,
		CreatedAt:  time.Now().UTC(),
	}
	if err := adm.SetSecret(pwd); err != nil {
		t.Fatalf("createAdmin() failed: %v", err)
	}
	if err := store.AddAdmin(context.Background(), adm); err != nil {
		t.Fatalf("createAdmin() failed: %v", err)
	}
	return adm
}

func CreateGuardian(t *testing.T, store *credential.Store, cpf, email, pwd string) credential.Guardian {
	t.Helper()
	grd := credential.Guardian{Identifier: cpf, Email: email, UpdatedAt: time.Now().UTC()}
	if err := grd.SetSecret(pwd); err != nil {
		t.Fatalf("createGuardian() failed: %v", err)
	}
	if err := store.UpsertGuardian(context.Background(), grd); err != nil {
		t.Fatalf("createGuardian() failed: %v", err)
	}
	return grd
}
