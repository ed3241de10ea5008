package identity

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cebe/gestao/core"
	"github.com/cebe/gestao/core/credential"
	"github.com/cebe/gestao/core/school"
	emailsvc "github.com/cebe/gestao/services/email"
	inmemdb "github.com/cebe/gestao/storage/database/inmem"
	"github.com/cebe/gestao/storage/kv"
	testutil "github.com/cebe/gestao/tests"
)

type testEnv struct {
	svc    *Service
	store  *credential.Store
	slots  kv.Store
	mailer *testutil.Mailer
	logger *testutil.Logger
	conf   *core.Config
}

func newTestEnv(t *testing.T, fx ...school.Fixtures) testEnv {
	t.Helper()
	fixtures := school.SeedFixtures()
	if len(fx) > 0 {
		fixtures = fx[0]
	}
	db, err := inmemdb.Open(fixtures)
	require.NoError(t, err)

	conf := testutil.NewConfig()
	logger := testutil.NewLogger()
	mailer := new(testutil.Mailer)
	store, slots := testutil.NewCredentialStore(db, conf, logger)
	validate := core.NewValidator(core.NewTranslator())
	svc := NewService(store, inmemdb.NewRoster(db), validate, mailer, logger, conf)
	return testEnv{svc: svc, store: store, slots: slots, mailer: mailer, logger: logger, conf: conf}
}

func TestService_Authenticate_admin(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	testutil.CreateAdmin(t, env.store, "Joana", "987.654.321-00", "joana@example.com", "s3cret")

	tests := []struct {
		name       string
		identifier string
		secret     string
		wantName   string
		wantErr    error
	}{
		{"builtin punctuated", "123.456.789-00", "123456", builtinAdminName, nil},
		{"builtin digits", "12345678900", "123456", builtinAdminName, nil},
		{"builtin odd punctuation", " 123 456 789/00 ", "123456", builtinAdminName, nil},
		{"builtin wrong secret", "123.456.789-00", "654321", "", ErrInvalidAdminCredentials},
		{"registered", "98765432100", "s3cret", "Joana", nil},
		{"registered wrong secret", "987.654.321-00", "123456", "", ErrInvalidAdminCredentials},
		{"unknown", "111.111.111-11", "123456", "", ErrInvalidAdminCredentials},
		{"empty identifier", "", "123456", "", ErrInvalidAdminCredentials},
		{"guardian identifier", "111.222.333-44", "123456", "", ErrInvalidAdminCredentials},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := env.svc.Authenticate(ctx, RoleAdmin, tt.identifier, tt.secret)
			if tt.wantErr != nil {
				assert.Equal(t, tt.wantErr, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, RoleAdmin, out.Role)
			assert.Equal(t, credential.Canonicalize(tt.identifier), out.Identifier)
			assert.Equal(t, tt.wantName, out.DisplayName)
			assert.Empty(t, out.StudentID)
		})
	}
}

func TestService_Authenticate_builtinDisabled(t *testing.T) {
	env := newTestEnv(t)
	env.conf.Auth.BuiltinAdminSecret = ""
	ctx := context.Background()

	_, err := env.svc.Authenticate(ctx, RoleAdmin, "123.456.789-00", "")
	assert.Equal(t, ErrInvalidAdminCredentials, err)
	_, err = env.svc.Authenticate(ctx, RoleAdmin, "123.456.789-00", "123456")
	assert.Equal(t, ErrInvalidAdminCredentials, err)

	testutil.CreateAdmin(t, env.store, "Joana", "987.654.321-00", "joana@example.com", "s3cret")
	out, err := env.svc.Authenticate(ctx, RoleAdmin, "987.654.321-00", "s3cret")
	require.NoError(t, err)
	assert.Equal(t, "Joana", out.DisplayName)
}

func TestService_Authenticate_invalidRole(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.svc.Authenticate(context.Background(), Role("teacher"), "123.456.789-00", "123456")
	assert.Equal(t, ErrInvalidRole, err)
}

func TestService_Authenticate_guardian(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	tests := []struct {
		name       string
		identifier string
		secret     string
		wantErr    error
	}{
		{"universal default", "11122233344", "123456", nil},
		{"derived default", "111.222.333-44", "111222", nil},
		{"other secret", "111.222.333-44", "000000", ErrFirstAccessRequired},
		{"empty secret", "111.222.333-44", "", ErrFirstAccessRequired},
		{"unknown guardian", "123.123.123-12", "123456", ErrUnknownGuardianIdentifier},
		{"empty identifier", "", "123456", ErrUnknownGuardianIdentifier},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := env.svc.Authenticate(ctx, RoleGuardian, tt.identifier, tt.secret)
			if tt.wantErr != nil {
				assert.Equal(t, tt.wantErr, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, RoleGuardian, out.Role)
			assert.Equal(t, "std-1", out.StudentID)
			assert.Equal(t, "Maria Silva", out.DisplayName)
			assert.Equal(t, "11122233344", out.Identifier)
		})
	}
	assert.True(t, env.logger.Contains("fallback password"))
}

func TestService_Authenticate_guardianAfterBootstrap(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.svc.Authenticate(ctx, RoleGuardian, "11122233344", "123456")
	require.NoError(t, err)

	err = env.svc.BootstrapGuardianPassword(ctx, GuardianBootstrap{
		Identifier:      "111.222.333-44",
		Email:           "maria@example.com",
		Password:        "newpass",
		PasswordConfirm: "newpass",
	})
	require.NoError(t, err)

	_, err = env.svc.Authenticate(ctx, RoleGuardian, "111.222.333-44", "123456")
	assert.Equal(t, ErrWrongPassword, err)
	_, err = env.svc.Authenticate(ctx, RoleGuardian, "111.222.333-44", "111222")
	assert.Equal(t, ErrWrongPassword, err)

	out, err := env.svc.Authenticate(ctx, RoleGuardian, "111.222.333-44", "newpass")
	require.NoError(t, err)
	assert.Equal(t, "std-1", out.StudentID)

	// bootstrapping again replaces the password
	err = env.svc.BootstrapGuardianPassword(ctx, GuardianBootstrap{
		Identifier:      "11122233344",
		Password:        "other",
		PasswordConfirm: "other",
	})
	require.NoError(t, err)
	_, err = env.svc.Authenticate(ctx, RoleGuardian, "111.222.333-44", "newpass")
	assert.Equal(t, ErrWrongPassword, err)
	_, err = env.svc.Authenticate(ctx, RoleGuardian, "111.222.333-44", "other")
	assert.NoError(t, err)
}

func TestService_Authenticate_guardianFirstMatch(t *testing.T) {
	fx := school.SeedFixtures()
	sibling := fx.Students[0]
	sibling.ID = "std-6"
	sibling.Name = "Pedro Silva"
	fx.Students = append([]school.Student{fx.Students[1]}, fx.Students...)
	fx.Students = append(fx.Students, sibling)

	env := newTestEnv(t, fx)
	out, err := env.svc.Authenticate(context.Background(), RoleGuardian, "111.222.333-44", "123456")
	require.NoError(t, err)
	assert.Equal(t, "std-1", out.StudentID)
}

func TestService_Authenticate_noUniversalDefault(t *testing.T) {
	env := newTestEnv(t)
	env.conf.Auth.GuardianDefaultSecret = ""

	_, err := env.svc.Authenticate(context.Background(), RoleGuardian, "111.222.333-44", "123456")
	assert.Equal(t, ErrFirstAccessRequired, err)
	_, err = env.svc.Authenticate(context.Background(), RoleGuardian, "111.222.333-44", "111222")
	assert.NoError(t, err)
}

func TestService_RegisterAdmin(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	na := NewAdmin{
		Name:       "  Joana Prado ",
		Phone:      "11987654321",
		Identifier: "98765432100",
		Email:      "Joana@Example.com",
		Password:   "s3cret",
	}

	adm, err := env.svc.RegisterAdmin(ctx, na)
	require.NoError(t, err)
	assert.Equal(t, "987.654.321-00", adm.Identifier)
	assert.Equal(t, "Joana Prado", adm.Name)
	assert.Equal(t, "(11) 98765-4321", adm.Phone)
	assert.Equal(t, "joana@example.com", adm.Email)
	assert.NotEqual(t, na.Password, string(adm.SecretHash))

	out, err := env.svc.Authenticate(ctx, RoleAdmin, "987.654.321-00", "s3cret")
	require.NoError(t, err)
	assert.Equal(t, "Joana Prado", out.DisplayName)

	msgs := env.mailer.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "admin_welcome", msgs[0].TemplateName)
	assert.Equal(t, "joana@example.com", msgs[0].To[0].Address)

	// same canonical identifier, different punctuation
	na.Identifier = "987.654.321-00"
	na.Email = "other@example.com"
	_, err = env.svc.RegisterAdmin(ctx, na)
	assert.Equal(t, ErrDuplicateIdentifier, err)
	assert.Len(t, env.mailer.Messages(), 1)
}

func TestService_RegisterAdmin_validation(t *testing.T) {
	env := newTestEnv(t)
	valid := NewAdmin{Name: "Joana", Phone: "(11) 98765-4321", Identifier: "987.654.321-00", Email: "joana@example.com", Password: "x"}

	tests := []struct {
		name  string
		edit  func(na *NewAdmin)
		field string
	}{
		{"blank name", func(na *NewAdmin) { na.Name = "   " }, "Name"},
		{"short cpf", func(na *NewAdmin) { na.Identifier = "123.456" }, "Identifier"},
		{"short phone", func(na *NewAdmin) { na.Phone = "9999-0000" }, "Phone"},
		{"bad email", func(na *NewAdmin) { na.Email = "joana" }, "Email"},
		{"no password", func(na *NewAdmin) { na.Password = "" }, "Password"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			na := valid
			tt.edit(&na)
			_, err := env.svc.RegisterAdmin(context.Background(), na)
			require.Error(t, err)
			verrs, ok := err.(validator.ValidationErrors)
			require.True(t, ok, "got %T", err)
			assert.Equal(t, tt.field, verrs[0].StructField())
		})
	}

	_, err := env.store.FindAdmin(context.Background(), valid.Identifier)
	assert.Equal(t, credential.ErrNotFound, err)
}

func TestService_BootstrapGuardianPassword(t *testing.T) {
	tests := []struct {
		name    string
		gb      GuardianBootstrap
		wantErr error
	}{
		{"mismatch", GuardianBootstrap{Identifier: "111.222.333-44", Password: "a", PasswordConfirm: "b"}, ErrPasswordMismatch},
		{"mismatch for unknown guardian", GuardianBootstrap{Identifier: "000.000.000-01", Password: "a", PasswordConfirm: "b"}, ErrPasswordMismatch},
		{"unknown guardian", GuardianBootstrap{Identifier: "000.000.000-01", Password: "a", PasswordConfirm: "a"}, ErrUnknownGuardianIdentifier},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			err := env.svc.BootstrapGuardianPassword(context.Background(), tt.gb)
			assert.Equal(t, tt.wantErr, err)

			// nothing written
			raw, err := env.slots.Get(context.Background(), env.conf.Storage.GuardianSlot)
			assert.NoError(t, err)
			assert.Nil(t, raw)
		})
	}
}

func TestService_BootstrapGuardianPassword_validation(t *testing.T) {
	env := newTestEnv(t)
	err := env.svc.BootstrapGuardianPassword(context.Background(), GuardianBootstrap{
		Identifier:      "111.222.333-44",
		Email:           "not-an-email",
		Password:        "x",
		PasswordConfirm: "x",
	})
	_, ok := err.(validator.ValidationErrors)
	assert.True(t, ok, "got %v", err)
}

func TestService_gate(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	entered := make(chan struct{})
	release := make(chan struct{})
	env.svc.wait = func(ctx context.Context) error {
		close(entered)
		<-release
		return nil
	}

	done := make(chan error, 1)
	go func() {
		_, err := env.svc.Authenticate(ctx, RoleAdmin, "123.456.789-00", "123456")
		done <- err
	}()
	<-entered
	assert.True(t, env.svc.Busy())

	_, err := env.svc.Authenticate(ctx, RoleAdmin, "123.456.789-00", "123456")
	assert.Equal(t, ErrOperationInProgress, err)
	_, err = env.svc.RegisterAdmin(ctx, NewAdmin{})
	assert.Equal(t, ErrOperationInProgress, err)
	err = env.svc.BootstrapGuardianPassword(ctx, GuardianBootstrap{})
	assert.Equal(t, ErrOperationInProgress, err)

	close(release)
	assert.NoError(t, <-done)
	assert.False(t, env.svc.Busy())

	env.svc.wait = func(context.Context) error { return nil }
	_, err = env.svc.Authenticate(ctx, RoleAdmin, "123.456.789-00", "123456")
	assert.NoError(t, err)
}

func TestService_simulatedLatency(t *testing.T) {
	env := newTestEnv(t)

	env.conf.Auth.SimulatedLatency = time.Millisecond
	_, err := env.svc.Authenticate(context.Background(), RoleAdmin, "123.456.789-00", "123456")
	assert.NoError(t, err)

	env.conf.Auth.SimulatedLatency = time.Hour
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = env.svc.Authenticate(ctx, RoleAdmin, "123.456.789-00", "123456")
	assert.Equal(t, context.Canceled, err)
	assert.False(t, env.svc.Busy())
}

func TestService_RequestRecovery(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	testutil.CreateAdmin(t, env.store, "Joana", "987.654.321-00", "joana@example.com", "s3cret")
	testutil.CreateGuardian(t, env.store, "555.666.777-88", "carlos@example.com", "pw")

	require.NoError(t, env.svc.RequestRecovery(ctx, " JOANA@example.com"))
	require.NoError(t, env.svc.RequestRecovery(ctx, "carlos@example.com"))
	assert.Equal(t, credential.ErrNotFound, env.svc.RequestRecovery(ctx, "nobody@example.com"))

	msgs := env.mailer.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, "password_recovery", msgs[0].TemplateName)
	admData := msgs[0].TemplateData.(recoveryData)
	assert.Equal(t, "Joana", admData.Name)
	assert.True(t, strings.HasPrefix(admData.ResetURL, env.conf.FrontendBaseURL+"/password-reset/"), admData.ResetURL)
	assert.Equal(t, recoveryData{Name: "Carlos Costa", CPF: "555.666.777-88", Email: "carlos@example.com"}, msgs[1].TemplateData)
}

func TestService_RequestRecovery_delivered(t *testing.T) {
	env := newTestEnv(t)
	console := emailsvc.NewConsoleServiceMock(env.conf, env.logger)
	env.svc.mailSvc = console
	ctx := context.Background()

	_, err := env.svc.RegisterAdmin(ctx, NewAdmin{
		Name: "Joana", Phone: "(11) 91234-5678", Identifier: "987.654.321-00", Email: "joana@example.com", Password: "s3cret",
	})
	require.NoError(t, err)
	testutil.CreateGuardian(t, env.store, "555.666.777-88", "carlos@example.com", "pw")

	require.NoError(t, env.svc.RequestRecovery(ctx, "joana@example.com"))
	require.NoError(t, env.svc.RequestRecovery(ctx, "carlos@example.com"))

	sent := console.SentMessages()
	require.Len(t, sent, 3, env.logger.Lines())
	assert.Contains(t, sent[0].TextContent, "Hello Joana")
	assert.Contains(t, sent[1].TextContent, env.conf.FrontendBaseURL+"/password-reset/")
	assert.Contains(t, sent[1].HTMLContent, env.conf.FrontendBaseURL+"/password-reset/")
	assert.Contains(t, sent[2].TextContent, "Hello Carlos Costa")
	assert.Contains(t, sent[2].TextContent, "first access")
}

// resetLink requests recovery for email and returns the uid and token of the mailed link.
func resetLink(t *testing.T, env testEnv, email string) (string, string) {
	t.Helper()
	require.NoError(t, env.svc.RequestRecovery(context.Background(), email))
	msgs := env.mailer.Messages()
	data := msgs[len(msgs)-1].TemplateData.(recoveryData)
	parts := strings.Split(strings.TrimPrefix(data.ResetURL, env.conf.FrontendBaseURL+"/password-reset/"), "/")
	require.Len(t, parts, 2)
	return parts[0], parts[1]
}

func TestService_ResetAdminPassword(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	testutil.CreateAdmin(t, env.store, "Joana", "987.654.321-00", "joana@example.com", "s3cret")
	uid, token := resetLink(t, env, "joana@example.com")

	reset := func(uid, token, pwd, confirm string) error {
		return env.svc.ResetAdminPassword(ctx, PasswordReset{UID: uid, Token: token, Password: pwd, PasswordConfirm: confirm})
	}

	tests := []struct {
		name    string
		uid     string
		token   string
		pwd     string
		confirm string
		wantErr error
	}{
		{"mismatch", uid, token, "n3w", "new", ErrPasswordMismatch},
		{"bad uid", "***", token, "n3w", "n3w", ErrInvalidResetToken},
		{"unknown admin", encodeUID(credential.Admin{Identifier: "11111111111"}), token, "n3w", "n3w", ErrInvalidResetToken},
		{"no dash", uid, "abc", "n3w", "n3w", ErrInvalidResetToken},
		{"bad timestamp", uid, "NRXWY-sig", "n3w", "n3w", ErrInvalidResetToken},
		{"tampered", uid, token + "x", "n3w", "n3w", ErrInvalidResetToken},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantErr, reset(tt.uid, tt.token, tt.pwd, tt.confirm))
		})
	}

	require.NoError(t, reset(uid, token, "n3w", "n3w"))
	out, err := env.svc.Authenticate(ctx, RoleAdmin, "98765432100", "n3w")
	require.NoError(t, err)
	assert.Equal(t, "Joana", out.DisplayName)
	_, err = env.svc.Authenticate(ctx, RoleAdmin, "98765432100", "s3cret")
	assert.Equal(t, ErrInvalidAdminCredentials, err)

	t.Run("single use", func(t *testing.T) {
		assert.Equal(t, ErrInvalidResetToken, reset(uid, token, "again", "again"))
	})
}

func TestService_ResetAdminPassword_expired(t *testing.T) {
	env := newTestEnv(t)
	testutil.CreateAdmin(t, env.store, "Joana", "987.654.321-00", "joana@example.com", "s3cret")

	issued := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	env.svc.now = func() time.Time { return issued }
	uid, token := resetLink(t, env, "joana@example.com")

	env.svc.now = func() time.Time { return issued.Add(env.conf.Auth.PasswordResetTimeout + 24*time.Hour) }
	err := env.svc.ResetAdminPassword(context.Background(), PasswordReset{UID: uid, Token: token, Password: "n3w", PasswordConfirm: "n3w"})
	assert.Equal(t, ErrResetTokenExpired, err)

	env.svc.now = func() time.Time { return issued.Add(24 * time.Hour) }
	err = env.svc.ResetAdminPassword(context.Background(), PasswordReset{UID: uid, Token: token, Password: "n3w", PasswordConfirm: "n3w"})
	assert.NoError(t, err)
}
