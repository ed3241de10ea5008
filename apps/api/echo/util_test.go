package echoapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cebe/gestao/core"
	"github.com/cebe/gestao/core/credential"
	"github.com/cebe/gestao/core/identity"
	"github.com/cebe/gestao/core/school"
	"github.com/cebe/gestao/core/session"
	inmemdb "github.com/cebe/gestao/storage/database/inmem"
	"github.com/cebe/gestao/storage/kv"
	testutil "github.com/cebe/gestao/tests"
)

var errMissingToken = httpErr{Error: "missing or malformed jwt"}

type testEnv struct {
	app      *Server
	conf     *core.Config
	store    *credential.Store
	slots    kv.Store
	roster   *hidingRoster
	sessions *session.Controller
	mailer   *testutil.Mailer
	logger   *testutil.Logger
}

// hidingRoster can make students disappear after sign in.
type hidingRoster struct {
	school.Roster
	hidden map[string]bool
}

func (r *hidingRoster) GetStudent(ctx context.Context, id string) (school.Student, error) {
	if r.hidden[id] {
		return school.Student{}, school.ErrStudentNotFound
	}
	return r.Roster.GetStudent(ctx, id)
}

func setup(t *testing.T) testEnv {
	t.Helper()
	db := testutil.NewDB(t)
	conf := testutil.NewConfig()
	logger := testutil.NewLogger()
	mailer := new(testutil.Mailer)
	store, slots := testutil.NewCredentialStore(db, conf, logger)
	roster := &hidingRoster{Roster: inmemdb.NewRoster(db), hidden: make(map[string]bool)}

	translator := core.NewTranslator()
	validate := core.NewValidator(translator)
	svc := identity.NewService(store, roster, validate, mailer, logger, conf)
	router := session.NewRouter(roster)
	sessions := session.NewController(svc, router, logger)

	app := NewServer(ServerDeps{
		Conf:        conf,
		Logger:      logger,
		IdentitySvc: svc,
		Sessions:    sessions,
		Router:      router,
		Roster:      roster,
		Validate:    validate,
		Translator:  translator,
	})
	return testEnv{app: app, conf: conf, store: store, slots: slots, roster: roster, sessions: sessions, mailer: mailer, logger: logger}
}

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantData []byte
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func newRequest(method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	return newAuthRequest(method, path, "", data...)
}

func (env testEnv) do(tt httpTest) *httptest.ResponseRecorder {
	method := tt.method
	if method == "" {
		method = http.MethodGet
	}
	req, rec := newAuthRequest(method, tt.path, tt.token, tt.body)
	env.app.ServeHTTP(rec, req)
	return rec
}

// login signs in through the API and returns the token.
func (env testEnv) login(t *testing.T, role identity.Role, identifier, pwd string) (string, LoginResponse) {
	t.Helper()
	body := marchallObj(t, LoginRequest{Role: string(role), Identifier: identifier, Password: pwd})
	req, rec := newRequest(http.MethodPost, "/v1/auth/login", body)
	env.app.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp LoginResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp.Token, resp
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj() failed: %v", err)
	}
	return data
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	assert.Equal(t, tt.wantCode, rec.Code, "code; body %s", rec.Body.String())
	if tt.wantData != nil {
		assert.JSONEq(t, string(tt.wantData), rec.Body.String())
	}
}
