package session

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cebe/gestao/core"
	"github.com/cebe/gestao/core/identity"
	"github.com/cebe/gestao/core/school"
	inmemdb "github.com/cebe/gestao/storage/database/inmem"
	testutil "github.com/cebe/gestao/tests"
)

func newController(t *testing.T) (*Controller, *testutil.Logger) {
	t.Helper()
	db := testutil.NewDB(t)
	conf := testutil.NewConfig()
	logger := testutil.NewLogger()
	store, _ := testutil.NewCredentialStore(db, conf, logger)
	roster := inmemdb.NewRoster(db)
	svc := identity.NewService(store, roster, core.NewValidator(core.NewTranslator()), new(testutil.Mailer), logger, conf)
	return NewController(svc, NewRouter(roster), logger), logger
}

func TestController_loginLogout(t *testing.T) {
	c, logger := newController(t)
	ctx := context.Background()

	assert.Equal(t, Anonymous(), c.Current())
	assert.Equal(t, ViewLogin, c.View(ctx).View)

	sess, err := c.Login(ctx, identity.RoleAdmin, "123.456.789-00", "123456")
	require.NoError(t, err)
	assert.Equal(t, StateAdmin, sess.State)
	assert.NotEmpty(t, sess.ID)
	assert.Equal(t, sess, c.Current())
	assert.True(t, logger.Contains("session started"))

	page, err := c.Navigate(PageReports)
	require.NoError(t, err)
	assert.Equal(t, PageReports, page)
	assert.Equal(t, RenderTarget{View: ViewAdmin, Page: PageReports, Title: "Relatórios"}, c.View(ctx))

	c.Logout()
	assert.Equal(t, Anonymous(), c.Current())
	assert.Equal(t, PageDashboard, c.Page())
	for _, p := range append(AdminPages, "unknown", "") {
		assert.Equal(t, ViewLogin, c.Resolve(ctx, p).View, "page %q", p)
	}
	_, err = c.Navigate(PageStudents)
	assert.Equal(t, ErrNotAdmin, err)

	_, err = c.Login(ctx, identity.RoleAdmin, "12345678900", "123456")
	require.NoError(t, err)
	assert.Equal(t, PageDashboard, c.View(ctx).Page)
}

func TestController_loginFailureKeepsSession(t *testing.T) {
	c, _ := newController(t)
	ctx := context.Background()

	_, err := c.Login(ctx, identity.RoleAdmin, "123.456.789-00", "wrong")
	assert.Equal(t, identity.ErrInvalidAdminCredentials, err)
	assert.Equal(t, Anonymous(), c.Current())

	admin, err := c.Login(ctx, identity.RoleAdmin, "123.456.789-00", "123456")
	require.NoError(t, err)
	_, err = c.Login(ctx, identity.RoleGuardian, "111.222.333-44", "nope")
	assert.Equal(t, identity.ErrFirstAccessRequired, err)
	assert.Equal(t, admin, c.Current())
}

func TestController_reloginReplacesSession(t *testing.T) {
	c, _ := newController(t)
	ctx := context.Background()

	admin, err := c.Login(ctx, identity.RoleAdmin, "123.456.789-00", "123456")
	require.NoError(t, err)
	_, err = c.Navigate(PageCourses)
	require.NoError(t, err)

	grd, err := c.Login(ctx, identity.RoleGuardian, "555.666.777-88", "555666")
	require.NoError(t, err)
	assert.NotEqual(t, admin.ID, grd.ID)
	assert.Equal(t, StateGuardian, c.Current().State)
	assert.Equal(t, "std-2", c.Current().StudentID)
	assert.Equal(t, PageDashboard, c.Page())

	_, err = c.Navigate(PageCourses)
	assert.Equal(t, ErrNotAdmin, err)
}

func TestController_Navigate_unknownPage(t *testing.T) {
	c, _ := newController(t)
	_, err := c.Login(context.Background(), identity.RoleAdmin, "123.456.789-00", "123456")
	require.NoError(t, err)

	page, err := c.Navigate("settings")
	require.NoError(t, err)
	assert.Equal(t, PageDashboard, page)
}

func TestRouter_Resolve(t *testing.T) {
	db := testutil.NewDB(t)
	r := NewRouter(inmemdb.NewRoster(db))
	ctx := context.Background()

	admin := Session{ID: "a", State: StateAdmin}
	guardian := Session{ID: "g", State: StateGuardian, Identifier: "11122233344", StudentID: "std-1"}

	tests := []struct {
		name string
		sess Session
		page Page
		want RenderTarget
	}{
		{"anonymous", Anonymous(), PageStudents, RenderTarget{View: ViewLogin, Title: loginTitle}},
		{"zero session", Session{}, PageDashboard, RenderTarget{View: ViewLogin, Title: loginTitle}},
		{"admin known page", admin, PageFinancial, RenderTarget{View: ViewAdmin, Page: PageFinancial, Title: "Controle Financeiro"}},
		{"admin unknown page", admin, "nope", RenderTarget{View: ViewAdmin, Page: PageDashboard, Title: "Painel de Controle"}},
		{"admin empty page", admin, "", RenderTarget{View: ViewAdmin, Page: PageDashboard, Title: "Painel de Controle"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, r.Resolve(ctx, tt.sess, tt.page))
		})
	}

	want := RenderTarget{View: ViewGuardianPortal, Title: portalTitle, StudentID: "std-1"}
	for _, p := range append(AdminPages, "", "anything") {
		assert.Equal(t, want, r.Resolve(ctx, guardian, p), "page %q", p)
	}
}

func TestRouter_Resolve_linkedStudentNotFound(t *testing.T) {
	fx := school.SeedFixtures()
	db, err := inmemdb.Open(fx)
	require.NoError(t, err)
	r := NewRouter(inmemdb.NewRoster(db))
	ctx := context.Background()

	tests := []struct {
		name string
		sess Session
	}{
		{"missing student", Session{State: StateGuardian, Identifier: "11122233344", StudentID: "std-99"}},
		{"student of another guardian", Session{State: StateGuardian, Identifier: "11122233344", StudentID: "std-2"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rt := r.Resolve(ctx, tt.sess, PageDashboard)
			assert.Equal(t, ViewError, rt.View)
			assert.Equal(t, ErrLinkedStudentNotFound.Error(), rt.Error)
			assert.True(t, errors.Is(rt.Err(), ErrLinkedStudentNotFound))
		})
	}
}

func TestPage_Title(t *testing.T) {
	for _, p := range AdminPages {
		assert.True(t, p.Valid())
		assert.NotEmpty(t, p.Title())
	}
	assert.False(t, Page("settings").Valid())
	assert.Empty(t, Page("settings").Title())
}
