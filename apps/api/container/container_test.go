package container

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	echoapi "github.com/cebe/gestao/apps/api/echo"
	"github.com/cebe/gestao/core"
	"github.com/cebe/gestao/core/session"
)

func TestNew(t *testing.T) {
	t.Setenv("ENV", "TEST")
	t.Setenv("TEST_STORAGE_DRIVER", "memory")

	c := New()
	err := c.Invoke(func(conf *core.Config, server *echoapi.Server, sessions *session.Controller) {
		assert.True(t, conf.TestMode)
		assert.Equal(t, "memory", conf.Storage.Driver)

		body := strings.NewReader(`{"role":"admin","identifier":"123.456.789-00","password":"123456"}`)
		req := httptest.NewRequest(http.MethodPost, "/v1/auth/login", body)
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		server.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Equal(t, session.StateAdmin, sessions.Current().State)
	})
	require.NoError(t, err)
}
