package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/cebe/gestao/core/credential"
	"github.com/cebe/gestao/core/session"
)

type viewApi struct {
	server   *Server
	sessions *session.Controller
	router   *session.Router
}

func registerViewAPI(g *echo.Group, jwt, live echo.MiddlewareFunc, s *Server, deps ServerDeps) {
	api := viewApi{server: s, sessions: deps.Sessions, router: deps.Router}

	g.GET("/session", api.currentSession)
	g.GET("/view", api.resolve)
	g.PUT("/view/:page", api.navigate, jwt, live, adminMiddleware())
	g.GET("/format/cpf", formatCPF)
}

// Handlers

func (api *viewApi) currentSession(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, api.server.requestSession(ctx, api.sessions))
}

// resolve answers with the render target for ?page=, or the selected page when absent.
// Callers without the live session's token always get the login view.
func (api *viewApi) resolve(ctx echo.Context) error {
	sess := api.server.requestSession(ctx, api.sessions)
	page := session.Page(ctx.QueryParam("page"))
	if page == "" {
		page = api.sessions.Page()
	}
	rt := api.router.Resolve(ctx.Request().Context(), sess, page)
	return ctx.JSON(http.StatusOK, rt)
}

func (api *viewApi) navigate(ctx echo.Context) error {
	if _, err := api.sessions.Navigate(session.Page(ctx.Param("page"))); err != nil {
		return errors.Wrap(err, "navigating")
	}
	return ctx.JSON(http.StatusOK, api.sessions.View(ctx.Request().Context()))
}

func formatCPF(ctx echo.Context) error {
	value := ctx.QueryParam("value")
	return ctx.JSON(http.StatusOK, FormattedIdentifier{
		Formatted: credential.FormatCPF(value),
		Canonical: credential.Canonicalize(value),
	})
}

// Bindings

type FormattedIdentifier struct {
	Formatted string `json:"formatted"`
	Canonical string `json:"canonical"`
}
