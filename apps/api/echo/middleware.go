package echoapi

import (
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/cebe/gestao/core/session"
)

const contextSessionKey = "session"

// liveSessionMiddleware rejects tokens of sessions that were logged out or replaced.
func liveSessionMiddleware(tokenKey string, sessions *session.Controller) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			claims, err := getContextClaims(ctx, tokenKey)
			if err != nil {
				return errors.Wrap(err, "getting context claims")
			}
			cur := sessions.Current()
			if !cur.Authenticated() || cur.ID != claims.SessionID {
				return errSessionEnded
			}
			ctx.Set(contextSessionKey, cur)
			return next(ctx)
		}
	}
}

func stateMiddleware(state session.State) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			if getContextSession(ctx).State == state {
				return next(ctx)
			}
			return errHttpForbidden
		}
	}
}

func adminMiddleware() echo.MiddlewareFunc    { return stateMiddleware(session.StateAdmin) }
func guardianMiddleware() echo.MiddlewareFunc { return stateMiddleware(session.StateGuardian) }

func getContextSession(ctx echo.Context) session.Session {
	if sess, ok := ctx.Get(contextSessionKey).(session.Session); ok {
		return sess
	}
	return session.Anonymous()
}
