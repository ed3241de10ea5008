package echoapi

import (
	"net/http"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/cebe/gestao/core"
	"github.com/cebe/gestao/core/identity"
	"github.com/cebe/gestao/core/session"
)

var (
	errUnauthorized  = echo.NewHTTPError(http.StatusUnauthorized, "not authenticated")
	errSessionEnded  = echo.NewHTTPError(http.StatusUnauthorized, "this session has ended, please sign in again")
	errHttpForbidden = echo.NewHTTPError(http.StatusForbidden, "permission denied")
)

// domainErrorCodes maps user-facing domain errors to their status code.
var domainErrorCodes = []struct {
	err  error
	code int
}{
	{identity.ErrInvalidRole, http.StatusBadRequest},
	{identity.ErrInvalidAdminCredentials, http.StatusUnauthorized},
	{identity.ErrWrongPassword, http.StatusUnauthorized},
	{identity.ErrUnknownGuardianIdentifier, http.StatusNotFound},
	{identity.ErrFirstAccessRequired, http.StatusForbidden},
	{identity.ErrDuplicateIdentifier, http.StatusConflict},
	{identity.ErrPasswordMismatch, http.StatusBadRequest},
	{identity.ErrOperationInProgress, http.StatusTooManyRequests},
	{identity.ErrInvalidResetToken, http.StatusBadRequest},
	{identity.ErrResetTokenExpired, http.StatusBadRequest},
	{session.ErrLinkedStudentNotFound, http.StatusConflict},
	{session.ErrNotAdmin, http.StatusForbidden},
}

func domainError(err error) (int, bool) {
	for _, de := range domainErrorCodes {
		if errors.Is(err, de.err) {
			return de.code, true
		}
	}
	return 0, false
}

// newAppHTTPErrorHandler returns a custom echo.HTTPErrorHandler that knows how to handle our errors.
// signalShutdown is called in order to gracefully shutdown the Server whenever a core.shutdown error is caught.
func newAppHTTPErrorHandler(logger core.Logger, translator ut.Translator, signalShutdown func()) echo.HTTPErrorHandler {
	return func(err error, ctx echo.Context) {
		var code int
		var message interface{}

		if dcode, ok := domainError(err); ok {
			code = dcode
			cause := errors.Cause(err)
			if errors.Is(err, identity.ErrFirstAccessRequired) {
				message = echo.Map{"error": cause.Error(), "first_access": true}
			} else {
				message = cause.Error()
			}
		} else {
			switch origErr := errors.Cause(err).(type) {
			case *echo.HTTPError:
				if origErr == middleware.ErrJWTMissing {
					code = http.StatusUnauthorized
					message = origErr.Message
					break
				}
				if origErr.Internal != nil {
					if herr, ok := origErr.Internal.(*echo.HTTPError); ok {
						origErr = herr
					}
				}
				code = origErr.Code
				message = origErr.Message
			case validator.ValidationErrors:
				code = http.StatusBadRequest
				message = core.TranslateErrors(origErr, translator)
			default: // any other error is a server error
				code = http.StatusInternalServerError
				msg := http.StatusText(http.StatusInternalServerError)
				message = msg

				logger.Error(msg, errors.Wrap(err, msg), getContextSession(ctx))

				// shutting down...
				if core.IsShutdown(err) {
					signalShutdown()
				}
			}
		}

		if ctx.Echo().Debug && code == http.StatusInternalServerError {
			message = err.Error()
		}
		if m, ok := message.(string); ok {
			message = echo.Map{"error": m}
		}

		// Send response
		if !ctx.Response().Committed {
			if ctx.Request().Method == http.MethodHead { // Issue #608
				err = ctx.NoContent(code)
			} else {
				err = ctx.JSON(code, message)
			}
			if err != nil {
				ctx.Echo().Logger.Error(err)
			}
		}
	}
}
