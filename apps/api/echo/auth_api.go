package echoapi

import (
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/cebe/gestao/core"
	"github.com/cebe/gestao/core/credential"
	"github.com/cebe/gestao/core/identity"
	"github.com/cebe/gestao/core/session"
)

type authApi struct {
	server   *Server
	svc      *identity.Service
	sessions *session.Controller
	validate *validator.Validate
}

func registerAuthAPI(g *echo.Group, jwt, live echo.MiddlewareFunc, s *Server, deps ServerDeps) {
	api := authApi{
		server:   s,
		svc:      deps.IdentitySvc,
		sessions: deps.Sessions,
		validate: deps.Validate,
	}

	ag := g.Group("/auth")

	// un-authed endpoints
	ag.POST("/login", api.login)
	ag.POST("/register", api.register)
	ag.POST("/guardian/bootstrap", api.bootstrapGuardian)
	ag.POST("/password-recovery", api.requestRecovery)
	ag.POST("/password-reset", api.resetPassword)

	// authed endpoints
	ag.POST("/logout", api.logout, jwt, live)
}

// Handlers

func (api *authApi) login(ctx echo.Context) error {
	var data LoginRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to LoginRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	rctx := ctx.Request().Context()
	sess, err := api.sessions.Login(rctx, identity.Role(data.Role), data.Identifier, data.Password)
	if err != nil {
		return errors.Wrap(err, "signing in")
	}
	token, err := api.server.GenerateToken(sess)
	if err != nil {
		return errors.Wrap(err, "generating token")
	}

	return ctx.JSON(http.StatusOK, LoginResponse{
		Token:   token,
		Session: sess,
		View:    api.sessions.View(rctx),
	})
}

func (api *authApi) logout(ctx echo.Context) error {
	api.sessions.Logout()
	return ctx.NoContent(http.StatusNoContent)
}

func (api *authApi) register(ctx echo.Context) error {
	var data identity.NewAdmin
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewAdmin")
	}

	adm, err := api.svc.RegisterAdmin(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "registering admin")
	}
	return ctx.JSON(http.StatusCreated, newAdminResponse(adm))
}

func (api *authApi) bootstrapGuardian(ctx echo.Context) error {
	var data identity.GuardianBootstrap
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to GuardianBootstrap")
	}

	if err := api.svc.BootstrapGuardianPassword(ctx.Request().Context(), data); err != nil {
		return errors.Wrap(err, "bootstrapping guardian password")
	}
	return ctx.JSON(http.StatusOK, SuccessResponse{Success: "Password set. You can now sign in to the guardian portal."})
}

func (api *authApi) requestRecovery(ctx echo.Context) error {
	var data RecoveryRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to RecoveryRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	err := api.svc.RequestRecovery(ctx.Request().Context(), data.Email)
	switch {
	case err == nil, errors.Is(err, credential.ErrNotFound):
	case errors.Is(err, identity.ErrOperationInProgress):
		return err
	default:
		// do not return errors to attackers
		ctx.Logger().Errorf("%+v", errors.Wrap(err, "requesting password recovery"))
	}
	return ctx.JSON(http.StatusOK, SuccessResponse{
		Success: "If the email address supplied is linked to an account on this system, " +
			"an email will arrive in your inbox shortly with instructions to recover your access.",
	})
}

func (api *authApi) resetPassword(ctx echo.Context) error {
	var data identity.PasswordReset
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to PasswordReset")
	}

	if err := api.svc.ResetAdminPassword(ctx.Request().Context(), data); err != nil {
		return errors.Wrap(err, "resetting password")
	}
	return ctx.JSON(http.StatusOK, SuccessResponse{Success: "Your password has been reset. You can now sign in."})
}

// Bindings

type (
	LoginRequest struct {
		Role       string `json:"role" validate:"required,oneof=admin guardian"`
		Identifier string `json:"identifier" validate:"required"`
		Password   string `json:"password" validate:"required"`
	}

	LoginResponse struct {
		Token   string               `json:"token"`
		Session session.Session      `json:"session"`
		View    session.RenderTarget `json:"view"`
	}

	RecoveryRequest struct {
		Email string `json:"email" validate:"required,email"`
	}

	SuccessResponse struct {
		Success string `json:"success"`
	}

	AdminResponse struct {
		CPF       string    `json:"cpf"`
		Name      string    `json:"name"`
		Phone     string    `json:"phone"`
		Email     string    `json:"email"`
		CreatedAt time.Time `json:"created_at"`
	}
)

func (lr *LoginRequest) Validate(validate *validator.Validate) error {
	lr.Role = core.CleanString(lr.Role, true /* lower */)
	lr.Identifier = core.CleanString(lr.Identifier)
	return validate.Struct(lr)
}

func (rr *RecoveryRequest) Validate(validate *validator.Validate) error {
	rr.Email = core.CleanString(rr.Email, true /* lower */)
	return validate.Struct(rr)
}

func newAdminResponse(adm credential.Admin) AdminResponse {
	return AdminResponse{
		CPF:       adm.Identifier,
		Name:      adm.Name,
		Phone:     adm.Phone,
		Email:     adm.Email,
		CreatedAt: adm.CreatedAt,
	}
}
