package echoapi

import (
	"strings"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/cebe/gestao/core"
	"github.com/cebe/gestao/core/session"
)

const tokenContextKey = "sessionToken"

// Claims represents the authorization claims transmitted via a JWT.
// A token is only honoured while its session id is the live session.
type Claims struct {
	jwt.StandardClaims
	SessionID string        `json:"sid"`
	Role      session.State `json:"role"`
	StudentID string        `json:"student_id,omitempty"` // -> GUARDIAN PORTAL
}

func newJWTConfig(conf *core.Config) middleware.JWTConfig {
	return middleware.JWTConfig{
		SigningKey:    []byte(conf.SecretKey),
		SigningMethod: middleware.AlgorithmHS256,
		ContextKey:    tokenContextKey,
		Claims:        new(Claims),
	}
}

func (s *Server) sessionClaims(sess session.Session) *Claims {
	now := time.Now()
	return &Claims{
		StandardClaims: jwt.StandardClaims{
			Issuer:    s.conf.AppName,
			Subject:   sess.Identifier,
			ExpiresAt: now.Add(s.conf.Server.JWTExpirationDelta).Unix(),
			IssuedAt:  now.Unix(),
		},
		SessionID: sess.ID,
		Role:      sess.State,
		StudentID: sess.StudentID,
	}
}

// GenerateToken generates a signed JWT token string representing the session Claims.
func (s *Server) GenerateToken(sess session.Session) (string, error) {
	method := jwt.GetSigningMethod(s.jwtConfig.SigningMethod)
	token := jwt.NewWithClaims(method, s.sessionClaims(sess))

	ss, err := token.SignedString(s.jwtConfig.SigningKey)
	if err != nil {
		return "", errors.Wrap(err, "signing token")
	}
	return ss, nil
}

func getContextClaims(ctx echo.Context, contextKey string) (Claims, error) {
	if token, ok := ctx.Get(contextKey).(*jwt.Token); ok {
		if claims, ok := token.Claims.(*Claims); ok {
			return *claims, nil
		}
	}
	return Claims{}, errUnauthorized
}

// bearerClaims parses the Authorization header when present, for endpoints that also serve anonymous callers.
func (s *Server) bearerClaims(ctx echo.Context) (Claims, bool) {
	auth := ctx.Request().Header.Get(echo.HeaderAuthorization)
	const prefix = "Bearer "
	if !strings.HasPrefix(auth, prefix) {
		return Claims{}, false
	}
	claims := new(Claims)
	token, err := jwt.ParseWithClaims(auth[len(prefix):], claims, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != s.jwtConfig.SigningMethod {
			return nil, errors.Errorf("unexpected jwt signing method=%v", t.Header["alg"])
		}
		return s.jwtConfig.SigningKey, nil
	})
	if err != nil || !token.Valid {
		return Claims{}, false
	}
	return *claims, true
}

// requestSession is the live session when the request carries its token, else Anonymous.
func (s *Server) requestSession(ctx echo.Context, sessions *session.Controller) session.Session {
	claims, ok := s.bearerClaims(ctx)
	if !ok {
		return session.Anonymous()
	}
	if cur := sessions.Current(); cur.Authenticated() && cur.ID == claims.SessionID {
		return cur
	}
	return session.Anonymous()
}
