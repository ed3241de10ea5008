package identity

import (
	"context"
	"crypto/subtle"
	"fmt"
	"net/mail"
	"sync/atomic"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/cebe/gestao/core"
	"github.com/cebe/gestao/core/credential"
	"github.com/cebe/gestao/core/school"
)

const (
	builtinAdminName    = "Administrador"
	derivedSecretDigits = 6
)

// Service resolves credentials into an access grant and manages the credentials behind it.
// At most one credential operation runs at a time: a concurrent call fails fast with
// ErrOperationInProgress instead of queueing.
type Service struct {
	store    *credential.Store
	roster   school.Roster
	validate *validator.Validate
	mailSvc  core.EmailService
	logger   core.Logger
	conf     *core.Config

	busy int32
	wait func(ctx context.Context) error // runs while the gate is held
	now  func() time.Time
}

func NewService(
	store *credential.Store,
	roster school.Roster,
	validate *validator.Validate,
	mailSvc core.EmailService,
	logger core.Logger,
	conf *core.Config,
) *Service {
	svc := &Service{
		store:    store,
		roster:   roster,
		validate: validate,
		mailSvc:  mailSvc,
		logger:   logger,
		conf:     conf,
		now:      func() time.Time { return time.Now().UTC() },
	}
	svc.wait = svc.simulateLatency
	return svc
}

func (svc *Service) simulateLatency(ctx context.Context) error {
	d := svc.conf.Auth.SimulatedLatency
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// begin claims the in-flight gate. The returned func releases it.
func (svc *Service) begin(ctx context.Context) (func(), error) {
	if !atomic.CompareAndSwapInt32(&svc.busy, 0, 1) {
		return nil, ErrOperationInProgress
	}
	release := func() { atomic.StoreInt32(&svc.busy, 0) }
	if err := svc.wait(ctx); err != nil {
		release()
		return nil, err
	}
	return release, nil
}

// Busy reports whether a credential operation is in flight.
func (svc *Service) Busy() bool { return atomic.LoadInt32(&svc.busy) == 1 }

// Authenticate checks identifier/secret for the given role.
func (svc *Service) Authenticate(ctx context.Context, role Role, identifier, secret string) (Outcome, error) {
	if !role.Valid() {
		return Outcome{}, ErrInvalidRole
	}
	done, err := svc.begin(ctx)
	if err != nil {
		return Outcome{}, err
	}
	defer done()

	if role == RoleAdmin {
		return svc.authenticateAdmin(ctx, identifier, secret)
	}
	return svc.authenticateGuardian(ctx, identifier, secret)
}

func (svc *Service) authenticateAdmin(ctx context.Context, identifier, secret string) (Outcome, error) {
	canon := credential.Canonicalize(identifier)
	if canon == "" {
		return Outcome{}, ErrInvalidAdminCredentials
	}

	auth := svc.conf.Auth
	if auth.BuiltinAdminSecret != "" && canon == credential.Canonicalize(auth.BuiltinAdminIdentifier) &&
		secretEqual(secret, auth.BuiltinAdminSecret) {
		return Outcome{Role: RoleAdmin, Identifier: canon, DisplayName: builtinAdminName}, nil
	}

	adm, err := svc.store.FindAdmin(ctx, canon)
	if err != nil {
		if errors.Is(err, credential.ErrNotFound) {
			return Outcome{}, ErrInvalidAdminCredentials
		}
		return Outcome{}, errors.Wrap(err, "loading admins")
	}
	if !adm.CheckSecret(secret) {
		return Outcome{}, ErrInvalidAdminCredentials
	}
	return Outcome{Role: RoleAdmin, Identifier: canon, DisplayName: adm.Name}, nil
}

func (svc *Service) authenticateGuardian(ctx context.Context, identifier, secret string) (Outcome, error) {
	std, err := svc.firstStudentOf(ctx, identifier)
	if err != nil {
		return Outcome{}, err
	}
	canon := credential.Canonicalize(identifier)
	out := Outcome{Role: RoleGuardian, Identifier: canon, DisplayName: std.GuardianName, StudentID: std.ID}

	grd, err := svc.store.FindGuardian(ctx, canon)
	switch {
	case err == nil:
		if !grd.CheckSecret(secret) {
			return Outcome{}, ErrWrongPassword
		}
		return out, nil
	case errors.Is(err, credential.ErrNotFound):
		// no portal password yet: the fallback secrets apply
		if svc.fallbackSecretMatches(canon, secret) {
			svc.logger.Warn(fmt.Sprintf("guardian %s signed in with a fallback password", maskIdentifier(canon)))
			return out, nil
		}
		return Outcome{}, ErrFirstAccessRequired
	default:
		return Outcome{}, errors.Wrap(err, "loading guardians")
	}
}

// fallbackSecretMatches accepts the universal default secret or the first six
// digits of the guardian's canonical identifier.
func (svc *Service) fallbackSecretMatches(canon, secret string) bool {
	if secret == "" {
		return false
	}
	if def := svc.conf.Auth.GuardianDefaultSecret; def != "" && secretEqual(secret, def) {
		return true
	}
	return len(canon) >= derivedSecretDigits && secretEqual(secret, canon[:derivedSecretDigits])
}

// firstStudentOf returns the first student, in roster order, whose guardian has identifier.
func (svc *Service) firstStudentOf(ctx context.Context, identifier string) (school.Student, error) {
	students, err := svc.roster.QueryStudents(ctx)
	if err != nil {
		return school.Student{}, errors.Wrap(err, "querying students")
	}
	for _, s := range students {
		if credential.SameIdentifier(s.GuardianCPF, identifier) {
			return s, nil
		}
	}
	return school.Student{}, ErrUnknownGuardianIdentifier
}

// RequestRecovery mails recovery instructions to the admin or guardian owning email.
// Admins get a reset link; guardians are pointed back to first access.
func (svc *Service) RequestRecovery(ctx context.Context, email string) error {
	done, err := svc.begin(ctx)
	if err != nil {
		return err
	}
	defer done()

	var data recoveryData
	if adm, err := svc.store.FindAdminByEmail(ctx, email); err == nil {
		token, err := svc.makeResetToken(adm)
		if err != nil {
			return errors.Wrap(err, "making reset token")
		}
		data = recoveryData{
			Name:     adm.Name,
			CPF:      adm.Identifier,
			Email:    adm.Email,
			ResetURL: fmt.Sprintf("%s/password-reset/%s/%s", svc.conf.FrontendBaseURL, encodeUID(adm), token),
		}
	} else if !errors.Is(err, credential.ErrNotFound) {
		return errors.Wrap(err, "loading admins")
	} else {
		grd, err := svc.store.FindGuardianByEmail(ctx, email)
		if err != nil {
			return err
		}
		data = recoveryData{CPF: grd.Identifier, Email: grd.Email}
		if std, err := svc.firstStudentOf(ctx, grd.Identifier); err == nil {
			data.Name = std.GuardianName
		}
	}

	svc.sendMail(&core.EmailMessage{
		To:           []mail.Address{{Name: data.Name, Address: data.Email}},
		Subject:      "Password recovery",
		TemplateName: "password_recovery",
		TemplateData: data,
	})
	return nil
}

type recoveryData struct {
	Name     string
	CPF      string
	Email    string
	ResetURL string // admins only; guardians use first access again
}

func (svc *Service) sendMail(msg *core.EmailMessage) {
	if svc.mailSvc == nil {
		return
	}
	svc.mailSvc.SendMessages(msg)
}

func secretEqual(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

// maskIdentifier keeps the last two digits only, for logs.
func maskIdentifier(canon string) string {
	if len(canon) <= 2 {
		return "***"
	}
	return "***" + canon[len(canon)-2:]
}
