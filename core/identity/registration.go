package identity

import (
	"context"
	"fmt"
	"net/mail"

	"github.com/pkg/errors"

	"github.com/cebe/gestao/core"
	"github.com/cebe/gestao/core/credential"
)

// RegisterAdmin appends a new admin credential and mails a welcome message.
func (svc *Service) RegisterAdmin(ctx context.Context, na NewAdmin) (credential.Admin, error) {
	done, err := svc.begin(ctx)
	if err != nil {
		return credential.Admin{}, err
	}
	defer done()

	if err := na.Validate(svc.validate); err != nil {
		return credential.Admin{}, err
	}

	adm := credential.Admin{
		Identifier: credential.FormatCPF(na.Identifier),
		Name:       na.Name,
		Phone:      credential.FormatPhone(na.Phone),
		Email:      na.Email,
		CreatedAt:  svc.now(),
	}
	if err := adm.SetSecret(na.Password); err != nil {
		return credential.Admin{}, errors.Wrap(err, "hashing secret")
	}
	if err := svc.store.AddAdmin(ctx, adm); err != nil {
		return credential.Admin{}, err // ErrDuplicateIdentifier included
	}

	svc.sendMail(&core.EmailMessage{
		To:           []mail.Address{{Name: adm.Name, Address: adm.Email}},
		Subject:      "Welcome",
		TemplateName: "admin_welcome",
		TemplateData: map[string]string{"Name": adm.Name, "CPF": adm.Identifier},
	})
	return adm, nil
}

// BootstrapGuardianPassword sets the portal password of a guardian listed on the roster.
// Nothing is written unless both password entries match.
func (svc *Service) BootstrapGuardianPassword(ctx context.Context, gb GuardianBootstrap) error {
	done, err := svc.begin(ctx)
	if err != nil {
		return err
	}
	defer done()

	if gb.Password != gb.PasswordConfirm {
		return ErrPasswordMismatch
	}
	if err := gb.Validate(svc.validate); err != nil {
		return err
	}
	if _, err := svc.firstStudentOf(ctx, gb.Identifier); err != nil {
		return err
	}

	grd := credential.Guardian{
		Identifier: credential.FormatCPF(gb.Identifier),
		Email:      gb.Email,
		UpdatedAt:  svc.now(),
	}
	if err := grd.SetSecret(gb.Password); err != nil {
		return errors.Wrap(err, "hashing secret")
	}
	return svc.store.UpsertGuardian(ctx, grd)
}

// ResetAdminPassword replaces the password of the admin a reset link was issued for.
// Issuing a new password invalidates every link issued before.
func (svc *Service) ResetAdminPassword(ctx context.Context, pr PasswordReset) error {
	done, err := svc.begin(ctx)
	if err != nil {
		return err
	}
	defer done()

	if pr.Password != pr.PasswordConfirm {
		return ErrPasswordMismatch
	}
	if err := pr.Validate(svc.validate); err != nil {
		return err
	}

	canon, err := decodeUID(pr.UID)
	if err != nil {
		return ErrInvalidResetToken
	}
	adm, err := svc.store.FindAdmin(ctx, canon)
	if err != nil {
		if errors.Is(err, credential.ErrNotFound) {
			return ErrInvalidResetToken
		}
		return errors.Wrap(err, "loading admins")
	}
	if err := svc.verifyResetToken(adm, pr.Token); err != nil {
		return err
	}

	if err := adm.SetSecret(pr.Password); err != nil {
		return errors.Wrap(err, "hashing secret")
	}
	if err := svc.store.ReplaceAdmin(ctx, adm); err != nil {
		return err
	}
	svc.logger.Info(fmt.Sprintf("admin %s reset their password", maskIdentifier(adm.Canonical())))
	return nil
}
