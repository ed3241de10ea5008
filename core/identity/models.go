package identity

import (
	"github.com/go-playground/validator/v10"

	"github.com/cebe/gestao/core"
)

type Role string

const (
	RoleAdmin    Role = "admin"
	RoleGuardian Role = "guardian"
)

func (r Role) Valid() bool { return r == RoleAdmin || r == RoleGuardian }

// Outcome is what a successful authentication grants.
type Outcome struct {
	Role        Role   `json:"role"`
	Identifier  string `json:"identifier"` // canonical
	DisplayName string `json:"display_name"`
	StudentID   string `json:"student_id,omitempty"` // guardians only
}

// NewAdmin contains information needed to register an administrative user.
type NewAdmin struct {
	Name       string `json:"name" validate:"notblank"`
	Phone      string `json:"phone" validate:"required,phone"`
	Identifier string `json:"identifier" validate:"required,cpf"`
	Email      string `json:"email" validate:"required,email"`
	Password   string `json:"password" validate:"required"`
}

func (na *NewAdmin) Validate(validate *validator.Validate) error {
	na.Name = core.CleanString(na.Name)
	na.Phone = core.CleanString(na.Phone)
	na.Identifier = core.CleanString(na.Identifier)
	na.Email = core.CleanString(na.Email, true /* lower */)
	return validate.Struct(na)
}

// PasswordReset replaces an admin's password using the link mailed by RequestRecovery.
type PasswordReset struct {
	UID             string `json:"uid" validate:"required"`
	Token           string `json:"token" validate:"required"`
	Password        string `json:"password" validate:"required"`
	PasswordConfirm string `json:"password_confirm"`
}

func (pr *PasswordReset) Validate(validate *validator.Validate) error {
	pr.UID = core.CleanString(pr.UID)
	pr.Token = core.CleanString(pr.Token)
	return validate.Struct(pr)
}

// GuardianBootstrap sets (or replaces) a guardian's portal password.
type GuardianBootstrap struct {
	Identifier      string `json:"identifier" validate:"required"`
	Email           string `json:"email" validate:"omitempty,email"`
	Password        string `json:"password" validate:"required"`
	PasswordConfirm string `json:"password_confirm"`
}

func (gb *GuardianBootstrap) Validate(validate *validator.Validate) error {
	gb.Identifier = core.CleanString(gb.Identifier)
	gb.Email = core.CleanString(gb.Email, true /* lower */)
	return validate.Struct(gb)
}
