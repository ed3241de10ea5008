package identity

import (
	"errors"

	"github.com/cebe/gestao/core/credential"
)

// Every error here carries the message shown to the user as is.
var (
	ErrInvalidRole               = errors.New("unknown access profile")
	ErrInvalidAdminCredentials   = errors.New("invalid CPF or password, please try again")
	ErrUnknownGuardianIdentifier = errors.New("this CPF is not registered as the guardian of any student")
	ErrWrongPassword             = errors.New("wrong password")
	ErrFirstAccessRequired       = errors.New("first access: set your portal password before signing in")
	ErrDuplicateIdentifier       = credential.ErrDuplicateIdentifier
	ErrPasswordMismatch          = errors.New("passwords do not match")
	ErrOperationInProgress       = errors.New("another request is already being processed, please wait")
	ErrInvalidResetToken         = errors.New("this password reset link is invalid")
	ErrResetTokenExpired         = errors.New("this password reset link has expired")
)
