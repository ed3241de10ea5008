package credential

import (
	"context"
	"errors"
	"sync"

	"github.com/cebe/gestao/core"
)

var (
	// errors
	ErrNotFound            = errors.New("credential not found")
	ErrDuplicateIdentifier = errors.New("this CPF is already registered")
)

type (
	// AdminRepository persists the whole admin list as one slot.
	AdminRepository interface {
		LoadAdmins(ctx context.Context) ([]Admin, error)
		SaveAdmins(ctx context.Context, admins []Admin) error
	}

	// GuardianRepository persists the whole guardian list as one slot.
	GuardianRepository interface {
		LoadGuardians(ctx context.Context) ([]Guardian, error)
		SaveGuardians(ctx context.Context, guardians []Guardian) error
	}

	// Store is the Credential Store. It reads through to its repositories on every call,
	// so state written by another process (or the admin CLI) is visible immediately.
	Store struct {
		admins    AdminRepository
		guardians GuardianRepository
		mu        sync.Mutex
	}
)

func NewStore(admins AdminRepository, guardians GuardianRepository) *Store {
	return &Store{admins: admins, guardians: guardians}
}

func (s *Store) FindAdmin(ctx context.Context, identifier string) (Admin, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	canon := Canonicalize(identifier)
	if canon == "" {
		return Admin{}, ErrNotFound
	}
	admins, err := s.admins.LoadAdmins(ctx)
	if err != nil {
		return Admin{}, err
	}
	for _, a := range admins {
		if a.Canonical() == canon {
			return a, nil
		}
	}
	return Admin{}, ErrNotFound
}

func (s *Store) FindAdminByEmail(ctx context.Context, email string) (Admin, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	email = core.CleanString(email, true /* lower */)
	if email == "" {
		return Admin{}, ErrNotFound
	}
	admins, err := s.admins.LoadAdmins(ctx)
	if err != nil {
		return Admin{}, err
	}
	for _, a := range admins {
		if core.CleanString(a.Email, true) == email {
			return a, nil
		}
	}
	return Admin{}, ErrNotFound
}

// AddAdmin appends adm unless an admin with the same canonical identifier exists.
func (s *Store) AddAdmin(ctx context.Context, adm Admin) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	admins, err := s.admins.LoadAdmins(ctx)
	if err != nil {
		return err
	}
	canon := adm.Canonical()
	for _, a := range admins {
		if a.Canonical() == canon {
			return ErrDuplicateIdentifier
		}
	}
	return s.admins.SaveAdmins(ctx, append(admins, adm))
}

// ReplaceAdmin overwrites the stored admin with adm's canonical identifier.
func (s *Store) ReplaceAdmin(ctx context.Context, adm Admin) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	admins, err := s.admins.LoadAdmins(ctx)
	if err != nil {
		return err
	}
	canon := adm.Canonical()
	for i, a := range admins {
		if a.Canonical() == canon {
			admins[i] = adm
			return s.admins.SaveAdmins(ctx, admins)
		}
	}
	return ErrNotFound
}

func (s *Store) FindGuardian(ctx context.Context, identifier string) (Guardian, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	canon := Canonicalize(identifier)
	if canon == "" {
		return Guardian{}, ErrNotFound
	}
	guardians, err := s.guardians.LoadGuardians(ctx)
	if err != nil {
		return Guardian{}, err
	}
	for _, g := range guardians {
		if g.Canonical() == canon {
			return g, nil
		}
	}
	return Guardian{}, ErrNotFound
}

func (s *Store) FindGuardianByEmail(ctx context.Context, email string) (Guardian, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	email = core.CleanString(email, true /* lower */)
	if email == "" {
		return Guardian{}, ErrNotFound
	}
	guardians, err := s.guardians.LoadGuardians(ctx)
	if err != nil {
		return Guardian{}, err
	}
	for _, g := range guardians {
		if core.CleanString(g.Email, true) == email {
			return g, nil
		}
	}
	return Guardian{}, ErrNotFound
}

// UpsertGuardian creates or replaces the guardian record with the same canonical identifier.
func (s *Store) UpsertGuardian(ctx context.Context, grd Guardian) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	guardians, err := s.guardians.LoadGuardians(ctx)
	if err != nil {
		return err
	}
	canon := grd.Canonical()
	replaced := false
	for i, g := range guardians {
		if g.Canonical() == canon {
			guardians[i] = grd
			replaced = true
			break
		}
	}
	if !replaced {
		guardians = append(guardians, grd)
	}
	return s.guardians.SaveGuardians(ctx, guardians)
}
