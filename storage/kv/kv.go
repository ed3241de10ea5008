package kv

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/cebe/gestao/core"
	"github.com/cebe/gestao/core/credential"
)

var ErrCorruptSlot = errors.New("stored value is not a list")

const cpfDigits = 11

// Store is a durable key/value slot store. Get returns nil, nil when key is absent.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Close() error
}

type (
	storedAdmin struct {
		credential.Admin
		Password string `json:"password,omitempty"` // legacy plaintext records
	}

	storedGuardian struct {
		credential.Guardian
		Password string `json:"password,omitempty"`
	}
)

// CredentialRepository keeps admins and guardians as JSON arrays in two slots.
// Records failing validation are dropped on load; legacy plaintext passwords are hashed.
type CredentialRepository struct {
	store        Store
	adminSlot    string
	guardianSlot string
	validate     *validator.Validate
	logger       core.Logger
}

var (
	_ credential.AdminRepository    = (*CredentialRepository)(nil)
	_ credential.GuardianRepository = (*CredentialRepository)(nil)
)

func NewCredentialRepository(store Store, conf *core.Config, logger core.Logger) *CredentialRepository {
	return &CredentialRepository{
		store:        store,
		adminSlot:    conf.Storage.AdminSlot,
		guardianSlot: conf.Storage.GuardianSlot,
		validate:     validator.New(),
		logger:       logger,
	}
}

// slot reads key as a list of raw records. An absent or empty slot is an empty list.
func (repo *CredentialRepository) slot(ctx context.Context, key string) ([]json.RawMessage, error) {
	data, err := repo.store.Get(ctx, key)
	if err != nil {
		return nil, errors.Wrapf(err, "reading slot %q", key)
	}
	if len(data) == 0 {
		return nil, nil
	}
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		// saving over it would lose every credential in the slot
		return nil, core.NewShutdownError(errors.Wrapf(ErrCorruptSlot, "slot %q", key))
	}
	return raw, nil
}

func (repo *CredentialRepository) put(ctx context.Context, key string, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return errors.Wrapf(err, "encoding slot %q", key)
	}
	if err := repo.store.Set(ctx, key, data); err != nil {
		return errors.Wrapf(err, "writing slot %q", key)
	}
	return nil
}

func (repo *CredentialRepository) drop(key string, idx int, reason string) {
	repo.logger.Warn(fmt.Sprintf("slot %q: dropping record #%d: %s", key, idx, reason))
}

func (repo *CredentialRepository) LoadAdmins(ctx context.Context) ([]credential.Admin, error) {
	raw, err := repo.slot(ctx, repo.adminSlot)
	if err != nil {
		return nil, err
	}
	admins := make([]credential.Admin, 0, len(raw))
	for i, r := range raw {
		var rec storedAdmin
		if err := json.Unmarshal(r, &rec); err != nil {
			repo.drop(repo.adminSlot, i, err.Error())
			continue
		}
		if len(rec.SecretHash) == 0 && rec.Password != "" {
			if err := rec.SetSecret(rec.Password); err != nil {
				return nil, err
			}
		}
		if reason := repo.checkAdmin(rec.Admin); reason != "" {
			repo.drop(repo.adminSlot, i, reason)
			continue
		}
		admins = append(admins, rec.Admin)
	}
	return admins, nil
}

func (repo *CredentialRepository) checkAdmin(adm credential.Admin) string {
	switch {
	case len(adm.Canonical()) != cpfDigits:
		return "invalid CPF"
	case len(adm.SecretHash) == 0:
		return "missing password"
	case core.CleanString(adm.Name) == "":
		return "missing name"
	case adm.Email != "" && repo.validate.Var(adm.Email, "email") != nil:
		return "invalid email"
	}
	return ""
}

func (repo *CredentialRepository) SaveAdmins(ctx context.Context, admins []credential.Admin) error {
	if admins == nil {
		admins = []credential.Admin{}
	}
	return repo.put(ctx, repo.adminSlot, admins)
}

func (repo *CredentialRepository) LoadGuardians(ctx context.Context) ([]credential.Guardian, error) {
	raw, err := repo.slot(ctx, repo.guardianSlot)
	if err != nil {
		return nil, err
	}
	guardians := make([]credential.Guardian, 0, len(raw))
	for i, r := range raw {
		var rec storedGuardian
		if err := json.Unmarshal(r, &rec); err != nil {
			repo.drop(repo.guardianSlot, i, err.Error())
			continue
		}
		if len(rec.SecretHash) == 0 && rec.Password != "" {
			if err := rec.SetSecret(rec.Password); err != nil {
				return nil, err
			}
		}
		switch {
		case len(rec.Canonical()) != cpfDigits:
			repo.drop(repo.guardianSlot, i, "invalid CPF")
			continue
		case len(rec.SecretHash) == 0:
			repo.drop(repo.guardianSlot, i, "missing password")
			continue
		}
		guardians = append(guardians, rec.Guardian)
	}
	return guardians, nil
}

func (repo *CredentialRepository) SaveGuardians(ctx context.Context, guardians []credential.Guardian) error {
	if guardians == nil {
		guardians = []credential.Guardian{}
	}
	return repo.put(ctx, repo.guardianSlot, guardians)
}
