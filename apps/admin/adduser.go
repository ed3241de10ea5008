package main

import (
	"context"

	"github.com/cebe/gestao/core/identity"
)

// addUser registers an admin credential.
func (cli *commandLine) addUser(name, phone, cpf, email, pwd string) error {
	_, err := cli.identitySvc.RegisterAdmin(context.Background(), identity.NewAdmin{
		Name:       name,
		Phone:      phone,
		Identifier: cpf,
		Email:      email,
		Password:   pwd,
	})
	return err
}

// bootstrapGuardian sets the portal password of a rostered guardian.
func (cli *commandLine) bootstrapGuardian(cpf, email, pwd, confirm string) error {
	return cli.identitySvc.BootstrapGuardianPassword(context.Background(), identity.GuardianBootstrap{
		Identifier:      cpf,
		Email:           email,
		Password:        pwd,
		PasswordConfirm: confirm,
	})
}
