package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/pflag"
	"golang.org/x/term"

	"github.com/cebe/gestao/core/identity"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	usageOutput io.Writer = os.Stderr

	errHelp = errors.New("help provided")
)

type commandLine struct {
	identitySvc *identity.Service
	openDB      func(ctx context.Context) (*sql.DB, error)
}

func (cli *commandLine) printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  adduser --name NAME --phone PHONE --cpf CPF --email EMAIL - register an admin; the password is prompted next")
	fmt.Println("  bootstrapguardian --cpf CPF [--email EMAIL] - set a guardian's portal password; prompted twice")
	fmt.Println("  migrate COMMAND [ARGS] - run a goose command (up, down, status, version, ...) on the database")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	addUserCmd := newFlagSet("adduser", "--name NAME --phone PHONE --cpf CPF --email EMAIL")
	addUserName := addUserCmd.String("name", "", "The admin's full name.")
	addUserPhone := addUserCmd.String("phone", "", "The admin's phone number.")
	addUserCPF := addUserCmd.String("cpf", "", "The admin's CPF, used to sign in.")
	addUserEmail := addUserCmd.String("email", "", "The admin's email address.")

	bootstrapCmd := newFlagSet("bootstrapguardian", "--cpf CPF [--email EMAIL]")
	bootstrapCPF := bootstrapCmd.String("cpf", "", "The guardian's CPF as listed on the roster.")
	bootstrapEmail := bootstrapCmd.String("email", "", "Optional recovery email.")

	switch args[1] {
	case "adduser":
		if err := parse(addUserCmd, args[2:]); err != nil {
			return err
		}
		if *addUserName == "" || *addUserPhone == "" || *addUserCPF == "" || *addUserEmail == "" {
			addUserCmd.Usage()
			return errHelp
		}
		pwd, err := promptPassword("Enter password:")
		if err != nil {
			return err
		}
		if pwd == "" {
			addUserCmd.Usage()
			return errHelp
		}
		return cli.addUser(*addUserName, *addUserPhone, *addUserCPF, *addUserEmail, pwd)

	case "bootstrapguardian":
		if err := parse(bootstrapCmd, args[2:]); err != nil {
			return err
		}
		if *bootstrapCPF == "" {
			bootstrapCmd.Usage()
			return errHelp
		}
		pwd, err := promptPassword("Enter password:")
		if err != nil {
			return err
		}
		if pwd == "" {
			bootstrapCmd.Usage()
			return errHelp
		}
		confirm, err := promptPassword("Confirm password:")
		if err != nil {
			return err
		}
		return cli.bootstrapGuardian(*bootstrapCPF, *bootstrapEmail, pwd, confirm)

	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(args[2:])

	default:
		cli.printUsage()
		return errHelp
	}
}

// newFlagSet returns a flag set whose Usage prints synopsis and flags to stderr.
// pflag leaves Usage nil on new sets.
func newFlagSet(name, synopsis string) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.SetOutput(usageOutput)
	fs.Usage = func() {
		_, _ = fmt.Fprintf(usageOutput, "Usage: admin %s %s\n", name, synopsis)
		fs.PrintDefaults()
	}
	return fs
}

func parse(fs *pflag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return errHelp
		}
		return err
	}
	return nil
}

func promptPassword(prompt string) (string, error) {
	fmt.Print(prompt)
	pwd, err := readPasswordFunc(int(os.Stdin.Fd()))
	fmt.Println()
	if err != nil {
		return "", err
	}
	return string(pwd), nil
}
