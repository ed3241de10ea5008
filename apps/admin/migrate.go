package main

import (
	"context"

	"github.com/cebe/gestao/storage/database"
)

var (
	defaultMigrateFunc = database.Migrate
	migrateFunc        = defaultMigrateFunc // mockable
)

func (cli *commandLine) migrate(args []string) error {
	db, err := cli.openDB(context.Background())
	if err != nil {
		return err
	}
	defer db.Close()

	arguments := make([]string, 0)
	if len(args) > 1 {
		arguments = append(arguments, args[1:]...)
	}
	return migrateFunc(db, args[0], arguments...)
}
