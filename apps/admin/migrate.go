package main

import (
	"github.com/trezcool/goose"

	"github.com/trezcool/shule/fs"
)

var gooseRunFunc = goose.RunFS // mockable

// migrate dispatches a goose command against the embedded migrations.
// args[0] is the goose command; the rest are passed through as its arguments.
func (cli *commandLine) migrate(args []string) error {
	var rest []string
	if len(args) > 1 {
		rest = args[1:]
	}
	return gooseRunFunc(args[0], cli.db.DB, appfs.FS, "migrations", rest...)
}
