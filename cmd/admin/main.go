package main

import (
	"os"

	"github.com/geocoder89/docvault/internal/config"
)

func main() {
	root := newRootCmd(&app{
		cfg:          config.Load(),
		open:         openPostgres,
		readPassword: readTerminalPassword,
	})

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}
