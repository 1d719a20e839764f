package main

import (
	"context"

	"github.com/balkashynov/fencer/internal/commands"
	"github.com/balkashynov/fencer/internal/errors"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	commands.SetVersion(version, commit, date)
	if err := commands.Execute(context.Background()); err != nil {
		errors.Fatal(err)
	}
}
