// Package main provides the Flowplane command-line tool for working with
// workflow definition files offline.
package main

import (
	"context"
	"os"

	cli "github.com/urfave/cli/v3"

	"github.com/flowplane/flowplane/pkg/log"
)

func main() {
	command := &cli.Command{
		Name:                  "flowplane",
		Usage:                 "Inspect and transform workflow definition files",
		EnableShellCompletion: true,
		Commands: []*cli.Command{
			ValidateCommand(),
			CompileCommand(),
			LayoutCommand(),
		},
	}

	if err := command.Run(context.Background(), os.Args); err != nil {
		log.WithModule("cli").Error("Command failed", "error", err)
		os.Exit(1)
	}
}
