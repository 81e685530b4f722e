package main

import (
	"context"
	"fmt"

	cli "github.com/urfave/cli/v3"

	"github.com/flowplane/flowplane/pkg/canvas"
)

func CompileCommand() *cli.Command {
	return &cli.Command{
		Name:      "compile",
		Aliases:   []string{"c"},
		Usage:     "Compile a workflow definition into its canvas graph",
		ArgsUsage: "<definition.json>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "agents",
				Aliases: []string{"a"},
				Usage:   "JSON file with the known agents, for readiness resolution",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Write the graph to this file instead of stdout",
			},
		},
		Action: func(_ context.Context, command *cli.Command) error {
			path := command.Args().First()
			if path == "" {
				return fmt.Errorf("definition file path is required")
			}

			def, err := loadDefinition(path)
			if err != nil {
				return err
			}

			directory, err := loadAgents(command.String("agents"))
			if err != nil {
				return err
			}

			graph := canvas.Compile(def, nil, canvas.BuildContext{Agents: directory})

			return writeJSON(command.String("output"), graph)
		},
	}
}
