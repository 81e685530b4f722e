package main

import (
	"context"
	"fmt"
	"time"

	cli "github.com/urfave/cli/v3"

	"github.com/flowplane/flowplane/pkg/agents"
	"github.com/flowplane/flowplane/pkg/canvas"
	"github.com/flowplane/flowplane/pkg/models"
)

func LayoutCommand() *cli.Command {
	return &cli.Command{
		Name:      "layout",
		Aliases:   []string{"l"},
		Usage:     "Compute auto-layout positions for a workflow definition",
		ArgsUsage: "<definition.json>",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "save",
				Usage: "Write the positions back into the definition file",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Write the positions to this file instead of stdout",
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

			// Saved positions are deliberately ignored: the command
			// recomputes the full layout from scratch.
			def.Context = models.WithCanvasLayout(def.Context, models.CanvasLayout{})

			graph := canvas.Compile(def, nil, canvas.BuildContext{Agents: agents.NewDirectory(nil)})
			positions := graph.Positions()

			if command.Bool("save") {
				def.Context = models.WithCanvasLayout(def.Context, models.CanvasLayout{
					Positions: positions,
					SavedAt:   time.Now().UTC(),
				})

				return writeJSON(path, def)
			}

			return writeJSON(command.String("output"), positions)
		},
	}
}
