package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	cli "github.com/urfave/cli/v3"

	"github.com/flowplane/flowplane/pkg/models"
	"github.com/flowplane/flowplane/pkg/validation"
)

func ValidateCommand() *cli.Command {
	return &cli.Command{
		Name:      "validate",
		Aliases:   []string{"v"},
		Usage:     "Check workflow definition files for structural problems",
		ArgsUsage: "<definition.json>...",
		Action: func(_ context.Context, command *cli.Command) error {
			paths := command.Args().Slice()
			if len(paths) == 0 {
				return fmt.Errorf("at least one definition file path is required")
			}

			failed := 0

			for _, path := range paths {
				result, err := validateFile(path)
				if err != nil {
					fmt.Printf("%s: %v\n", path, err)

					failed++

					continue
				}

				for _, warning := range result.Warnings {
					fmt.Printf("%s: warning [%s] %s: %s\n", path, warning.Code, warning.StepID, warning.Detail)
				}

				for _, issue := range result.Errors {
					fmt.Printf("%s: error [%s] %s: %s\n", path, issue.Code, issue.StepID, issue.Detail)
				}

				if !result.Valid() {
					failed++

					continue
				}

				fmt.Printf("%s is valid (%d warning(s))\n", path, len(result.Warnings))
			}

			if failed > 0 {
				return fmt.Errorf("%d of %d file(s) failed validation", failed, len(paths))
			}

			return nil
		},
	}
}

// validateFile runs both validation passes over a definition file: the JSON
// Schema gate on the raw bytes, then the semantic pass on the decoded model.
// The semantic pass is skipped when the schema already rejected the document.
func validateFile(path string) (validation.Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return validation.Result{}, fmt.Errorf("failed to read definition file: %w", err)
	}

	result, err := validation.Document(data)
	if err != nil {
		return validation.Result{}, fmt.Errorf("failed to parse definition file: %w", err)
	}

	if !result.Valid() {
		return result, nil
	}

	var def models.WorkflowDefinition
	if err := json.Unmarshal(data, &def); err != nil {
		return validation.Result{}, fmt.Errorf("failed to parse definition file: %w", err)
	}

	result.Merge(validation.Definition(&def))

	return result, nil
}
