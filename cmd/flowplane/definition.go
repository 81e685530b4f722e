package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/flowplane/flowplane/pkg/agents"
	"github.com/flowplane/flowplane/pkg/models"
	"github.com/flowplane/flowplane/pkg/validation"
)

// loadDefinition reads a definition file and gates the raw bytes against
// the JSON Schema before decoding into the typed model. Schema violations
// fail the load with every finding listed.
func loadDefinition(path string) (*models.WorkflowDefinition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read definition file: %w", err)
	}

	checked, err := validation.Document(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse definition file: %w", err)
	}

	if !checked.Valid() {
		details := make([]string, 0, len(checked.Errors))
		for _, issue := range checked.Errors {
			details = append(details, issue.Detail)
		}

		return nil, fmt.Errorf("definition violates the schema: %s", strings.Join(details, "; "))
	}

	var def models.WorkflowDefinition
	if err := json.Unmarshal(data, &def); err != nil {
		return nil, fmt.Errorf("failed to parse definition file: %w", err)
	}

	return &def, nil
}

// loadAgents reads a JSON array of agents. An empty path yields an empty
// directory: every agent reference then renders as an error on the canvas.
func loadAgents(path string) (*agents.Directory, error) {
	if path == "" {
		return agents.NewDirectory(nil), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read agents file: %w", err)
	}

	var list []models.Agent
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("failed to parse agents file: %w", err)
	}

	return agents.NewDirectory(list), nil
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}

	data = append(data, '\n')

	if path == "" || path == "-" {
		_, err = os.Stdout.Write(data)

		return err
	}

	return os.WriteFile(path, data, 0600)
}
