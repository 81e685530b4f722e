package validation

import (
	"github.com/xeipuuv/gojsonschema"
)

// definitionSchema gates raw definition documents before they are decoded
// into the typed model. It checks shape, not semantics: Definition covers
// the rest.
var definitionSchema = map[string]any{
	"type":     "object",
	"required": []string{"id"},
	"properties": map[string]any{
		"id":          map[string]any{"type": "string", "minLength": 1},
		"name":        map[string]any{"type": "string"},
		"description": map[string]any{"type": "string"},
		"entry_step":  map[string]any{"type": "string"},
		"context":     map[string]any{"type": "object"},
		"trigger": map[string]any{
			"type":     "object",
			"required": []string{"type"},
			"properties": map[string]any{
				"type": map[string]any{
					"type": "string",
					"enum": []string{"manual", "webhook", "schedule"},
				},
				"webhook_config": map[string]any{"type": "object"},
				"schedule":       map[string]any{"type": "string"},
			},
		},
		"steps": map[string]any{
			"type": "array",
			"items": map[string]any{
				"type":     "object",
				"required": []string{"id", "type"},
				"properties": map[string]any{
					"id": map[string]any{"type": "string", "minLength": 1},
					"type": map[string]any{
						"type": "string",
						"enum": []string{"agent", "conditional", "parallel", "loop", "approval"},
					},
					"name":     map[string]any{"type": "string"},
					"timeout":  map[string]any{"type": "integer", "minimum": 0},
					"retries":  map[string]any{"type": "integer", "minimum": 0},
					"on_error": map[string]any{"type": "string"},
				},
			},
		},
	},
}

// Document validates a raw definition document against the JSON Schema. The
// error covers schema-engine failures (malformed JSON included); schema
// violations land in the result as errors.
func Document(raw []byte) (Result, error) {
	schemaLoader := gojsonschema.NewGoLoader(definitionSchema)
	documentLoader := gojsonschema.NewBytesLoader(raw)

	checked, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return Result{}, err
	}

	var result Result

	for _, desc := range checked.Errors() {
		result.AddError(CodeSchemaViolation, "", desc.String())
	}

	return result, nil
}
