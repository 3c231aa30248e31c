package analyzer

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// analysisSchema accepts what models actually return: every field is
// optional and may be null, and summary may come back as a list of bullets.
var analysisSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"summary": map[string]any{
			"oneOf": []any{
				map[string]any{"type": []any{"string", "null"}},
				map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
			},
		},
		"actionItems": map[string]any{
			"type": []any{"array", "null"},
			"items": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"task":     map[string]any{"type": []any{"string", "null"}},
					"dueDate":  map[string]any{"type": []any{"string", "null"}},
					"priority": map[string]any{"type": []any{"string", "null"}},
				},
			},
		},
		"tags": map[string]any{
			"type":  []any{"array", "null"},
			"items": map[string]any{"type": "string"},
		},
	},
}

func compileSchema(schemaMap map[string]any) (*jsonschema.Schema, error) {
	b, err := json.Marshal(schemaMap)
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("analysis.json", bytes.NewReader(b)); err != nil {
		return nil, fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile("analysis.json")
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return schema, nil
}

func validate(schema *jsonschema.Schema, data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("unmarshal data: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("json does not match schema: %w", err)
	}
	return nil
}
