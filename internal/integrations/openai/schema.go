package openai

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/invopop/jsonschema"

	"talksense/internal/domain"
)

const (
	propertiesKey           = "properties"
	additionalPropertiesKey = "additionalProperties"
	typeKey                 = "type"
	requiredKey             = "required"
	itemsKey                = "items"
)

// Schema returns the strict structured-output schema for domain.AnalysisResult.
func Schema() (map[string]any, error) {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties:  false,
		DoNotReference:             true,
		RequiredFromJSONSchemaTags: true,
	}
	schema := reflector.Reflect(domain.AnalysisResult{})
	b, err := schema.MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("openai: marshal schema: %w", err)
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("openai: decode schema: %w", err)
	}
	delete(m, "$schema")
	delete(m, "$id")
	strictify(m)
	return m, nil
}

// strictify marks every object closed and every property required, which
// strict mode demands.
func strictify(schema map[string]any) {
	if t, ok := schema[typeKey].(string); ok && t == "object" {
		schema[additionalPropertiesKey] = false
		if props, ok := schema[propertiesKey].(map[string]any); ok && len(props) > 0 {
			required := make([]string, 0, len(props))
			for name := range props {
				required = append(required, name)
			}
			sort.Strings(required)
			schema[requiredKey] = required
		}
	}
	if props, ok := schema[propertiesKey].(map[string]any); ok {
		for _, prop := range props {
			if m, ok := prop.(map[string]any); ok {
				strictify(m)
			}
		}
	}
	if items, ok := schema[itemsKey].(map[string]any); ok {
		strictify(items)
	}
}
