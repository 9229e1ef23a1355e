// internal/api/validation.go
package api

import (
	"fmt"

	"github.com/xeipuuv/gojsonschema"
)

type submitSectionRequest struct {
	EntityID string               `json:"entityId"`
	Fields   []fieldReviewRequest `json:"fields"`
}

type fieldReviewRequest struct {
	Name    string `json:"name"`
	Flagged bool   `json:"flagged"`
	Comment string `json:"comment"`
}

var submitSectionSchema = map[string]interface{}{
	"type":     "object",
	"required": []interface{}{"entityId", "fields"},
	"properties": map[string]interface{}{
		"entityId": map[string]interface{}{
			"type":      "string",
			"minLength": 1,
		},
		"fields": map[string]interface{}{
			"type": "array",
			"items": map[string]interface{}{
				"type":     "object",
				"required": []interface{}{"name"},
				"properties": map[string]interface{}{
					"name": map[string]interface{}{
						"type":      "string",
						"minLength": 1,
					},
					"flagged": map[string]interface{}{"type": "boolean"},
					"comment": map[string]interface{}{"type": "string"},
				},
			},
		},
	},
}

// validateSubmitSection checks the decoded body against the request schema
// before any domain validation runs.
func validateSubmitSection(body *submitSectionRequest) error {
	doc := map[string]interface{}{
		"entityId": body.EntityID,
		"fields":   make([]interface{}, 0, len(body.Fields)),
	}
	fields := doc["fields"].([]interface{})
	for _, f := range body.Fields {
		fields = append(fields, map[string]interface{}{
			"name":    f.Name,
			"flagged": f.Flagged,
			"comment": f.Comment,
		})
	}
	doc["fields"] = fields

	schemaLoader := gojsonschema.NewGoLoader(submitSectionSchema)
	documentLoader := gojsonschema.NewGoLoader(doc)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return fmt.Errorf("validation error: %w", err)
	}
	if !result.Valid() {
		errs := make([]string, len(result.Errors()))
		for i, desc := range result.Errors() {
			errs[i] = desc.String()
		}
		return fmt.Errorf("request validation failed: %v", errs)
	}
	return nil
}
