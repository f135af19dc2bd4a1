package pipeline

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// Schema definitions enforced against every AI response. bundleSchema gates
// the whole response: failing it counts as a structurally invalid attempt
// and is retried. The section schemas gate quiz and flashcard content
// individually: failing one drops that section only.
const (
	bundleSchema = `{
		"type": "object",
		"properties": {
			"summary": {"type": "string", "minLength": 1},
			"quiz": {"type": "array"},
			"flashcards": {"type": "array"}
		},
		"required": ["summary", "quiz", "flashcards"]
	}`

	quizSchema = `{
		"type": "array",
		"minItems": 5,
		"maxItems": 5,
		"items": {
			"type": "object",
			"properties": {
				"question": {"type": "string", "minLength": 1},
				"options": {"type": "array", "items": {"type": "string"}, "minItems": 4, "maxItems": 4},
				"answer": {"type": "string", "minLength": 1},
				"tos_topic_title": {"type": "string"},
				"aligned_bloom_level": {"type": "string"}
			},
			"required": ["question", "options", "answer"]
		}
	}`

	flashcardSchema = `{
		"type": "array",
		"minItems": 10,
		"maxItems": 10,
		"items": {
			"type": "object",
			"properties": {
				"question": {"type": "string", "minLength": 1},
				"answer": {"type": "string", "minLength": 1},
				"tos_topic_title": {"type": "string"},
				"aligned_bloom_level": {"type": "string"}
			},
			"required": ["question", "answer"]
		}
	}`
)

// validateSchema checks a JSON document against a schema and flattens the
// validation errors into one error value.
func validateSchema(schema string, doc []byte) error {
	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(schema),
		gojsonschema.NewBytesLoader(doc),
	)
	if err != nil {
		return fmt.Errorf("schema validation: %w", err)
	}
	if !result.Valid() {
		var msgs []string
		for _, e := range result.Errors() {
			msgs = append(msgs, e.String())
		}
		return fmt.Errorf("schema violations: %s", strings.Join(msgs, "; "))
	}
	return nil
}
