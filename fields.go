package searchcrawl

import (
	"context"
	"strings"
)

// ExtractRequest asks a language model to pull structured fields out of
// crawled pages.
type ExtractRequest struct {
	// Model overrides the implementation's default model when set.
	Model string `json:"model,omitempty"`

	// Instruction tells the model what to extract.
	Instruction string `json:"instruction"`

	// JSONSchema describes the object the model must return.
	JSONSchema map[string]any `json:"json_schema"`
}

// Validate returns an error if the request contains invalid fields.
func (r *ExtractRequest) Validate() error {
	if strings.TrimSpace(r.Instruction) == "" {
		return Errorf(EINVALID, "extract instruction required")
	}
	if len(r.JSONSchema) == 0 {
		return Errorf(EINVALID, "extract JSON schema required")
	}
	return nil
}

// FieldExtractor turns crawled pages into a JSON object that matches a schema.
type FieldExtractor interface {
	ExtractFields(ctx context.Context, req *ExtractRequest, pages []*ScrapeResult) (map[string]any, error)
}
