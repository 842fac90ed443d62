package httpadapter

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/kirillkom/journal-assistant/internal/core/domain"
)

//go:embed openapi.yaml
var openAPISpec []byte

// requestValidator checks request bodies against the component schemas of
// the embedded OpenAPI document.
type requestValidator struct {
	schemas openapi3.Schemas
}

func newRequestValidator() (*requestValidator, error) {
	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromData(openAPISpec)
	if err != nil {
		return nil, fmt.Errorf("load openapi document: %w", err)
	}
	if err := doc.Validate(context.Background()); err != nil {
		return nil, fmt.Errorf("validate openapi document: %w", err)
	}
	return &requestValidator{schemas: doc.Components.Schemas}, nil
}

func (v *requestValidator) validate(schemaName string, body []byte) error {
	ref, ok := v.schemas[schemaName]
	if !ok || ref.Value == nil {
		return fmt.Errorf("unknown schema %q", schemaName)
	}

	var value any
	if err := json.Unmarshal(body, &value); err != nil {
		return domain.WrapError(domain.ErrInvalidInput, "decode request", err)
	}
	if err := ref.Value.VisitJSON(value, openapi3.MultiErrors()); err != nil {
		return domain.WrapError(domain.ErrInvalidInput, "validate "+schemaName, err)
	}
	return nil
}
