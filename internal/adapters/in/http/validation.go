package http

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/getkin/kin-openapi/openapi3"
)

const (
	schemaCreateOrderRequest    = "CreateOrderRequest"
	schemaCustomerActionRequest = "CustomerActionRequest"
)

// BodyValidator checks request bodies against component schemas of the OpenAPI document.
type BodyValidator struct {
	schemas map[string]*openapi3.Schema
}

// NewBodyValidator resolves the request schemas once; a document missing one is rejected.
func NewBodyValidator(doc *openapi3.T) (*BodyValidator, error) {
	if doc == nil || doc.Components == nil {
		return nil, errors.New("openapi document has no components")
	}

	v := &BodyValidator{schemas: make(map[string]*openapi3.Schema)}
	for _, name := range []string{schemaCreateOrderRequest, schemaCustomerActionRequest} {
		ref, ok := doc.Components.Schemas[name]
		if !ok || ref == nil || ref.Value == nil {
			return nil, fmt.Errorf("openapi document has no %s schema", name)
		}
		v.schemas[name] = ref.Value
	}
	return v, nil
}

// Validate decodes raw as JSON and visits it with the named schema.
func (v *BodyValidator) Validate(schema string, raw []byte) error {
	s, ok := v.schemas[schema]
	if !ok {
		return fmt.Errorf("unknown schema %s", schema)
	}

	var value any
	if err := json.Unmarshal(raw, &value); err != nil {
		return fmt.Errorf("request body is not valid JSON: %w", err)
	}
	if err := s.VisitJSON(value, openapi3.MultiErrors()); err != nil {
		return fmt.Errorf("request body does not match %s: %w", schema, err)
	}
	return nil
}
