package validator

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// Schema validates payloads against a compiled JSON Schema document.
// It is safe for concurrent use.
type Schema struct {
	name   string
	schema *jsonschema.Schema
}

// Compile compiles a JSON Schema document. name identifies the schema in errors.
func Compile(name string, document []byte) (*Schema, error) {
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(document))
	if err != nil {
		return nil, errors.Join(ErrInvalidSchema, fmt.Errorf("unmarshal %s: %w", name, err))
	}

	url := name + ".json"
	c := jsonschema.NewCompiler()
	if err := c.AddResource(url, doc); err != nil {
		return nil, errors.Join(ErrInvalidSchema, fmt.Errorf("add %s: %w", name, err))
	}
	schema, err := c.Compile(url)
	if err != nil {
		return nil, errors.Join(ErrInvalidSchema, fmt.Errorf("compile %s: %w", name, err))
	}
	return &Schema{name: name, schema: schema}, nil
}

// MustCompile is like Compile but panics on error.
func MustCompile(name string, document []byte) *Schema {
	s, err := Compile(name, document)
	if err != nil {
		panic(err)
	}
	return s
}

// Name returns the schema name.
func (s *Schema) Name() string {
	return s.name
}

// Validate checks v against the schema. Go values are normalized through JSON
// first, so structs and typed maps validate the same way decoded bodies do.
func (s *Schema) Validate(v any) error {
	instance, err := normalize(v)
	if err != nil {
		return errors.Join(ErrInvalidPayload, err)
	}
	if err := s.schema.Validate(instance); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidPayload, err.Error())
	}
	return nil
}

func normalize(v any) (any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return jsonschema.UnmarshalJSON(bytes.NewReader(raw))
}
