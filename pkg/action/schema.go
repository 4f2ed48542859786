package action

import (
	"encoding/json"
	"fmt"

	"github.com/xeipuuv/gojsonschema"
)

// SchemaValidator implements ParamValidator by checking params against
// a JSON schema. Actions that only need shape validation (rather than
// bespoke logic) can embed a SchemaValidator instead of hand-writing
// ValidateParams. Both the lenient and strict (additionalProperties
// forced false) forms of the schema are compiled once at construction
// and never mutated afterward, so a single SchemaValidator can be
// shared safely across the concurrent Run calls an Executor serving
// many agents produces.
type SchemaValidator struct {
	schema       *gojsonschema.Schema
	strictSchema *gojsonschema.Schema
	strict       bool
}

// NewSchemaValidator compiles a JSON schema document (as a Go value or
// raw JSON string) into a reusable validator.
func NewSchemaValidator(schemaDoc interface{}) (*SchemaValidator, error) {
	schema, err := compileSchema(schemaDoc)
	if err != nil {
		return nil, err
	}

	strictSchema, err := compileSchema(forbidAdditionalProperties(schemaDoc))
	if err != nil {
		// sealing the schema against additional properties broke
		// compilation (e.g. an unparseable doc); strict mode falls back
		// to the lenient schema rather than leaving the validator unusable.
		strictSchema = schema
	}

	return &SchemaValidator{schema: schema, strictSchema: strictSchema}, nil
}

// WithStrict sets the validator's default strictness, used by
// ValidateParams. Per-call overrides go through ValidateParamsStrict.
func (v *SchemaValidator) WithStrict(strict bool) *SchemaValidator {
	v.strict = strict
	return v
}

// ValidateParams implements action.ParamValidator, validating against
// the validator's configured default strictness.
func (v *SchemaValidator) ValidateParams(params map[string]interface{}) error {
	return v.validate(params, v.strict)
}

// ValidateParamsStrict implements action.StrictAwareValidator,
// validating against an explicit strictness that overrides the
// validator's configured default — the mechanism by which a per-signal
// `strict_validation` opt (§6) reaches schema validation.
func (v *SchemaValidator) ValidateParamsStrict(params map[string]interface{}, strict bool) error {
	return v.validate(params, strict)
}

func (v *SchemaValidator) validate(params map[string]interface{}, strict bool) error {
	schema := v.schema
	if strict {
		schema = v.strictSchema
	}

	documentLoader := gojsonschema.NewGoLoader(params)

	result, err := schema.Validate(documentLoader)
	if err != nil {
		return fmt.Errorf("validate params: %w", err)
	}

	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			msgs = append(msgs, e.String())
		}
		return fmt.Errorf("params failed schema validation: %v", msgs)
	}

	return nil
}

func compileSchema(schemaDoc interface{}) (*gojsonschema.Schema, error) {
	loader, err := schemaLoader(schemaDoc)
	if err != nil {
		return nil, err
	}

	schema, err := gojsonschema.NewSchema(loader)
	if err != nil {
		return nil, fmt.Errorf("compile action schema: %w", err)
	}

	return schema, nil
}

func schemaLoader(schemaDoc interface{}) (gojsonschema.JSONLoader, error) {
	switch v := schemaDoc.(type) {
	case string:
		return gojsonschema.NewStringLoader(v), nil
	case []byte:
		return gojsonschema.NewBytesLoader(v), nil
	default:
		raw, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("marshal schema: %w", err)
		}
		return gojsonschema.NewBytesLoader(raw), nil
	}
}

// forbidAdditionalProperties returns a copy of schemaDoc with
// additionalProperties set to false wherever it isn't already specified,
// at the root object and within each nested object property one level
// deep. Schemas that already declare additionalProperties are left
// untouched so an action can still opt back into a permissive shape.
func forbidAdditionalProperties(schemaDoc interface{}) interface{} {
	doc, err := normalizeToMap(schemaDoc)
	if err != nil {
		return schemaDoc
	}

	sealObject(doc)
	return doc
}

func normalizeToMap(schemaDoc interface{}) (map[string]interface{}, error) {
	var raw []byte
	switch v := schemaDoc.(type) {
	case string:
		raw = []byte(v)
	case []byte:
		raw = v
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		raw = b
	}

	var doc map[string]interface{}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func sealObject(doc map[string]interface{}) {
	if _, ok := doc["additionalProperties"]; !ok {
		if _, isObject := doc["properties"]; isObject {
			doc["additionalProperties"] = false
		}
	}

	if props, ok := doc["properties"].(map[string]interface{}); ok {
		for _, v := range props {
			if nested, ok := v.(map[string]interface{}); ok {
				if _, isObject := nested["properties"]; isObject {
					sealObject(nested)
				}
			}
		}
	}
}
