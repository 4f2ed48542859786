package action

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const pingLikeSchema = `{
  "type": "object",
  "properties": {
    "echo": {"type": "string"}
  }
}`

func TestSchemaValidatorAllowsUnknownPropertiesByDefault(t *testing.T) {
	v, err := NewSchemaValidator(pingLikeSchema)
	require.NoError(t, err)

	err = v.ValidateParams(map[string]interface{}{
		"echo":    "hi",
		"surplus": "allowed",
	})
	assert.NoError(t, err)
}

func TestSchemaValidatorWithStrictRejectsUnknownProperties(t *testing.T) {
	v, err := NewSchemaValidator(pingLikeSchema)
	require.NoError(t, err)
	v.WithStrict(true)

	err = v.ValidateParams(map[string]interface{}{
		"echo":    "hi",
		"surplus": "not allowed",
	})
	assert.Error(t, err)

	err = v.ValidateParams(map[string]interface{}{"echo": "hi"})
	assert.NoError(t, err)
}

func TestSchemaValidatorWithStrictIsReversible(t *testing.T) {
	v, err := NewSchemaValidator(pingLikeSchema)
	require.NoError(t, err)

	v.WithStrict(true)
	err = v.ValidateParams(map[string]interface{}{"echo": "hi", "extra": 1})
	assert.Error(t, err)

	v.WithStrict(false)
	err = v.ValidateParams(map[string]interface{}{"echo": "hi", "extra": 1})
	assert.NoError(t, err)
}

func TestSchemaValidatorWithStrictHonorsExplicitAdditionalProperties(t *testing.T) {
	schema := `{
		"type": "object",
		"properties": {"echo": {"type": "string"}},
		"additionalProperties": true
	}`
	v, err := NewSchemaValidator(schema)
	require.NoError(t, err)
	v.WithStrict(true)

	err = v.ValidateParams(map[string]interface{}{"echo": "hi", "extra": 1})
	assert.NoError(t, err, "schema already declaring additionalProperties should not be sealed")
}

func TestSchemaValidatorWithStrictSealsNestedObjects(t *testing.T) {
	schema := `{
		"type": "object",
		"properties": {
			"payload": {
				"type": "object",
				"properties": {
					"id": {"type": "string"}
				}
			}
		}
	}`
	v, err := NewSchemaValidator(schema)
	require.NoError(t, err)
	v.WithStrict(true)

	err = v.ValidateParams(map[string]interface{}{
		"payload": map[string]interface{}{"id": "x", "extra": "nope"},
	})
	assert.Error(t, err)
}
