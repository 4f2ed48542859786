package workflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOptionsFromMap_StrictValidationAbsentLeavesNilOverride(t *testing.T) {
	o := OptionsFromMap(map[string]interface{}{"timeout": 1000})
	assert.Nil(t, o.StrictValidation)
}

func TestOptionsFromMap_StrictValidationSetsOverride(t *testing.T) {
	o := OptionsFromMap(map[string]interface{}{"strict_validation": true})
	require.NotNil(t, o.StrictValidation)
	assert.True(t, *o.StrictValidation)

	o = OptionsFromMap(map[string]interface{}{"strict_validation": false})
	require.NotNil(t, o.StrictValidation)
	assert.False(t, *o.StrictValidation)
}

func TestOptionsFromMap_StrictValidationWrongTypeIgnored(t *testing.T) {
	o := OptionsFromMap(map[string]interface{}{"strict_validation": "yes"})
	assert.Nil(t, o.StrictValidation, "a non-bool value for strict_validation is ignored, not coerced")
}
