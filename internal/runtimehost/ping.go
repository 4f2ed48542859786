package runtimehost

import (
	"context"
	"time"

	"github.com/jido/runtime/pkg/action"
)

const pingSchema = `{
  "type": "object",
  "properties": {
    "echo": {"type": "string"}
  }
}`

// newPingAction builds the one native action the host registers
// itself: a liveness check that echoes its input back, wrapped in a
// SchemaValidator so cfg.Action.StrictValidation has a concrete,
// exercised effect on at least one in-process action.
func newPingAction(strict bool) (action.Action, error) {
	validator, err := action.NewSchemaValidator(pingSchema)
	if err != nil {
		return nil, err
	}
	validator.WithStrict(strict)

	return pingAction{validator: validator}, nil
}

type pingAction struct {
	validator *action.SchemaValidator
}

func (p pingAction) ValidateParams(params map[string]interface{}) error {
	return p.validator.ValidateParams(params)
}

// ValidateParamsStrict implements action.StrictAwareValidator, letting a
// caller's per-signal `strict_validation` opt override the host-config
// default set at construction (cfg.Action.StrictValidation).
func (p pingAction) ValidateParamsStrict(params map[string]interface{}, strict bool) error {
	return p.validator.ValidateParamsStrict(params, strict)
}

func (p pingAction) Run(ctx context.Context, params, runContext map[string]interface{}) action.Outcome {
	result := map[string]interface{}{
		"pong": true,
		"at":   time.Now().UTC().Format(time.RFC3339),
	}
	if echo, ok := params["echo"]; ok {
		result["echo"] = echo
	}
	return action.Ok(result)
}
