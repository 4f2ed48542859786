package cli

import (
	"context"

	"github.com/jido/runtime/internal/config"
)

// Host is the callback a cmd/ entrypoint wires into Execute so the
// start command runs the actual assembled runtime instead of merely
// validating configuration. Run should block until ctx is canceled.
type Host interface {
	Run(ctx context.Context, cfg *config.Config) error
}

var runner Host
