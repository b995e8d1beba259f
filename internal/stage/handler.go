// Package stage defines the contract each pipeline stage implements and a
// helper that executes a stage with run journal transitions applied.
package stage

import (
	"context"

	"clive/internal/runlog"
)

// Handler describes the contract the pipeline needs from each stage.
type Handler interface {
	Prepare(context.Context, *runlog.Run) error
	Execute(context.Context, *runlog.Run) error
	HealthCheck(context.Context) Health
}
