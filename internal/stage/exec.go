package stage

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode"

	"clive/internal/logging"
	"clive/internal/runlog"
	"clive/internal/services"
)

// Options controls stage execution and run journal persistence behavior.
type Options struct {
	Logger     *slog.Logger
	Store      *runlog.Store
	Handler    Handler
	StageName  string
	Processing runlog.Status
	Done       runlog.Status
	Run        *runlog.Run
}

// Run executes one stage and applies journal transition semantics: the run
// moves to the processing status before Prepare, and to the done status
// after a successful Execute unless the handler already advanced it.
// Failures mark the run failed and surface the original error.
func Run(ctx context.Context, opts Options) error {
	if opts.Handler == nil {
		return fmt.Errorf("stage handler unavailable: %s", opts.StageName)
	}
	if opts.Store == nil {
		return fmt.Errorf("run store is required")
	}
	if opts.Run == nil {
		return fmt.Errorf("run record is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	stageLogger := logger.With(logging.String(logging.FieldStage, opts.StageName))

	stageLogger.InfoContext(ctx, "stage started",
		logging.String(logging.FieldEventType, "stage_start"),
		logging.String(logging.FieldRunID, opts.Run.RunID),
		logging.String("source_file", strings.TrimSpace(opts.Run.SourcePath)))

	opts.Run.SetStage(opts.Processing, fmt.Sprintf("%s started", stageLabel(opts.Processing)))
	if err := opts.Store.Update(ctx, opts.Run); err != nil {
		return fmt.Errorf("persist processing transition: %w", err)
	}

	if err := opts.Handler.Prepare(ctx, opts.Run); err != nil {
		return handleFailure(ctx, stageLogger, opts.Store, opts.Run, err)
	}
	if err := opts.Store.Update(ctx, opts.Run); err != nil {
		return fmt.Errorf("persist stage preparation: %w", err)
	}

	if err := opts.Handler.Execute(ctx, opts.Run); err != nil {
		return handleFailure(ctx, stageLogger, opts.Store, opts.Run, err)
	}

	if opts.Run.Status == opts.Processing || opts.Run.Status == "" {
		opts.Run.SetStage(opts.Done, fmt.Sprintf("%s finished", stageLabel(opts.Processing)))
	}
	if err := opts.Store.Update(ctx, opts.Run); err != nil {
		return fmt.Errorf("persist stage result: %w", err)
	}

	stageLogger.InfoContext(ctx, "stage completed",
		logging.String(logging.FieldEventType, "stage_complete"),
		logging.String("next_status", string(opts.Run.Status)))
	return nil
}

func handleFailure(ctx context.Context, logger *slog.Logger, store *runlog.Store, run *runlog.Run, stageErr error) error {
	message := "stage failed"
	if stageErr != nil {
		message = strings.TrimSpace(stageErr.Error())
	}
	run.SetFailed(message)

	logger.ErrorContext(ctx, "stage failed",
		logging.String(logging.FieldEventType, "stage_failure"),
		logging.Bool("fatal", services.Fatal(stageErr)),
		logging.Error(stageErr))
	if err := store.Update(ctx, run); err != nil {
		logger.ErrorContext(ctx, "failed to persist stage failure", logging.Error(err))
	}
	return stageErr
}

func stageLabel(status runlog.Status) string {
	parts := strings.Fields(strings.ReplaceAll(string(status), "_", " "))
	for i, part := range parts {
		runes := []rune(strings.ToLower(part))
		runes[0] = unicode.ToUpper(runes[0])
		parts[i] = string(runes)
	}
	return strings.Join(parts, " ")
}
