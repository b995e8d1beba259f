package stage_test

import (
	"context"
	"errors"
	"testing"

	"clive/internal/runlog"
	"clive/internal/stage"
	"clive/internal/testsupport"
)

type fakeHandler struct {
	prepareErr error
	executeErr error
	executed   bool
}

func (f *fakeHandler) Prepare(context.Context, *runlog.Run) error { return f.prepareErr }
func (f *fakeHandler) Execute(_ context.Context, _ *runlog.Run) error {
	f.executed = true
	return f.executeErr
}
func (f *fakeHandler) HealthCheck(context.Context) stage.Health { return stage.Healthy("fake") }

func newRun(t *testing.T) (*runlog.Store, *runlog.Run) {
	t.Helper()
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	return store, testsupport.NewRun(t, store, "/in.mkv", "base")
}

func TestRunAdvancesToDoneStatus(t *testing.T) {
	store, run := newRun(t)
	handler := &fakeHandler{}

	err := stage.Run(context.Background(), stage.Options{
		Store:      store,
		Handler:    handler,
		StageName:  "extract",
		Processing: runlog.StatusExtracting,
		Done:       runlog.StatusAudioExtracted,
		Run:        run,
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !handler.executed {
		t.Fatal("handler not executed")
	}
	persisted, err := store.GetByRunID(context.Background(), run.RunID)
	if err != nil {
		t.Fatal(err)
	}
	if persisted.Status != runlog.StatusAudioExtracted {
		t.Fatalf("status = %q, want audio_extracted", persisted.Status)
	}
}

func TestRunKeepsHandlerAdvancedStatus(t *testing.T) {
	store, run := newRun(t)
	handler := &fakeHandler{}
	advance := &statusAdvancingHandler{inner: handler, to: runlog.StatusCompleted}

	err := stage.Run(context.Background(), stage.Options{
		Store:      store,
		Handler:    advance,
		StageName:  "cut",
		Processing: runlog.StatusCutting,
		Done:       runlog.StatusClipsMaterialized,
		Run:        run,
	})
	if err != nil {
		t.Fatal(err)
	}
	if run.Status != runlog.StatusCompleted {
		t.Fatalf("status = %q, handler advancement overridden", run.Status)
	}
}

type statusAdvancingHandler struct {
	inner *fakeHandler
	to    runlog.Status
}

func (h *statusAdvancingHandler) Prepare(ctx context.Context, run *runlog.Run) error {
	return h.inner.Prepare(ctx, run)
}
func (h *statusAdvancingHandler) Execute(ctx context.Context, run *runlog.Run) error {
	if err := h.inner.Execute(ctx, run); err != nil {
		return err
	}
	run.SetStage(h.to, "done early")
	return nil
}
func (h *statusAdvancingHandler) HealthCheck(ctx context.Context) stage.Health {
	return h.inner.HealthCheck(ctx)
}

func TestRunRecordsFailure(t *testing.T) {
	store, run := newRun(t)
	boom := errors.New("whisper exploded")
	handler := &fakeHandler{executeErr: boom}

	err := stage.Run(context.Background(), stage.Options{
		Store:      store,
		Handler:    handler,
		StageName:  "transcribe",
		Processing: runlog.StatusTranscribing,
		Done:       runlog.StatusTranscribed,
		Run:        run,
	})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want original error", err)
	}
	persisted, getErr := store.GetByRunID(context.Background(), run.RunID)
	if getErr != nil {
		t.Fatal(getErr)
	}
	if persisted.Status != runlog.StatusFailed {
		t.Fatalf("status = %q, want failed", persisted.Status)
	}
	if persisted.ErrorMessage == "" {
		t.Fatal("error message not recorded")
	}
}

func TestRunPrepareFailureSkipsExecute(t *testing.T) {
	store, run := newRun(t)
	handler := &fakeHandler{prepareErr: errors.New("not ready")}

	err := stage.Run(context.Background(), stage.Options{
		Store:      store,
		Handler:    handler,
		StageName:  "extract",
		Processing: runlog.StatusExtracting,
		Done:       runlog.StatusAudioExtracted,
		Run:        run,
	})
	if err == nil {
		t.Fatal("expected prepare failure")
	}
	if handler.executed {
		t.Fatal("execute ran after prepare failure")
	}
}
