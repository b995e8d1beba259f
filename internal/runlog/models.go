package runlog

import (
	"strings"
	"time"
)

// Status represents the lifecycle of a pipeline run.
type Status string

const (
	StatusPending           Status = "pending"
	StatusFetchingModel     Status = "fetching_model"
	StatusModelReady        Status = "model_ready"
	StatusExtracting        Status = "extracting"
	StatusAudioExtracted    Status = "audio_extracted"
	StatusTranscribing      Status = "transcribing"
	StatusTranscribed       Status = "transcribed"
	StatusDeriving          Status = "deriving"
	StatusWindowsMerged     Status = "windows_merged"
	StatusCutting           Status = "cutting"
	StatusClipsMaterialized Status = "clips_materialized"
	StatusCompleted         Status = "completed"
	StatusFailed            Status = "failed"
)

var allStatuses = []Status{
	StatusPending,
	StatusFetchingModel,
	StatusModelReady,
	StatusExtracting,
	StatusAudioExtracted,
	StatusTranscribing,
	StatusTranscribed,
	StatusDeriving,
	StatusWindowsMerged,
	StatusCutting,
	StatusClipsMaterialized,
	StatusCompleted,
	StatusFailed,
}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

// AllStatuses returns the ordered list of known statuses.
func AllStatuses() []Status {
	cp := make([]Status, len(allStatuses))
	copy(cp, allStatuses)
	return cp
}

// ParseStatus converts a string into a known Status.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := statusSet[normalized]
	return normalized, ok
}

// IsTerminal reports whether the status ends a run.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Run represents one pipeline invocation persisted in SQLite.
type Run struct {
	ID           int64
	RunID        string
	SourcePath   string
	Model        string
	Status       Status
	Stage        string
	Message      string
	ErrorMessage string
	ClipsTotal   int
	ClipsDone    int
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// SetStage records stage progress and clears any stale error.
func (r *Run) SetStage(status Status, message string) {
	r.Status = status
	r.Stage = string(status)
	r.Message = message
	r.ErrorMessage = ""
}

// SetFailed marks the run as failed with the given error message.
func (r *Run) SetFailed(message string) {
	r.Status = StatusFailed
	r.Stage = string(StatusFailed)
	r.Message = message
	r.ErrorMessage = message
}
