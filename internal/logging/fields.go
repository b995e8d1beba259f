package logging

// Standardized attribute keys shared across the pipeline.
const (
	FieldComponent   = "component"
	FieldEventType   = "event_type"
	FieldStage       = "stage"
	FieldRunID       = "run_id"
	FieldFingerprint = "fingerprint"
	FieldKeyword     = "keyword"
	FieldTrack       = "track"
	FieldErrorHint   = "error_hint"
	FieldImpact      = "impact"
)
