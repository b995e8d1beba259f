// Package pipeline orchestrates a clip extraction run: model acquisition,
// audio extraction, transcription, window derivation, and clip cutting.
// Each stage records its transition in the run journal and resolves its
// output from the stage cache before doing any work, so an interrupted run
// resumes from the last completed stage.
package pipeline
