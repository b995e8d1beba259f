// Package runlog persists a journal of pipeline runs in SQLite. Each run
// records the source, model, stage progress, and outcome, so `clive runs`
// can show history and a rerun can explain which cached artifacts it
// reused.
package runlog
