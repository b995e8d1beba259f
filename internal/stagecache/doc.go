// Package stagecache stores intermediate pipeline artifacts on disk so
// reruns can skip stages whose inputs have not changed. Artifacts are
// content-addressed: each stage derives a fingerprint from its inputs plus
// the fingerprint of the stage before it, so any upstream change invalidates
// everything downstream.
//
// Layout under the cache root:
//
//	models/       downloaded whisper models, shared across runs
//	audio/        extracted WAV tracks keyed by source fingerprint
//	transcripts/  transcript documents keyed by audio+model fingerprint
//	clips/        clip manifests keyed by transcript+rules fingerprint
//	runs/         per-run fingerprint manifests
//
// Use `clive cache show` to inspect usage and `clive cache clear` to drop
// derived artifacts.
package stagecache
