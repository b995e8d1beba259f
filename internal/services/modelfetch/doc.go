// Package modelfetch downloads whisper ggml models from Hugging Face into
// the model cache. Downloads are guarded by a file lock so concurrent runs
// never fetch the same model twice, and land via temp-file + rename so a
// killed download never leaves a corrupt model behind.
package modelfetch
