// Package transcript defines the timestamped token model produced by
// speech recognition and shared by the derivation stages.
package transcript
