// Package ffprobe wraps the ffprobe binary for container inspection. The
// pipeline uses it to validate audio track selections before extraction and
// to learn the media duration for window clamping.
package ffprobe
