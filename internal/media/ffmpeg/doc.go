// Package ffmpeg shells out to the ffmpeg binary for the two media
// transformations the pipeline needs: extracting audio tracks as
// whisper-ready WAV files and cutting clips by stream copy.
package ffmpeg
