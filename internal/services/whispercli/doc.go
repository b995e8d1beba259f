// Package whispercli runs the whisper.cpp command line binary for
// speech-to-text and parses its JSON output into transcript tokens.
package whispercli
