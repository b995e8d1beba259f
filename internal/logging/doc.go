// Package logging configures slog for clive and provides shared helpers.
//
// Two output formats are supported: a compact human console format and
// structured JSON. Component loggers attach a standardized "component"
// attribute so pipeline stages can be traced through interleaved output.
package logging
