// Command clive extracts keyword-anchored clips from video files. It
// transcribes the audio with whisper.cpp, finds configured keywords in the
// transcript, and cuts a clip around every match.
package main
