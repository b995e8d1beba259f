package transcript

import (
	"encoding/json"
	"fmt"
	"os"
)

// Document is the persisted transcript payload. The model and language are
// recorded so cached transcripts can be traced back to the recognizer that
// produced them.
type Document struct {
	Model    string  `json:"model"`
	Language string  `json:"language"`
	Tokens   []Token `json:"tokens"`
}

// Encode serializes a document as indented JSON.
func Encode(doc Document) ([]byte, error) {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode transcript: %w", err)
	}
	return append(data, '\n'), nil
}

// Decode parses a document produced by Encode.
func Decode(data []byte) (Document, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return Document{}, fmt.Errorf("decode transcript: %w", err)
	}
	return doc, nil
}

// Load reads and decodes a transcript document from disk.
func Load(path string) (Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Document{}, fmt.Errorf("read transcript: %w", err)
	}
	return Decode(data)
}
