package patcher

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// renderIndent is the per-level indentation of rendered literals.
const renderIndent = "  "

// Render formats records the way [Patch] writes them into the document:
// indented JSON with object keys in sorted order. A nil or empty slice
// renders as "[]".
//
// HTML-sensitive characters ('<', '>', '&') are written as \u escapes so a
// value can never terminate the surrounding <script> element.
func Render(records []Record) (string, error) {
	if records == nil {
		records = []Record{}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", renderIndent)
	if err := enc.Encode(records); err != nil {
		return "", fmt.Errorf("failed to render records: %w", err)
	}

	return string(bytes.TrimRight(buf.Bytes(), "\n")), nil
}

// DecodeRecords decodes a JSON array of objects, keeping numbers as
// [json.Number] so they are written back exactly as received.
func DecodeRecords(data []byte) ([]Record, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var records []Record
	if err := dec.Decode(&records); err != nil {
		return nil, err
	}
	if dec.More() {
		return nil, fmt.Errorf("unexpected data after array")
	}
	if records == nil {
		records = []Record{}
	}
	return records, nil
}
