package transcript

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"timedtext/internal/faults"
)

// DecodeFlat parses a flat transcript from JSON or YAML.
func DecodeFlat(data []byte, yamlInput bool) (Flat, error) {
	var f Flat
	if yamlInput {
		if err := yaml.Unmarshal(data, &f); err != nil {
			return Flat{}, faults.Wrap(faults.ErrValidation, "transcript", "decode yaml", "", err)
		}
	} else {
		if err := json.Unmarshal(data, &f); err != nil {
			return Flat{}, faults.Wrap(faults.ErrValidation, "transcript", "decode json", "", err)
		}
	}
	if err := f.Validate(); err != nil {
		return Flat{}, err
	}
	return f, nil
}

// Decode parses either a flat transcript object or a block array. JSON
// arrays are read as blocks; everything else as flat input.
func Decode(data []byte, yamlInput bool, unknownSpeaker string) (Document, error) {
	trimmed := bytes.TrimSpace(data)
	if !yamlInput && len(trimmed) > 0 && trimmed[0] == '[' {
		var blocks []Block
		if err := json.Unmarshal(trimmed, &blocks); err != nil {
			return Document{}, faults.Wrap(faults.ErrValidation, "transcript", "decode blocks", "", err)
		}
		doc := FromBlocks(blocks, unknownSpeaker)
		if err := (Flat{Words: doc.Words()}).Validate(); err != nil {
			return Document{}, err
		}
		return doc, nil
	}
	f, err := DecodeFlat(data, yamlInput)
	if err != nil {
		return Document{}, err
	}
	return FromFlat(f, unknownSpeaker), nil
}

// LoadFile reads a transcript file, choosing YAML for .yaml and .yml.
func LoadFile(path, unknownSpeaker string) (Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Document{}, fmt.Errorf("read transcript: %w", err)
	}
	doc, err := Decode(data, IsYAMLPath(path), unknownSpeaker)
	if err != nil {
		return Document{}, err
	}
	if doc.Title == "" {
		doc.Title = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return doc, nil
}

// IsYAMLPath reports whether path has a YAML extension.
func IsYAMLPath(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	default:
		return false
	}
}
