package compiler

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"bindmeta-go/packages/compiler/src/effects"
)

// ReadDump decodes a JSON array of element prototype dumps
func ReadDump(r io.Reader) ([]*effects.Element, error) {
	var elements []*effects.Element
	if err := json.NewDecoder(r).Decode(&elements); err != nil {
		return nil, fmt.Errorf("failed to parse dump: %w", err)
	}
	for i, el := range elements {
		if el == nil || el.Tag == "" {
			return nil, fmt.Errorf("element %d has no tag name", i)
		}
	}
	return elements, nil
}

// ParseDump reads and parses a dump file
func ParseDump(path string) ([]*effects.Element, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve path: %w", err)
	}

	f, err := os.Open(absPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read dump: %w", err)
	}
	defer f.Close()

	return ReadDump(f)
}
