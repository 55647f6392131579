package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"evmlens/internal/convert"
	"evmlens/internal/decoder"
)

func printJSON(w io.Writer, value interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(value); err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	return nil
}

func renderOptions(intBase string) (decoder.RenderOptions, error) {
	base, err := convert.ParseBase(intBase)
	if err != nil {
		return decoder.RenderOptions{}, err
	}
	return decoder.RenderOptions{IntBase: base}, nil
}

// loadFragments parses an interface description file, or returns the
// built-in fragments when path is empty.
func loadFragments(path string) ([]decoder.Fragment, error) {
	if path == "" {
		return decoder.WellKnownFragments()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read abi: %w", err)
	}
	fragments, err := decoder.ParseInterface(data)
	if err != nil {
		return nil, fmt.Errorf("parse abi %s: %w", path, err)
	}
	return fragments, nil
}
