package util

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
)

const partialSuffix = ".part"

// WriteTextFile writes data next to path with a .part suffix and renames it
// into place, so an interrupted run never leaves a truncated document.
func WriteTextFile(path string, data string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("output dir: %w", err)
	}

	tmp := path + partialSuffix
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("output: %w", err)
	}

	if _, err := f.WriteString(data); err != nil {
		if cerr := f.Close(); cerr != nil {
			log.Printf("error closing output file %s: %v", tmp, cerr)
		}
		_ = os.Remove(tmp)
		return fmt.Errorf("output: %w", err)
	}

	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("output: %w", err)
	}

	return os.Rename(tmp, path)
}
