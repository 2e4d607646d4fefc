// Package deploy places Relay's configuration payload into the user's
// environment: tool settings, editor settings, trusted certificates,
// and the certificate environment variable. Deployment is idempotent;
// running it twice leaves the same state as running it once.
package deploy

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// ParseError indicates a settings document that is not valid JSON.
// Deployment reports it and leaves the existing file alone.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parsing %s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// MergeDocs merges src into dest at the top level only: every top-level
// key in src is set on the result, overriding an existing value of the
// same key wholesale. Nested objects are never merged recursively.
// Neither input map is modified.
func MergeDocs(dest, src map[string]any) map[string]any {
	merged := make(map[string]any, len(dest)+len(src))
	for k, v := range dest {
		merged[k] = v
	}
	for k, v := range src {
		merged[k] = v
	}
	return merged
}

// MergeOrCopy deploys a JSON settings file. When the destination does
// not exist the source is copied byte for byte. When it does, both are
// parsed and merged with MergeDocs, source keys winning. A file that is
// not valid JSON fails with a ParseError and the destination is left
// untouched; a document whose root is valid JSON but not an object
// cannot be merged, so the merge is skipped without error.
func MergeOrCopy(srcPath, destPath string) error {
	srcData, err := os.ReadFile(srcPath)
	if err != nil {
		return fmt.Errorf("reading %s: %w", srcPath, err)
	}

	destData, err := os.ReadFile(destPath)
	if os.IsNotExist(err) {
		return writeFileWithDir(destPath, srcData)
	}
	if err != nil {
		return fmt.Errorf("reading %s: %w", destPath, err)
	}

	var srcDoc any
	if err := json.Unmarshal(srcData, &srcDoc); err != nil {
		return &ParseError{Path: srcPath, Err: err}
	}
	src, ok := srcDoc.(map[string]any)
	if !ok {
		return nil
	}

	var destDoc any
	if err := json.Unmarshal(destData, &destDoc); err != nil {
		return &ParseError{Path: destPath, Err: err}
	}
	dest, ok := destDoc.(map[string]any)
	if !ok {
		return nil
	}

	merged := MergeDocs(dest, src)
	out, err := json.MarshalIndent(merged, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding merged settings: %w", err)
	}
	out = append(out, '\n')

	return writeFileWithDir(destPath, out)
}

func writeFileWithDir(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating directory for %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
