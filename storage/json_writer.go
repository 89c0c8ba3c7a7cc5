package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"airbnb-reconciler/models"
)

// JSONWriter writes the listing records as one JSON array, and optionally
// the reconciliation next to it.
type JSONWriter struct {
	path             string
	instructionsPath string
}

// NewJSONWriter returns a writer for path. An empty instructionsPath disables
// WriteInstructions.
func NewJSONWriter(path, instructionsPath string) *JSONWriter {
	return &JSONWriter{path: path, instructionsPath: instructionsPath}
}

func (j *JSONWriter) Write(details []*models.ExternalListingDetail) error {
	if details == nil {
		details = []*models.ExternalListingDetail{}
	}
	return writeJSON(j.path, details)
}

func (j *JSONWriter) WriteInstructions(rec *models.Reconciliation) error {
	if j.instructionsPath == "" || rec == nil {
		return nil
	}
	return writeJSON(j.instructionsPath, rec)
}

func (j *JSONWriter) Close() error { return nil }

func writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("json: create output dir: %w", err)
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("json: encode %q: %w", path, err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("json: write %q: %w", path, err)
	}
	return nil
}
