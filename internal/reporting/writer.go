// File: internal/reporting/writer.go
package reporting

import (
	"fmt"
	"os"
	"path/filepath"

	json "github.com/json-iterator/go"
	"go.uber.org/zap"
)

// Writer persists run reports as JSON artifacts under a directory.
type Writer struct {
	dir    string
	logger *zap.Logger
}

// NewWriter builds a Writer targeting dir. The directory is created lazily
// on first write.
func NewWriter(dir string, logger *zap.Logger) *Writer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Writer{dir: dir, logger: logger.Named("reporting")}
}

// Write serializes the report and returns the artifact path.
func (w *Writer) Write(report *RunReport) (string, error) {
	if report == nil {
		return "", fmt.Errorf("write report: nil report")
	}
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return "", fmt.Errorf("creating report dir %s: %w", w.dir, err)
	}

	name := fmt.Sprintf("farescout-%s-%s.json",
		report.StartedAt.UTC().Format("20060102-150405"), shortID(report.RunID))
	path := filepath.Join(w.dir, name)

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshaling report: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("writing report artifact: %w", err)
	}

	w.logger.Info("Run report written.", zap.String("path", path))
	return path, nil
}

// shortID trims a UUID down to its first group for filenames.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
