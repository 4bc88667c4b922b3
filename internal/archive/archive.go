package archive

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"docfactory/internal/fileutil"
	"docfactory/internal/logging"
	"docfactory/internal/records"
	"docfactory/internal/services"
)

// Archiver files processed documents into the archive tree. Documents land
// under <archive_dir>/<year>/<month>/ named by document date, supplier, and
// type, with a metadata sidecar next to each file.
type Archiver struct {
	dir    string
	logger *slog.Logger
}

// NewArchiver builds an Archiver rooted at dir.
func NewArchiver(dir string, logger *slog.Logger) *Archiver {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Archiver{
		dir:    dir,
		logger: logging.NewComponentLogger(logger, "archive"),
	}
}

var unsafeChars = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)

// Archive copies the processed document into its archive location and writes
// the metadata sidecar. Returns the archived file path. The source file is
// left in place for the caller to clean up.
func (a *Archiver) Archive(record records.DocumentRecord, sourcePath string) (string, error) {
	when := archiveDate(record)
	targetDir := filepath.Join(a.dir, when.Format("2006"), when.Format("01"))
	if err := os.MkdirAll(targetDir, 0o755); err != nil {
		return "", services.Wrap(services.ErrFile, "archived", "archive", "create archive directory", err)
	}

	targetPath := filepath.Join(targetDir, a.fileName(record, sourcePath, when))
	if err := fileutil.CopyFileVerified(sourcePath, targetPath); err != nil {
		return "", services.Wrap(services.ErrFile, "archived", "archive", fmt.Sprintf("copy %s into archive", filepath.Base(sourcePath)), err)
	}

	if err := a.writeSidecar(record, targetPath); err != nil {
		return "", err
	}

	a.logger.Info("archived document",
		logging.String(logging.FieldDocumentID, record.DocumentID),
		logging.String("archive_path", targetPath))
	return targetPath, nil
}

// fileName builds <date>_<supplier>_<type>_<document id><ext>, omitting the
// parts the analysis could not provide.
func (a *Archiver) fileName(record records.DocumentRecord, sourcePath string, when time.Time) string {
	parts := []string{when.Format("2006-01-02")}
	if record.Analysis != nil {
		if supplier := sanitize(record.Analysis.Supplier); supplier != "" {
			parts = append(parts, supplier)
		}
		if docType := sanitize(record.Analysis.DocumentType); docType != "" {
			parts = append(parts, docType)
		}
	}
	parts = append(parts, record.DocumentID)

	ext := filepath.Ext(sourcePath)
	if ext == "" {
		ext = ".pdf"
	}
	return strings.Join(parts, "_") + ext
}

func (a *Archiver) writeSidecar(record records.DocumentRecord, archivedPath string) error {
	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return services.Wrap(services.ErrProcessing, "archived", "archive", "marshal metadata sidecar", err)
	}
	sidecar := strings.TrimSuffix(archivedPath, filepath.Ext(archivedPath)) + ".json"
	if err := os.WriteFile(sidecar, data, 0o644); err != nil {
		return services.Wrap(services.ErrFile, "archived", "archive", "write metadata sidecar", err)
	}
	return nil
}

// archiveDate prefers the document's own date over the detection time.
func archiveDate(record records.DocumentRecord) time.Time {
	if record.Analysis != nil && record.Analysis.DocumentDate != "" {
		if parsed, err := time.Parse("2006-01-02", record.Analysis.DocumentDate); err == nil {
			return parsed
		}
	}
	if !record.DetectedAt.IsZero() {
		return record.DetectedAt
	}
	return time.Now().UTC()
}

func sanitize(value string) string {
	value = strings.TrimSpace(value)
	value = unsafeChars.ReplaceAllString(value, "-")
	return strings.Trim(value, "-")
}
