package services

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel markers for the document-scoped error taxonomy. Configuration
// failures are fatal at startup; everything else stays scoped to one document.
var (
	ErrConfiguration   = errors.New("configuration error")
	ErrFile            = errors.New("file error")
	ErrExternalService = errors.New("external service error")
	ErrProcessing      = errors.New("processing error")
)

// Kind is the record-facing label for an error category.
type Kind string

const (
	KindConfiguration   Kind = "ConfigurationError"
	KindFile            Kind = "FileError"
	KindExternalService Kind = "ExternalServiceError"
	KindProcessing      Kind = "ProcessingError"
)

// Wrap builds an error message that includes stage context while tagging it
// with the provided marker for later classification. The marker should be one
// of the exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrProcessing
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Classify maps an error back to its taxonomy kind. Unclassified errors are
// treated as processing failures.
func Classify(err error) Kind {
	switch {
	case errors.Is(err, ErrConfiguration):
		return KindConfiguration
	case errors.Is(err, ErrFile):
		return KindFile
	case errors.Is(err, ErrExternalService):
		return KindExternalService
	default:
		return KindProcessing
	}
}

// IsFatal reports whether an error should halt the process. Only
// configuration errors qualify.
func IsFatal(err error) bool {
	return errors.Is(err, ErrConfiguration)
}

// Message strips the sentinel prefix from a classified error, leaving the
// human-readable detail.
func Message(err error) string {
	if err == nil {
		return ""
	}
	text := err.Error()
	for _, marker := range []error{ErrConfiguration, ErrFile, ErrExternalService, ErrProcessing} {
		prefix := marker.Error() + ": "
		if strings.HasPrefix(text, prefix) {
			return strings.TrimPrefix(text, prefix)
		}
	}
	return text
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
