package pipeline

import (
	"context"

	"docfactory/internal/fingerprint"
	"docfactory/internal/pdf"
	"docfactory/internal/records"
	"docfactory/internal/services/analyzer"
	"docfactory/internal/services/remoteindex"
)

// Fingerprinter computes the perceptual fingerprint of a document file.
type Fingerprinter interface {
	Compute(path string) (fingerprint.Fingerprint, error)
}

// DocumentProcessor covers the local PDF transformations.
type DocumentProcessor interface {
	Inspect(path string) (pdf.Info, error)
	CopyOriginal(sourcePath, destPath string) error
	RemoveBlankPages(path, outPath string, threshold float64) (int, error)
	Split(path, outDir string) ([]string, error)
}

// Recognizer extracts text from a document file.
type Recognizer interface {
	Recognize(ctx context.Context, path string) (string, error)
}

// Analyzer extracts structured metadata from recognized text.
type Analyzer interface {
	Analyze(ctx context.Context, text string) (analyzer.Extraction, error)
}

// Archiver files a processed document and returns the archive path.
type Archiver interface {
	Archive(record records.DocumentRecord, sourcePath string) (string, error)
}

// RemoteIndexer mirrors document rows to an external index.
type RemoteIndexer interface {
	Append(ctx context.Context, row remoteindex.Row) error
}
