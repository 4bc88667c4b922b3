package records

import "time"

// Processing outcome statuses recorded on a document.
const (
	StatusPending   = "pending"
	StatusDone      = "done"
	StatusDuplicate = "duplicate"
	StatusErrored   = "errored"
)

// OCR and remote mirror outcome markers. Degraded outcomes are recorded
// rather than failing the document.
const (
	OutcomeCompleted = "completed"
	OutcomeFailed    = "failed"
	OutcomeSkipped   = "skipped"
)

// DuplicateMatch records one prior document that matched the fingerprint
// query, with the similarity and the time the match was registered.
type DuplicateMatch struct {
	DocumentID string    `json:"document_id"`
	Similarity float64   `json:"similarity"`
	MatchedAt  time.Time `json:"matched_at"`
}

// Analysis holds the structured metadata extracted from recognized text.
type Analysis struct {
	DocumentType string         `json:"document_type"`
	Supplier     string         `json:"supplier"`
	DocumentDate string         `json:"document_date"`
	KeyInfo      map[string]any `json:"key_info,omitempty"`
	Confidence   float64        `json:"confidence"`
	Anomalies    []string       `json:"anomalies,omitempty"`
}

// ProcessingError captures one failure observed while processing a document.
type ProcessingError struct {
	Stage      string    `json:"stage"`
	Kind       string    `json:"kind"`
	Message    string    `json:"message"`
	OccurredAt time.Time `json:"occurred_at"`
}

// DocumentRecord is the durable per-document record. The record survives
// restarts and accumulates state as the document moves through stages.
type DocumentRecord struct {
	DocumentID  string    `json:"document_id"`
	SourceFile  string    `json:"source_file"`
	SourcePath  string    `json:"source_path"`
	ContentHash string    `json:"content_hash"`
	Fingerprint string    `json:"fingerprint,omitempty"`
	DetectedAt  time.Time `json:"detected_at"`

	Status string `json:"status"`
	Stage  string `json:"stage"`

	OriginalPath string `json:"original_path,omitempty"`
	ArchivePath  string `json:"archive_path,omitempty"`

	Duplicate        bool             `json:"duplicate"`
	DuplicateOf      string           `json:"duplicate_of,omitempty"`
	DuplicateMatches []DuplicateMatch `json:"duplicate_matches,omitempty"`

	PageCount        int `json:"page_count,omitempty"`
	RemovedPageCount int `json:"removed_page_count,omitempty"`
	CleanedPageCount int `json:"cleaned_page_count,omitempty"`
	SplitCount       int `json:"split_count,omitempty"`

	OCRStatus string    `json:"ocr_status,omitempty"`
	Text      string    `json:"text,omitempty"`
	Analysis  *Analysis `json:"analysis,omitempty"`

	RemoteIndexStatus string `json:"remote_index_status,omitempty"`
	Notified          bool   `json:"notified"`

	Attempts int               `json:"attempts,omitempty"`
	Errors   []ProcessingError `json:"errors,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// AddError appends a processing error to the record.
func (r *DocumentRecord) AddError(stage, kind, message string) {
	r.Errors = append(r.Errors, ProcessingError{
		Stage:      stage,
		Kind:       kind,
		Message:    message,
		OccurredAt: time.Now().UTC(),
	})
}
