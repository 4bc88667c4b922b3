package pipeline

// Stage identifies how far a document has progressed. Stages advance in the
// order listed; duplicate and errored are terminal side exits.
type Stage string

const (
	StageDetected          Stage = "detected"
	StageIdentified        Stage = "identified"
	StageOriginalCopied    Stage = "original_copied"
	StageFingerprinted     Stage = "fingerprinted"
	StageDuplicate         Stage = "duplicate"
	StageMetadataRead      Stage = "metadata_read"
	StageBlankPagesRemoved Stage = "blank_pages_removed"
	StageSplit             Stage = "split"
	StageRecognized        Stage = "recognized"
	StageAnalyzed          Stage = "analyzed"
	StageArchived          Stage = "archived"
	StageIndexed           Stage = "indexed"
	StageNotified          Stage = "notified"
	StageDone              Stage = "done"
	StageErrored           Stage = "errored"
)

func (s Stage) String() string { return string(s) }
