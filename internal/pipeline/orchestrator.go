package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"docfactory/internal/config"
	"docfactory/internal/dupindex"
	"docfactory/internal/identity"
	"docfactory/internal/ingest"
	"docfactory/internal/logging"
	"docfactory/internal/notifications"
	"docfactory/internal/records"
	"docfactory/internal/services"
	"docfactory/internal/services/remoteindex"
)

// Deps bundles the collaborators the orchestrator drives.
type Deps struct {
	Records      *records.Store
	Index        *dupindex.Store
	Gate         *ingest.Gate
	Fingerprints Fingerprinter
	Documents    DocumentProcessor
	Recognizer   Recognizer
	Analyzer     Analyzer
	Archiver     Archiver
	Remote       RemoteIndexer
	Notifier     notifications.Service
}

// Orchestrator consumes admitted documents and runs each through the intake
// stages. A bounded worker pool processes documents concurrently; every
// document's outcome lands in the record store before its input file is
// touched.
type Orchestrator struct {
	cfg    *config.Config
	logger *slog.Logger
	retry  RetryPolicy

	records      *records.Store
	index        *dupindex.Store
	gate         *ingest.Gate
	fingerprints Fingerprinter
	documents    DocumentProcessor
	recognizer   Recognizer
	analyzer     Analyzer
	archiver     Archiver
	remote       RemoteIndexer
	notifier     notifications.Service
}

// New builds an Orchestrator from configuration and dependencies.
func New(cfg *config.Config, logger *slog.Logger, deps Deps) *Orchestrator {
	if logger == nil {
		logger = logging.NewNop()
	}
	notifier := deps.Notifier
	if notifier == nil {
		notifier = notifications.NewService(cfg)
	}
	return &Orchestrator{
		cfg:          cfg,
		logger:       logging.NewComponentLogger(logger, "pipeline"),
		retry:        RetryFromConfig(cfg),
		records:      deps.Records,
		index:        deps.Index,
		gate:         deps.Gate,
		fingerprints: deps.Fingerprints,
		documents:    deps.Documents,
		recognizer:   deps.Recognizer,
		analyzer:     deps.Analyzer,
		archiver:     deps.Archiver,
		remote:       deps.Remote,
		notifier:     notifier,
	}
}

// Run consumes admitted documents until the gate closes or ctx is cancelled.
// Documents already picked up run all their remaining stages before workers
// exit; cancellation only stops new documents from being pulled.
func (o *Orchestrator) Run(ctx context.Context) error {
	workers := o.cfg.Processing.Workers
	if workers <= 0 {
		workers = 1
	}

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for item := range o.gate.Items() {
				o.Process(ctx, item)
				if ctx.Err() != nil {
					return
				}
			}
		}()
	}
	wg.Wait()
	return ctx.Err()
}

// Process runs one admitted document through all stages. Exported so a
// single document can be driven without the gate, as the CLI does.
func (o *Orchestrator) Process(ctx context.Context, item ingest.Item) {
	// An admitted document runs all its stages even when shutdown cancels
	// the run context. Aborting mid-stage would record cancellations as
	// degraded outcomes and finalize the document in that state.
	ctx = context.WithoutCancel(ctx)
	logger := o.logger.With(logging.String(logging.FieldSourceFile, filepath.Base(item.Path)))

	contentHash, err := identity.HashFile(item.Path)
	if err != nil {
		logger.Warn("cannot hash admitted file, leaving it in place",
			logging.String(logging.FieldEventType, "pipeline_hash_failed"),
			logging.Error(err))
		return
	}

	record, fresh := o.reconcile(contentHash, item)
	if !fresh && (record.Status == records.StatusDone || record.Status == records.StatusDuplicate) {
		logger.Info("file already processed, removing from input",
			logging.String(logging.FieldDocumentID, record.DocumentID),
			logging.String("status", record.Status))
		o.finishInput(item.Path)
		return
	}

	ctx = services.WithDocumentID(ctx, record.DocumentID)
	logger = logger.With(logging.String(logging.FieldDocumentID, record.DocumentID))
	logger.Info("processing document", logging.String(logging.FieldEventType, "pipeline_started"))

	if err := o.records.Save(record); err != nil {
		logger.Error("cannot persist document record", logging.Error(err))
		return
	}

	if done := o.runStages(ctx, logger, &record, item); done {
		o.finishInput(item.Path)
	}
}

// reconcile matches an admitted file against existing records by content
// hash so a restart resumes interrupted documents under their original
// identity instead of minting a second one.
func (o *Orchestrator) reconcile(contentHash string, item ingest.Item) (records.DocumentRecord, bool) {
	if existing, found := o.records.FindByContentHash(contentHash); found {
		if existing.Status == records.StatusDone || existing.Status == records.StatusDuplicate {
			return existing, false
		}
		existing.Status = records.StatusPending
		existing.SourcePath = item.Path
		return existing, false
	}

	return records.DocumentRecord{
		DocumentID:  identity.NewDocumentID(contentHash, item.DetectedAt),
		SourceFile:  filepath.Base(item.Path),
		SourcePath:  item.Path,
		ContentHash: contentHash,
		DetectedAt:  item.DetectedAt,
		Status:      records.StatusPending,
		Stage:       StageIdentified.String(),
	}, true
}

// runStages advances the document through the pipeline. Returns true when
// the input file should be removed from the input directory.
func (o *Orchestrator) runStages(ctx context.Context, logger *slog.Logger, record *records.DocumentRecord, item ingest.Item) bool {
	// Original copy first so nothing downstream can lose the source bytes.
	originalPath := filepath.Join(o.cfg.Paths.OriginalsDir, record.DocumentID+filepath.Ext(item.Path))
	if err := o.documents.CopyOriginal(item.Path, originalPath); err != nil {
		return o.fail(ctx, logger, record, StageOriginalCopied, err)
	}
	record.OriginalPath = originalPath
	o.advance(logger, record, StageOriginalCopied)

	fp, err := o.fingerprints.Compute(item.Path)
	if err != nil {
		return o.fail(ctx, logger, record, StageFingerprinted, err)
	}
	record.Fingerprint = fp.String()
	o.advance(logger, record, StageFingerprinted)

	matches, err := o.index.Resolve(ctx, record.DocumentID, fp)
	if err != nil {
		return o.fail(ctx, logger, record, StageFingerprinted, services.Wrap(services.ErrProcessing, StageFingerprinted.String(), "resolve", "query duplicate index", err))
	}
	if len(matches) > 0 {
		return o.finishDuplicate(ctx, logger, record, matches)
	}

	workPath := item.Path
	if isPDF(item.Path) {
		workPath = o.transformPDF(ctx, logger, record, item.Path)
		if workPath == "" {
			// Terminal failure already recorded; the input stays in place
			// like every other errored document.
			return false
		}
	} else {
		record.PageCount = 1
		record.CleanedPageCount = 1
		o.advance(logger, record, StageMetadataRead)
	}

	o.recognize(ctx, logger, record, workPath)
	o.analyze(ctx, logger, record)

	var archivePath string
	err = o.retry.Do(ctx, func(ctx context.Context) error {
		var archiveErr error
		archivePath, archiveErr = o.archiver.Archive(*record, workPath)
		return archiveErr
	})
	if err != nil {
		return o.fail(ctx, logger, record, StageArchived, err)
	}
	record.ArchivePath = archivePath
	o.advance(logger, record, StageArchived)

	o.mirror(ctx, logger, record)
	o.notify(ctx, logger, record)

	record.Status = records.StatusDone
	record.Stage = StageDone.String()
	o.save(logger, record)
	logger.Info("document processed", logging.String(logging.FieldEventType, "pipeline_completed"))
	return true
}

// transformPDF runs the PDF-only stages: metadata, blank removal, optional
// split. Returns the working file path, or "" after a terminal failure.
func (o *Orchestrator) transformPDF(ctx context.Context, logger *slog.Logger, record *records.DocumentRecord, sourcePath string) string {
	info, err := o.documents.Inspect(sourcePath)
	if err != nil {
		_ = o.fail(ctx, logger, record, StageMetadataRead, err)
		return ""
	}
	record.PageCount = info.PageCount
	o.advance(logger, record, StageMetadataRead)

	workPath := filepath.Join(o.cfg.Paths.OutputDir, record.DocumentID+".pdf")
	removed, err := o.documents.RemoveBlankPages(sourcePath, workPath, o.cfg.Processing.BlankPageThreshold)
	if err != nil {
		_ = o.fail(ctx, logger, record, StageBlankPagesRemoved, err)
		return ""
	}
	record.RemovedPageCount = removed
	record.CleanedPageCount = record.PageCount - removed
	o.advance(logger, record, StageBlankPagesRemoved)

	if o.cfg.Processing.SplitPages && record.CleanedPageCount > 1 {
		pages, err := o.documents.Split(workPath, filepath.Join(o.cfg.Paths.OutputDir, record.DocumentID+"_pages"))
		if err != nil {
			// Splitting is a convenience output; the combined document
			// still flows through the remaining stages.
			record.AddError(StageSplit.String(), string(services.Classify(err)), services.Message(err))
			logger.Warn("page split failed, continuing with combined document", logging.Error(err))
		} else {
			record.SplitCount = len(pages)
		}
		o.advance(logger, record, StageSplit)
	}
	return workPath
}

// recognize runs OCR with retry. A permanent failure degrades the document
// rather than failing it: the text stays empty and ocr_status records the
// outcome.
func (o *Orchestrator) recognize(ctx context.Context, logger *slog.Logger, record *records.DocumentRecord, workPath string) {
	var text string
	err := o.retry.Do(ctx, func(ctx context.Context) error {
		var recognizeErr error
		text, recognizeErr = o.recognizer.Recognize(ctx, workPath)
		return recognizeErr
	})
	if err != nil {
		wrapped := services.Wrap(services.ErrExternalService, StageRecognized.String(), "recognize", "text recognition failed", err)
		record.OCRStatus = records.OutcomeFailed
		record.AddError(StageRecognized.String(), string(services.Classify(wrapped)), services.Message(wrapped))
		logger.Warn("text recognition failed, continuing without text", logging.Error(err))
	} else {
		record.OCRStatus = records.OutcomeCompleted
		record.Text = text
	}
	o.advance(logger, record, StageRecognized)
}

// analyze extracts metadata from recognized text. Skipped when recognition
// produced nothing; failure degrades like recognition does.
func (o *Orchestrator) analyze(ctx context.Context, logger *slog.Logger, record *records.DocumentRecord) {
	if record.OCRStatus != records.OutcomeCompleted || strings.TrimSpace(record.Text) == "" {
		o.advance(logger, record, StageAnalyzed)
		return
	}

	err := o.retry.Do(ctx, func(ctx context.Context) error {
		result, analyzeErr := o.analyzer.Analyze(ctx, record.Text)
		if analyzeErr != nil {
			return analyzeErr
		}
		record.Analysis = &records.Analysis{
			DocumentType: result.DocumentType,
			Supplier:     result.Supplier,
			DocumentDate: result.DocumentDate,
			KeyInfo:      result.KeyInfo,
			Confidence:   result.Confidence,
			Anomalies:    result.Anomalies,
		}
		return nil
	})
	if err != nil {
		wrapped := services.Wrap(services.ErrExternalService, StageAnalyzed.String(), "analyze", "metadata extraction failed", err)
		record.AddError(StageAnalyzed.String(), string(services.Classify(wrapped)), services.Message(wrapped))
		logger.Warn("metadata extraction failed, continuing without analysis", logging.Error(err))
	}
	o.advance(logger, record, StageAnalyzed)
}

// mirror appends the document to the remote index with retry. The mirror is
// best effort: a permanent failure is recorded on the document but never
// changes its outcome.
func (o *Orchestrator) mirror(ctx context.Context, logger *slog.Logger, record *records.DocumentRecord) {
	if o.remote == nil {
		record.RemoteIndexStatus = records.OutcomeSkipped
		o.advance(logger, record, StageIndexed)
		return
	}

	// The mirror only runs on the success path, so the row carries the
	// terminal state even though the local record commits it afterwards.
	row := remoteindex.Row{
		DocumentID:  record.DocumentID,
		SourceFile:  record.SourceFile,
		DetectedAt:  record.DetectedAt.Format("2006-01-02 15:04:05"),
		Status:      records.StatusDone,
		ArchivePath: record.ArchivePath,
	}
	if record.Analysis != nil {
		row.DocumentType = record.Analysis.DocumentType
		row.Supplier = record.Analysis.Supplier
		row.DocumentDate = record.Analysis.DocumentDate
		row.KeyInfo = record.Analysis.KeyInfo
		row.Confidence = record.Analysis.Confidence
	}

	err := o.retry.Do(ctx, func(ctx context.Context) error {
		return o.remote.Append(ctx, row)
	})
	if err != nil {
		record.RemoteIndexStatus = records.OutcomeFailed
		record.AddError(StageIndexed.String(), string(services.KindProcessing), fmt.Sprintf("remote index mirror failed: %v", err))
		logger.Warn("remote index mirror failed", logging.Error(err))
	} else {
		record.RemoteIndexStatus = records.OutcomeCompleted
	}
	o.advance(logger, record, StageIndexed)
}

// notify publishes the completion event, plus an anomaly event when the
// analysis flagged anything. Notification failures never fail the document.
func (o *Orchestrator) notify(ctx context.Context, logger *slog.Logger, record *records.DocumentRecord) {
	var documentType, supplier string
	if record.Analysis != nil {
		documentType = record.Analysis.DocumentType
		supplier = record.Analysis.Supplier
	}
	if err := o.notifier.NotifyDocumentProcessed(ctx, record.DocumentID, record.SourceFile, documentType, supplier); err != nil {
		logger.Warn("completion notification failed", logging.Error(err))
	} else {
		record.Notified = true
	}
	if record.Analysis != nil && len(record.Analysis.Anomalies) > 0 {
		if err := o.notifier.NotifyAnomalyDetected(ctx, record.DocumentID, record.Analysis.Anomalies); err != nil {
			logger.Warn("anomaly notification failed", logging.Error(err))
		}
	}
	o.advance(logger, record, StageNotified)
}

// finishDuplicate short-circuits a duplicate document: record the matches,
// notify, mirror the duplicate row, and drop the input file. The heavy
// stages never run.
func (o *Orchestrator) finishDuplicate(ctx context.Context, logger *slog.Logger, record *records.DocumentRecord, matches []dupindex.Match) bool {
	record.Duplicate = true
	record.DuplicateOf = matches[0].DocumentID
	record.DuplicateMatches = make([]records.DuplicateMatch, 0, len(matches))
	for _, match := range matches {
		record.DuplicateMatches = append(record.DuplicateMatches, records.DuplicateMatch{
			DocumentID: match.DocumentID,
			Similarity: match.Similarity,
			MatchedAt:  match.MatchedAt,
		})
	}
	record.Status = records.StatusDuplicate
	record.Stage = StageDuplicate.String()
	o.save(logger, record)

	logger.Info("duplicate detected",
		logging.String(logging.FieldEventType, "pipeline_duplicate"),
		logging.String("duplicate_of", record.DuplicateOf),
		logging.Float64("similarity", matches[0].Similarity))

	if err := o.notifier.NotifyDuplicateFound(ctx, record.DocumentID, record.SourceFile, record.DuplicateOf, matches[0].Similarity); err != nil {
		logger.Warn("duplicate notification failed", logging.Error(err))
	}
	if o.remote != nil {
		row := remoteindex.Row{
			DocumentID: record.DocumentID,
			SourceFile: record.SourceFile,
			DetectedAt: record.DetectedAt.Format("2006-01-02 15:04:05"),
			Status:     records.StatusDuplicate,
		}
		err := o.retry.Do(ctx, func(ctx context.Context) error {
			return o.remote.Append(ctx, row)
		})
		if err != nil {
			logger.Warn("remote index mirror failed for duplicate", logging.Error(err))
		}
	}
	return true
}

// fail records a terminal document failure. The input file is left in place
// and stays claimed so it is not reprocessed until the next daemon start,
// where reconciliation resumes it under the same identity.
func (o *Orchestrator) fail(ctx context.Context, logger *slog.Logger, record *records.DocumentRecord, stage Stage, err error) bool {
	kind := services.Classify(err)
	record.Status = records.StatusErrored
	record.Stage = StageErrored.String()
	record.AddError(stage.String(), string(kind), services.Message(err))
	o.save(logger, record)

	logger.Error("document failed",
		logging.String(logging.FieldEventType, "pipeline_failed"),
		logging.String(logging.FieldStage, stage.String()),
		logging.String("error_kind", string(kind)),
		logging.Error(err))

	if notifyErr := o.notifier.NotifyProcessingError(ctx, record.DocumentID, stage.String(), services.Message(err)); notifyErr != nil {
		logger.Warn("error notification failed", logging.Error(notifyErr))
	}
	if o.remote != nil {
		row := remoteindex.Row{
			DocumentID: record.DocumentID,
			SourceFile: record.SourceFile,
			DetectedAt: record.DetectedAt.Format("2006-01-02 15:04:05"),
			Status:     records.StatusErrored,
			Error:      services.Message(err),
		}
		appendErr := o.retry.Do(ctx, func(ctx context.Context) error {
			return o.remote.Append(ctx, row)
		})
		if appendErr != nil {
			logger.Warn("remote index mirror failed for error row", logging.Error(appendErr))
		}
	}
	return false
}

func (o *Orchestrator) advance(logger *slog.Logger, record *records.DocumentRecord, stage Stage) {
	record.Stage = stage.String()
	o.save(logger, record)
	logger.Debug("stage complete", logging.String(logging.FieldStage, stage.String()))
}

func (o *Orchestrator) save(logger *slog.Logger, record *records.DocumentRecord) {
	if err := o.records.Save(*record); err != nil {
		logger.Error("cannot persist document record", logging.Error(err))
	}
}

// finishInput removes a fully handled file from the input directory and
// releases its claim so a future drop of the same name starts fresh.
func (o *Orchestrator) finishInput(path string) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		o.logger.Warn("cannot remove processed input file",
			logging.String(logging.FieldSourceFile, filepath.Base(path)),
			logging.Error(err))
	}
	if o.gate != nil {
		o.gate.Release(path)
	}
}

func isPDF(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".pdf")
}
