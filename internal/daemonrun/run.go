package daemonrun

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/google/uuid"

	"docfactory/internal/archive"
	"docfactory/internal/config"
	"docfactory/internal/daemon"
	"docfactory/internal/dupindex"
	"docfactory/internal/fingerprint"
	"docfactory/internal/ingest"
	"docfactory/internal/logging"
	"docfactory/internal/notifications"
	"docfactory/internal/pdf"
	"docfactory/internal/pipeline"
	"docfactory/internal/records"
	"docfactory/internal/services/analyzer"
	"docfactory/internal/services/ocr"
	"docfactory/internal/services/remoteindex"
)

// Options configures daemon process runtime behavior.
type Options struct {
	LogLevel string
}

// Run starts the docfactory daemon runtime loop and blocks until the
// process receives SIGINT or SIGTERM.
func Run(cmdCtx context.Context, cfg *config.Config, opts Options) error {
	if cfg == nil {
		return fmt.Errorf("config is required")
	}

	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := cfg.EnsureDirectories(); err != nil {
		return fmt.Errorf("prepare directories: %w", err)
	}

	runID := time.Now().UTC().Format("20060102T150405Z")
	logPath := filepath.Join(cfg.Paths.LogDir, fmt.Sprintf("docfactory-%s.log", runID))
	level := opts.LogLevel
	if level == "" {
		level = cfg.Logging.Level
	}
	logger, err := logging.New(logging.Options{
		Level:       level,
		Format:      cfg.Logging.Format,
		OutputPaths: []string{"stdout", logPath},
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	logger = logger.With(logging.String(logging.FieldCorrelationID, uuid.NewString()))

	pidPath := filepath.Join(cfg.Paths.LogDir, "docfactoryd.pid")
	if err := writePIDFile(pidPath); err != nil {
		return fmt.Errorf("write pid file: %w", err)
	}
	defer os.Remove(pidPath)

	recordStore, err := records.Open(filepath.Join(cfg.Paths.IndexDir, "records.json"), logger)
	if err != nil {
		logger.Error("open record store", logging.Error(err))
		return err
	}

	index, err := dupindex.Open(cfg)
	if err != nil {
		logger.Error("open duplicate index", logging.Error(err))
		return err
	}
	defer index.Close()

	gate := ingest.NewGate(cfg, logger)
	orch := pipeline.New(cfg, logger, BuildDeps(cfg, logger, recordStore, index, gate))

	d, err := daemon.New(cfg, logger, recordStore, gate, orch)
	if err != nil {
		return fmt.Errorf("create daemon: %w", err)
	}

	if err := d.Start(signalCtx); err != nil {
		logger.Error("daemon start failed",
			logging.Error(err),
			logging.String(logging.FieldEventType, "daemon_start_failed"))
		return err
	}

	<-signalCtx.Done()
	logger.Info("docfactory daemon shutting down")
	d.Stop()
	return nil
}

// BuildDeps wires the production pipeline collaborators from configuration.
func BuildDeps(cfg *config.Config, logger *slog.Logger, recordStore *records.Store, index *dupindex.Store, gate *ingest.Gate) pipeline.Deps {
	processor := pdf.NewProcessor(logger)
	engine := fingerprint.NewEngine(func(path string) (image.Image, error) {
		return processor.FirstPageImage(path)
	})

	ocrClient := ocr.NewClient(cfg.OCR.APIKey,
		ocr.WithBaseURL(cfg.OCR.BaseURL),
		ocr.WithLanguage(cfg.OCR.Language),
		ocr.WithHTTPClient(&http.Client{Timeout: time.Duration(cfg.OCR.RequestTimeout) * time.Second}))
	analyzerClient := analyzer.NewClient(cfg.Analyzer.APIKey,
		analyzer.WithBaseURL(cfg.Analyzer.BaseURL),
		analyzer.WithModel(cfg.Analyzer.Model),
		analyzer.WithHTTPClient(&http.Client{Timeout: time.Duration(cfg.Analyzer.RequestTimeout) * time.Second}))

	var remote pipeline.RemoteIndexer
	if cfg.RemoteIndex.URL != "" {
		remote = remoteindex.NewClient(cfg.RemoteIndex.URL,
			remoteindex.WithHTTPClient(&http.Client{Timeout: time.Duration(cfg.RemoteIndex.RequestTimeout) * time.Second}))
	}

	return pipeline.Deps{
		Records:      recordStore,
		Index:        index,
		Gate:         gate,
		Fingerprints: engine,
		Documents:    processor,
		Recognizer:   ocrClient,
		Analyzer:     analyzerClient,
		Archiver:     archive.NewArchiver(cfg.Paths.ArchiveDir, logger),
		Remote:       remote,
		Notifier:     notifications.NewService(cfg),
	}
}

func writePIDFile(path string) error {
	return os.WriteFile(path, []byte(strconv.Itoa(os.Getpid())+"\n"), 0o644)
}
