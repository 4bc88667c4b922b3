package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeProcessing()
	c.normalizeRetry()
	c.normalizeEndpoints()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.InputDir, err = expandPath(c.Paths.InputDir); err != nil {
		return fmt.Errorf("paths.input_dir: %w", err)
	}
	if c.Paths.OriginalsDir, err = expandPath(c.Paths.OriginalsDir); err != nil {
		return fmt.Errorf("paths.originals_dir: %w", err)
	}
	if c.Paths.OutputDir, err = expandPath(c.Paths.OutputDir); err != nil {
		return fmt.Errorf("paths.output_dir: %w", err)
	}
	if c.Paths.ArchiveDir, err = expandPath(c.Paths.ArchiveDir); err != nil {
		return fmt.Errorf("paths.archive_dir: %w", err)
	}
	if c.Paths.IndexDir, err = expandPath(c.Paths.IndexDir); err != nil {
		return fmt.Errorf("paths.index_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeProcessing() {
	if len(c.Processing.AllowedExtensions) == 0 {
		c.Processing.AllowedExtensions = defaultExtensions()
	}
	normalized := make([]string, 0, len(c.Processing.AllowedExtensions))
	for _, ext := range c.Processing.AllowedExtensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		normalized = append(normalized, ext)
	}
	c.Processing.AllowedExtensions = normalized

	if c.Processing.MaxFileSizeMB <= 0 {
		c.Processing.MaxFileSizeMB = defaultMaxFileSizeMB
	}
	if c.Processing.Workers <= 0 {
		c.Processing.Workers = defaultWorkers
	}
	if c.Processing.QueueCapacity <= 0 {
		c.Processing.QueueCapacity = defaultQueueCapacity
	}
	if c.Processing.SettleDelayMS < 0 {
		c.Processing.SettleDelayMS = defaultSettleDelayMS
	}
}

func (c *Config) normalizeRetry() {
	if c.Retry.Attempts <= 0 {
		c.Retry.Attempts = defaultRetryAttempts
	}
	if c.Retry.InitialBackoffMS <= 0 {
		c.Retry.InitialBackoffMS = defaultInitialBackoffMS
	}
	if c.Retry.MaxBackoffMS < c.Retry.InitialBackoffMS {
		c.Retry.MaxBackoffMS = defaultMaxBackoffMS
	}
}

func (c *Config) normalizeEndpoints() {
	c.OCR.BaseURL = strings.TrimRight(strings.TrimSpace(c.OCR.BaseURL), "/")
	if c.OCR.BaseURL == "" {
		c.OCR.BaseURL = defaultOCRBaseURL
	}
	if strings.TrimSpace(c.OCR.Language) == "" {
		c.OCR.Language = defaultOCRLanguage
	}
	if c.OCR.RequestTimeout <= 0 {
		c.OCR.RequestTimeout = defaultOCRTimeout
	}

	c.Analyzer.BaseURL = strings.TrimRight(strings.TrimSpace(c.Analyzer.BaseURL), "/")
	if c.Analyzer.BaseURL == "" {
		c.Analyzer.BaseURL = defaultAnalyzerBase
	}
	if strings.TrimSpace(c.Analyzer.Model) == "" {
		c.Analyzer.Model = defaultAnalyzerModel
	}
	if c.Analyzer.RequestTimeout <= 0 {
		c.Analyzer.RequestTimeout = defaultHTTPTimeout
	}

	if c.RemoteIndex.RequestTimeout <= 0 {
		c.RemoteIndex.RequestTimeout = defaultHTTPTimeout
	}
	if c.Notifications.RequestTimeout <= 0 {
		c.Notifications.RequestTimeout = 10
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
