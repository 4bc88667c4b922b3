package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	InputDir     string `toml:"input_dir"`
	OriginalsDir string `toml:"originals_dir"`
	OutputDir    string `toml:"output_dir"`
	ArchiveDir   string `toml:"archive_dir"`
	IndexDir     string `toml:"index_dir"`
	LogDir       string `toml:"log_dir"`
}

// Processing contains pipeline tuning knobs.
type Processing struct {
	AllowedExtensions  []string `toml:"allowed_extensions"`
	MaxFileSizeMB      int      `toml:"max_file_size_mb"`
	BlankPageThreshold float64  `toml:"blank_page_threshold"`
	SplitPages         bool     `toml:"split_pages"`
	Workers            int      `toml:"workers"`
	QueueCapacity      int      `toml:"queue_capacity"`
	SettleDelayMS      int      `toml:"settle_delay_ms"`
}

// Duplicates configures the perceptual duplicate index.
type Duplicates struct {
	SimilarityThreshold float64 `toml:"similarity_threshold"`
}

// Retry configures the bounded retry policy around external adapters.
type Retry struct {
	Attempts         int `toml:"attempts"`
	InitialBackoffMS int `toml:"initial_backoff_ms"`
	MaxBackoffMS     int `toml:"max_backoff_ms"`
}

// OCR contains configuration for the text recognition service.
type OCR struct {
	APIKey         string `toml:"api_key"`
	BaseURL        string `toml:"base_url"`
	Language       string `toml:"language"`
	RequestTimeout int    `toml:"request_timeout"`
}

// Analyzer contains connection settings for the document analysis model.
type Analyzer struct {
	APIKey         string `toml:"api_key"`
	BaseURL        string `toml:"base_url"`
	Model          string `toml:"model"`
	RequestTimeout int    `toml:"request_timeout"`
}

// RemoteIndex configures the best-effort remote record mirror.
type RemoteIndex struct {
	URL            string `toml:"url"`
	RequestTimeout int    `toml:"request_timeout"`
}

// Notifications contains webhook notification settings.
type Notifications struct {
	WebhookURL     string `toml:"webhook_url"`
	RequestTimeout int    `toml:"request_timeout"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for docfactory.
//
// Configuration sections by subsystem:
//   - Paths: watched input plus working/archive/index/log directories
//   - Processing: extension allow-list, blank-page threshold, worker pool
//   - Duplicates: perceptual similarity threshold
//   - Retry: adapter retry attempts and backoff
//   - OCR: text recognition service connection
//   - Analyzer: LLM analysis service connection
//   - RemoteIndex: spreadsheet-style record mirror webhook
//   - Notifications: event webhook settings
//   - Logging: log format and level
type Config struct {
	Paths         Paths         `toml:"paths"`
	Processing    Processing    `toml:"processing"`
	Duplicates    Duplicates    `toml:"duplicates"`
	Retry         Retry         `toml:"retry"`
	OCR           OCR           `toml:"ocr"`
	Analyzer      Analyzer      `toml:"analyzer"`
	RemoteIndex   RemoteIndex   `toml:"remote_index"`
	Notifications Notifications `toml:"notifications"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/docfactory/config.toml")
}

// Load locates, parses, and validates a configuration file. Secrets may also
// arrive via environment variables (a .env file next to the working directory
// is honored). The returned config has all path fields expanded.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	// Best effort; a missing .env file is not an error.
	_ = godotenv.Load()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	cfg.applyEnvOverrides()

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func (c *Config) applyEnvOverrides() {
	if v := strings.TrimSpace(os.Getenv("DOCFACTORY_OCR_API_KEY")); v != "" {
		c.OCR.APIKey = v
	}
	if v := strings.TrimSpace(os.Getenv("DOCFACTORY_ANALYZER_API_KEY")); v != "" {
		c.Analyzer.APIKey = v
	}
	if v := strings.TrimSpace(os.Getenv("DOCFACTORY_WEBHOOK_URL")); v != "" {
		c.Notifications.WebhookURL = v
	}
	if v := strings.TrimSpace(os.Getenv("DOCFACTORY_REMOTE_INDEX_URL")); v != "" {
		c.RemoteIndex.URL = v
	}
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("docfactory.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}
	return defaultPath, false, nil
}

// EnsureDirectories creates the directories the daemon needs at runtime.
func (c *Config) EnsureDirectories() error {
	dirs := []string{
		c.Paths.InputDir,
		c.Paths.OriginalsDir,
		c.Paths.OutputDir,
		c.Paths.ArchiveDir,
		c.Paths.IndexDir,
		c.Paths.LogDir,
	}
	for _, dir := range dirs {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}
	return nil
}

// WriteSample writes the embedded sample configuration to the given path.
// It refuses to overwrite an existing file.
func WriteSample(path string) error {
	expanded, err := expandPath(path)
	if err != nil {
		return err
	}
	if _, err := os.Stat(expanded); err == nil {
		return fmt.Errorf("config file already exists: %s", expanded)
	}
	if err := os.MkdirAll(filepath.Dir(expanded), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	return os.WriteFile(expanded, []byte(sampleConfig), 0o644)
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", nil
	}
	if trimmed == "~" || strings.HasPrefix(trimmed, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if trimmed == "~" {
			return home, nil
		}
		return filepath.Join(home, trimmed[2:]), nil
	}
	return filepath.Abs(trimmed)
}
