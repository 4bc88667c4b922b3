package config

const (
	defaultInputDir     = "~/.local/share/docfactory/input"
	defaultOriginalsDir = "~/.local/share/docfactory/originals"
	defaultOutputDir    = "~/.local/share/docfactory/processed"
	defaultArchiveDir   = "~/.local/share/docfactory/archive"
	defaultIndexDir     = "~/.local/share/docfactory/index"
	defaultLogDir       = "~/.local/share/docfactory/logs"

	defaultMaxFileSizeMB      = 50
	defaultBlankPageThreshold = 0.05
	defaultWorkers            = 1
	defaultQueueCapacity      = 64
	defaultSettleDelayMS      = 2000

	defaultSimilarityThreshold = 0.95

	defaultRetryAttempts    = 3
	defaultInitialBackoffMS = 500
	defaultMaxBackoffMS     = 8000

	defaultOCRBaseURL    = "https://api.cloudconvert.com"
	defaultOCRLanguage   = "eng"
	defaultOCRTimeout    = 120
	defaultAnalyzerBase  = "https://api.openai.com/v1"
	defaultAnalyzerModel = "gpt-4o-mini"
	defaultHTTPTimeout   = 30

	defaultLogFormat = "console"
	defaultLogLevel  = "info"
)

func defaultExtensions() []string {
	return []string{".pdf", ".jpg", ".jpeg", ".png", ".tiff"}
}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			InputDir:     defaultInputDir,
			OriginalsDir: defaultOriginalsDir,
			OutputDir:    defaultOutputDir,
			ArchiveDir:   defaultArchiveDir,
			IndexDir:     defaultIndexDir,
			LogDir:       defaultLogDir,
		},
		Processing: Processing{
			AllowedExtensions:  defaultExtensions(),
			MaxFileSizeMB:      defaultMaxFileSizeMB,
			BlankPageThreshold: defaultBlankPageThreshold,
			Workers:            defaultWorkers,
			QueueCapacity:      defaultQueueCapacity,
			SettleDelayMS:      defaultSettleDelayMS,
		},
		Duplicates: Duplicates{
			SimilarityThreshold: defaultSimilarityThreshold,
		},
		Retry: Retry{
			Attempts:         defaultRetryAttempts,
			InitialBackoffMS: defaultInitialBackoffMS,
			MaxBackoffMS:     defaultMaxBackoffMS,
		},
		OCR: OCR{
			BaseURL:        defaultOCRBaseURL,
			Language:       defaultOCRLanguage,
			RequestTimeout: defaultOCRTimeout,
		},
		Analyzer: Analyzer{
			BaseURL:        defaultAnalyzerBase,
			Model:          defaultAnalyzerModel,
			RequestTimeout: defaultHTTPTimeout,
		},
		RemoteIndex: RemoteIndex{
			RequestTimeout: defaultHTTPTimeout,
		},
		Notifications: Notifications{
			RequestTimeout: 10,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
