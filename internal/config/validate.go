package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable. A validation failure is a
// startup configuration error: the process must not start.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateProcessing(); err != nil {
		return err
	}
	if err := c.validateDuplicates(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if c.Paths.InputDir == "" {
		return errors.New("paths.input_dir must be set")
	}
	if c.Paths.IndexDir == "" {
		return errors.New("paths.index_dir must be set")
	}
	if c.Paths.InputDir == c.Paths.OutputDir {
		return errors.New("paths.output_dir must differ from paths.input_dir")
	}
	if c.Paths.InputDir == c.Paths.OriginalsDir {
		return errors.New("paths.originals_dir must differ from paths.input_dir")
	}
	return nil
}

func (c *Config) validateProcessing() error {
	if len(c.Processing.AllowedExtensions) == 0 {
		return errors.New("processing.allowed_extensions must not be empty")
	}
	if c.Processing.BlankPageThreshold < 0 || c.Processing.BlankPageThreshold > 1 {
		return errors.New("processing.blank_page_threshold must be between 0 and 1")
	}
	if c.Processing.Workers < 1 {
		return errors.New("processing.workers must be at least 1")
	}
	return nil
}

func (c *Config) validateDuplicates() error {
	if c.Duplicates.SimilarityThreshold <= 0 || c.Duplicates.SimilarityThreshold > 1 {
		return errors.New("duplicates.similarity_threshold must be in (0, 1]")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	return nil
}
