package config

import (
	"errors"
	"fmt"
	"strings"

	"dutchlearn/internal/language"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePipeline(); err != nil {
		return err
	}
	if err := c.validateSync(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validatePipeline() error {
	if language.Normalize(c.Pipeline.Language) == "" {
		return fmt.Errorf("pipeline.language %q is not a recognized language code", c.Pipeline.Language)
	}
	if c.Pipeline.MaxSentenceWords < 5 {
		return errors.New("pipeline.max_sentence_words must be at least 5")
	}
	if c.Pipeline.ExplanationBatchSize > 50 {
		return errors.New("pipeline.explanation_batch_size must be 50 or fewer")
	}
	if c.Pipeline.MaxRetries > 10 {
		return errors.New("pipeline.max_retries must be 10 or fewer")
	}
	return nil
}

func (c *Config) validateSync() error {
	if c.Sync.RemoteURL == "" {
		return nil
	}
	if !strings.HasPrefix(c.Sync.RemoteURL, "http://") && !strings.HasPrefix(c.Sync.RemoteURL, "https://") {
		return fmt.Errorf("sync.remote_url must be an http(s) URL, got %q", c.Sync.RemoteURL)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn, or error, got %q", c.Logging.Level)
	}
	return nil
}

// RequireAssemblyAI ensures the transcription service is configured before a pipeline run.
func (c *Config) RequireAssemblyAI() error {
	if strings.TrimSpace(c.AssemblyAI.APIKey) == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = "~/.config/dutchlearn/config.toml"
		}
		return fmt.Errorf("assemblyai.api_key is required. Set ASSEMBLYAI_API_KEY env var or edit %s (create with 'dutchlearn config init')", defaultPath)
	}
	return nil
}

// RequireOpenAI ensures the explanation service is configured before a pipeline run.
func (c *Config) RequireOpenAI() error {
	if strings.TrimSpace(c.OpenAI.APIKey) == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = "~/.config/dutchlearn/config.toml"
		}
		return fmt.Errorf("openai.api_key is required. Set OPENAI_API_KEY env var or edit %s (create with 'dutchlearn config init')", defaultPath)
	}
	return nil
}

// RequireSync ensures the remote store is configured before a sync run.
func (c *Config) RequireSync() error {
	if c.Sync.RemoteURL == "" {
		return errors.New("sync.remote_url is required for sync operations")
	}
	return nil
}
