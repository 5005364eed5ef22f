package config

import (
	"fmt"
	"os"
	"strings"

	"dutchlearn/internal/language"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeAssemblyAI()
	c.normalizeOpenAI()
	c.normalizePipeline()
	c.normalizeSync()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if c.Paths.UploadDir, err = expandPath(c.Paths.UploadDir); err != nil {
		return fmt.Errorf("paths.upload_dir: %w", err)
	}
	if c.Paths.AudioDir, err = expandPath(c.Paths.AudioDir); err != nil {
		return fmt.Errorf("paths.audio_dir: %w", err)
	}
	if c.Paths.ExportDir, err = expandPath(c.Paths.ExportDir); err != nil {
		return fmt.Errorf("paths.export_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeAssemblyAI() {
	if c.AssemblyAI.APIKey == "" {
		if value, ok := os.LookupEnv("ASSEMBLYAI_API_KEY"); ok {
			c.AssemblyAI.APIKey = value
		}
	}
	c.AssemblyAI.BaseURL = strings.TrimRight(strings.TrimSpace(c.AssemblyAI.BaseURL), "/")
	if c.AssemblyAI.BaseURL == "" {
		c.AssemblyAI.BaseURL = defaultAssemblyAIBaseURL
	}
	if c.AssemblyAI.PollInterval <= 0 {
		c.AssemblyAI.PollInterval = defaultPollInterval
	}
	if c.AssemblyAI.TimeoutSeconds <= 0 {
		c.AssemblyAI.TimeoutSeconds = defaultTranscribeTimeout
	}
}

func (c *Config) normalizeOpenAI() {
	if c.OpenAI.APIKey == "" {
		if value, ok := os.LookupEnv("OPENAI_API_KEY"); ok {
			c.OpenAI.APIKey = value
		}
	}
	c.OpenAI.BaseURL = strings.TrimRight(strings.TrimSpace(c.OpenAI.BaseURL), "/")
	if c.OpenAI.BaseURL == "" {
		c.OpenAI.BaseURL = defaultOpenAIBaseURL
	}
	c.OpenAI.Model = strings.TrimSpace(c.OpenAI.Model)
	if c.OpenAI.Model == "" {
		c.OpenAI.Model = defaultOpenAIModel
	}
	if c.OpenAI.TimeoutSeconds <= 0 {
		c.OpenAI.TimeoutSeconds = defaultOpenAITimeoutSeconds
	}
}

func (c *Config) normalizePipeline() {
	trimmed := strings.ToLower(strings.TrimSpace(c.Pipeline.Language))
	if normalized := language.Normalize(trimmed); normalized != "" {
		c.Pipeline.Language = normalized
	} else {
		c.Pipeline.Language = trimmed
	}
	if c.Pipeline.Language == "" {
		c.Pipeline.Language = defaultLanguage
	}
	if c.Pipeline.MaxSentenceWords <= 0 {
		c.Pipeline.MaxSentenceWords = defaultMaxSentenceWords
	}
	if c.Pipeline.ExplanationBatchSize <= 0 {
		c.Pipeline.ExplanationBatchSize = defaultExplanationBatchSize
	}
	if c.Pipeline.MaxRetries <= 0 {
		c.Pipeline.MaxRetries = defaultMaxRetries
	}
	if c.Pipeline.RetryDelaySeconds <= 0 {
		c.Pipeline.RetryDelaySeconds = defaultRetryDelaySeconds
	}
	if c.Pipeline.BatchDelayMillis < 0 {
		c.Pipeline.BatchDelayMillis = defaultBatchDelayMillis
	}
	if c.Pipeline.ExtractTimeout <= 0 {
		c.Pipeline.ExtractTimeout = defaultExtractTimeout
	}
}

func (c *Config) normalizeSync() {
	c.Sync.RemoteURL = strings.TrimRight(strings.TrimSpace(c.Sync.RemoteURL), "/")
	c.Sync.Token = strings.TrimSpace(c.Sync.Token)
	if c.Sync.TimeoutSeconds <= 0 {
		c.Sync.TimeoutSeconds = defaultSyncTimeoutSeconds
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
