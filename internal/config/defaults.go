package config

const (
	defaultDataDir   = "~/.local/share/dutchlearn"
	defaultUploadDir = "~/.local/share/dutchlearn/uploads"
	defaultAudioDir  = "~/.local/share/dutchlearn/audio"
	defaultExportDir = "~/.local/share/dutchlearn/export"
	defaultLogDir    = "~/.local/share/dutchlearn/logs"

	defaultAssemblyAIBaseURL = "https://api.assemblyai.com"
	defaultPollInterval      = 3
	defaultTranscribeTimeout = 1800

	defaultOpenAIBaseURL        = "https://api.openai.com/v1"
	defaultOpenAIModel          = "gpt-4o-mini"
	defaultOpenAITimeoutSeconds = 120

	defaultLanguage             = "nl"
	defaultMaxSentenceWords     = 100
	defaultExplanationBatchSize = 10
	defaultMaxRetries           = 3
	defaultRetryDelaySeconds    = 2
	defaultBatchDelayMillis     = 500
	defaultExtractTimeout       = 600

	defaultSyncTimeoutSeconds = 120

	defaultLogFormat = "console"
	defaultLogLevel  = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir:   defaultDataDir,
			UploadDir: defaultUploadDir,
			AudioDir:  defaultAudioDir,
			ExportDir: defaultExportDir,
			LogDir:    defaultLogDir,
		},
		AssemblyAI: AssemblyAI{
			BaseURL:        defaultAssemblyAIBaseURL,
			PollInterval:   defaultPollInterval,
			TimeoutSeconds: defaultTranscribeTimeout,
		},
		OpenAI: OpenAI{
			BaseURL:        defaultOpenAIBaseURL,
			Model:          defaultOpenAIModel,
			TimeoutSeconds: defaultOpenAITimeoutSeconds,
		},
		Pipeline: Pipeline{
			Language:             defaultLanguage,
			MaxSentenceWords:     defaultMaxSentenceWords,
			ExplanationBatchSize: defaultExplanationBatchSize,
			MaxRetries:           defaultMaxRetries,
			RetryDelaySeconds:    defaultRetryDelaySeconds,
			BatchDelayMillis:     defaultBatchDelayMillis,
			ExtractTimeout:       defaultExtractTimeout,
		},
		Sync: Sync{
			TimeoutSeconds: defaultSyncTimeoutSeconds,
			UploadAudio:    true,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
