package preflight

import (
	"context"
	"strings"

	"dutchlearn/internal/config"
)

// CheckOpenAIFromConfig evaluates OpenAI status from config and connectivity.
func CheckOpenAIFromConfig(cfg *config.Config) Result {
	const name = "OpenAI"

	if cfg == nil {
		return Result{Name: name, Detail: "Unknown"}
	}
	if strings.TrimSpace(cfg.OpenAI.APIKey) == "" {
		return Result{Name: name, Detail: "Missing API key"}
	}
	return CheckOpenAI(context.Background(), cfg.OpenAI)
}

// CheckAssemblyAIFromConfig evaluates AssemblyAI status from config and
// connectivity.
func CheckAssemblyAIFromConfig(cfg *config.Config) Result {
	const name = "AssemblyAI"

	if cfg == nil {
		return Result{Name: name, Detail: "Unknown"}
	}
	if strings.TrimSpace(cfg.AssemblyAI.APIKey) == "" {
		return Result{Name: name, Detail: "Missing API key"}
	}
	return CheckAssemblyAI(context.Background(), cfg.AssemblyAI)
}

// CheckRemoteSyncFromConfig evaluates remote sync status from config alone.
// Sync is optional, so an unconfigured remote passes with a note.
func CheckRemoteSyncFromConfig(cfg *config.Config) Result {
	const name = "Remote sync"

	if cfg == nil {
		return Result{Name: name, Detail: "Unknown"}
	}
	if strings.TrimSpace(cfg.Sync.RemoteURL) == "" {
		return Result{Name: name, Passed: true, Detail: "Not configured"}
	}
	if strings.TrimSpace(cfg.Sync.Token) == "" {
		return Result{Name: name, Detail: "Missing token"}
	}
	return Result{Name: name, Passed: true, Detail: cfg.Sync.RemoteURL}
}
