package preflight

import (
	"context"

	"dutchlearn/internal/config"
)

// Processing needs room for extracted audio plus the SQLite database.
const minFreeBytes = 500 << 20

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes all applicable preflight checks for the given config.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryAccess("Data directory", cfg.Paths.DataDir),
		CheckDirectoryAccess("Upload directory", cfg.Paths.UploadDir),
		CheckDirectoryAccess("Audio directory", cfg.Paths.AudioDir),
		CheckDiskSpace("Disk space", cfg.Paths.DataDir, minFreeBytes),
	}

	results = append(results, CheckAssemblyAI(ctx, cfg.AssemblyAI))
	results = append(results, CheckOpenAI(ctx, cfg.OpenAI))

	return results
}

// AllPassed reports whether every check in results passed.
func AllPassed(results []Result) bool {
	for _, result := range results {
		if !result.Passed {
			return false
		}
	}
	return true
}
