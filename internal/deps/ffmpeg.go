package deps

import (
	"fmt"
	"os/exec"
	"strings"
)

// CheckFFmpeg reports the ffmpeg binary audio extraction will execute. The
// configured value may be a bare name resolved from PATH or an absolute path.
func CheckFFmpeg(configured string) Status {
	result := Status{
		Name:        "FFmpeg",
		Description: "Required for audio extraction",
	}

	name := strings.TrimSpace(configured)
	if name == "" {
		name = "ffmpeg"
	}
	resolved, err := exec.LookPath(name)
	if err != nil {
		result.Command = name
		result.Detail = fmt.Sprintf("binary %q not found", name)
		return result
	}
	result.Command = resolved
	result.Available = true
	return result
}
