package audio

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

var execCommandContext = exec.CommandContext

// ProbeDuration returns the duration in seconds of the audio at source,
// which may be a local path or an http(s) URL. It shells out to ffprobe.
func ProbeDuration(ctx context.Context, source string) (float64, error) {
	cmd := execCommandContext(ctx, "ffprobe",
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		source,
	)

	output, err := cmd.Output()
	if err != nil {
		return 0, fmt.Errorf("failed to execute ffprobe: %w", err)
	}

	return parseDuration(string(output))
}

func parseDuration(output string) (float64, error) {
	value := strings.TrimSpace(output)
	if i := strings.IndexByte(value, '\n'); i >= 0 {
		value = strings.TrimSpace(value[:i])
	}
	if value == "" || value == "N/A" {
		return 0, fmt.Errorf("ffprobe reported no duration")
	}
	seconds, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid ffprobe duration %q: %w", value, err)
	}
	if seconds < 0 {
		return 0, fmt.Errorf("invalid ffprobe duration %q", value)
	}
	return seconds, nil
}
