package media

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/lrstanley/go-ytdlp"
)

const captionLang = "en"

var cueTagPattern = regexp.MustCompile(`<[^>]+>`)

// Captions fetches the source's subtitle track — uploaded subtitles first,
// auto-generated captions as fallback — and flattens it to plain text. This
// is the transcript of last resort when audio transcription is rejected.
func (d *YtdlpDownloader) Captions(ctx context.Context, url string) (string, error) {
	dir, err := os.MkdirTemp("", "audiogest-subs-")
	if err != nil {
		return "", fmt.Errorf("caption temp dir: %w", err)
	}
	defer os.RemoveAll(dir)

	cmd := ytdlp.New().
		SkipDownload().
		WriteSubs().
		WriteAutoSubs().
		SubLangs(captionLang).
		SubFormat("vtt").
		Output(filepath.Join(dir, "%(id)s.%(ext)s"))

	if _, err := cmd.Run(ctx, url); err != nil {
		return "", fmt.Errorf("caption fetch %s: %w", url, err)
	}

	matches, err := filepath.Glob(filepath.Join(dir, "*.vtt"))
	if err != nil || len(matches) == 0 {
		return "", fmt.Errorf("no caption track available for %s", url)
	}

	data, err := os.ReadFile(matches[0])
	if err != nil {
		return "", fmt.Errorf("read captions: %w", err)
	}

	text := ParseVTT(string(data))
	if text == "" {
		return "", fmt.Errorf("caption track for %s is empty", url)
	}
	d.log.Info("caption fallback transcript extracted", "url", url, "chars", len(text))
	return text, nil
}

// ParseVTT flattens a WebVTT subtitle file to plain text: headers, cue
// timings, cue numbers and inline tags are dropped, and consecutive
// duplicate lines are collapsed (auto-captions repeat each line across
// overlapping cues).
func ParseVTT(data string) string {
	var lines []string
	prev := ""
	for _, line := range strings.Split(data, "\n") {
		line = strings.TrimSpace(line)
		switch {
		case line == "",
			strings.HasPrefix(line, "WEBVTT"),
			strings.HasPrefix(line, "Kind:"),
			strings.HasPrefix(line, "Language:"),
			strings.HasPrefix(line, "NOTE"),
			strings.HasPrefix(line, "STYLE"),
			strings.Contains(line, "-->"),
			isCueNumber(line):
			continue
		}
		line = strings.TrimSpace(cueTagPattern.ReplaceAllString(line, ""))
		if line == "" || line == prev {
			continue
		}
		lines = append(lines, line)
		prev = line
	}
	return strings.Join(lines, " ")
}

func isCueNumber(line string) bool {
	for _, r := range line {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
