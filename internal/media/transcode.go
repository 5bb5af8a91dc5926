package media

import (
	"bufio"
	"context"
	"log/slog"
	"os"
	"os/exec"
	"time"
)

// FFmpeg argument profile for the large-file fallback: strip video and
// metadata, force mono, low-bitrate Opus tuned for voice.
const (
	ffmpegCommand   = "ffmpeg"
	audioCodec      = "libopus"
	audioBitrate    = "12k"
	opusApplication = "voip"
	outputSuffix    = ".ogg"

	// Lets a progress indicator visibly reach 100% before the result is
	// returned. UX contract, not a correctness requirement.
	completionPause = 500 * time.Millisecond
)

// FFmpegTranscoder converts arbitrary input audio into a normalized mono,
// voice-optimized Opus container colocated with the job's other artifacts.
type FFmpegTranscoder struct {
	downloadDir string
	log         *slog.Logger
	pause       time.Duration
}

func NewFFmpegTranscoder(downloadDir string, log *slog.Logger) *FFmpegTranscoder {
	return &FFmpegTranscoder{
		downloadDir: downloadDir,
		log:         log,
		pause:       completionPause,
	}
}

// BuildArgs returns the ffmpeg argument list for the fallback profile.
func BuildArgs(inputPath, outputPath string) []string {
	return []string{
		"-i", inputPath,
		"-vn",                 // strip video streams
		"-map_metadata", "-1", // strip metadata
		"-ac", "1", // mono
		"-c:a", audioCodec,
		"-b:a", audioBitrate,
		"-application", opusApplication,
		"-y", // overwrite if present
		outputPath,
	}
}

// Transcode converts input into the fallback profile and returns the output
// path. A failed encode returns ("", false) rather than an error: the caller
// decides how to recover.
//
// The output file is created in the system temp location and moved into the
// download directory before ffmpeg runs, so the encoder always writes to a
// path that is writable and colocated with the rest of the job's artifacts.
func (t *FFmpegTranscoder) Transcode(ctx context.Context, input string) (string, bool) {
	tmp, err := os.CreateTemp("", "audiogest-*"+outputSuffix)
	if err != nil {
		t.log.Error("transcode temp file", "error", err)
		return "", false
	}
	tmp.Close()

	output, err := MoveToDir(tmp.Name(), t.downloadDir)
	if err != nil {
		t.log.Error("transcode move", "error", err)
		os.Remove(tmp.Name())
		return "", false
	}

	cmd := exec.CommandContext(ctx, ffmpegCommand, BuildArgs(input, output)...)
	stderr, err := cmd.StderrPipe()
	if err != nil {
		t.log.Error("transcode stderr pipe", "error", err)
		return "", false
	}
	if err := cmd.Start(); err != nil {
		t.log.Error("transcode start", "error", err)
		return "", false
	}

	// ffmpeg reports progress on stderr; drain it line-by-line so the
	// encode never blocks and every line is observable.
	scanner := bufio.NewScanner(stderr)
	for scanner.Scan() {
		t.log.Debug("ffmpeg", "line", scanner.Text())
	}

	if err := cmd.Wait(); err != nil {
		t.log.Error("transcode failed", "input", input, "error", err)
		os.Remove(output)
		return "", false
	}

	t.log.Info("preprocessing complete", "output", output)
	time.Sleep(t.pause)
	return output, true
}
