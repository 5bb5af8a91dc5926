package media

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/lrstanley/go-ytdlp"
)

const (
	bestAudioFormat = "bestaudio/best"
	preferredCodec  = "mp3"
	preferredRate   = "192K"
	outputTemplate  = "%(title)s.%(ext)s"

	progressInterval = 500 * time.Millisecond
)

// YtdlpDownloader drives the yt-dlp binary through go-ytdlp.
type YtdlpDownloader struct {
	downloadDir string
	log         *slog.Logger
}

func NewYtdlpDownloader(downloadDir string, log *slog.Logger) *YtdlpDownloader {
	return &YtdlpDownloader{downloadDir: downloadDir, log: log}
}

// Probe resolves metadata without downloading, to read the reported file
// size and title.
func (d *YtdlpDownloader) Probe(ctx context.Context, url string) (*MediaInfo, error) {
	cmd := ytdlp.New().
		Simulate().
		DumpSingleJSON()

	res, err := cmd.Run(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("probe %s: %w", url, err)
	}

	var info MediaInfo
	if err := json.Unmarshal([]byte(res.Stdout), &info); err != nil {
		return nil, fmt.Errorf("parse probe output: %w", err)
	}
	return &info, nil
}

// Download fetches the best audio stream, post-processed to mp3, into the
// download directory. Returns the local path of the resulting file.
func (d *YtdlpDownloader) Download(ctx context.Context, url string, sink ProgressSink) (string, error) {
	cmd := ytdlp.New().
		Format(bestAudioFormat).
		ExtractAudio().
		AudioFormat(preferredCodec).
		AudioQuality(preferredRate).
		ForceOverwrites().
		Output(filepath.Join(d.downloadDir, outputTemplate))

	cmd.ProgressFunc(progressInterval, func(update ytdlp.ProgressUpdate) {
		if sink == nil {
			return
		}
		ev := ProgressEvent{
			Status:          StatusDownloading,
			DownloadedBytes: int64(update.DownloadedBytes),
			TotalBytes:      int64(update.TotalBytes),
		}
		if update.TotalBytes > 0 {
			ev.Percent = float64(update.DownloadedBytes) / float64(update.TotalBytes) * 100
		}
		sink(ev)
	})

	result, err := cmd.Run(ctx, url)
	if err != nil {
		return "", fmt.Errorf("yt-dlp run: %w", err)
	}

	info, err := result.GetExtractedInfo()
	if err != nil || len(info) == 0 || info[0].Filename == nil {
		return "", fmt.Errorf("downloader reported no output file for %s", url)
	}

	// The reported filename carries the pre-postprocessing extension; the
	// audio extractor rewrites it to mp3.
	path := *info[0].Filename
	path = strings.TrimSuffix(path, filepath.Ext(path)) + "." + preferredCodec
	d.log.Info("download complete", "path", path)
	return path, nil
}
