package media

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// DownloadResult is the artifact handed to the rest of the pipeline.
type DownloadResult struct {
	Path  string // local audio file, raw download or transcoded fallback
	Title string // sanitized source title
}

// ProgressEvent is one downloader status notification.
type ProgressEvent struct {
	Status          string // "downloading", "finished", "converting"
	Percent         float64
	DownloadedBytes int64
	TotalBytes      int64
}

// ProgressSink receives progress notifications. May be nil.
type ProgressSink func(ProgressEvent)

const (
	StatusDownloading = "downloading"
	StatusFinished    = "finished"
	StatusConverting  = "converting"
)

// MediaInfo is the metadata resolved before downloading.
type MediaInfo struct {
	ID             string `json:"id"`
	Title          string `json:"title"`
	Filesize       int64  `json:"filesize"`
	FilesizeApprox int64  `json:"filesize_approx"`
}

// ReportedSize returns the pre-download size estimate, preferring the exact
// figure when the provider reports one.
func (m *MediaInfo) ReportedSize() int64 {
	if m.Filesize > 0 {
		return m.Filesize
	}
	return m.FilesizeApprox
}

// Downloader is the backend that resolves metadata, fetches the best audio
// stream to a local file, and extracts the source's own captions when audio
// transcription is unavailable.
type Downloader interface {
	Probe(ctx context.Context, url string) (*MediaInfo, error)
	Download(ctx context.Context, url string, sink ProgressSink) (string, error)
	Captions(ctx context.Context, url string) (string, error)
}

// Transcoder converts an audio artifact into the small fallback profile.
// A failed encode reports ok=false; the caller decides how to recover.
type Transcoder interface {
	Transcode(ctx context.Context, input string) (out string, ok bool)
}

// Fetcher runs the acquisition state machine: metadata probe, download,
// size-gated fallback transcode, bounded retry.
type Fetcher struct {
	backend    Downloader
	transcoder Transcoder
	log        *slog.Logger

	sizeThreshold int64
	retries       int
	retryDelay    time.Duration
}

func NewFetcher(backend Downloader, transcoder Transcoder, log *slog.Logger, sizeThreshold int64, retries int, retryDelay time.Duration) *Fetcher {
	if retries <= 0 {
		retries = 3
	}
	if retryDelay <= 0 {
		retryDelay = 2 * time.Second
	}
	return &Fetcher{
		backend:       backend,
		transcoder:    transcoder,
		log:           log,
		sizeThreshold: sizeThreshold,
		retries:       retries,
		retryDelay:    retryDelay,
	}
}

// Fetch downloads the audio for url and returns the local artifact. The
// whole sequence (metadata + download + optional transcode) is one retry
// unit: on any failure it waits a constant delay and starts over, and after
// the retry ceiling the last error surfaces as a *FetchError. The delay is
// deliberately constant, keeping total wait bounded and easy to reason
// about.
func (f *Fetcher) Fetch(ctx context.Context, url string, sink ProgressSink) (DownloadResult, error) {
	var lastErr error
	for attempt := 1; attempt <= f.retries; attempt++ {
		res, err := f.fetchOnce(ctx, url, sink)
		if err == nil {
			return res, nil
		}
		lastErr = err
		f.log.Warn("download attempt failed", "url", url, "attempt", attempt, "max", f.retries, "error", err)
		if attempt < f.retries {
			select {
			case <-time.After(f.retryDelay):
			case <-ctx.Done():
				return DownloadResult{}, ctx.Err()
			}
		}
	}
	return DownloadResult{}, &FetchError{URL: url, Attempts: f.retries, Err: lastErr}
}

func (f *Fetcher) fetchOnce(ctx context.Context, url string, sink ProgressSink) (DownloadResult, error) {
	info, err := f.backend.Probe(ctx, url)
	if err != nil {
		return DownloadResult{}, fmt.Errorf("resolve metadata: %w", err)
	}

	title := info.Title
	if title == "" {
		id := info.ID
		if id == "" {
			id = "unknown"
		}
		title = "Video with ID: " + id
	}

	path, err := f.backend.Download(ctx, url, sink)
	if err != nil {
		return DownloadResult{}, fmt.Errorf("download: %w", err)
	}
	f.emit(sink, ProgressEvent{Status: StatusFinished, Percent: 100})

	if info.ReportedSize() > f.sizeThreshold {
		f.log.Info("reported size over threshold, transcoding",
			"reported", info.ReportedSize(), "threshold", f.sizeThreshold)
		f.emit(sink, ProgressEvent{Status: StatusConverting})
		out, ok := f.transcoder.Transcode(ctx, path)
		if !ok {
			return DownloadResult{}, fmt.Errorf("transcode fallback failed for %s", path)
		}
		path = out
	}

	return DownloadResult{Path: path, Title: SanitizeTitle(title)}, nil
}

// Captions pulls the source's own subtitle track as plain text. Used as the
// transcript of last resort when audio transcription is rejected.
func (f *Fetcher) Captions(ctx context.Context, url string) (string, error) {
	return f.backend.Captions(ctx, url)
}

func (f *Fetcher) emit(sink ProgressSink, ev ProgressEvent) {
	if sink != nil {
		sink(ev)
	}
}
