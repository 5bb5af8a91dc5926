package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/dgallion1/audiogest/internal/chunker"
	"github.com/dgallion1/audiogest/internal/config"
	"github.com/dgallion1/audiogest/internal/genai"
	"github.com/dgallion1/audiogest/internal/media"
	"github.com/dgallion1/audiogest/internal/notes"
	"github.com/dgallion1/audiogest/internal/outline"
)

// Worker runs one job through the full pipeline: acquire audio, transcribe,
// derive structure, stream section content, render. Strictly sequential —
// every suspension point is an I/O boundary.
type Worker struct {
	gen     *genai.Client
	fetcher *media.Fetcher
	log     *slog.Logger
	cfg     config.Config
}

func NewWorker(gen *genai.Client, fetcher *media.Fetcher, log *slog.Logger, cfg config.Config) *Worker {
	return &Worker{
		gen:     gen,
		fetcher: fetcher,
		log:     log,
		cfg:     cfg,
	}
}

// Process runs the state machine for a job. Any error aborts the remaining
// steps; a failed job holds no rendered document.
func (w *Worker) Process(ctx context.Context, job *Job) {
	log := w.log.With("job_id", job.ID, "mode", job.Mode)

	// Phase 1: acquire the audio artifact.
	artifact, err := w.acquire(ctx, job, log)
	if artifact != "" {
		// Idempotent cleanup on every exit, success or failure.
		defer media.Delete(artifact, log)
	}
	if err != nil {
		w.fail(job, log, "acquire", err)
		return
	}

	// Hard size gate on the final artifact, after any fallback transcode.
	info, err := os.Stat(artifact)
	if err != nil {
		w.fail(job, log, "acquire", fmt.Errorf("stat artifact: %w", err))
		return
	}
	if info.Size() > w.cfg.MaxAudioBytes {
		w.fail(job, log, "acquire", &media.SizeLimitError{
			Path: artifact,
			Size: info.Size(),
			Max:  w.cfg.MaxAudioBytes,
		})
		return
	}

	// Phase 2: transcribe.
	job.SetStatus(StatusTranscribing, "transcribing")
	transcript, err := withRetry(ctx, func() (string, error) {
		return w.gen.Transcribe(ctx, artifact, w.cfg.TranscribeModel)
	})
	if err != nil {
		// URL sources carry their own caption track; use it as the
		// transcript when audio transcription is rejected.
		if job.SourceURL == "" {
			w.fail(job, log, "transcribe", err)
			return
		}
		log.Warn("transcription failed, falling back to source captions", "error", err)
		captions, capErr := w.fetcher.Captions(ctx, job.SourceURL)
		if capErr != nil {
			log.Warn("caption fallback failed", "error", capErr)
			w.fail(job, log, "transcribe", err)
			return
		}
		transcript = captions
	}
	log.Info("transcription complete", "chars", len(transcript))

	// Phase 3: derive the outline.
	job.SetStatus(StatusStructuring, "structuring")
	structure, err := w.deriveStructure(ctx, job, log, transcript)
	if err != nil {
		w.fail(job, log, "structure", err)
		return
	}

	// Phase 4: generate and render.
	switch job.Mode {
	case ModeTranscript:
		err = w.generateTranscript(ctx, job, log, structure, transcript)
	default:
		err = w.generateNotes(ctx, job, log, structure, transcript)
	}
	if err != nil {
		w.fail(job, log, "generate", err)
		return
	}

	job.SetStatus(StatusCompleted, "done")
	log.Info("job complete", "title", job.Title)
}

// acquire turns the job's source (URL or uploaded bytes) into a local audio
// file and sets the job title.
func (w *Worker) acquire(ctx context.Context, job *Job, log *slog.Logger) (string, error) {
	if job.SourceURL != "" {
		if !media.IsSupported(job.SourceURL) {
			return "", &media.ValidationError{URL: job.SourceURL}
		}
		job.SetStatus(StatusDownloading, "downloading")
		res, err := w.fetcher.Fetch(ctx, job.SourceURL, func(ev media.ProgressEvent) {
			if ev.Status == media.StatusFinished {
				log.Info("download finished, converting if needed")
			}
			job.SetDownloadPercent(ev.Percent)
		})
		if err != nil {
			return "", err
		}
		job.SetTitle(res.Title)
		return res.Path, nil
	}

	// Uploaded audio: write it under the download directory so cleanup and
	// size handling match the fetch path.
	job.SetStatus(StatusDownloading, "receiving")
	name := media.SanitizeTitle(filepath.Base(job.Filename))
	if name == "" {
		name = "upload.mp3"
	}
	if err := os.MkdirAll(w.cfg.DownloadDir, 0o755); err != nil {
		return "", fmt.Errorf("create download dir: %w", err)
	}
	path := filepath.Join(w.cfg.DownloadDir, name)
	if err := os.WriteFile(path, job.FileData(), 0o644); err != nil {
		return "", fmt.Errorf("write upload: %w", err)
	}
	job.SetTitle(strings.TrimSuffix(name, filepath.Ext(name)))
	return path, nil
}

type outlineCall struct {
	stats *notes.GenerationStatistics
	text  string
}

// deriveStructure generates the notes outline. A transcript over the token
// budget is chunked and each chunk outlined separately; the per-chunk
// outlines are merged best-effort. A short transcript gets a single call
// whose outline must parse — a broken schema at this point aborts the job.
func (w *Worker) deriveStructure(ctx context.Context, job *Job, log *slog.Logger, transcript string) (*outline.Node, error) {
	tokens := chunker.EstimateTokens(transcript)
	if tokens <= w.cfg.MaxTranscriptTokens {
		job.SetChunks(1)
		call, err := w.outlineCall(ctx, job, transcript)
		if err != nil {
			return nil, err
		}
		structure, err := outline.Parse([]byte(call.text))
		if err != nil {
			return nil, err
		}
		return structure, nil
	}

	parts := chunker.Split(transcript, chunker.Config{
		MaxTokens:     w.cfg.MaxTranscriptTokens,
		OverlapTokens: w.cfg.ChunkOverlapTokens,
	})
	job.SetChunks(len(parts))
	log.Info("transcript over token budget, chunking", "tokens", tokens, "chunks", len(parts))

	chunkOutlines := make([]outline.ChunkOutline, 0, len(parts))
	for i, part := range parts {
		call, err := w.outlineCall(ctx, job, part)
		if err != nil {
			// Best-effort: a failed chunk is skipped, not fatal.
			log.Warn("chunk outline generation failed", "chunk", i, "error", err)
			job.AddError(fmt.Sprintf("chunk %d outline: %s", i, err))
			chunkOutlines = append(chunkOutlines, outline.ChunkOutline{})
			continue
		}
		chunkOutlines = append(chunkOutlines, outline.ChunkOutline{Raw: call.text})
	}

	merged, titles := outline.Merge(chunkOutlines, log)
	if len(merged) == 0 {
		return nil, &outline.ParseError{Msg: "no chunk produced a usable outline"}
	}
	log.Info("merged chunk outlines", "chunks", len(merged), "titles", len(titles))
	return outline.Composite(merged, len(chunkOutlines)), nil
}

func (w *Worker) outlineCall(ctx context.Context, job *Job, transcript string) (outlineCall, error) {
	call, err := withRetry(ctx, func() (outlineCall, error) {
		stats, text, err := w.gen.GenerateOutline(ctx, transcript, w.cfg.OutlineModel)
		return outlineCall{stats: stats, text: text}, err
	})
	if err != nil {
		return outlineCall{}, err
	}
	if err := job.AddStatistics(call.stats); err != nil {
		return outlineCall{}, err
	}
	return call, nil
}

// generateNotes streams content for every leaf section of the outline into
// a NoteTree, then renders the full document.
func (w *Worker) generateNotes(ctx context.Context, job *Job, log *slog.Logger, structure *outline.Node, transcript string) error {
	tree := notes.Build(structure, transcript)

	type leaf struct {
		title string
		desc  string
	}
	var leaves []leaf
	structure.Walk(func(_ []string, title string, node *outline.Node) {
		if node.IsLeaf() {
			leaves = append(leaves, leaf{title: title, desc: node.Description()})
		}
	})
	job.SetSectionsTotal(len(leaves))
	job.SetStatus(StatusGenerating, "generating")

	for _, l := range leaves {
		section := l.title + ": " + l.desc
		events, err := withRetry(ctx, func() (<-chan genai.Event, error) {
			return w.gen.StreamSection(ctx, transcript, tree.ExistingContents(), section, w.cfg.ContentModel)
		})
		if err != nil {
			return fmt.Errorf("section %q: %w", l.title, err)
		}

		for ev := range events {
			switch {
			case ev.Err != nil:
				return fmt.Errorf("section %q stream: %w", l.title, ev.Err)
			case ev.Stats != nil:
				if err := job.AddStatistics(ev.Stats); err != nil {
					return err
				}
			default:
				if tree.Update(l.title, ev.Token) == notes.UnknownTitle {
					log.Debug("token for unknown section ignored", "title", l.title)
				}
			}
		}
		job.IncrSectionsDone()
	}

	job.SetStatus(StatusRendering, "rendering")
	job.SetMarkdown(tree.FullMarkdown())
	return nil
}

// generateTranscript asks the model to segment the transcript into the
// outline's top-level sections with verbatim text, and renders the
// transcript-aligned view. This view preserves the full transcript.
func (w *Worker) generateTranscript(ctx context.Context, job *Job, log *slog.Logger, structure *outline.Node, transcript string) error {
	sections := structure.Titles()
	job.SetSectionsTotal(len(sections))
	job.SetStatus(StatusGenerating, "segmenting")

	type segCall struct {
		stats *notes.GenerationStatistics
		text  string
	}
	call, err := withRetry(ctx, func() (segCall, error) {
		stats, text, err := w.gen.GenerateTranscriptStructure(ctx, transcript, sections, w.cfg.OutlineModel)
		return segCall{stats: stats, text: text}, err
	})
	if err != nil {
		return err
	}
	if err := job.AddStatistics(call.stats); err != nil {
		return err
	}

	flat, err := outline.Parse([]byte(call.text))
	if err != nil {
		return err
	}

	tree := notes.Build(flat, transcript)
	job.SetStatus(StatusRendering, "rendering")
	job.SetMarkdown(tree.TranscriptMarkdown())
	return nil
}

func (w *Worker) fail(job *Job, log *slog.Logger, phase string, err error) {
	log.Error("job failed", "phase", phase, "error", err)
	job.AddError(err.Error())
	job.SetStatus(StatusFailed, phase)
}
