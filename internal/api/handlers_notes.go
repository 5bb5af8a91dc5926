package api

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/dgallion1/audiogest/internal/export"
	"github.com/dgallion1/audiogest/internal/media"
	"github.com/dgallion1/audiogest/internal/pipeline"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

var audioExtensions = map[string]bool{
	".mp3":  true,
	".wav":  true,
	".ogg":  true,
	".opus": true,
	".m4a":  true,
	".flac": true,
	".webm": true,
}

// handleSubmit accepts either a media URL or an uploaded audio file and
// queues a notes job. The form carries "url" or "file" plus an optional
// "mode" ("notes", the default, or "transcript").
func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes+1024*1024) // extra 1MB for form overhead

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		jsonError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	mode := pipeline.ModeNotes
	switch r.FormValue("mode") {
	case "", string(pipeline.ModeNotes):
	case string(pipeline.ModeTranscript):
		mode = pipeline.ModeTranscript
	default:
		jsonError(w, "mode must be notes or transcript", http.StatusBadRequest)
		return
	}

	now := time.Now()
	job := &pipeline.Job{
		ID:        uuid.NewString(),
		Mode:      mode,
		Status:    pipeline.StatusQueued,
		Phase:     "queued",
		CreatedAt: now,
		UpdatedAt: now,
	}

	if url := strings.TrimSpace(r.FormValue("url")); url != "" {
		if !media.IsSupported(url) {
			jsonError(w, "url is not from a supported media site", http.StatusBadRequest)
			return
		}
		job.SourceURL = url
	} else {
		file, header, err := r.FormFile("file")
		if err != nil {
			jsonError(w, "either url or file is required: "+err.Error(), http.StatusBadRequest)
			return
		}
		defer file.Close()

		filename := filepath.Base(header.Filename)
		if !audioExtensions[strings.ToLower(filepath.Ext(filename))] {
			jsonError(w, fmt.Sprintf("unsupported audio type: %s", filepath.Ext(filename)), http.StatusBadRequest)
			return
		}

		data, err := io.ReadAll(io.LimitReader(file, s.cfg.MaxUploadBytes+1))
		if err != nil {
			jsonError(w, "failed to read file", http.StatusInternalServerError)
			return
		}
		if int64(len(data)) > s.cfg.MaxUploadBytes {
			jsonError(w, fmt.Sprintf("file exceeds max size (%d bytes)", s.cfg.MaxUploadBytes), http.StatusRequestEntityTooLarge)
			return
		}

		job.Filename = filename
		job.SetFileData(data)
	}

	if err := s.orchestrator.Submit(job); err != nil {
		jsonError(w, err.Error(), http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]any{
		"job_id":   job.ID,
		"mode":     job.Mode,
		"status":   job.Status,
		"poll_url": fmt.Sprintf("/api/notes/%s/status", job.ID),
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	job := s.orchestrator.GetJob(chi.URLParam(r, "jobID"))
	if job == nil {
		jsonError(w, "job not found", http.StatusNotFound)
		return
	}
	snap := job.Snapshot()
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(snap)
}

func (s *Server) handleMarkdown(w http.ResponseWriter, r *http.Request) {
	job, doc, ok := s.finishedJob(w, r)
	if !ok {
		return
	}
	name, body := export.Markdown(job.Title, doc)
	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.Write(body)
}

func (s *Server) handleHTML(w http.ResponseWriter, r *http.Request) {
	job, doc, ok := s.finishedJob(w, r)
	if !ok {
		return
	}
	name, body, err := export.HTML(job.Title, doc)
	if err != nil {
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.Write(body)
}

// finishedJob fetches a job and ensures it has a rendered document.
func (s *Server) finishedJob(w http.ResponseWriter, r *http.Request) (*pipeline.Job, string, bool) {
	job := s.orchestrator.GetJob(chi.URLParam(r, "jobID"))
	if job == nil {
		jsonError(w, "job not found", http.StatusNotFound)
		return nil, "", false
	}
	snap := job.Snapshot()
	if snap.Status != pipeline.StatusCompleted {
		jsonError(w, fmt.Sprintf("job is %s, not completed", snap.Status), http.StatusConflict)
		return nil, "", false
	}
	doc := job.Markdown()
	if doc == "" {
		jsonError(w, "job produced no document", http.StatusConflict)
		return nil, "", false
	}
	return job, doc, true
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
