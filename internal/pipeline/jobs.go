package pipeline

import (
	"sync"
	"time"

	"github.com/dgallion1/audiogest/internal/notes"
)

// JobStatus represents the state of a notes job.
type JobStatus string

const (
	StatusQueued       JobStatus = "queued"
	StatusDownloading  JobStatus = "downloading"
	StatusTranscribing JobStatus = "transcribing"
	StatusStructuring  JobStatus = "structuring"
	StatusGenerating   JobStatus = "generating"
	StatusRendering    JobStatus = "rendering"
	StatusCompleted    JobStatus = "completed"
	StatusFailed       JobStatus = "failed"
)

// Mode selects the pipeline's second half: comprehensive notes or a
// structured verbatim transcript.
type Mode string

const (
	ModeNotes      Mode = "notes"
	ModeTranscript Mode = "transcript"
)

// Job tracks the state of a single audio-to-notes run. It is the explicit
// per-invocation context object: every mutable thing a run touches lives
// here, not in package globals.
type Job struct {
	mu sync.Mutex

	ID   string `json:"job_id"`
	Mode Mode   `json:"mode"`

	// Exactly one of SourceURL / Filename is set.
	SourceURL string `json:"source_url,omitempty"`
	Filename  string `json:"filename,omitempty"`

	Status JobStatus `json:"status"`
	Phase  string    `json:"phase"`
	Title  string    `json:"title"`

	Progress   Progress                   `json:"progress"`
	Statistics notes.GenerationStatistics `json:"statistics"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Internal: not serialized.
	fileData []byte
	markdown string
	errors   []string
}

// Progress tracks pipeline progress.
type Progress struct {
	DownloadPercent float64  `json:"download_percent"`
	Chunks          int      `json:"chunks"`
	SectionsTotal   int      `json:"sections_total"`
	SectionsDone    int      `json:"sections_done"`
	Errors          []string `json:"errors"`
}

// JobStore is a thread-safe in-memory job registry with TTL eviction.
type JobStore struct {
	mu   sync.Mutex
	jobs map[string]*Job
	ttl  time.Duration
}

func NewJobStore(ttl time.Duration) *JobStore {
	return &JobStore{
		jobs: make(map[string]*Job),
		ttl:  ttl,
	}
}

func (s *JobStore) Put(job *Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.ID] = job
}

func (s *JobStore) Get(id string) *Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.jobs[id]
}

// Cleanup removes expired jobs.
func (s *JobStore) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for id, job := range s.jobs {
		if now.Sub(job.UpdatedAt) > s.ttl {
			delete(s.jobs, id)
		}
	}
}

// SetStatus updates job status atomically.
func (j *Job) SetStatus(status JobStatus, phase string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Status = status
	j.Phase = phase
	j.UpdatedAt = time.Now()
}

// AddError records an error.
func (j *Job) AddError(err string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.errors = append(j.errors, err)
	j.Progress.Errors = j.errors
	j.UpdatedAt = time.Now()
}

// SetTitle records the sanitized source title.
func (j *Job) SetTitle(title string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Title = title
	j.UpdatedAt = time.Now()
}

// SetDownloadPercent records downloader progress.
func (j *Job) SetDownloadPercent(pct float64) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Progress.DownloadPercent = pct
	j.UpdatedAt = time.Now()
}

// SetChunks records how many transcript chunks structure generation used.
func (j *Job) SetChunks(n int) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Progress.Chunks = n
	j.UpdatedAt = time.Now()
}

// SetSectionsTotal records how many sections will be generated.
func (j *Job) SetSectionsTotal(n int) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Progress.SectionsTotal = n
	j.UpdatedAt = time.Now()
}

// IncrSectionsDone atomically increments finished sections.
func (j *Job) IncrSectionsDone() {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Progress.SectionsDone++
	j.UpdatedAt = time.Now()
}

// AddStatistics accumulates a generation statistics record into the job's
// running totals.
func (j *Job) AddStatistics(s *notes.GenerationStatistics) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if err := j.Statistics.Add(s); err != nil {
		return err
	}
	j.UpdatedAt = time.Now()
	return nil
}

// SetFileData sets the raw uploaded audio bytes.
func (j *Job) SetFileData(data []byte) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.fileData = data
}

// FileData returns the raw uploaded audio bytes.
func (j *Job) FileData() []byte {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.fileData
}

// SetMarkdown stores the rendered notes document.
func (j *Job) SetMarkdown(md string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.markdown = md
	j.UpdatedAt = time.Now()
}

// Markdown returns the rendered notes document ("" until rendering).
func (j *Job) Markdown() string {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.markdown
}

// JobSnapshot is a read-only, JSON-safe copy of job state.
type JobSnapshot struct {
	ID         string                     `json:"job_id"`
	Mode       Mode                       `json:"mode"`
	SourceURL  string                     `json:"source_url,omitempty"`
	Filename   string                     `json:"filename,omitempty"`
	Status     JobStatus                  `json:"status"`
	Phase      string                     `json:"phase"`
	Title      string                     `json:"title"`
	Progress   Progress                   `json:"progress"`
	Statistics notes.GenerationStatistics `json:"statistics"`
}

// Snapshot returns a JSON-safe copy of the job state.
func (j *Job) Snapshot() JobSnapshot {
	j.mu.Lock()
	defer j.mu.Unlock()
	errs := j.Progress.Errors
	if errs == nil {
		errs = []string{}
	}
	return JobSnapshot{
		ID:        j.ID,
		Mode:      j.Mode,
		SourceURL: j.SourceURL,
		Filename:  j.Filename,
		Status:    j.Status,
		Phase:     j.Phase,
		Title:     j.Title,
		Progress: Progress{
			DownloadPercent: j.Progress.DownloadPercent,
			Chunks:          j.Progress.Chunks,
			SectionsTotal:   j.Progress.SectionsTotal,
			SectionsDone:    j.Progress.SectionsDone,
			Errors:          errs,
		},
		Statistics: j.Statistics,
	}
}
