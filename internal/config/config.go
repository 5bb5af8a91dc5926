package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port string

	// Auth
	AudiogestAPIKey string

	// Groq generation / transcription
	GroqAPIKey      string
	GroqBaseURL     string
	OutlineModel    string
	ContentModel    string
	TranscribeModel string

	// Media acquisition
	DownloadDir        string
	SizeThresholdBytes int64 // reported size above this routes to the transcode fallback
	MaxAudioBytes      int64 // hard limit on the final artifact
	FetchRetries       int
	FetchRetryDelay    time.Duration

	// Transcript chunking
	MaxTranscriptTokens int // above this the transcript is chunked before outlining
	ChunkOverlapTokens  int

	// Job state
	MaxQueueSize int
	JobTTL       time.Duration

	// Upload limits
	MaxUploadBytes int64
}

func Load() Config {
	cfg := Config{
		Port: envOr("PORT", "8091"),

		AudiogestAPIKey: os.Getenv("AUDIOGEST_API_KEY"),

		GroqAPIKey:      os.Getenv("GROQ_API_KEY"),
		GroqBaseURL:     envOr("GROQ_BASE_URL", "https://api.groq.com/openai/v1"),
		OutlineModel:    envOr("OUTLINE_MODEL", "llama-3.3-70b-versatile"),
		ContentModel:    envOr("CONTENT_MODEL", "llama-3.1-8b-instant"),
		TranscribeModel: envOr("TRANSCRIBE_MODEL", "whisper-large-v3"),

		DownloadDir:        envOr("DOWNLOAD_DIR", "./downloads/audio"),
		SizeThresholdBytes: envInt64("SIZE_THRESHOLD_BYTES", 20*1024*1024), // 20MB
		MaxAudioBytes:      envInt64("MAX_AUDIO_BYTES", 25*1024*1024),      // 25MB
		FetchRetries:       envInt("FETCH_RETRIES", 3),
		FetchRetryDelay:    envDuration("FETCH_RETRY_DELAY", 2*time.Second),

		MaxTranscriptTokens: envInt("MAX_TRANSCRIPT_TOKENS", 6000),
		ChunkOverlapTokens:  envInt("CHUNK_OVERLAP_TOKENS", 200),

		MaxQueueSize: envInt("MAX_QUEUE_SIZE", 20),
		JobTTL:       envDuration("JOB_TTL", 1*time.Hour),

		MaxUploadBytes: envInt64("MAX_UPLOAD_BYTES", 52428800), // 50MB
	}

	if cfg.SizeThresholdBytes <= 0 {
		cfg.SizeThresholdBytes = 20 * 1024 * 1024
	}
	if cfg.MaxAudioBytes <= 0 {
		cfg.MaxAudioBytes = 25 * 1024 * 1024
	}
	if cfg.FetchRetries <= 0 {
		cfg.FetchRetries = 3
	}
	if cfg.FetchRetryDelay <= 0 {
		cfg.FetchRetryDelay = 2 * time.Second
	}
	if cfg.MaxTranscriptTokens <= 0 {
		cfg.MaxTranscriptTokens = 6000
	}
	if cfg.ChunkOverlapTokens <= 0 {
		cfg.ChunkOverlapTokens = 200
	}
	if cfg.MaxQueueSize <= 0 {
		cfg.MaxQueueSize = 20
	}
	if cfg.JobTTL <= 0 {
		cfg.JobTTL = 1 * time.Hour
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 52428800
	}

	return cfg
}

func (c Config) Validate() error {
	if c.AudiogestAPIKey == "" {
		return fmt.Errorf("AUDIOGEST_API_KEY is required")
	}
	if c.GroqAPIKey == "" {
		return fmt.Errorf("GROQ_API_KEY is required")
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
