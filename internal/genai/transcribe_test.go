package genai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

func TestTranscribe(t *testing.T) {
	audioPath := filepath.Join(t.TempDir(), "talk.ogg")
	if err := os.WriteFile(audioPath, []byte("fake opus bytes"), 0o644); err != nil {
		t.Fatal(err)
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/audio/transcriptions" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("parse multipart: %v", err)
		}
		if got := r.FormValue("model"); got != "test-whisper" {
			t.Errorf("model = %q", got)
		}
		if got := r.FormValue("response_format"); got != "text" {
			t.Errorf("response_format = %q", got)
		}

		f, header, err := r.FormFile("file")
		if err != nil {
			t.Fatalf("form file: %v", err)
		}
		defer f.Close()
		if header.Filename != "talk.ogg" {
			t.Errorf("filename = %q", header.Filename)
		}

		fmt.Fprint(w, "  This is the transcript.\n")
	}))
	defer srv.Close()

	c := NewClient("k", srv.URL)
	text, err := c.Transcribe(context.Background(), audioPath, "test-whisper")
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if text != "This is the transcript." {
		t.Errorf("text = %q", text)
	}
}

func TestTranscribe_MissingFile(t *testing.T) {
	c := NewClient("k", "http://unused.invalid")
	_, err := c.Transcribe(context.Background(), "/no/such/file.ogg", "m")
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestTranscribe_RetryableStatus(t *testing.T) {
	audioPath := filepath.Join(t.TempDir(), "talk.ogg")
	if err := os.WriteFile(audioPath, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "try later", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := NewClient("k", srv.URL)
	_, err := c.Transcribe(context.Background(), audioPath, "m")
	var re *RetryableError
	if !errors.As(err, &re) {
		t.Fatalf("expected *RetryableError, got %v", err)
	}
}
