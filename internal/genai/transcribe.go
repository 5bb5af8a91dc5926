package genai

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Transcribe uploads a local audio file to the provider's speech-to-text
// endpoint and returns the plain transcript text.
func (c *Client) Transcribe(ctx context.Context, audioPath, model string) (string, error) {
	f, err := os.Open(audioPath)
	if err != nil {
		return "", fmt.Errorf("open audio: %w", err)
	}
	defer f.Close()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	part, err := mw.CreateFormFile("file", filepath.Base(audioPath))
	if err != nil {
		return "", fmt.Errorf("build form: %w", err)
	}
	if _, err := io.Copy(part, f); err != nil {
		return "", fmt.Errorf("read audio: %w", err)
	}
	if err := mw.WriteField("model", model); err != nil {
		return "", fmt.Errorf("build form: %w", err)
	}
	if err := mw.WriteField("response_format", "text"); err != nil {
		return "", fmt.Errorf("build form: %w", err)
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("build form: %w", err)
	}

	start := time.Now()
	resp, err := c.post(ctx, "/audio/transcriptions", mw.FormDataContentType(), &body)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 16<<20))
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	if err := checkStatus(resp.StatusCode, respBody); err != nil {
		return "", err
	}
	c.Stats.Record(time.Since(start))

	return strings.TrimSpace(string(respBody)), nil
}
