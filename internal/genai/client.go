// Package genai is the client for the external generation capability: chat
// completions for outline and section generation (streamed), and
// speech-to-text transcription. The provider speaks an OpenAI-compatible
// API; usage records carry the queue/prompt/completion timings this
// pipeline turns into GenerationStatistics.
package genai

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/dgallion1/audiogest/internal/notes"
)

// Client calls the generation provider's HTTP API.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client

	// Stats tracks recent call latencies for the /api/stats/llm endpoint.
	Stats *LatencyStats
}

func NewClient(apiKey, baseURL string) *Client {
	return &Client{
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 120 * time.Second,
		},
		Stats: NewLatencyStats(time.Hour),
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Stream      bool          `json:"stream,omitempty"`
}

// chatUsage is the provider's usage record. Times are seconds.
type chatUsage struct {
	PromptTokens     int     `json:"prompt_tokens"`
	CompletionTokens int     `json:"completion_tokens"`
	PromptTime       float64 `json:"prompt_time"`
	CompletionTime   float64 `json:"completion_time"`
	TotalTime        float64 `json:"total_time"`
}

func (u *chatUsage) toStatistics(model string) *notes.GenerationStatistics {
	return &notes.GenerationStatistics{
		InputTokens:  u.PromptTokens,
		OutputTokens: u.CompletionTokens,
		InputTime:    u.PromptTime,
		OutputTime:   u.CompletionTime,
		TotalTime:    u.TotalTime,
		ModelName:    model,
	}
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage *chatUsage `json:"usage"`
	Error *apiError  `json:"error"`
}

type apiError struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// streamChunk is one SSE data frame of a streamed completion. The final
// frame carries the usage record under the provider extension key.
type streamChunk struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
	} `json:"choices"`
	XGroq *struct {
		Usage *chatUsage `json:"usage"`
	} `json:"x_groq"`
}

// complete performs one non-streaming chat completion.
func (c *Client) complete(ctx context.Context, model, system, user string, temperature float64) (*notes.GenerationStatistics, string, error) {
	reqBody := chatRequest{
		Model:       model,
		Temperature: temperature,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
	}
	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, "", fmt.Errorf("marshal request: %w", err)
	}

	start := time.Now()
	resp, err := c.post(ctx, "/chat/completions", "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, "", fmt.Errorf("read response: %w", err)
	}
	if err := checkStatus(resp.StatusCode, respBody); err != nil {
		return nil, "", err
	}
	c.Stats.Record(time.Since(start))

	var apiResp chatResponse
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		return nil, "", fmt.Errorf("decode response: %w", err)
	}
	if apiResp.Error != nil {
		return nil, "", fmt.Errorf("provider error: %s: %s", apiResp.Error.Type, apiResp.Error.Message)
	}
	if len(apiResp.Choices) == 0 {
		return nil, "", fmt.Errorf("empty response from provider")
	}

	stats := &notes.GenerationStatistics{ModelName: model}
	if apiResp.Usage != nil {
		stats = apiResp.Usage.toStatistics(model)
	}
	return stats, apiResp.Choices[0].Message.Content, nil
}

// GenerateOutline asks for the notes structure for a transcript and returns
// the usage statistics plus the raw outline JSON text.
func (c *Client) GenerateOutline(ctx context.Context, transcript, model string) (*notes.GenerationStatistics, string, error) {
	stats, text, err := c.complete(ctx, model, outlineSystemPrompt, BuildOutlinePrompt(transcript), 0.3)
	if err != nil {
		return nil, "", err
	}
	return stats, StripCodeBlock(text), nil
}

// GenerateTranscriptStructure segments a transcript into the given sections
// and returns the flat structure JSON text, with the model's ---
// boundary separators removed.
func (c *Client) GenerateTranscriptStructure(ctx context.Context, transcript string, sections []string, model string) (*notes.GenerationStatistics, string, error) {
	stats, text, err := c.complete(ctx, model, transcriptStructureSystemPrompt, BuildTranscriptStructurePrompt(transcript, sections), 0.3)
	if err != nil {
		return nil, "", err
	}
	return stats, stripSeparators(StripCodeBlock(text)), nil
}

// StreamSection streams one section's content. The returned channel yields
// Token events in provider order; the usage record, when present, arrives
// as a Stats event closing out the token run. The channel is closed when
// the stream ends.
func (c *Client) StreamSection(ctx context.Context, transcript, existingNotes, section, model string) (<-chan Event, error) {
	reqBody := chatRequest{
		Model:       model,
		Temperature: 0.3,
		Stream:      true,
		Messages: []chatMessage{
			{Role: "system", Content: sectionSystemPrompt},
			{Role: "user", Content: BuildSectionPrompt(transcript, existingNotes, section)},
		},
	}
	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	start := time.Now()
	resp, err := c.post(ctx, "/chat/completions", "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		resp.Body.Close()
		return nil, checkStatus(resp.StatusCode, respBody)
	}

	events := make(chan Event)
	go func() {
		defer close(events)
		defer resp.Body.Close()
		defer c.Stats.Record(time.Since(start))

		scanner := bufio.NewScanner(resp.Body)
		scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if !strings.HasPrefix(line, "data: ") {
				continue
			}
			data := strings.TrimPrefix(line, "data: ")
			if data == "[DONE]" {
				return
			}

			var chunk streamChunk
			if err := json.Unmarshal([]byte(data), &chunk); err != nil {
				events <- Event{Err: fmt.Errorf("decode stream chunk: %w", err)}
				return
			}
			if len(chunk.Choices) > 0 && chunk.Choices[0].Delta.Content != "" {
				select {
				case events <- Event{Token: chunk.Choices[0].Delta.Content}:
				case <-ctx.Done():
					return
				}
			}
			if chunk.XGroq != nil && chunk.XGroq.Usage != nil {
				select {
				case events <- Event{Stats: chunk.XGroq.Usage.toStatistics(model)}:
				case <-ctx.Done():
					return
				}
			}
		}
		if err := scanner.Err(); err != nil {
			events <- Event{Err: fmt.Errorf("read stream: %w", err)}
		}
	}()

	return events, nil
}

func (c *Client) post(ctx context.Context, path, contentType string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("provider api: %w", err)
	}
	return resp, nil
}

// checkStatus maps non-OK statuses to errors, marking transient ones
// retryable.
func checkStatus(status int, body []byte) error {
	if status == http.StatusOK {
		return nil
	}
	if status == http.StatusTooManyRequests || status >= 500 {
		return &RetryableError{StatusCode: status, Message: string(body)}
	}
	return fmt.Errorf("provider api status %d: %s", status, truncate(string(body), 200))
}

var codeBlockRe = regexp.MustCompile("(?s)^```(?:json)?\\s*(.*?)\\s*```$")

// StripCodeBlock removes a surrounding markdown code fence, if present.
func StripCodeBlock(s string) string {
	s = strings.TrimSpace(s)
	if m := codeBlockRe.FindStringSubmatch(s); len(m) > 1 {
		return m[1]
	}
	return s
}

// stripSeparators drops standalone --- boundary-marker lines the
// segmentation prompt asks for, which are noise once the JSON is assembled.
func stripSeparators(s string) string {
	lines := strings.Split(s, "\n")
	out := lines[:0]
	for _, line := range lines {
		if strings.TrimSpace(line) == "---" {
			continue
		}
		out = append(out, line)
	}
	return strings.Join(out, "\n")
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// RetryableError indicates a transient provider failure worth retrying.
type RetryableError struct {
	StatusCode int
	Message    string
}

func (e *RetryableError) Error() string {
	return fmt.Sprintf("retryable error (status %d): %s", e.StatusCode, truncate(e.Message, 200))
}

// Close releases resources.
func (c *Client) Close() {
	c.httpClient.CloseIdleConnections()
}
