package genai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestStripCodeBlock(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"```json\n{\"a\": \"b\"}\n```", `{"a": "b"}`},
		{"```\n{\"a\": \"b\"}\n```", `{"a": "b"}`},
		{"  ```json\n{\"a\": \"b\"}\n```  ", `{"a": "b"}`},
		{`{"a": "b"}`, `{"a": "b"}`},
		{"no fences here", "no fences here"},
		{"", ""},
	}
	for _, tc := range cases {
		if got := StripCodeBlock(tc.in); got != tc.want {
			t.Errorf("StripCodeBlock(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestStripSeparators(t *testing.T) {
	in := "{\n\"A\": \"one\",\n---\n\"B\": \"two\"\n  ---  \n}"
	got := stripSeparators(in)
	if strings.Contains(got, "---") {
		t.Errorf("separators survived: %q", got)
	}
	if !strings.Contains(got, `"A": "one",`) || !strings.Contains(got, `"B": "two"`) {
		t.Errorf("content damaged: %q", got)
	}
}

func TestCheckStatus(t *testing.T) {
	if err := checkStatus(http.StatusOK, nil); err != nil {
		t.Errorf("200 should be nil, got %v", err)
	}

	var re *RetryableError
	for _, code := range []int{http.StatusTooManyRequests, http.StatusInternalServerError, http.StatusBadGateway} {
		err := checkStatus(code, []byte("overloaded"))
		if !errors.As(err, &re) {
			t.Errorf("status %d: expected *RetryableError, got %v", code, err)
		}
	}

	err := checkStatus(http.StatusBadRequest, []byte("bad request"))
	if err == nil || errors.As(err, &re) {
		t.Errorf("400 must be a plain, non-retryable error, got %v", err)
	}
}

func TestGenerateOutline_StripsFences(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("auth header = %q", got)
		}

		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.Stream {
			t.Error("outline generation must not stream")
		}
		if len(req.Messages) != 2 || req.Messages[0].Role != "system" {
			t.Errorf("unexpected messages: %+v", req.Messages)
		}

		fmt.Fprint(w, `{
			"choices": [{"message": {"content": "`+"```json\\n{\\\"Intro\\\": \\\"desc\\\"}\\n```"+`"}}],
			"usage": {"prompt_tokens": 10, "completion_tokens": 5, "prompt_time": 0.1, "completion_time": 0.2, "total_time": 0.3}
		}`)
	}))
	defer srv.Close()

	c := NewClient("test-key", srv.URL)
	stats, text, err := c.GenerateOutline(context.Background(), "transcript text", "test-model")
	if err != nil {
		t.Fatalf("GenerateOutline: %v", err)
	}
	if text != `{"Intro": "desc"}` {
		t.Errorf("text = %q", text)
	}
	if stats.InputTokens != 10 || stats.OutputTokens != 5 {
		t.Errorf("stats = %+v", stats)
	}
	if stats.ModelName != "test-model" {
		t.Errorf("model name = %q", stats.ModelName)
	}
	if c.Stats.Snapshot().Count != 1 {
		t.Errorf("latency sample not recorded")
	}
}

func TestGenerateOutline_RetryableStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := NewClient("k", srv.URL)
	_, _, err := c.GenerateOutline(context.Background(), "t", "m")
	var re *RetryableError
	if !errors.As(err, &re) {
		t.Fatalf("expected *RetryableError, got %v", err)
	}
	if re.StatusCode != http.StatusTooManyRequests {
		t.Errorf("status = %d", re.StatusCode)
	}
}

func TestStreamSection_TokensThenStats(t *testing.T) {
	frames := []string{
		`data: {"choices":[{"delta":{"content":"Hello"}}]}`,
		`data: {"choices":[{"delta":{"content":", world"}}]}`,
		``,
		`: keep-alive comment`,
		`data: {"choices":[{"delta":{}}],"x_groq":{"usage":{"prompt_tokens":7,"completion_tokens":2,"prompt_time":0.1,"completion_time":0.4,"total_time":0.5}}}`,
		`data: [DONE]`,
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if !req.Stream {
			t.Error("section generation must stream")
		}
		w.Header().Set("Content-Type", "text/event-stream")
		for _, f := range frames {
			fmt.Fprintln(w, f)
		}
	}))
	defer srv.Close()

	c := NewClient("k", srv.URL)
	events, err := c.StreamSection(context.Background(), "transcript", "existing", "Intro: desc", "test-model")
	if err != nil {
		t.Fatalf("StreamSection: %v", err)
	}

	var text strings.Builder
	var gotStats bool
	for ev := range events {
		switch {
		case ev.Err != nil:
			t.Fatalf("stream error: %v", ev.Err)
		case ev.Stats != nil:
			gotStats = true
			if ev.Stats.OutputTokens != 2 || ev.Stats.TotalTime != 0.5 {
				t.Errorf("stats = %+v", ev.Stats)
			}
			if ev.Stats.ModelName != "test-model" {
				t.Errorf("model name = %q", ev.Stats.ModelName)
			}
		default:
			text.WriteString(ev.Token)
		}
	}

	if text.String() != "Hello, world" {
		t.Errorf("assembled text = %q", text.String())
	}
	if !gotStats {
		t.Error("usage record never arrived")
	}
}

func TestStreamSection_MalformedChunkSurfacesError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintln(w, `data: {"choices":[{"delta":{"content":"ok"}}]}`)
		fmt.Fprintln(w, `data: {{{not json`)
	}))
	defer srv.Close()

	c := NewClient("k", srv.URL)
	events, err := c.StreamSection(context.Background(), "t", "", "s", "m")
	if err != nil {
		t.Fatalf("StreamSection: %v", err)
	}

	var sawErr bool
	for ev := range events {
		if ev.Err != nil {
			sawErr = true
		}
	}
	if !sawErr {
		t.Error("expected an Err event for the malformed frame")
	}
}

func TestStreamSection_ErrorStatusFailsFast(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := NewClient("k", srv.URL)
	_, err := c.StreamSection(context.Background(), "t", "", "s", "m")
	var re *RetryableError
	if !errors.As(err, &re) {
		t.Fatalf("expected *RetryableError before any events, got %v", err)
	}
}

func TestBuildSectionPrompt_CarriesGrounding(t *testing.T) {
	p := BuildSectionPrompt("the transcript", "# Done\nalready written", "Intro: opening")
	for _, want := range []string{"the transcript", "already written", "Intro: opening"} {
		if !strings.Contains(p, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestBuildTranscriptStructurePrompt_ListsSections(t *testing.T) {
	p := BuildTranscriptStructurePrompt("text", []string{"One", "Two", "Three"})
	if !strings.Contains(p, "One, Two, Three") {
		t.Errorf("prompt missing section list:\n%s", p)
	}
	if !strings.Contains(p, `"One": "Content of section 1"`) {
		t.Errorf("prompt missing format example:\n%s", p)
	}
}
