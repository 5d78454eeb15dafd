package llm

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const completionJSON = `{"id":"chatcmpl-1","object":"chat.completion","created":1,"model":"voxtral",` +
	`"choices":[{"index":0,"finish_reason":"stop","logprobs":null,"message":{"role":"assistant","content":%q}}],` +
	`"usage":{"prompt_tokens":1,"completion_tokens":1,"total_tokens":2}}`

// newCompletionServer отвечает content и сохраняет тела запросов.
func newCompletionServer(t *testing.T, content string, bodies *[]string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			http.NotFound(w, r)
			return
		}
		body, _ := io.ReadAll(r.Body)
		if bodies != nil {
			*bodies = append(*bodies, string(body))
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(strings.Replace(completionJSON, "%q", quote(content), 1)))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func quote(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}

func TestCompleteSendsParams(t *testing.T) {
	var bodies []string
	srv := newCompletionServer(t, "  Hello there  ", &bodies)
	s := newChatSession(srv.URL, "voxtral", nil)

	got, err := s.Complete(context.Background(), []Message{
		{Role: RoleAssistant, Content: "Hi"},
		{Role: RoleUser, Content: "How are you?"},
	}, Params{Temperature: 0.7, MaxTokens: 500})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if got != "Hello there" {
		t.Fatalf("reply = %q, want trimmed text", got)
	}

	var req struct {
		Model       string  `json:"model"`
		Temperature float64 `json:"temperature"`
		MaxTokens   int     `json:"max_tokens"`
		Messages    []struct {
			Role string `json:"role"`
		} `json:"messages"`
	}
	if err := json.Unmarshal([]byte(bodies[0]), &req); err != nil {
		t.Fatalf("decode request: %v", err)
	}
	if req.Model != "voxtral" || req.Temperature != 0.7 || req.MaxTokens != 500 {
		t.Fatalf("request = %+v", req)
	}
	if len(req.Messages) != 2 || req.Messages[0].Role != "assistant" || req.Messages[1].Role != "user" {
		t.Fatalf("messages = %+v", req.Messages)
	}
}

func TestCompleteAudioAttachesRecording(t *testing.T) {
	var bodies []string
	srv := newCompletionServer(t, "turn on the lights", &bodies)
	s := newChatSession(srv.URL, "voxtral", nil)

	audio := []byte("RIFF....WAVEfmt fake")
	path := filepath.Join(t.TempDir(), "voxtral_recording_1.wav")
	if err := os.WriteFile(path, audio, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	got, err := s.CompleteAudio(context.Background(), []Message{
		{Role: RoleSystem, Content: "You are Voxtral."},
		{Role: RoleUser, Content: AudioMarker},
	}, path)
	if err != nil {
		t.Fatalf("CompleteAudio: %v", err)
	}
	if got != "turn on the lights" {
		t.Fatalf("reply = %q", got)
	}

	body := bodies[0]
	if !strings.Contains(body, `"input_audio"`) {
		t.Fatalf("request has no input_audio part: %s", body)
	}
	if !strings.Contains(body, base64.StdEncoding.EncodeToString(audio)) {
		t.Fatal("request does not carry the recording")
	}
	if strings.Contains(body, AudioMarker) {
		t.Fatal("audio marker must be replaced by the recording")
	}
}

func TestCompleteFailureIsInferenceError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"boom"}}`, http.StatusInternalServerError)
	}))
	defer srv.Close()

	s := newChatSession(srv.URL, "voxtral", nil)
	_, err := s.Complete(context.Background(), []Message{{Role: RoleUser, Content: "hi"}}, Params{})
	if !errors.Is(err, ErrInference) {
		t.Fatalf("err = %v, want ErrInference", err)
	}
}

func TestReleaseOnce(t *testing.T) {
	var calls int
	s := newChatSession("http://127.0.0.1:1", "voxtral", func() error {
		calls++
		return nil
	})

	s.Release()
	s.Release()
	if calls != 1 {
		t.Fatalf("release calls = %d, want 1", calls)
	}

	_, err := s.Complete(context.Background(), nil, Params{})
	if !errors.Is(err, ErrSessionClosed) || !errors.Is(err, ErrInference) {
		t.Fatalf("err = %v, want ErrInference wrapping ErrSessionClosed", err)
	}

	_, err = s.CompleteAudio(context.Background(), nil, "/tmp/none.wav")
	if !errors.Is(err, ErrInference) {
		t.Fatalf("audio err = %v, want ErrInference", err)
	}
}
