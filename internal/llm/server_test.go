package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"
)

// fakeServerCommand запускает тестовый бинарник вместо llama-server.
func fakeServerCommand(mode string) func(ctx context.Context, name string, args ...string) *exec.Cmd {
	return func(ctx context.Context, name string, args ...string) *exec.Cmd {
		cs := append([]string{"-test.run=TestHelperServer", "--"}, args...)
		cmd := exec.CommandContext(ctx, os.Args[0], cs...)
		cmd.Env = append(os.Environ(), "GO_WANT_HELPER_PROCESS=1", "HELPER_MODE="+mode)
		return cmd
	}
}

// TestHelperServer изображает llama-server в отдельном процессе.
func TestHelperServer(t *testing.T) {
	if os.Getenv("GO_WANT_HELPER_PROCESS") != "1" {
		return
	}
	if os.Getenv("HELPER_MODE") == "exit" {
		os.Exit(3)
	}

	var port string
	for i, arg := range os.Args {
		if arg == "--port" && i+1 < len(os.Args) {
			port = os.Args[i+1]
		}
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"ok"}`))
	})
	mux.HandleFunc("/v1/chat/completions", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"id":"1","object":"chat.completion","created":1,"model":"m",`+
			`"choices":[{"index":0,"finish_reason":"stop","message":{"role":"assistant","content":"pong"}}]}`)
	})
	http.ListenAndServe("127.0.0.1:"+port, mux)
	os.Exit(0)
}

func writeModel(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "model.gguf")
	if err := os.WriteFile(path, []byte("gguf"), 0o644); err != nil {
		t.Fatalf("write model: %v", err)
	}
	return path
}

func TestServerLoaderOpen(t *testing.T) {
	old := execCommand
	execCommand = fakeServerCommand("serve")
	defer func() { execCommand = old }()

	l := NewServerLoader(Options{ReadyTimeout: 20 * time.Second})
	s, err := l.Open(context.Background(), writeModel(t))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer s.Release()

	got, err := s.Complete(context.Background(), []Message{{Role: RoleUser, Content: "ping"}}, Params{})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if got != "pong" {
		t.Fatalf("reply = %q, want pong", got)
	}
	if err := s.Release(); err != nil {
		t.Fatalf("Release: %v", err)
	}
}

func TestServerLoaderProcessExits(t *testing.T) {
	old := execCommand
	execCommand = fakeServerCommand("exit")
	defer func() { execCommand = old }()

	l := NewServerLoader(Options{ReadyTimeout: 20 * time.Second})
	if _, err := l.Open(context.Background(), writeModel(t)); err == nil {
		t.Fatal("expected error when server exits before ready")
	}
}

func TestServerLoaderMissingModel(t *testing.T) {
	l := NewServerLoader(Options{})
	_, err := l.Open(context.Background(), filepath.Join(t.TempDir(), "missing.gguf"))
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("err = %v, want not exist", err)
	}
}
