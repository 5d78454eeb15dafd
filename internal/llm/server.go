package llm

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

const (
	DefaultServerBinary = "llama-server"
	DefaultContextSize  = 2048
	DefaultReadyTimeout = 3 * time.Minute

	pollInterval = 250 * time.Millisecond
	stopTimeout  = 5 * time.Second
)

// execCommand подменяется в тестах.
var execCommand = exec.CommandContext

// Options параметры запуска llama-server.
type Options struct {
	ServerBinary  string
	ProjectorPath string // mmproj, без него сервер не принимает аудио
	ContextSize   int
	GPULayers     int
	ReadyTimeout  time.Duration
}

// ServerLoader открывает сессии, запуская отдельный процесс llama-server на модель.
type ServerLoader struct {
	opts   Options
	health *http.Client
}

// NewServerLoader создаёт загрузчик с параметрами по умолчанию для пустых полей.
func NewServerLoader(opts Options) *ServerLoader {
	if opts.ServerBinary == "" {
		opts.ServerBinary = DefaultServerBinary
	}
	if opts.ContextSize <= 0 {
		opts.ContextSize = DefaultContextSize
	}
	if opts.ReadyTimeout <= 0 {
		opts.ReadyTimeout = DefaultReadyTimeout
	}
	return &ServerLoader{
		opts:   opts,
		health: &http.Client{Timeout: 2 * time.Second},
	}
}

// Open запускает сервер для модели и ждёт его готовности.
func (l *ServerLoader) Open(ctx context.Context, modelPath string) (Session, error) {
	if _, err := os.Stat(modelPath); err != nil {
		return nil, fmt.Errorf("файл модели: %w", err)
	}

	port, err := freePort()
	if err != nil {
		return nil, fmt.Errorf("свободный порт: %w", err)
	}

	args := []string{
		"--model", modelPath,
		"--host", "127.0.0.1",
		"--port", strconv.Itoa(port),
		"--ctx-size", strconv.Itoa(l.opts.ContextSize),
		"--n-gpu-layers", strconv.Itoa(l.opts.GPULayers),
	}
	if l.opts.ProjectorPath != "" {
		args = append(args, "--mmproj", l.opts.ProjectorPath)
	}

	// Процесс живёт дольше ctx загрузки, поэтому свой контекст.
	procCtx, kill := context.WithCancel(context.Background())
	cmd := execCommand(procCtx, l.opts.ServerBinary, args...)
	cmd.Stdout = log.Writer()
	cmd.Stderr = log.Writer()

	log.Printf("Запуск %s для %s на порту %d", l.opts.ServerBinary, filepath.Base(modelPath), port)
	if err := cmd.Start(); err != nil {
		kill()
		return nil, fmt.Errorf("запуск %s: %w", l.opts.ServerBinary, err)
	}

	p := &process{cmd: cmd, kill: kill, done: make(chan struct{})}
	go func() {
		p.err = cmd.Wait()
		close(p.done)
	}()
	baseURL := "http://127.0.0.1:" + strconv.Itoa(port)

	start := time.Now()
	if err := l.waitReady(ctx, baseURL, p); err != nil {
		p.stop()
		return nil, err
	}
	log.Printf("Сервер модели готов за %v", time.Since(start).Round(time.Millisecond))

	model := strings.TrimSuffix(filepath.Base(modelPath), filepath.Ext(modelPath))
	return newChatSession(baseURL, model, p.stop), nil
}

// waitReady опрашивает /health, пока сервер не ответит 200.
func (l *ServerLoader) waitReady(ctx context.Context, baseURL string, p *process) error {
	ctx, cancel := context.WithTimeout(ctx, l.opts.ReadyTimeout)
	defer cancel()

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		if l.healthy(ctx, baseURL) {
			return nil
		}
		select {
		case <-p.done:
			err := p.err
			if err == nil {
				err = errors.New("process exited")
			}
			return fmt.Errorf("сервер модели завершился: %w", err)
		case <-ctx.Done():
			return fmt.Errorf("сервер модели не ответил: %w", ctx.Err())
		case <-ticker.C:
		}
	}
}

func (l *ServerLoader) healthy(ctx context.Context, baseURL string) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"/health", nil)
	if err != nil {
		return false
	}
	resp, err := l.health.Do(req)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// process запущенный llama-server.
type process struct {
	cmd  *exec.Cmd
	kill context.CancelFunc
	done chan struct{} // закрывается после Wait
	err  error
}

// stop просит процесс завершиться и убивает его, если он не успел.
func (p *process) stop() error {
	if err := p.cmd.Process.Signal(os.Interrupt); err != nil {
		p.kill()
	}

	select {
	case <-p.done:
	case <-time.After(stopTimeout):
		log.Printf("Сервер модели не завершился за %v, принудительная остановка", stopTimeout)
		p.kill()
		<-p.done
	}
	p.kill()
	return nil
}

func freePort() (int, error) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return 0, err
	}
	defer ln.Close()
	return ln.Addr().(*net.TCPAddr).Port, nil
}
