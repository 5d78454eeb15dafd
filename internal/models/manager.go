package models

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dustin/go-humanize"
)

const (
	// MinFreeSpace - сколько места должно быть свободно перед загрузкой.
	MinFreeSpace uint64 = 3 * 1024 * 1024 * 1024
	// MinModelSize - файл меньше этого размера считается битым.
	MinModelSize int64 = 1000000
	// ConnectTimeout ограничивает установку соединения и ожидание заголовков.
	ConnectTimeout = 30 * time.Second
	// IdleReadTimeout ограничивает паузу между порциями данных.
	IdleReadTimeout = 5 * time.Minute

	chunkSize = 32 * 1024
)

var (
	ErrUnreachableSource   = errors.New("model source is unreachable")
	ErrInsufficientStorage = errors.New("insufficient storage")
	ErrCorruptDownload     = errors.New("downloaded file is too small")
	ErrTransferTimeout     = errors.New("transfer timed out")
)

// Progress информация о прогрессе загрузки.
type Progress struct {
	ModelID    string
	Downloaded int64
	Total      int64
	At         time.Time
	Done       bool
}

// Manager управляет моделями.
type Manager struct {
	modelsDir   string
	baseURL     string
	client      *http.Client
	freeSpace   func(dir string) (uint64, error)
	idleTimeout time.Duration
	mu          sync.Mutex
}

// NewManager создаёт менеджер моделей и директорию для них.
func NewManager(modelsDir, baseURL string) (*Manager, error) {
	if err := os.MkdirAll(modelsDir, 0755); err != nil {
		return nil, fmt.Errorf("не удалось создать директорию моделей: %w", err)
	}

	return &Manager{
		modelsDir:   modelsDir,
		baseURL:     baseURL,
		client:      &http.Client{Transport: newTransport()},
		freeSpace:   FreeSpace,
		idleTimeout: IdleReadTimeout,
	}, nil
}

func newTransport() *http.Transport {
	dialer := &net.Dialer{Timeout: ConnectTimeout, KeepAlive: 30 * time.Second}
	return &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           dialer.DialContext,
		TLSHandshakeTimeout:   ConnectTimeout,
		ResponseHeaderTimeout: ConnectTimeout,
		ForceAttemptHTTP2:     true,
	}
}

// ModelsDir возвращает путь к директории моделей.
func (m *Manager) ModelsDir() string {
	return m.modelsDir
}

// GetModelPath возвращает полный путь к модели.
func (m *Manager) GetModelPath(info ModelInfo) string {
	return filepath.Join(m.modelsDir, info.Filename)
}

// IsDownloaded проверяет, скачана ли модель целиком.
func (m *Manager) IsDownloaded(info ModelInfo) bool {
	stat, err := os.Stat(m.GetModelPath(info))
	if err != nil || stat.IsDir() {
		return false
	}
	return stat.Size() >= MinModelSize
}

// Catalog возвращает каталог с отметками о скачанных файлах.
func (m *Manager) Catalog() []ModelOption {
	options := make([]ModelOption, 0, len(Registry))
	for _, info := range Registry {
		opt := ModelOption{ModelInfo: info}
		if m.IsDownloaded(info) {
			opt.Downloaded = true
			opt.LocalPath = m.GetModelPath(info)
		}
		options = append(options, opt)
	}
	return options
}

// Download скачивает модель и возвращает путь к файлу.
// Промежуточный прогресс отправляется без блокировки (медленный читатель
// пропускает события), финальное событие Done доставляется всегда.
func (m *Manager) Download(ctx context.Context, info ModelInfo, progress chan<- Progress) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	destPath := m.GetModelPath(info)
	url := URL(m.baseURL, info)

	free, err := m.freeSpace(m.modelsDir)
	if err != nil {
		return "", fmt.Errorf("check free space: %w", err)
	}
	if free < MinFreeSpace {
		return "", fmt.Errorf("%w: %s free, need %s", ErrInsufficientStorage,
			humanize.IBytes(free), humanize.IBytes(MinFreeSpace))
	}

	partPath := destPath + ".part"
	cleanup(destPath)
	cleanup(partPath)

	if err := m.checkSource(ctx, url); err != nil {
		return "", err
	}

	log.Printf("Загрузка %s из %s", info.Filename, url)
	start := time.Now()

	written, err := m.fetch(ctx, info, url, partPath, progress)
	if err == nil && written < MinModelSize {
		err = fmt.Errorf("%w: %d bytes", ErrCorruptDownload, written)
	}
	if err == nil {
		err = os.Rename(partPath, destPath)
	}
	if err != nil {
		cleanup(partPath)
		cleanup(destPath)
		return "", err
	}

	log.Printf("Модель %s скачана за %v (%s)", info.Filename,
		time.Since(start).Round(time.Second), humanize.Bytes(uint64(written)))

	if progress != nil {
		select {
		case progress <- Progress{ModelID: info.ID, Downloaded: written, Total: written, At: time.Now(), Done: true}:
		case <-ctx.Done():
		}
	}

	return destPath, nil
}

// checkSource проверяет доступность файла запросом HEAD.
func (m *Manager) checkSource(ctx context.Context, url string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnreachableSource, err)
	}
	req.Header.Set("User-Agent", "voxtral")

	resp, err := m.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if isTimeout(err) {
			return fmt.Errorf("%w: %v", ErrTransferTimeout, err)
		}
		return fmt.Errorf("%w: %v", ErrUnreachableSource, err)
	}
	resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%w: HTTP %s", ErrUnreachableSource, resp.Status)
	}
	return nil
}

func (m *Manager) fetch(ctx context.Context, info ModelInfo, url, partPath string, progress chan<- Progress) (int64, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var idleExpired atomic.Bool
	idle := time.AfterFunc(m.idleTimeout, func() {
		idleExpired.Store(true)
		cancel()
	})
	defer idle.Stop()

	fail := func(err error) error {
		if idleExpired.Load() {
			return fmt.Errorf("%w: no data for %v", ErrTransferTimeout, m.idleTimeout)
		}
		if isTimeout(err) {
			return fmt.Errorf("%w: %v", ErrTransferTimeout, err)
		}
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, err
	}
	req.Header.Set("User-Agent", "voxtral")

	resp, err := m.client.Do(req)
	if err != nil {
		return 0, fail(fmt.Errorf("ошибка скачивания: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("%w: HTTP %s", ErrUnreachableSource, resp.Status)
	}

	total := resp.ContentLength
	if total <= 0 {
		total = info.Size
	}

	file, err := os.Create(partPath)
	if err != nil {
		return 0, err
	}
	defer file.Close()

	var downloaded int64
	buf := make([]byte, chunkSize)

	for {
		idle.Reset(m.idleTimeout)
		n, err := resp.Body.Read(buf)
		if n > 0 {
			if _, werr := file.Write(buf[:n]); werr != nil {
				return downloaded, werr
			}
			downloaded += int64(n)

			if progress != nil {
				select {
				case progress <- Progress{ModelID: info.ID, Downloaded: downloaded, Total: total, At: time.Now()}:
				default:
				}
			}
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return downloaded, fail(err)
		}
	}

	if err := file.Close(); err != nil {
		return downloaded, err
	}
	return downloaded, nil
}

// Delete удаляет модель.
func (m *Manager) Delete(info ModelInfo) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	err := os.Remove(m.GetModelPath(info))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// cleanup удаляет файл, если он есть; ошибка только логируется.
func cleanup(path string) {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("Ошибка очистки %s: %v", path, err)
	}
}
