// Package audio предоставляет запись аудио с микрофона в WAV и воспроизведение записей.
package audio

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gordonklaus/portaudio"
)

const (
	// SampleRate - частота дискретизации, которую ожидает аудио-энкодер модели.
	SampleRate = 16000
	// Channels - количество каналов (mono).
	Channels = 1
	// BitDepth - разрядность PCM в файле.
	BitDepth = 16
	// FramesPerBuffer - размер буфера.
	FramesPerBuffer = 1024
	// MinFileSize - файл меньше этого размера считается пустой записью.
	MinFileSize = 1024
	// Extension - расширение файлов записей.
	Extension = ".wav"
)

var (
	ErrAlreadyRecording  = errors.New("recording already in progress")
	ErrNotRecording      = errors.New("not recording")
	ErrPermissionDenied  = errors.New("microphone or storage permission not granted")
	ErrRecordingTooShort = errors.New("recording file is too small")
)

// PermissionChecker сообщает, выдано ли разрешение на запись.
type PermissionChecker interface {
	Granted() bool
}

// Recording результат записи.
type Recording struct {
	Path     string
	Duration time.Duration
}

// inputStream - часть *portaudio.Stream, нужная для записи.
type inputStream interface {
	Start() error
	Stop() error
	Close() error
	Read() error
	AvailableToRead() (int, error)
}

// Recorder записывает одну сессию с микрофона в файл.
type Recorder struct {
	open  func(buf []int16) (inputStream, error)
	perms PermissionChecker

	mu       sync.Mutex
	stream   inputStream
	buffer   []int16
	samples  []int16
	running  bool
	path     string
	done     chan struct{}
	stopTick chan struct{}

	elapsed atomic.Int64
	ticks   chan int
}

// New инициализирует portaudio и создаёт Recorder.
func New(perms PermissionChecker) (*Recorder, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, err
	}
	return newRecorder(openDefaultInput, perms), nil
}

func newRecorder(open func([]int16) (inputStream, error), perms PermissionChecker) *Recorder {
	return &Recorder{
		open:   open,
		perms:  perms,
		buffer: make([]int16, FramesPerBuffer),
		ticks:  make(chan int, 1),
	}
}

func openDefaultInput(buf []int16) (inputStream, error) {
	return portaudio.OpenDefaultStream(
		Channels,        // input channels
		0,               // output channels
		SampleRate,      // sample rate
		len(buf),        // frames per buffer
		buf,             // buffer
	)
}

// RecordingPath возвращает имя файла новой записи в директории dir.
func RecordingPath(dir string, now time.Time) string {
	return filepath.Join(dir, fmt.Sprintf("voxtral_recording_%d%s", now.UnixMilli(), Extension))
}

// Start начинает запись в файл path.
func (r *Recorder) Start(path string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.running {
		return ErrAlreadyRecording
	}
	if r.perms != nil && !r.perms.Granted() {
		return ErrPermissionDenied
	}

	stream, err := r.open(r.buffer)
	if err != nil {
		return err
	}
	if err := stream.Start(); err != nil {
		stream.Close()
		return err
	}

	r.stream = stream
	r.samples = make([]int16, 0, SampleRate*30) // Буфер на 30 сек
	r.path = path
	r.running = true
	r.done = make(chan struct{})
	r.stopTick = make(chan struct{})
	r.elapsed.Store(0)

	go r.recordLoop(stream, r.done)
	go r.tickLoop(r.stopTick)

	log.Printf("Запись начата: %s", filepath.Base(path))
	return nil
}

func (r *Recorder) recordLoop(stream inputStream, done chan struct{}) {
	defer close(done)

	for {
		r.mu.Lock()
		running := r.running
		r.mu.Unlock()
		if !running {
			return
		}

		// Не блокируемся в Read, чтобы Stop не ждал заполнения буфера
		available, err := stream.AvailableToRead()
		if err != nil || available < len(r.buffer) {
			time.Sleep(10 * time.Millisecond)
			continue
		}

		if err := stream.Read(); err != nil {
			time.Sleep(10 * time.Millisecond)
			continue
		}

		r.mu.Lock()
		if r.running {
			r.samples = append(r.samples, r.buffer...)
		}
		r.mu.Unlock()
	}
}

// tickLoop раз в секунду увеличивает счётчик для отображения.
func (r *Recorder) tickLoop(stop chan struct{}) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			n := int(r.elapsed.Add(1))
			select {
			case r.ticks <- n:
			default:
			}
		}
	}
}

// Ticks отдаёт значение секундомера после каждого увеличения.
func (r *Recorder) Ticks() <-chan int {
	return r.ticks
}

// Stop останавливает запись и сохраняет WAV. Слишком короткий файл
// остаётся на диске, вместе с ним возвращается ErrRecordingTooShort.
func (r *Recorder) Stop() (Recording, error) {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return Recording{}, ErrNotRecording
	}

	r.running = false
	stream := r.stream
	r.stream = nil
	samples := r.samples
	r.samples = nil
	path := r.path
	done := r.done
	close(r.stopTick)
	r.mu.Unlock()

	// recordLoop проверяет running каждые 10ms
	select {
	case <-done:
	case <-time.After(100 * time.Millisecond):
	}

	stream.Stop()
	stream.Close()

	rec := Recording{
		Path:     path,
		Duration: time.Duration(len(samples)) * time.Second / SampleRate,
	}

	if err := writeWAV(path, samples); err != nil {
		return rec, fmt.Errorf("сохранение записи: %w", err)
	}

	stat, err := os.Stat(path)
	if err != nil {
		return rec, err
	}
	if stat.Size() < MinFileSize {
		return rec, fmt.Errorf("%w: %d bytes", ErrRecordingTooShort, stat.Size())
	}

	log.Printf("Запись остановлена: %s, %v", filepath.Base(path), rec.Duration.Round(time.Millisecond))
	return rec, nil
}

// IsRecording возвращает true если идёт запись.
func (r *Recorder) IsRecording() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running
}

// Close останавливает запись без сохранения результата и освобождает portaudio.
func (r *Recorder) Close() {
	if r.IsRecording() {
		if _, err := r.Stop(); err != nil {
			log.Printf("Ошибка остановки записи: %v", err)
		}
	}
	portaudio.Terminate()
}
