package audio

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"sync"

	"github.com/gordonklaus/portaudio"
)

// Player воспроизводит сохранённые записи через устройство вывода по умолчанию.
type Player struct {
	mu     sync.Mutex
	cancel context.CancelFunc
}

// NewPlayer инициализирует portaudio для вывода.
func NewPlayer() (*Player, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, err
	}
	return &Player{}, nil
}

// Play проигрывает WAV файл до конца, до отмены ctx или до следующего Play.
func (p *Player) Play(ctx context.Context, path string) error {
	samples, rate, channels, err := readWAV(path)
	if err != nil {
		return err
	}
	if channels < 1 {
		return fmt.Errorf("нет каналов в %s", path)
	}

	ctx, cancel := context.WithCancel(ctx)
	p.mu.Lock()
	if p.cancel != nil {
		p.cancel()
	}
	p.cancel = cancel
	p.mu.Unlock()
	defer cancel()

	out := make([]int16, FramesPerBuffer*channels)
	stream, err := portaudio.OpenDefaultStream(0, channels, float64(rate), FramesPerBuffer, out)
	if err != nil {
		return err
	}
	defer stream.Close()

	if err := stream.Start(); err != nil {
		return err
	}
	defer stream.Stop()

	log.Printf("Воспроизведение %s", filepath.Base(path))
	for off := 0; off < len(samples); off += len(out) {
		if ctx.Err() != nil {
			return nil
		}
		n := copy(out, samples[off:])
		clear(out[n:])
		if err := stream.Write(); err != nil {
			return err
		}
	}
	return nil
}

// Stop прерывает текущее воспроизведение.
func (p *Player) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}
}

// Close освобождает portaudio.
func (p *Player) Close() {
	p.Stop()
	portaudio.Terminate()
}
