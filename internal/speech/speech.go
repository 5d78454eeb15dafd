// Package speech озвучивает ответы через системный синтезатор речи.
package speech

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os/exec"
	"sync"
)

// ErrUnavailable - в системе нет синтезатора речи.
var ErrUnavailable = errors.New("speech synthesis is not available")

// State состояние вывода речи.
type State int

const (
	Idle State = iota
	Speaking
)

func (s State) String() string {
	if s == Speaking {
		return "speaking"
	}
	return "idle"
}

// Voice настройки голоса. Rate 0.5 - обычная скорость, Pitch 1.0 - обычная высота.
type Voice struct {
	Language string
	Rate     float64
	Pitch    float64
}

// engine собирает команду синтезатора для одной фразы.
type engine interface {
	Command(ctx context.Context, text string, v Voice) *exec.Cmd
	Name() string
}

// Speaker произносит по одной фразе за раз.
type Speaker struct {
	eng    engine
	voice  Voice
	states chan State

	mu       sync.Mutex
	cancel   context.CancelFunc
	done     chan struct{}
	speaking bool
}

// New создаёт Speaker для платформенного синтезатора.
func New(v Voice) (*Speaker, error) {
	eng, err := newEngine()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	log.Printf("Синтез речи: %s", eng.Name())
	return newSpeaker(eng, v), nil
}

func newSpeaker(eng engine, v Voice) *Speaker {
	return &Speaker{
		eng:    eng,
		voice:  v,
		states: make(chan State, 8),
	}
}

// States отдаёт переходы Idle/Speaking. Читатель один; при переполнении события теряются.
func (s *Speaker) States() <-chan State {
	return s.states
}

// Speak останавливает текущую фразу и начинает новую.
func (s *Speaker) Speak(text string) error {
	s.Stop()

	s.mu.Lock()
	defer s.mu.Unlock()

	ctx, cancel := context.WithCancel(context.Background())
	cmd := s.eng.Command(ctx, text, s.voice)
	if err := cmd.Start(); err != nil {
		cancel()
		return fmt.Errorf("запуск %s: %w", s.eng.Name(), err)
	}

	done := make(chan struct{})
	s.cancel = cancel
	s.done = done
	s.speaking = true
	s.emit(Speaking)

	go func() {
		err := cmd.Wait()
		if err != nil && ctx.Err() == nil {
			log.Printf("Ошибка синтеза речи: %v", err)
		}
		cancel()

		s.mu.Lock()
		if s.done == done {
			s.speaking = false
			s.cancel = nil
			s.done = nil
		}
		s.mu.Unlock()

		s.emit(Idle)
		close(done)
	}()

	return nil
}

// Stop прерывает текущую фразу и ждёт завершения процесса.
func (s *Speaker) Stop() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// IsSpeaking возвращает true пока звучит фраза.
func (s *Speaker) IsSpeaking() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.speaking
}

func (s *Speaker) emit(st State) {
	select {
	case s.states <- st:
	default:
	}
}

// wordsPerMinute переводит Rate в слова в минуту; 0.5 соответствует 175.
func wordsPerMinute(rate float64) int {
	wpm := int(rate * 2 * 175)
	if wpm < 80 {
		wpm = 80
	}
	if wpm > 450 {
		wpm = 450
	}
	return wpm
}
