package conversation

import (
	"errors"
	"fmt"
	"sync"
)

// ErrInvalidTransition - операция недопустима в текущем состоянии.
var ErrInvalidTransition = errors.New("invalid state transition")

// State состояние диалога.
type State int

const (
	NoModel State = iota
	Downloading
	Loading
	Ready
	Recording
	Processing
)

func (s State) String() string {
	switch s {
	case NoModel:
		return "no_model"
	case Downloading:
		return "downloading"
	case Loading:
		return "loading"
	case Ready:
		return "ready"
	case Recording:
		return "recording"
	case Processing:
		return "processing"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Chat сообщает, есть ли живая сессия модели в этом состоянии.
func (s State) Chat() bool {
	return s == Ready || s == Recording || s == Processing
}

// Busy сообщает, выполняется ли длительная операция.
func (s State) Busy() bool {
	return s == Downloading || s == Loading || s == Processing
}

// CanTransition задаёт допустимые переходы.
func CanTransition(from, to State) bool {
	switch from {
	case NoModel:
		return to == Downloading || to == Loading
	case Downloading:
		return to == Loading || to == NoModel
	case Loading:
		return to == Ready || to == NoModel
	case Ready:
		return to == Recording || to == NoModel
	case Recording:
		return to == Processing || to == Ready
	case Processing:
		return to == Ready
	default:
		return false
	}
}

// Machine текущее состояние с проверкой переходов.
type Machine struct {
	mu    sync.RWMutex
	state State
}

// NewMachine создаёт машину в состоянии NoModel.
func NewMachine() *Machine {
	return &Machine{state: NoModel}
}

// Current возвращает текущее состояние.
func (m *Machine) Current() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// Transition переводит машину в состояние to.
func (m *Machine) Transition(to State) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !CanTransition(m.state, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, m.state, to)
	}
	m.state = to
	return nil
}
