// Package ui - терминальный интерфейс: выбор модели, загрузка и голосовой диалог.
package ui

import (
	"context"
	"log"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"voxtral/internal/app"
)

// redrawInterval - как часто перерисовывается прогресс загрузки.
const redrawInterval = 250 * time.Millisecond

// Controller операции приложения, доступные интерфейсу.
type Controller interface {
	Snapshot() app.Snapshot
	Events() <-chan app.Event
	SelectModel(ctx context.Context, modelID string) error
	DownloadModel(ctx context.Context, modelID string) error
	DeleteModel(modelID string) error
	UnloadModel() error
	ToggleRecording(ctx context.Context) error
	PlayRecording(ctx context.Context, i int) error
	Speak(i int) error
	StopSpeaking()
	DismissNotice()
}

type (
	eventMsg  app.Event
	redrawMsg struct{}
	opDoneMsg struct{ err error }
)

// Model состояние интерфейса.
type Model struct {
	ctrl Controller
	snap app.Snapshot

	cursor int // выбранная модель в каталоге
	turn   int // выбранная реплика в диалоге
	dirty  bool

	progress progress.Model
	spinner  spinner.Model
	viewport viewport.Model
	renderer *glamour.TermRenderer

	width  int
	height int
}

// New создаёт интерфейс для контроллера.
func New(ctrl Controller) *Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = statusStyle.Foreground(accentColor)

	m := &Model{
		ctrl:     ctrl,
		snap:     ctrl.Snapshot(),
		progress: progress.New(progress.WithDefaultGradient()),
		spinner:  sp,
		viewport: viewport.New(80, 20),
	}
	m.cursor = m.recommendedIndex()
	m.turn = max(len(m.snap.Messages)-1, 0)
	m.updateViewport()
	return m
}

// Init запускает чтение событий, спиннер и таймер перерисовки.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.waitEvent(), redraw())
}

func (m *Model) waitEvent() tea.Cmd {
	events := m.ctrl.Events()
	return func() tea.Msg {
		return eventMsg(<-events)
	}
}

func redraw() tea.Cmd {
	return tea.Tick(redrawInterval, func(time.Time) tea.Msg {
		return redrawMsg{}
	})
}

// run выполняет длительную операцию вне цикла отрисовки.
func run(fn func() error) tea.Cmd {
	return func() tea.Msg {
		return opDoneMsg{err: fn()}
	}
}

func (m *Model) refresh() {
	prev := len(m.snap.Messages)
	m.snap = m.ctrl.Snapshot()
	m.dirty = false
	// Новые реплики: курсор на последнюю.
	if n := len(m.snap.Messages); n != prev || m.turn >= n {
		m.turn = max(n-1, 0)
	}
	m.updateViewport()
}

func (m *Model) recommendedIndex() int {
	for i, opt := range m.snap.Catalog {
		if opt.Recommended {
			return i
		}
	}
	return 0
}

func logError(op string, err error) {
	if err != nil {
		log.Printf("%s: %v", op, err)
	}
}

// NewProgram создаёт программу bubbletea на весь экран терминала.
func NewProgram(ctrl Controller) *tea.Program {
	return tea.NewProgram(New(ctrl), tea.WithAltScreen())
}
