package ui

import (
	"context"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"voxtral/internal/app"
	"voxtral/internal/conversation"
)

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case eventMsg:
		// Прогресс загрузки приходит часто, его рисуем по таймеру.
		if msg.Kind == app.EventProgress {
			m.dirty = true
		} else {
			m.refresh()
		}
		return m, m.waitEvent()

	case redrawMsg:
		if m.dirty {
			m.refresh()
		}
		return m, redraw()

	case opDoneMsg:
		m.refresh()
		return m, nil

	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil

	case tea.KeyMsg:
		return m, m.handleKey(msg)
	}

	return m, nil
}

func (m *Model) resize(width, height int) {
	m.width = width
	m.height = height

	m.progress.Width = max(width-20, 10)
	m.viewport.Width = width
	m.viewport.Height = max(height-6, 3)

	style := "light"
	if lipgloss.HasDarkBackground() {
		style = "dark"
	}
	renderer, err := glamour.NewTermRenderer(
		glamour.WithStylePath(style),
		glamour.WithWordWrap(max(width-4, 20)),
	)
	logError("glamour", err)
	if err == nil {
		m.renderer = renderer
	}
	m.updateViewport()
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	key := msg.String()
	if key == "ctrl+c" {
		return tea.Quit
	}

	if m.snap.Notice != nil {
		switch key {
		case "esc", "enter":
			m.ctrl.DismissNotice()
			m.snap.Notice = nil
		}
		return nil
	}

	switch m.snap.State {
	case conversation.NoModel:
		return m.catalogKey(key)
	case conversation.Ready, conversation.Recording, conversation.Processing:
		return m.chatKey(key)
	}

	if key == "q" {
		return tea.Quit
	}
	return nil
}

func (m *Model) catalogKey(key string) tea.Cmd {
	catalog := m.snap.Catalog
	switch key {
	case "q":
		return tea.Quit
	case "up", "k":
		if len(catalog) > 0 {
			m.cursor = (m.cursor - 1 + len(catalog)) % len(catalog)
		}
	case "down", "j":
		if len(catalog) > 0 {
			m.cursor = (m.cursor + 1) % len(catalog)
		}
	case "enter":
		if id, ok := m.selectedModel(); ok {
			return run(func() error {
				err := m.ctrl.SelectModel(context.Background(), id)
				logError("Выбор модели", err)
				return err
			})
		}
	case "d":
		if id, ok := m.selectedModel(); ok {
			return run(func() error {
				err := m.ctrl.DownloadModel(context.Background(), id)
				logError("Загрузка модели", err)
				return err
			})
		}
	case "x", "delete":
		if id, ok := m.selectedModel(); ok && m.snap.Catalog[m.cursor].Downloaded {
			return run(func() error {
				err := m.ctrl.DeleteModel(id)
				logError("Удаление модели", err)
				return err
			})
		}
	}
	return nil
}

func (m *Model) chatKey(key string) tea.Cmd {
	switch key {
	case "q":
		if m.snap.State == conversation.Ready {
			return tea.Quit
		}
	case " ", "space":
		return run(func() error {
			err := m.ctrl.ToggleRecording(context.Background())
			logError("Запись", err)
			return err
		})
	case "up", "k":
		if m.turn > 0 {
			m.turn--
			m.updateViewport()
		}
	case "down", "j":
		if m.turn < len(m.snap.Messages)-1 {
			m.turn++
			m.updateViewport()
		}
	case "p":
		i := m.turn
		return run(func() error {
			err := m.ctrl.PlayRecording(context.Background(), i)
			logError("Воспроизведение", err)
			return err
		})
	case "s":
		i := m.turn
		return run(func() error {
			err := m.ctrl.Speak(i)
			logError("Озвучивание", err)
			return err
		})
	case "x":
		m.ctrl.StopSpeaking()
	case "u":
		if m.snap.State == conversation.Ready {
			return run(func() error {
				err := m.ctrl.UnloadModel()
				logError("Выгрузка модели", err)
				return err
			})
		}
	}
	return nil
}

func (m *Model) selectedModel() (string, bool) {
	if m.cursor < 0 || m.cursor >= len(m.snap.Catalog) {
		return "", false
	}
	return m.snap.Catalog[m.cursor].ID, true
}
