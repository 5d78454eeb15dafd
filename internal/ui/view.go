package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"voxtral/internal/conversation"
	"voxtral/internal/i18n"
	"voxtral/internal/llm"
)

func (m *Model) View() string {
	var b strings.Builder

	b.WriteString(m.header())
	b.WriteString("\n\n")

	switch m.snap.State {
	case conversation.NoModel:
		b.WriteString(m.catalogView())
	case conversation.Downloading:
		b.WriteString(m.downloadView())
	case conversation.Loading:
		b.WriteString(fmt.Sprintf("%s %s", m.spinner.View(), i18n.T("ui_loading")))
	default:
		b.WriteString(m.viewport.View())
	}

	if n := m.snap.Notice; n != nil {
		b.WriteString("\n\n")
		b.WriteString(noticeStyle.Render(
			errorTitleStyle.Render(n.Title) + "\n" + n.Message + "\n" + hintStyle.Render(i18n.T("ui_dismiss")),
		))
	}

	b.WriteString("\n\n")
	b.WriteString(hintStyle.Render(m.help()))
	return b.String()
}

func (m *Model) header() string {
	title := titleStyle.Render(i18n.T("app_name"))

	var status string
	switch m.snap.State {
	case conversation.Recording:
		status = recordingStyle.Render(fmt.Sprintf("● %s %s", i18n.T("ui_recording"), formatTime(m.snap.Elapsed)))
	case conversation.Processing:
		status = statusStyle.Render(m.spinner.View() + " " + i18n.T("ui_processing"))
	case conversation.Ready:
		status = statusStyle.Render(i18n.T("ui_ready") + " • " + m.snap.ModelID)
	}
	if m.snap.Speaking {
		status += statusStyle.Render(" ♪ " + i18n.T("ui_speaking"))
	}

	return lipgloss.JoinHorizontal(lipgloss.Center, title, " ", status)
}

func (m *Model) catalogView() string {
	var b strings.Builder
	b.WriteString(i18n.T("ui_select_model"))
	b.WriteString("\n\n")

	for i, opt := range m.snap.Catalog {
		line := fmt.Sprintf("%s  %s", opt.Name, hintStyle.Render(opt.SizeLabel))
		if opt.Recommended {
			line += "  " + statusStyle.Render("("+i18n.T("ui_recommended")+")")
		}
		if opt.Downloaded {
			line += "  ✓ " + i18n.T("ui_downloaded")
		}
		if i == m.cursor {
			b.WriteString(selectedStyle.Render(line))
		} else {
			b.WriteString(itemStyle.Render(line))
		}
		b.WriteString("\n")
	}
	return b.String()
}

func (m *Model) downloadView() string {
	d := m.snap.Download
	bar := m.progress.ViewAs(float64(d.Percent) / 100)
	return fmt.Sprintf("%s %s\n\n%s\n%d%% • %s",
		i18n.T("ui_downloading"), d.ModelID, bar, d.Percent, d.Speed)
}

// updateViewport перерисовывает переписку и держит выбранную реплику в кадре.
func (m *Model) updateViewport() {
	var b strings.Builder
	for i, msg := range m.snap.Messages {
		block := m.renderMessage(msg)
		if i == m.turn {
			block = selectedStyle.Render(block)
		} else {
			block = itemStyle.Render(block)
		}
		b.WriteString(block)
		b.WriteString("\n")
	}
	m.viewport.SetContent(b.String())
	if m.turn == len(m.snap.Messages)-1 {
		m.viewport.GotoBottom()
	}
}

func (m *Model) renderMessage(msg conversation.Message) string {
	if msg.Role == llm.RoleUser {
		label := userLabelStyle.Render(i18n.T("ui_you"))
		if msg.AudioPath != "" {
			label += hintStyle.Render(i18n.T("ui_has_recording"))
		}
		return label + "\n" + msg.Content + "\n"
	}

	label := aiLabelStyle.Render(i18n.T("ui_assistant"))
	content := msg.Content
	if m.renderer != nil {
		if out, err := m.renderer.Render(msg.Content); err == nil {
			content = strings.TrimRight(out, "\n")
		}
	}
	return label + "\n" + content + "\n"
}

func (m *Model) help() string {
	switch m.snap.State {
	case conversation.NoModel:
		return i18n.T("ui_help_catalog")
	case conversation.Ready, conversation.Recording, conversation.Processing:
		return i18n.T("ui_help_chat")
	}
	return "ctrl+c"
}

// formatTime показывает секунды как m:ss.
func formatTime(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}
