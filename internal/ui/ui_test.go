package ui

import (
	"context"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"voxtral/internal/app"
	"voxtral/internal/conversation"
	"voxtral/internal/llm"
	"voxtral/internal/models"
)

type fakeController struct {
	snap      app.Snapshot
	events    chan app.Event
	selected  string
	download  string
	deleted   string
	toggles   int
	spoken    []int
	played    []int
	dismissed bool
	stopped   bool
	unloaded  bool
	snapshots int
}

func newFake(state conversation.State) *fakeController {
	catalog := make([]models.ModelOption, 0, len(models.Registry))
	for _, info := range models.Registry {
		catalog = append(catalog, models.ModelOption{ModelInfo: info})
	}
	return &fakeController{
		snap: app.Snapshot{
			State:   state,
			Catalog: catalog,
			Messages: []conversation.Message{
				{Role: llm.RoleAssistant, Content: "hello"},
				{Role: llm.RoleUser, Content: "hi", AudioPath: "/tmp/a.wav"},
				{Role: llm.RoleAssistant, Content: "reply"},
			},
		},
		events: make(chan app.Event, 1),
	}
}

func (f *fakeController) Snapshot() app.Snapshot {
	f.snapshots++
	return f.snap
}
func (f *fakeController) Events() <-chan app.Event { return f.events }
func (f *fakeController) SelectModel(_ context.Context, id string) error {
	f.selected = id
	return nil
}
func (f *fakeController) DownloadModel(_ context.Context, id string) error {
	f.download = id
	return nil
}
func (f *fakeController) DeleteModel(id string) error {
	f.deleted = id
	return nil
}
func (f *fakeController) UnloadModel() error {
	f.unloaded = true
	return nil
}
func (f *fakeController) ToggleRecording(context.Context) error {
	f.toggles++
	return nil
}
func (f *fakeController) PlayRecording(_ context.Context, i int) error {
	f.played = append(f.played, i)
	return nil
}
func (f *fakeController) Speak(i int) error {
	f.spoken = append(f.spoken, i)
	return nil
}
func (f *fakeController) StopSpeaking()  { f.stopped = true }
func (f *fakeController) DismissNotice() { f.dismissed = true }

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case " ":
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// press обрабатывает клавишу и выполняет полученную команду.
func press(t *testing.T, m *Model, s string) tea.Msg {
	t.Helper()
	_, cmd := m.Update(key(s))
	if cmd == nil {
		return nil
	}
	return cmd()
}

func TestFormatTime(t *testing.T) {
	cases := map[int]string{0: "0:00", 5: "0:05", 65: "1:05", 600: "10:00", -3: "0:00"}
	for in, want := range cases {
		if got := formatTime(in); got != want {
			t.Errorf("formatTime(%d) = %q, want %q", in, got, want)
		}
	}
}

func TestCursorStartsOnRecommended(t *testing.T) {
	m := New(newFake(conversation.NoModel))
	if got := m.snap.Catalog[m.cursor].ID; got != models.DefaultModelID() {
		t.Fatalf("cursor model = %q, want %q", got, models.DefaultModelID())
	}
}

func TestCatalogSelectAndDownload(t *testing.T) {
	f := newFake(conversation.NoModel)
	m := New(f)

	press(t, m, "down")
	msg := press(t, m, "enter")
	if _, ok := msg.(opDoneMsg); !ok {
		t.Fatalf("msg = %T, want opDoneMsg", msg)
	}
	if f.selected != models.Registry[2].ID {
		t.Fatalf("selected = %q, want %q", f.selected, models.Registry[2].ID)
	}

	press(t, m, "down")
	press(t, m, "d")
	if f.download != models.Registry[0].ID {
		t.Fatalf("download = %q, want %q", f.download, models.Registry[0].ID)
	}
}

func TestChatKeys(t *testing.T) {
	f := newFake(conversation.Ready)
	m := New(f)
	m.refresh()

	if m.turn != 2 {
		t.Fatalf("turn = %d, want last message", m.turn)
	}

	press(t, m, " ")
	if f.toggles != 1 {
		t.Fatalf("toggles = %d, want 1", f.toggles)
	}

	press(t, m, "up")
	press(t, m, "p")
	if len(f.played) != 1 || f.played[0] != 1 {
		t.Fatalf("played = %v, want [1]", f.played)
	}

	press(t, m, "down")
	press(t, m, "s")
	if len(f.spoken) != 1 || f.spoken[0] != 2 {
		t.Fatalf("spoken = %v, want [2]", f.spoken)
	}

	press(t, m, "x")
	if !f.stopped {
		t.Fatal("expected StopSpeaking")
	}

	press(t, m, "u")
	if !f.unloaded {
		t.Fatal("expected UnloadModel")
	}
}

func TestUnloadIgnoredWhileRecording(t *testing.T) {
	f := newFake(conversation.Recording)
	m := New(f)

	if msg := press(t, m, "u"); msg != nil {
		t.Fatalf("msg = %v, want nil", msg)
	}
	if f.unloaded {
		t.Fatal("unload must be ignored while recording")
	}
}

func TestNoticeSwallowsKeys(t *testing.T) {
	f := newFake(conversation.Ready)
	f.snap.Notice = &app.Notice{Title: "Error", Message: "boom"}
	m := New(f)

	press(t, m, " ")
	if f.toggles != 0 {
		t.Fatal("keys must be ignored while a notice is shown")
	}

	press(t, m, "esc")
	if !f.dismissed {
		t.Fatal("expected DismissNotice")
	}
	if m.snap.Notice != nil {
		t.Fatal("notice must be hidden after dismiss")
	}
}

func TestProgressEventsWaitForRedraw(t *testing.T) {
	f := newFake(conversation.Downloading)
	m := New(f)
	before := f.snapshots

	m.Update(eventMsg{Kind: app.EventProgress})
	if f.snapshots != before {
		t.Fatal("progress event must not refresh immediately")
	}
	if !m.dirty {
		t.Fatal("expected dirty flag")
	}

	m.Update(redrawMsg{})
	if f.snapshots != before+1 || m.dirty {
		t.Fatalf("snapshots = %d, dirty = %v after redraw", f.snapshots-before, m.dirty)
	}
}

func TestViewShowsState(t *testing.T) {
	f := newFake(conversation.Recording)
	f.snap.Elapsed = 65
	m := New(f)

	if v := m.View(); !strings.Contains(v, "1:05") {
		t.Fatalf("view does not show elapsed time:\n%s", v)
	}

	f.snap.State = conversation.Downloading
	f.snap.Download = app.DownloadStatus{ModelID: "m", Percent: 42, Speed: "1.5 MB/s", Active: true}
	m.refresh()
	if v := m.View(); !strings.Contains(v, "42%") || !strings.Contains(v, "1.5 MB/s") {
		t.Fatalf("view does not show download progress:\n%s", v)
	}
}

func TestCatalogDeleteOnlyDownloaded(t *testing.T) {
	f := newFake(conversation.NoModel)
	m := New(f)

	if msg := press(t, m, "x"); msg != nil || f.deleted != "" {
		t.Fatalf("delete of a missing file: msg = %v, deleted = %q", msg, f.deleted)
	}

	f.snap.Catalog[m.cursor].Downloaded = true
	m.refresh()
	press(t, m, "x")
	if f.deleted != models.DefaultModelID() {
		t.Fatalf("deleted = %q, want %q", f.deleted, models.DefaultModelID())
	}
}
