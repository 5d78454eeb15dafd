package conversation

import (
	"testing"
	"time"

	"voxtral/internal/llm"
)

func TestNewLogHasGreeting(t *testing.T) {
	l := NewLog("Hello!")
	msgs := l.Messages()
	if len(msgs) != 1 || msgs[0].Role != llm.RoleAssistant || msgs[0].Content != "Hello!" {
		t.Fatalf("messages = %+v, want single greeting", msgs)
	}
}

func TestAppendTurnOrdersTimestamps(t *testing.T) {
	fixed := time.Unix(100, 0)
	l := NewLog("Hello!")
	l.now = func() time.Time { return fixed }
	l.Reset("Hello!")

	for i := 0; i < 3; i++ {
		l.AppendTurn("question", "/tmp/a.wav", "answer")
	}

	msgs := l.Messages()
	if len(msgs) != 7 {
		t.Fatalf("len = %d, want 7", len(msgs))
	}
	for i := 1; i < len(msgs); i++ {
		if !msgs[i].Timestamp.After(msgs[i-1].Timestamp) {
			t.Fatalf("timestamp %d not after %d", i, i-1)
		}
	}
	if msgs[1].Role != llm.RoleUser || msgs[1].AudioPath != "/tmp/a.wav" {
		t.Fatalf("user turn = %+v", msgs[1])
	}
	if msgs[2].Role != llm.RoleAssistant || msgs[2].AudioPath != "" {
		t.Fatalf("assistant turn = %+v", msgs[2])
	}
}

func TestResetAlwaysLeavesOneMessage(t *testing.T) {
	l := NewLog("first")
	for n := 0; n < 5; n++ {
		for i := 0; i < n; i++ {
			l.AppendTurn("q", "", "a")
		}
		l.Reset("again")
		if l.Len() != 1 {
			t.Fatalf("after %d turns len = %d, want 1", n, l.Len())
		}
	}
	if m, _ := l.At(0); m.Content != "again" {
		t.Fatalf("greeting = %q", m.Content)
	}
}

func TestMessagesReturnsCopy(t *testing.T) {
	l := NewLog("hi")
	msgs := l.Messages()
	msgs[0].Content = "changed"
	if m, _ := l.At(0); m.Content != "hi" {
		t.Fatal("log modified through returned slice")
	}
	if _, ok := l.At(5); ok {
		t.Fatal("At out of range should fail")
	}
}

func TestHistory(t *testing.T) {
	l := NewLog("hi")
	l.AppendTurn("q", "/x.wav", "a")
	h := l.History()
	if len(h) != 3 || h[1].Role != llm.RoleUser || h[1].Content != "q" || h[2].Content != "a" {
		t.Fatalf("history = %+v", h)
	}
}
