package speech

import (
	"context"
	"os"
	"os/exec"
	"testing"
	"time"
)

// helperEngine запускает тестовый бинарник вместо синтезатора.
type helperEngine struct {
	mode string
}

func (e helperEngine) Name() string { return "helper" }

func (e helperEngine) Command(ctx context.Context, text string, v Voice) *exec.Cmd {
	cmd := exec.CommandContext(ctx, os.Args[0], "-test.run=TestHelperSpeech", "--", text)
	cmd.Env = append(os.Environ(), "GO_WANT_HELPER_PROCESS=1", "HELPER_MODE="+e.mode)
	return cmd
}

// TestHelperSpeech изображает синтезатор: "long" говорит, пока его не остановят.
func TestHelperSpeech(t *testing.T) {
	if os.Getenv("GO_WANT_HELPER_PROCESS") != "1" {
		return
	}
	if os.Getenv("HELPER_MODE") == "long" {
		time.Sleep(time.Minute)
	}
	os.Exit(0)
}

func nextState(t *testing.T, s *Speaker) State {
	t.Helper()
	select {
	case st := <-s.States():
		return st
	case <-time.After(10 * time.Second):
		t.Fatal("no state transition")
		return Idle
	}
}

func TestSpeakEmitsSpeakingThenIdle(t *testing.T) {
	s := newSpeaker(helperEngine{mode: "short"}, Voice{Rate: 0.5, Pitch: 1})

	if err := s.Speak("hello"); err != nil {
		t.Fatalf("Speak: %v", err)
	}
	if st := nextState(t, s); st != Speaking {
		t.Fatalf("state = %v, want speaking", st)
	}
	if st := nextState(t, s); st != Idle {
		t.Fatalf("state = %v, want idle", st)
	}
	if s.IsSpeaking() {
		t.Fatal("still speaking after process exit")
	}
}

func TestSpeakStopsCurrentUtterance(t *testing.T) {
	s := newSpeaker(helperEngine{mode: "long"}, Voice{Rate: 0.5, Pitch: 1})

	if err := s.Speak("first"); err != nil {
		t.Fatalf("Speak: %v", err)
	}
	nextState(t, s)

	start := time.Now()
	if err := s.Speak("second"); err != nil {
		t.Fatalf("Speak: %v", err)
	}
	if time.Since(start) > 30*time.Second {
		t.Fatal("second Speak waited for the first utterance to finish")
	}

	want := []State{Idle, Speaking}
	for _, w := range want {
		if st := nextState(t, s); st != w {
			t.Fatalf("state = %v, want %v", st, w)
		}
	}

	s.Stop()
	if st := nextState(t, s); st != Idle {
		t.Fatalf("state = %v, want idle", st)
	}
	if s.IsSpeaking() {
		t.Fatal("IsSpeaking after Stop")
	}
}

func TestStopWhenIdle(t *testing.T) {
	s := newSpeaker(helperEngine{mode: "short"}, Voice{})
	s.Stop()
	if s.IsSpeaking() {
		t.Fatal("IsSpeaking on idle speaker")
	}
}

func TestWordsPerMinute(t *testing.T) {
	tests := []struct {
		rate float64
		want int
	}{
		{0.5, 175},
		{1.0, 350},
		{0, 80},
		{5, 450},
	}
	for _, tt := range tests {
		if got := wordsPerMinute(tt.rate); got != tt.want {
			t.Errorf("wordsPerMinute(%v) = %d, want %d", tt.rate, got, tt.want)
		}
	}
}
