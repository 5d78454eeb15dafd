package llm

import (
	"context"
	"errors"
	"testing"
)

type fakeSession struct {
	name     string
	released int
	events   *[]string
}

func (s *fakeSession) Complete(context.Context, []Message, Params) (string, error) {
	return s.name, nil
}

func (s *fakeSession) CompleteAudio(context.Context, []Message, string) (string, error) {
	return s.name, nil
}

func (s *fakeSession) Release() error {
	s.released++
	*s.events = append(*s.events, "release "+s.name)
	return nil
}

type fakeOpener struct {
	events   []string
	sessions []*fakeSession
	err      error
}

func (o *fakeOpener) Open(_ context.Context, path string) (Session, error) {
	o.events = append(o.events, "open "+path)
	if o.err != nil {
		return nil, o.err
	}
	s := &fakeSession{name: path, events: &o.events}
	o.sessions = append(o.sessions, s)
	return s, nil
}

func TestRuntimeReleasesBeforeReplace(t *testing.T) {
	opener := &fakeOpener{}
	rt := NewRuntime(opener)
	ctx := context.Background()

	if _, err := rt.Open(ctx, "a.gguf"); err != nil {
		t.Fatalf("Open a: %v", err)
	}
	if _, err := rt.Open(ctx, "b.gguf"); err != nil {
		t.Fatalf("Open b: %v", err)
	}

	want := []string{"open a.gguf", "release a.gguf", "open b.gguf"}
	if len(opener.events) != len(want) {
		t.Fatalf("events = %v, want %v", opener.events, want)
	}
	for i := range want {
		if opener.events[i] != want[i] {
			t.Fatalf("events = %v, want %v", opener.events, want)
		}
	}
	if rt.ModelPath() != "b.gguf" {
		t.Fatalf("model path = %q, want b.gguf", rt.ModelPath())
	}

	rt.Close()
	if rt.IsLoaded() {
		t.Fatal("runtime still loaded after Close")
	}
	if opener.sessions[1].released != 1 {
		t.Fatalf("b released %d times, want 1", opener.sessions[1].released)
	}
}

func TestRuntimeOpenFailure(t *testing.T) {
	opener := &fakeOpener{}
	rt := NewRuntime(opener)
	ctx := context.Background()

	if _, err := rt.Open(ctx, "a.gguf"); err != nil {
		t.Fatalf("Open a: %v", err)
	}

	opener.err = errors.New("bad file")
	_, err := rt.Open(ctx, "b.gguf")
	if !errors.Is(err, ErrModelLoad) {
		t.Fatalf("err = %v, want ErrModelLoad", err)
	}
	if rt.Current() != nil {
		t.Fatal("failed open must leave the slot empty")
	}
	if opener.sessions[0].released != 1 {
		t.Fatal("previous session must be released before opening")
	}
}
