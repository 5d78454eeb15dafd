package permission

import (
	"context"
	"errors"
	"testing"
)

type memStore struct{ granted bool }

func (s *memStore) PermissionsGranted() bool { return s.granted }
func (s *memStore) SetPermissionsGranted(v bool) { s.granted = v }

func TestRequestPersistsGrant(t *testing.T) {
	store := &memStore{}
	var asked int
	g := New(store, func(context.Context) (bool, error) {
		asked++
		return true, nil
	})

	for i := 0; i < 2; i++ {
		ok, err := g.Request(context.Background())
		if err != nil || !ok {
			t.Fatalf("Request = %v, %v; want true", ok, err)
		}
	}
	if asked != 1 {
		t.Fatalf("asked = %d, want 1", asked)
	}
	if !g.Granted() || !store.granted {
		t.Fatal("grant must be persisted")
	}
}

func TestRequestDenied(t *testing.T) {
	store := &memStore{}
	g := New(store, func(context.Context) (bool, error) { return false, nil })

	ok, err := g.Request(context.Background())
	if err != nil || ok {
		t.Fatalf("Request = %v, %v; want false", ok, err)
	}
	if store.granted {
		t.Fatal("denial must not be persisted as grant")
	}
}

func TestRequestDialogError(t *testing.T) {
	boom := errors.New("no display")
	g := New(&memStore{}, func(context.Context) (bool, error) { return false, boom })

	if _, err := g.Request(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("err = %v, want %v", err, boom)
	}
}
