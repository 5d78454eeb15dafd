// Package permission выдаёт разрешение на запись: микрофон и хранилище запрашиваются вместе.
package permission

import (
	"context"
	"log"
	"sync"
)

// Store хранит решение пользователя между запусками.
type Store interface {
	PermissionsGranted() bool
	SetPermissionsGranted(bool)
}

// AskFunc показывает пользователю запрос и возвращает его решение.
type AskFunc func(ctx context.Context) (bool, error)

// Gate проверяет и запрашивает разрешение на запись.
type Gate struct {
	store Store
	ask   AskFunc
	mu    sync.Mutex
}

// New создаёт Gate.
func New(store Store, ask AskFunc) *Gate {
	return &Gate{store: store, ask: ask}
}

// Granted сообщает, выдано ли разрешение.
func (g *Gate) Granted() bool {
	return g.store.PermissionsGranted()
}

// Request возвращает true, если разрешение уже есть или пользователь его выдал сейчас.
func (g *Gate) Request(ctx context.Context) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.store.PermissionsGranted() {
		return true, nil
	}
	if g.ask == nil {
		return false, nil
	}

	granted, err := g.ask(ctx)
	if err != nil {
		return false, err
	}
	if granted {
		g.store.SetPermissionsGranted(true)
		log.Printf("Разрешение на запись выдано")
	}
	return granted, nil
}
