// Package llm управляет сессией локальной модели Voxtral.
package llm

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
)

var (
	ErrModelLoad     = errors.New("model load failed")
	ErrInference     = errors.New("inference failed")
	ErrSessionClosed = errors.New("model session released")
)

// Role роль участника диалога.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// AudioMarker - текст пользовательского сообщения, вместо которого подставляется запись.
const AudioMarker = "[AUDIO]"

// Message сообщение запроса к модели.
type Message struct {
	Role    Role
	Content string
}

// Params параметры генерации. Нулевые значения оставляют настройки сервера.
type Params struct {
	Temperature float64
	MaxTokens   int
}

// Session загруженная модель, готовая отвечать на запросы.
type Session interface {
	// Complete возвращает ответ модели на переписку.
	Complete(ctx context.Context, messages []Message, params Params) (string, error)
	// CompleteAudio отправляет переписку вместе с аудиофайлом.
	CompleteAudio(ctx context.Context, messages []Message, audioPath string) (string, error)
	// Release освобождает ресурсы сессии. Повторный вызов ничего не делает.
	Release() error
}

// Opener открывает сессию для файла модели.
type Opener interface {
	Open(ctx context.Context, modelPath string) (Session, error)
}

// Runtime держит не более одной живой сессии.
type Runtime struct {
	opener Opener

	openMu sync.Mutex // сериализует Open и Release
	mu     sync.RWMutex
	path   string
	cur    Session
}

// NewRuntime создаёт пустой слот для сессии.
func NewRuntime(opener Opener) *Runtime {
	return &Runtime{opener: opener}
}

// Open освобождает текущую сессию и открывает новую.
func (r *Runtime) Open(ctx context.Context, modelPath string) (Session, error) {
	r.openMu.Lock()
	defer r.openMu.Unlock()

	if err := r.release(); err != nil {
		log.Printf("Ошибка освобождения предыдущей сессии: %v", err)
	}

	s, err := r.opener.Open(ctx, modelPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrModelLoad, err)
	}

	r.mu.Lock()
	r.cur = s
	r.path = modelPath
	r.mu.Unlock()

	log.Printf("Модель загружена: %s", modelPath)
	return s, nil
}

// Current возвращает текущую сессию или nil.
func (r *Runtime) Current() Session {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.cur
}

// ModelPath возвращает путь к файлу загруженной модели.
func (r *Runtime) ModelPath() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.path
}

// IsLoaded проверяет, открыта ли сессия.
func (r *Runtime) IsLoaded() bool {
	return r.Current() != nil
}

// Release освобождает текущую сессию.
func (r *Runtime) Release() error {
	r.openMu.Lock()
	defer r.openMu.Unlock()
	return r.release()
}

func (r *Runtime) release() error {
	r.mu.Lock()
	old := r.cur
	r.cur = nil
	r.path = ""
	r.mu.Unlock()

	if old == nil {
		return nil
	}
	return old.Release()
}

// Close освобождает всё при выходе; ошибки только логируются.
func (r *Runtime) Close() {
	if err := r.Release(); err != nil {
		log.Printf("Ошибка освобождения модели: %v", err)
	}
}
