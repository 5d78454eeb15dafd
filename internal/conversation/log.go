// Package conversation хранит переписку и состояние голосового диалога.
package conversation

import (
	"sync"
	"time"

	"voxtral/internal/llm"
)

// Message одна реплика диалога. После добавления в Log не меняется.
type Message struct {
	Role      llm.Role
	Content   string
	AudioPath string // только у реплик пользователя
	Timestamp time.Time
}

// Log упорядоченная переписка. Никогда не бывает пустой: начинается с приветствия.
type Log struct {
	mu       sync.RWMutex
	messages []Message
	now      func() time.Time
}

// NewLog создаёт переписку из одного приветствия.
func NewLog(greeting string) *Log {
	l := &Log{now: time.Now}
	l.Reset(greeting)
	return l
}

// Reset заменяет переписку одним приветствием ассистента.
func (l *Log) Reset(greeting string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.messages = []Message{{
		Role:      llm.RoleAssistant,
		Content:   greeting,
		Timestamp: l.now(),
	}}
}

// AppendTurn добавляет реплику пользователя и ответ ассистента вместе.
// Метки времени строго больше всех предыдущих.
func (l *Log) AppendTurn(userText, audioPath, reply string) (Message, Message) {
	l.mu.Lock()
	defer l.mu.Unlock()

	last := l.messages[len(l.messages)-1].Timestamp
	ts := l.now()
	if !ts.After(last) {
		ts = last.Add(time.Millisecond)
	}

	user := Message{Role: llm.RoleUser, Content: userText, AudioPath: audioPath, Timestamp: ts}
	assistant := Message{Role: llm.RoleAssistant, Content: reply, Timestamp: ts.Add(time.Millisecond)}
	l.messages = append(l.messages, user, assistant)
	return user, assistant
}

// Messages возвращает копию переписки.
func (l *Log) Messages() []Message {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]Message, len(l.messages))
	copy(out, l.messages)
	return out
}

// Len возвращает число реплик.
func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.messages)
}

// At возвращает реплику по индексу.
func (l *Log) At(i int) (Message, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if i < 0 || i >= len(l.messages) {
		return Message{}, false
	}
	return l.messages[i], true
}

// History переводит переписку в сообщения для модели.
func (l *Log) History() []llm.Message {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]llm.Message, 0, len(l.messages))
	for _, m := range l.messages {
		out = append(out, llm.Message{Role: m.Role, Content: m.Content})
	}
	return out
}
