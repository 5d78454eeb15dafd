package app

import (
	"voxtral/internal/conversation"
	"voxtral/internal/models"
)

// EventKind тип события для интерфейса.
type EventKind int

const (
	EventState EventKind = iota
	EventProgress
	EventConversation
	EventNotice
	EventTick
	EventSpeech
)

// Event сообщает интерфейсу, что снимок состояния изменился.
// Интерфейс один; при переполнении очереди события теряются, актуальное
// состояние всегда доступно через Snapshot.
type Event struct {
	Kind     EventKind
	State    conversation.State
	Download DownloadStatus
	Elapsed  int
}

// DownloadStatus прогресс текущей загрузки.
type DownloadStatus struct {
	ModelID string
	Percent int
	Speed   string
	Active  bool
}

// Notice сообщение пользователю, которое он закрывает сам.
type Notice struct {
	Title   string
	Message string
}

// Snapshot состояние приложения для отрисовки.
type Snapshot struct {
	State           conversation.State
	ModelID         string
	Catalog         []models.ModelOption
	Messages        []conversation.Message
	Download        DownloadStatus
	Elapsed         int
	Speaking        bool
	Notice          *Notice
	AudioAvailable  bool
	SpeechAvailable bool
}
