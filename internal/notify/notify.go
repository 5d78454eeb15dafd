// Package notify предоставляет системные уведомления.
package notify

import (
	"log"

	"github.com/gen2brain/beeep"
	"voxtral/internal/i18n"
)

const appName = "Voxtral"

// Notifier отправляет системные уведомления.
type Notifier struct {
	enabled  bool
	send     func(title, message string) error
	fallback func(title, message string)
}

// New создаёт новый Notifier.
func New(enabled bool) *Notifier {
	return &Notifier{
		enabled: enabled,
		send: func(title, message string) error {
			return beeep.Notify(title, message, "")
		},
	}
}

// SetFallback задаёт, как показать ошибку, если системное уведомление не отправилось.
// fallback вызывается в отдельной горутине: диалог может ждать пользователя.
func (n *Notifier) SetFallback(fallback func(title, message string)) {
	n.fallback = fallback
}

// Error показывает уведомление об ошибке с заголовком.
func (n *Notifier) Error(title, msg string) {
	if title == "" {
		title = i18n.T("notice_error")
	}
	if err := n.notify(title, msg); err != nil {
		log.Printf("Ошибка уведомления: %v", err)
		if n.fallback != nil {
			go n.fallback(title, msg)
		}
	}
}

// Success показывает уведомление об успехе.
func (n *Notifier) Success(msg string) {
	// Не критично
	_ = n.notify(i18n.T("notice_success"), msg)
}

func (n *Notifier) notify(title, message string) error {
	if !n.enabled {
		return nil
	}
	return n.send(appName+": "+title, message)
}
