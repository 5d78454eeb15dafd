// Package dialog предоставляет нативные диалоги приложения.
package dialog

import (
	"context"
	"errors"
	"log"

	"github.com/ncruces/zenity"
	"voxtral/internal/i18n"
)

// RequestPermissions спрашивает доступ к микрофону и хранилищу одним окном.
// Разрешение выдано, только если отмечены оба пункта. Отмена диалога - отказ без ошибки.
func RequestPermissions(ctx context.Context) (bool, error) {
	items := []string{i18n.T("perm_microphone"), i18n.T("perm_storage")}

	selected, err := zenity.ListMultiple(
		i18n.T("perm_text"),
		items,
		zenity.Title(i18n.T("perm_title")),
		zenity.CheckList(),
		zenity.Context(ctx),
	)
	if errors.Is(err, zenity.ErrCanceled) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	return allSelected(items, selected), nil
}

func allSelected(items, selected []string) bool {
	for _, item := range items {
		found := false
		for _, s := range selected {
			if s == item {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// ShowError показывает сообщение об ошибке и ждёт, пока его закроют.
func ShowError(title, message string) {
	if err := zenity.Error(message, zenity.Title(title), zenity.ErrorIcon); err != nil && !errors.Is(err, zenity.ErrCanceled) {
		log.Printf("Ошибка показа диалога: %v", err)
	}
}
