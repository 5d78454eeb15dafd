// Package i18n provides internationalization support.
package i18n

import (
	"fmt"
	"sync"
)

// Language represents a UI language.
type Language string

const (
	EN Language = "en"
	RU Language = "ru"
)

var (
	mu      sync.RWMutex
	current = EN // Default language
)

// Translations for all supported languages.
var translations = map[Language]map[string]string{
	EN: {
		"app_name": "Voxtral",

		// Conversation
		"greeting_select":        "Hello! I'm Voxtral. Select a model below to begin.",
		"greeting_ready":         "Hello! I'm Voxtral. Press Space to talk to me.",
		"fallback_transcription": "Could not transcribe audio.",
		"fallback_response":      "I didn't quite understand that. Could you try again?",

		// Notice titles
		"notice_download_failed": "Download Failed",
		"notice_error":           "Error",
		"notice_success":         "Success",
		"notice_model_missing":   "Model Not Loaded",

		// Errors
		"error_unreachable":        "Could not connect to model server",
		"error_storage":            "Not enough storage space (need at least %s free)",
		"error_corrupt":            "Downloaded file is too small",
		"error_timeout":            "Download timed out. Please check your internet connection.",
		"error_download":           "Failed to download model. Please check your internet connection.",
		"error_model_load":         "Failed to load model. Try restarting the app.",
		"error_model_not_loaded":   "Please load a Voxtral model first.",
		"error_permission":         "Microphone and storage access are required to record.",
		"error_recording_start":    "Failed to start recording. Please check app permissions and try again.",
		"error_recording_short":    "Recording file is too small",
		"error_processing":         "Failed to process recording: %s",
		"error_playback":           "Could not play the recording.",
		"error_audio_unavailable":  "Audio recording not available",
		"error_speech_unavailable": "Speech output not available",
		"error_delete":             "Could not delete the model file.",

		// Success messages
		"success_model_loaded": "Voxtral model loaded and ready!",

		// Terminal UI
		"ui_select_model":  "Select a model",
		"ui_recommended":   "recommended",
		"ui_downloaded":    "downloaded",
		"ui_downloading":   "Downloading",
		"ui_loading":       "Loading model...",
		"ui_processing":    "Processing...",
		"ui_recording":     "Recording",
		"ui_speaking":      "Speaking",
		"ui_ready":         "Ready",
		"ui_you":           "You",
		"ui_assistant":     "Voxtral",
		"ui_has_recording": "[recording]",
		"ui_dismiss":       "enter/esc to dismiss",
		"ui_help_catalog":  "↑/↓ select • enter download & load • d re-download • x delete file • q quit",
		"ui_help_chat":     "space record/stop • ↑/↓ turn • p play recording • s speak • x stop speech • u unload • q quit",

		// Permission dialog
		"perm_title":      "Voxtral permissions",
		"perm_text":       "Voxtral needs the following to record your voice:",
		"perm_microphone": "Record audio from the microphone",
		"perm_storage":    "Store recordings on this computer",
	},

	RU: {
		"app_name": "Voxtral",

		// Conversation
		"greeting_select":        "Привет! Я Voxtral. Выберите модель ниже, чтобы начать.",
		"greeting_ready":         "Привет! Я Voxtral. Нажмите Пробел, чтобы поговорить со мной.",
		"fallback_transcription": "Не удалось распознать аудио.",
		"fallback_response":      "Я не совсем понял. Попробуете ещё раз?",

		// Notice titles
		"notice_download_failed": "Ошибка загрузки",
		"notice_error":           "Ошибка",
		"notice_success":         "Готово",
		"notice_model_missing":   "Модель не загружена",

		// Errors
		"error_unreachable":        "Не удалось подключиться к серверу моделей",
		"error_storage":            "Недостаточно места (нужно минимум %s)",
		"error_corrupt":            "Скачанный файл слишком мал",
		"error_timeout":            "Превышено время ожидания загрузки. Проверьте подключение к интернету.",
		"error_download":           "Не удалось скачать модель. Проверьте подключение к интернету.",
		"error_model_load":         "Не удалось загрузить модель. Попробуйте перезапустить приложение.",
		"error_model_not_loaded":   "Сначала загрузите модель Voxtral.",
		"error_permission":         "Для записи нужен доступ к микрофону и хранилищу.",
		"error_recording_start":    "Не удалось начать запись. Проверьте разрешения и попробуйте снова.",
		"error_recording_short":    "Запись слишком короткая",
		"error_processing":         "Не удалось обработать запись: %s",
		"error_playback":           "Не удалось воспроизвести запись.",
		"error_audio_unavailable":  "Запись аудио недоступна",
		"error_speech_unavailable": "Синтез речи недоступен",
		"error_delete":             "Не удалось удалить файл модели.",

		// Success messages
		"success_model_loaded": "Модель Voxtral загружена и готова!",

		// Terminal UI
		"ui_select_model":  "Выберите модель",
		"ui_recommended":   "рекомендуется",
		"ui_downloaded":    "скачана",
		"ui_downloading":   "Загрузка",
		"ui_loading":       "Загрузка модели...",
		"ui_processing":    "Обработка...",
		"ui_recording":     "Запись",
		"ui_speaking":      "Говорю",
		"ui_ready":         "Готов",
		"ui_you":           "Вы",
		"ui_assistant":     "Voxtral",
		"ui_has_recording": "[запись]",
		"ui_dismiss":       "enter/esc чтобы закрыть",
		"ui_help_catalog":  "↑/↓ выбор • enter скачать и загрузить • d скачать заново • x удалить файл • q выход",
		"ui_help_chat":     "пробел запись/стоп • ↑/↓ реплика • p прослушать • s озвучить • x тишина • u выгрузить • q выход",

		// Permission dialog
		"perm_title":      "Разрешения Voxtral",
		"perm_text":       "Для записи голоса Voxtral нужно:",
		"perm_microphone": "Запись звука с микрофона",
		"perm_storage":    "Сохранение записей на этом компьютере",
	},
}

// T returns the translation for the given key.
func T(key string) string {
	mu.RLock()
	defer mu.RUnlock()

	if strings, ok := translations[current]; ok {
		if s, ok := strings[key]; ok {
			return s
		}
	}
	// Fallback to English, then to the key itself
	if s, ok := translations[EN][key]; ok {
		return s
	}
	return key
}

// Tf formats the translation for the given key.
func Tf(key string, args ...any) string {
	return fmt.Sprintf(T(key), args...)
}

// SetLanguage sets the current UI language.
func SetLanguage(lang Language) {
	mu.Lock()
	defer mu.Unlock()
	if _, ok := translations[lang]; !ok {
		return
	}
	current = lang
}

// GetLanguage returns the current UI language.
func GetLanguage() Language {
	mu.RLock()
	defer mu.RUnlock()
	return current
}
