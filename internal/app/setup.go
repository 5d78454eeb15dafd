package app

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"voxtral/internal/audio"
	"voxtral/internal/config"
	"voxtral/internal/dialog"
	"voxtral/internal/history"
	"voxtral/internal/i18n"
	"voxtral/internal/llm"
	"voxtral/internal/models"
	"voxtral/internal/notify"
	"voxtral/internal/permission"
	"voxtral/internal/speech"
)

// Setup собирает приложение из конфигурации. Недоступные аудио, речь и архив
// не мешают запуску: соответствующие функции просто отключаются.
// Возвращаемая функция освобождает всё, что было создано.
func Setup(cfg *config.Config) (*App, func(), error) {
	i18n.SetLanguage(i18n.Language(cfg.UILanguage()))

	dataDir := cfg.DataDir()
	manager, err := models.NewManager(filepath.Join(dataDir, "models"), cfg.BaseURL())
	if err != nil {
		return nil, nil, err
	}

	llmCfg := cfg.LLM()
	runtime := llm.NewRuntime(llm.NewServerLoader(llm.Options{
		ServerBinary:  llmCfg.ServerBinary,
		ProjectorPath: llmCfg.ProjectorPath,
		ContextSize:   llmCfg.ContextSize,
		GPULayers:     llmCfg.GPULayers,
	}))

	recordingsDir := filepath.Join(dataDir, "recordings")
	if err := os.MkdirAll(recordingsDir, 0755); err != nil {
		return nil, nil, fmt.Errorf("не удалось создать директорию записей: %w", err)
	}

	gate := permission.New(cfg, dialog.RequestPermissions)
	deps := Deps{
		Models:        manager,
		Runtime:       runtime,
		Permissions:   gate,
		RecordingsDir: recordingsDir,
	}

	var closers []func()

	if recorder, err := audio.New(gate); err != nil {
		log.Printf("Запись недоступна: %v", err)
	} else {
		deps.Recorder = recorder
		closers = append(closers, recorder.Close)
	}

	if player, err := audio.NewPlayer(); err != nil {
		log.Printf("Воспроизведение недоступно: %v", err)
	} else {
		deps.Player = player
		closers = append(closers, player.Close)
	}

	v := cfg.Voice()
	if speaker, err := speech.New(speech.Voice{Language: v.Language, Rate: v.Rate, Pitch: v.Pitch}); err != nil {
		log.Printf("Синтез речи недоступен: %v", err)
	} else {
		deps.Speaker = speaker
	}

	if cfg.HistoryEnabled() {
		if store, err := history.Open(filepath.Join(dataDir, "history.db")); err != nil {
			log.Printf("Архив недоступен: %v", err)
		} else {
			deps.Archive = store
			closers = append(closers, func() {
				if err := store.Close(); err != nil {
					log.Printf("Ошибка закрытия архива: %v", err)
				}
			})
		}
	}

	notifier := notify.New(cfg.NotificationsEnabled())
	notifier.SetFallback(dialog.ShowError)
	deps.Notifier = notifier

	a := New(deps)
	cleanup := func() {
		a.Close()
		for _, c := range closers {
			c()
		}
	}
	log.Printf("Приложение собрано: данные в %s", dataDir)
	return a, cleanup, nil
}

// OpenHistory открывает архив для просмотра из командной строки.
func OpenHistory(cfg *config.Config) (*history.Store, error) {
	if !cfg.HistoryEnabled() {
		return nil, fmt.Errorf("history is disabled in %s", cfg.Path())
	}
	return history.Open(filepath.Join(cfg.DataDir(), "history.db"))
}
