// Voxtral - голосовой чат с локальной моделью Voxtral в терминале.
//
// Скачивает модель, запускает её через llama-server, записывает голос с микрофона
// и озвучивает ответ. Запись включается пробелом или глобальной горячей клавишей.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/dustin/go-humanize"
	"voxtral/internal/app"
	"voxtral/internal/config"
	"voxtral/internal/hotkey"
	"voxtral/internal/ui"
)

// Version устанавливается при сборке через -ldflags.
var Version = "dev"

func main() {
	showHistory := flag.Bool("history", false, "print recent conversations and exit")
	limit := flag.Int("limit", 20, "number of conversations for -history")
	flag.Parse()

	log.SetFlags(log.Ltime | log.Lshortfile)
	cfg := config.New()

	if *showHistory {
		if err := printHistory(cfg, *limit); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	// Терминал занят интерфейсом, лог пишем в файл.
	if err := os.MkdirAll(cfg.DataDir(), 0755); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	logFile, err := tea.LogToFile(filepath.Join(cfg.DataDir(), "voxtral.log"), "")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	log.Printf("Voxtral %s запускается...", Version)

	// Горячие клавиши требуют главного потока (macOS)
	code := 0
	hotkey.RunOnMainThread(func() {
		code = run(cfg)
	})
	logFile.Close()
	os.Exit(code)
}

func run(cfg *config.Config) int {
	application, cleanup, err := app.Setup(cfg)
	if err != nil {
		log.Printf("Ошибка инициализации: %v", err)
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	defer cleanup()

	if hk := cfg.Hotkey(); hk.Enabled {
		toggle := hotkey.New(func() {
			go func() {
				if err := application.ToggleRecording(context.Background()); err != nil {
					log.Printf("Горячая клавиша: %v", err)
				}
			}()
		})
		if err := toggle.Register(hk); err != nil {
			log.Printf("Ошибка регистрации горячей клавиши: %v", err)
		} else {
			defer toggle.Unregister()
		}
	}

	if _, err := ui.NewProgram(application).Run(); err != nil {
		log.Printf("Ошибка интерфейса: %v", err)
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func printHistory(cfg *config.Config, limit int) error {
	store, err := app.OpenHistory(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	sessions, err := store.Sessions(limit)
	if err != nil {
		return err
	}
	if len(sessions) == 0 {
		fmt.Println("No conversations yet.")
		return nil
	}

	for _, s := range sessions {
		last := []rune(strings.TrimSpace(s.LastUserText))
		if len(last) > 60 {
			last = append(last[:57], []rune("...")...)
		}
		fmt.Printf("%s  %-24s %3d turns  %-14s %s\n",
			s.ID[:8], s.ModelID, s.Turns, humanize.Time(s.UpdatedAt), string(last))
	}
	return nil
}
