// Package config предоставляет конфигурацию приложения с сохранением в файл.
package config

import (
	"encoding/json"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/joho/godotenv"
)

// Modifier представляет модификатор клавиши.
type Modifier string

const (
	ModCtrl  Modifier = "ctrl"
	ModShift Modifier = "shift"
	ModAlt   Modifier = "alt"
	ModSuper Modifier = "super" // Win/Cmd
)

// Key представляет клавишу.
type Key string

const (
	KeySpace  Key = "space"
	KeyReturn Key = "return"
	KeyTab    Key = "tab"
	KeyR      Key = "r"
	KeyV      Key = "v"
	KeyF8     Key = "f8"
	KeyF9     Key = "f9"
	KeyF10    Key = "f10"
)

// HotkeyConfig хранит настройки горячей клавиши.
type HotkeyConfig struct {
	Enabled   bool       `json:"enabled"`
	Modifiers []Modifier `json:"modifiers"`
	Key       Key        `json:"key"`
}

// String возвращает строковое представление горячей клавиши.
func (h HotkeyConfig) String() string {
	parts := make([]string, 0, len(h.Modifiers)+1)
	for _, m := range h.Modifiers {
		parts = append(parts, string(m))
	}
	parts = append(parts, string(h.Key))
	return strings.Join(parts, "+")
}

// VoiceConfig настройки синтеза речи.
type VoiceConfig struct {
	Language string  `json:"language"`
	Rate     float64 `json:"rate"`
	Pitch    float64 `json:"pitch"`
}

// LLMConfig настройки локального сервера инференса.
type LLMConfig struct {
	ServerBinary  string `json:"server_binary"`
	ProjectorPath string `json:"projector_path,omitempty"` // mmproj для аудио-входа
	ContextSize   int    `json:"context_size"`
	GPULayers     int    `json:"gpu_layers"`
}

// configData структура для сериализации.
type configData struct {
	UILanguage         string       `json:"ui_language,omitempty"`
	Notifications      bool         `json:"notifications"`
	Hotkey             HotkeyConfig `json:"hotkey"`
	DataDir            string       `json:"data_dir,omitempty"`
	BaseURL            string       `json:"base_url,omitempty"`
	PermissionsGranted bool         `json:"permissions_granted"`
	Voice              VoiceConfig  `json:"voice"`
	LLM                LLMConfig    `json:"llm"`
	HistoryEnabled     bool         `json:"history_enabled"`
}

// DefaultBaseURL - откуда скачиваются GGUF файлы каталога.
const DefaultBaseURL = "https://huggingface.co/bartowski/mistralai_Voxtral-Mini-3B-2507-GGUF/resolve/main"

// overrides значения из окружения. В файл не сохраняются.
type overrides struct {
	BaseURL       string
	DataDir       string
	ServerBinary  string
	ProjectorPath string
}

// Config хранит настройки приложения.
type Config struct {
	mu         sync.RWMutex
	data       configData
	env        overrides
	configPath string
	defaultDir string // директория данных, если не задана ни в файле, ни в окружении
}

// New создаёт конфигурацию рядом с бинарником, загружая .env и переменные окружения.
func New() *Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("Ошибка чтения .env: %v", err)
	}

	dir := "."
	if execPath, err := os.Executable(); err == nil {
		if execPath, err = filepath.EvalSymlinks(execPath); err == nil {
			dir = filepath.Dir(execPath)
		}
	}

	c := Load(filepath.Join(dir, "config.json"))
	c.defaultDir = filepath.Join(dir, "data")
	return c
}

// Load читает конфигурацию из указанного файла. Отсутствующий или битый файл
// даёт настройки по умолчанию. Переменные окружения VOXTRAL_* имеют приоритет.
func Load(path string) *Config {
	c := &Config{
		data:       defaults(),
		configPath: path,
	}
	c.load()
	c.applyEnv()
	return c
}

func defaults() configData {
	return configData{
		UILanguage:    "en",
		Notifications: true,
		Hotkey: HotkeyConfig{
			Enabled:   true,
			Modifiers: []Modifier{ModCtrl, ModShift},
			Key:       KeySpace,
		},
		BaseURL: DefaultBaseURL,
		Voice: VoiceConfig{
			Language: "en-US",
			Rate:     0.5,
			Pitch:    1.0,
		},
		LLM: LLMConfig{
			ServerBinary: "llama-server",
			ContextSize:  2048,
			GPULayers:    1,
		},
		HistoryEnabled: true,
	}
}

// load загружает конфигурацию из файла.
func (c *Config) load() {
	if c.configPath == "" {
		return
	}

	data, err := os.ReadFile(c.configPath)
	if err != nil {
		return // Файл не существует, используем defaults
	}

	cfg := defaults()
	if err := json.Unmarshal(data, &cfg); err != nil {
		log.Printf("Ошибка разбора %s: %v", c.configPath, err)
		return
	}

	if cfg.Hotkey.Key == "" {
		cfg.Hotkey = c.data.Hotkey
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.LLM.ServerBinary == "" {
		cfg.LLM.ServerBinary = c.data.LLM.ServerBinary
	}
	if cfg.LLM.ContextSize <= 0 {
		cfg.LLM.ContextSize = c.data.LLM.ContextSize
	}
	if cfg.Voice.Language == "" {
		cfg.Voice = c.data.Voice
	}
	c.data = cfg
}

// applyEnv читает переопределения из окружения (после .env).
func (c *Config) applyEnv() {
	c.env = overrides{
		BaseURL:       strings.TrimRight(strings.TrimSpace(os.Getenv("VOXTRAL_BASE_URL")), "/"),
		DataDir:       strings.TrimSpace(os.Getenv("VOXTRAL_DATA_DIR")),
		ServerBinary:  strings.TrimSpace(os.Getenv("VOXTRAL_LLAMA_SERVER")),
		ProjectorPath: strings.TrimSpace(os.Getenv("VOXTRAL_MMPROJ")),
	}
}

// save сохраняет конфигурацию в файл. Вызывается под c.mu.
func (c *Config) save() {
	if c.configPath == "" {
		return
	}

	data, err := json.MarshalIndent(c.data, "", "  ")
	if err != nil {
		return
	}

	if err := os.WriteFile(c.configPath, data, 0644); err != nil {
		log.Printf("Ошибка сохранения конфигурации: %v", err)
	}
}

// Path возвращает путь к файлу конфигурации.
func (c *Config) Path() string {
	return c.configPath
}

// UILanguage возвращает язык интерфейса.
func (c *Config) UILanguage() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.data.UILanguage
}

// NotificationsEnabled возвращает true если уведомления включены.
func (c *Config) NotificationsEnabled() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.data.Notifications
}

// Hotkey возвращает текущую горячую клавишу.
func (c *Config) Hotkey() HotkeyConfig {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.data.Hotkey
}

// DataDir возвращает директорию для моделей, записей и истории.
func (c *Config) DataDir() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	switch {
	case c.env.DataDir != "":
		return c.env.DataDir
	case c.data.DataDir != "":
		return c.data.DataDir
	}
	return c.defaultDir
}

// BaseURL возвращает базовый URL каталога моделей.
func (c *Config) BaseURL() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.env.BaseURL != "" {
		return c.env.BaseURL
	}
	return c.data.BaseURL
}

// PermissionsGranted сообщает, выдал ли пользователь доступ к микрофону и хранилищу.
func (c *Config) PermissionsGranted() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.data.PermissionsGranted
}

// SetPermissionsGranted сохраняет решение пользователя.
func (c *Config) SetPermissionsGranted(granted bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data.PermissionsGranted = granted
	c.save()
}

// Voice возвращает настройки синтеза речи.
func (c *Config) Voice() VoiceConfig {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.data.Voice
}

// LLM возвращает настройки сервера инференса.
func (c *Config) LLM() LLMConfig {
	c.mu.RLock()
	defer c.mu.RUnlock()
	cfg := c.data.LLM
	if c.env.ServerBinary != "" {
		cfg.ServerBinary = c.env.ServerBinary
	}
	if c.env.ProjectorPath != "" {
		cfg.ProjectorPath = c.env.ProjectorPath
	}
	return cfg
}

// HistoryEnabled возвращает true если переписка сохраняется в архив.
func (c *Config) HistoryEnabled() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.data.HistoryEnabled
}

// AvailableModifiers возвращает список доступных модификаторов.
func AvailableModifiers() []Modifier {
	return []Modifier{ModCtrl, ModShift, ModAlt, ModSuper}
}

// AvailableKeys возвращает список доступных клавиш.
func AvailableKeys() []Key {
	return []Key{KeySpace, KeyReturn, KeyTab, KeyR, KeyV, KeyF8, KeyF9, KeyF10}
}
