// Package hotkey предоставляет глобальную горячую клавишу для начала и остановки записи.
package hotkey

import (
	"log"
	"sync"
	"time"

	"golang.design/x/hotkey"
	"golang.design/x/hotkey/mainthread"
	"voxtral/internal/config"
)

// debounceInterval защищает от автоповтора клавиши.
const debounceInterval = 300 * time.Millisecond

// Toggle вызывает onToggle при каждом нажатии комбинации.
type Toggle struct {
	mu       sync.Mutex
	hk       *hotkey.Hotkey
	onToggle func()
	stopCh   chan struct{}
}

// New создаёт обработчик горячей клавиши.
func New(onToggle func()) *Toggle {
	return &Toggle{onToggle: onToggle}
}

// Register регистрирует комбинацию, заменяя предыдущую.
func (t *Toggle) Register(cfg config.HotkeyConfig) error {
	if err := t.Unregister(); err != nil {
		log.Printf("Ошибка отмены горячей клавиши: %v", err)
	}

	mods, key := resolve(cfg)
	hk := hotkey.New(mods, key)
	if err := hk.Register(); err != nil {
		return err
	}

	stop := make(chan struct{})
	t.mu.Lock()
	t.hk = hk
	t.stopCh = stop
	t.mu.Unlock()

	log.Printf("Горячая клавиша зарегистрирована: %s", cfg.String())
	go t.listen(hk, stop)
	return nil
}

func (t *Toggle) listen(hk *hotkey.Hotkey, stop chan struct{}) {
	var last time.Time
	for {
		select {
		case <-stop:
			return
		case _, ok := <-hk.Keydown():
			if !ok {
				return
			}
			now := time.Now()
			if now.Sub(last) < debounceInterval {
				continue
			}
			last = now
			if t.onToggle != nil {
				t.onToggle()
			}
		case _, ok := <-hk.Keyup():
			if !ok {
				return
			}
		}
	}
}

// Unregister отменяет регистрацию горячей клавиши.
func (t *Toggle) Unregister() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.stopCh != nil {
		close(t.stopCh)
		t.stopCh = nil
	}
	if t.hk == nil {
		return nil
	}

	err := t.hk.Unregister()
	t.hk = nil
	return err
}

// RunOnMainThread запускает функцию в главном потоке (требование для macOS).
func RunOnMainThread(fn func()) {
	mainthread.Init(fn)
}

// resolve переводит настройки в модификаторы и клавишу библиотеки.
// Неизвестная клавиша заменяется пробелом.
func resolve(cfg config.HotkeyConfig) ([]hotkey.Modifier, hotkey.Key) {
	mods := make([]hotkey.Modifier, 0, len(cfg.Modifiers))
	for _, m := range cfg.Modifiers {
		if mod, ok := modifierMap[m]; ok {
			mods = append(mods, mod)
		}
	}

	key, ok := keyMap[cfg.Key]
	if !ok {
		key = hotkey.KeySpace
	}
	return mods, key
}

// modifierMap определён в modifiers_<os>.go

var keyMap = map[config.Key]hotkey.Key{
	config.KeySpace:  hotkey.KeySpace,
	config.KeyReturn: hotkey.KeyReturn,
	config.KeyTab:    hotkey.KeyTab,
	config.KeyR:      hotkey.KeyR,
	config.KeyV:      hotkey.KeyV,
	config.KeyF8:     hotkey.KeyF8,
	config.KeyF9:     hotkey.KeyF9,
	config.KeyF10:    hotkey.KeyF10,
}
