package hotkey

import (
	"testing"

	"golang.design/x/hotkey"
	"voxtral/internal/config"
)

func TestResolve(t *testing.T) {
	mods, key := resolve(config.HotkeyConfig{
		Modifiers: []config.Modifier{config.ModCtrl, config.ModShift, config.Modifier("hyper")},
		Key:       config.KeyF9,
	})
	if len(mods) != 2 || mods[0] != modifierMap[config.ModCtrl] || mods[1] != modifierMap[config.ModShift] {
		t.Fatalf("mods = %v", mods)
	}
	if key != hotkey.KeyF9 {
		t.Fatalf("key = %v, want F9", key)
	}
}

func TestResolveUnknownKeyFallsBack(t *testing.T) {
	_, key := resolve(config.HotkeyConfig{Key: config.Key("pause")})
	if key != hotkey.KeySpace {
		t.Fatalf("key = %v, want space", key)
	}
}

func TestEveryConfigKeyIsMapped(t *testing.T) {
	for _, k := range config.AvailableKeys() {
		if _, ok := keyMap[k]; !ok {
			t.Errorf("key %q has no mapping", k)
		}
	}
	for _, m := range config.AvailableModifiers() {
		if _, ok := modifierMap[m]; !ok {
			t.Errorf("modifier %q has no mapping", m)
		}
	}
}
