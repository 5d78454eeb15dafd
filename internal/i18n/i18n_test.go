package i18n

import "testing"

func TestTranslationsHaveSameKeys(t *testing.T) {
	for key := range translations[EN] {
		if _, ok := translations[RU][key]; !ok {
			t.Errorf("key %q missing in ru", key)
		}
	}
	for key := range translations[RU] {
		if _, ok := translations[EN][key]; !ok {
			t.Errorf("key %q missing in en", key)
		}
	}
}

func TestTFallsBackToKey(t *testing.T) {
	if got := T("no_such_key"); got != "no_such_key" {
		t.Fatalf("T = %q, want key", got)
	}
}

func TestSetLanguageIgnoresUnknown(t *testing.T) {
	SetLanguage(EN)
	SetLanguage(Language("xx"))
	if GetLanguage() != EN {
		t.Fatalf("language = %q, want en", GetLanguage())
	}
	if got := Tf("error_storage", "3.0 GiB"); got != "Not enough storage space (need at least 3.0 GiB free)" {
		t.Fatalf("Tf = %q", got)
	}
}
