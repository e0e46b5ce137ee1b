package catalog

import (
	"testing"
	"testing/fstest"
)

func TestLoadEmbeddedHasExpectedLocales(t *testing.T) {
	bundle, err := LoadEmbedded()
	if err != nil {
		t.Fatalf("load embedded catalogs: %v", err)
	}
	for _, locale := range []string{BaseLocale, "pt-BR"} {
		if !bundle.HasLocale(locale) {
			t.Fatalf("expected locale %s", locale)
		}
	}
	if got := len(bundle.NamespaceMessages(BaseLocale, "errors")); got == 0 {
		t.Fatal("expected en-US errors namespace messages")
	}
}

func TestEmbeddedLocalesShareKeys(t *testing.T) {
	bundle, err := LoadEmbedded()
	if err != nil {
		t.Fatalf("load embedded catalogs: %v", err)
	}
	for _, namespace := range []string{"errors", "sheet"} {
		base := bundle.NamespaceMessages(BaseLocale, namespace)
		translated := bundle.NamespaceMessages("pt-BR", namespace)
		for key := range base {
			if _, ok := translated[key]; !ok {
				t.Fatalf("pt-BR %s missing key %q", namespace, key)
			}
		}
	}
}

func TestLoadFromFSRejectsDuplicateKeysAcrossNamespaces(t *testing.T) {
	fsys := fstest.MapFS{
		"locales/en-US/errors.yaml": {Data: []byte("locale: en-US\nnamespace: errors\nmessages:\n  a.key: a\n")},
		"locales/en-US/sheet.yaml":  {Data: []byte("locale: en-US\nnamespace: sheet\nmessages:\n  a.key: b\n")},
	}
	if _, err := LoadFromFS(fsys); err == nil {
		t.Fatal("expected duplicate key error")
	}
}

func TestLoadFromFSRejectsLocaleMismatch(t *testing.T) {
	fsys := fstest.MapFS{
		"locales/en-US/errors.yaml": {Data: []byte("locale: pt-BR\nnamespace: errors\nmessages:\n  a: b\n")},
	}
	if _, err := LoadFromFS(fsys); err == nil {
		t.Fatal("expected locale mismatch error")
	}
}

func TestLoadFromFSRequiresBaseLocale(t *testing.T) {
	fsys := fstest.MapFS{
		"locales/pt-BR/errors.yaml": {Data: []byte("locale: pt-BR\nnamespace: errors\nmessages:\n  a: b\n")},
	}
	if _, err := LoadFromFS(fsys); err == nil {
		t.Fatal("expected missing base locale error")
	}
}

func TestMessageFallsBackToBaseLocale(t *testing.T) {
	fsys := fstest.MapFS{
		"locales/en-US/sheet.yaml": {Data: []byte("locale: en-US\nnamespace: sheet\nmessages:\n  only.base: Base\n  shared: Shared\n")},
		"locales/pt-BR/sheet.yaml": {Data: []byte("locale: pt-BR\nnamespace: sheet\nmessages:\n  shared: Compartilhado\n")},
	}
	bundle, err := LoadFromFS(fsys)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got, _ := bundle.Message("pt-BR", "shared"); got != "Compartilhado" {
		t.Fatalf("shared = %q, want %q", got, "Compartilhado")
	}
	if got, _ := bundle.Message("pt-BR", "only.base"); got != "Base" {
		t.Fatalf("only.base = %q, want %q", got, "Base")
	}
	locale, _ := bundle.NamespaceMessagesWithFallback("fr-FR", "sheet")
	if locale != BaseLocale {
		t.Fatalf("fallback locale = %q, want %q", locale, BaseLocale)
	}
}

func TestPrinterUsesRegisteredMessages(t *testing.T) {
	p := Default().Printer("pt-BR")
	if got, want := p.Sprintf("sheet.label.freebies", 3), "Pontos de bônus disponíveis: 3"; got != want {
		t.Fatalf("pt-BR freebies = %q, want %q", got, want)
	}
	p = Default().Printer("xx")
	if got, want := p.Sprintf("sheet.heading.spheres"), "Spheres"; got != want {
		t.Fatalf("fallback heading = %q, want %q", got, want)
	}
}
