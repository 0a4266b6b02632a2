package catalog

import (
	"testing"
	"testing/fstest"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

func TestLoadEmbeddedHasExpectedLocales(t *testing.T) {
	t.Parallel()

	bundle, err := LoadEmbedded()
	if err != nil {
		t.Fatalf("LoadEmbedded() error = %v", err)
	}
	for _, locale := range []string{BaseLocale, "pt-BR"} {
		if !bundle.HasLocale(locale) {
			t.Fatalf("expected locale %s", locale)
		}
	}
	en := bundle.LocaleMessages("en-US")
	pt := bundle.LocaleMessages("pt-BR")
	for key := range en {
		if _, ok := pt[key]; !ok {
			t.Fatalf("pt-BR missing key %q", key)
		}
	}
}

func TestLoadFromFSRejectsDuplicateKeysAcrossNamespaces(t *testing.T) {
	t.Parallel()

	fsys := fstest.MapFS{
		"locales/en-US/core.yaml": &fstest.MapFile{Data: []byte("locale: en-US\nnamespace: core\nmessages:\n  a.key: a\n")},
		"locales/en-US/web.yaml":  &fstest.MapFile{Data: []byte("locale: en-US\nnamespace: web\nmessages:\n  a.key: b\n")},
	}
	if _, err := LoadFromFS(fsys); err == nil {
		t.Fatal("expected duplicate key error")
	}
}

func TestLoadFromFSRejectsMismatchedLocale(t *testing.T) {
	t.Parallel()

	fsys := fstest.MapFS{
		"locales/en-US/core.yaml": &fstest.MapFile{Data: []byte("locale: pt-BR\nnamespace: core\nmessages:\n  a.key: a\n")},
	}
	if _, err := LoadFromFS(fsys); err == nil {
		t.Fatal("expected locale mismatch error")
	}
}

func TestLoadFromFSRequiresBaseLocale(t *testing.T) {
	t.Parallel()

	fsys := fstest.MapFS{
		"locales/pt-BR/core.yaml": &fstest.MapFile{Data: []byte("locale: pt-BR\nnamespace: core\nmessages:\n  a.key: a\n")},
	}
	if _, err := LoadFromFS(fsys); err == nil {
		t.Fatal("expected missing base locale error")
	}
}

func TestMessageFallsBackToBaseLocale(t *testing.T) {
	t.Parallel()

	value, ok := Default().Message("fr-FR", "launchweek.title")
	if !ok || value != "Launch Week" {
		t.Fatalf("Message() = %q, %v; want %q, true", value, ok, "Launch Week")
	}
}

func TestCatalogResolvesPortugueseBaseLanguage(t *testing.T) {
	t.Parallel()

	cat, err := Default().Catalog()
	if err != nil {
		t.Fatalf("Catalog() error = %v", err)
	}
	printer := message.NewPrinter(language.MustParse("pt"), message.Catalog(cat))
	if got := printer.Sprintf("launchweek.title"); got != "Semana de Lançamentos" {
		t.Fatalf("Sprintf() = %q, want %q", got, "Semana de Lançamentos")
	}
}
