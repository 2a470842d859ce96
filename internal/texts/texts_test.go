package texts_test

import (
	"strings"
	"testing"

	"kinobot/internal/texts"
)

func load(t *testing.T) *texts.Catalog {
	t.Helper()
	catalog, err := texts.Load("uz", []string{"uz", "ru", "en"})
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	return catalog
}

func TestGetTranslation(t *testing.T) {
	catalog := load(t)

	if got := catalog.Get("en", "no_movies"); got != "The catalog is empty." {
		t.Fatalf("unexpected translation: %q", got)
	}
	if got := catalog.Get("ru", "no_movies"); !strings.Contains(got, "пуст") {
		t.Fatalf("unexpected translation: %q", got)
	}
}

func TestGetFallsBackToDefaultThenKey(t *testing.T) {
	catalog := load(t)

	// Unknown language falls back to the default table.
	if got := catalog.Get("xx", "no_movies"); got != catalog.Get("uz", "no_movies") {
		t.Fatalf("expected default-language fallback, got %q", got)
	}
	// Unknown key falls back to the key itself.
	if got := catalog.Get("en", "never_defined_key"); got != "never_defined_key" {
		t.Fatalf("expected key fallback, got %q", got)
	}
}

func TestFormatSubstitutesPlaceholders(t *testing.T) {
	catalog := load(t)

	got := catalog.Format("en", "send_movie_file", map[string]string{
		"code":  "A1",
		"title": "Movie One",
	})
	if !strings.Contains(got, "A1") || !strings.Contains(got, "Movie One") {
		t.Fatalf("expected substituted placeholders, got %q", got)
	}
}

func TestResolveCollapsesRegionalTags(t *testing.T) {
	catalog := load(t)

	if got := catalog.Resolve("ru-RU"); got != "ru" {
		t.Fatalf("expected ru, got %q", got)
	}
	if got := catalog.Resolve("en-US"); got != "en" {
		t.Fatalf("expected en, got %q", got)
	}
	if got := catalog.Resolve(""); got != "uz" {
		t.Fatalf("expected default for empty tag, got %q", got)
	}
	if got := catalog.Resolve("!!"); got != "uz" {
		t.Fatalf("expected default for garbage tag, got %q", got)
	}
}

func TestLoadRejectsUnknownDefault(t *testing.T) {
	if _, err := texts.Load("de", []string{"uz", "ru", "en"}); err == nil {
		t.Fatal("expected error for default outside supported set")
	}
}
