// Package texts resolves user-facing strings by language. Translations are
// embedded JSON files keyed by message id; unknown keys fall back to the
// default language and finally to the key itself so a missing translation
// never blanks a message.
package texts

import (
	"embed"
	"encoding/json"
	"fmt"
	"strings"

	"golang.org/x/text/language"
)

//go:embed locales/*.json
var localeFS embed.FS

// Catalog holds loaded translations for the configured languages.
type Catalog struct {
	fallback     string
	codes        []string
	translations map[string]map[string]string
	matcher      language.Matcher
}

// Load reads the embedded locale files for the supported languages. The
// default language must be among them and acts as the fallback.
func Load(defaultLang string, supported []string) (*Catalog, error) {
	translations := make(map[string]map[string]string, len(supported))
	codes := make([]string, 0, len(supported))
	tags := make([]language.Tag, 0, len(supported))

	for _, code := range supported {
		data, err := localeFS.ReadFile("locales/" + code + ".json")
		if err != nil {
			return nil, fmt.Errorf("locale %q: %w", code, err)
		}
		table := make(map[string]string)
		if err := json.Unmarshal(data, &table); err != nil {
			return nil, fmt.Errorf("parse locale %q: %w", code, err)
		}
		translations[code] = table
		codes = append(codes, code)
		tags = append(tags, language.Make(code))
	}

	if _, ok := translations[defaultLang]; !ok {
		return nil, fmt.Errorf("default language %q is not among supported languages", defaultLang)
	}

	return &Catalog{
		fallback:     defaultLang,
		codes:        codes,
		translations: translations,
		matcher:      language.NewMatcher(tags),
	}, nil
}

// Languages returns the supported language codes in configuration order.
func (c *Catalog) Languages() []string {
	out := make([]string, len(c.codes))
	copy(out, c.codes)
	return out
}

// Default returns the fallback language code.
func (c *Catalog) Default() string {
	return c.fallback
}

// Resolve maps an arbitrary user-supplied language tag onto a supported code.
// Region and script variants collapse onto their base language; anything
// unrecognized resolves to the default.
func (c *Catalog) Resolve(code string) string {
	code = strings.TrimSpace(code)
	if code == "" {
		return c.fallback
	}
	if _, ok := c.translations[strings.ToLower(code)]; ok {
		return strings.ToLower(code)
	}
	tag := language.Make(code)
	if tag == language.Und {
		return c.fallback
	}
	_, index, confidence := c.matcher.Match(tag)
	if confidence == language.No {
		return c.fallback
	}
	return c.codes[index]
}

// Get returns the translation for key in lang, falling back to the default
// language and then to the key itself.
func (c *Catalog) Get(lang, key string) string {
	if table, ok := c.translations[lang]; ok {
		if text, ok := table[key]; ok {
			return text
		}
	}
	if table, ok := c.translations[c.fallback]; ok {
		if text, ok := table[key]; ok {
			return text
		}
	}
	return key
}

// Format returns the translation for key with {placeholder} arguments
// substituted.
func (c *Catalog) Format(lang, key string, args map[string]string) string {
	text := c.Get(lang, key)
	if len(args) == 0 {
		return text
	}
	pairs := make([]string, 0, len(args)*2)
	for name, value := range args {
		pairs = append(pairs, "{"+name+"}", value)
	}
	return strings.NewReplacer(pairs...).Replace(text)
}

// Name returns a language's self-description ("O'zbekcha", "Русский", ...).
func (c *Catalog) Name(lang string) string {
	return c.Get(lang, "language_name")
}
