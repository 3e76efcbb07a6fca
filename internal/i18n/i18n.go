// Package i18n serves the UI strings. The client renders text; the server
// only picks the right table for the requested language.
package i18n

import (
	"encoding/json"
	"fmt"
	"os"

	"golang.org/x/text/language"

	util "github.com/CodeAndHammer/stelfalo/internal/util"
)

// DefaultLang matches the original site's default.
const DefaultLang = "zh-Hant"

// Bundle maps language tag -> translation key -> string.
type Bundle struct {
	tables  map[string]map[string]string
	tags    []language.Tag
	names   []string
	matcher language.Matcher
}

// Load reads the locale tables from a JSON file shaped like
// {"en": {"key": "text"}, "zh-Hant": {...}}.
func Load(path string) (*Bundle, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	tables := make(map[string]map[string]string)
	if err := json.Unmarshal(data, &tables); err != nil {
		return nil, err
	}
	if len(tables) == 0 {
		return nil, fmt.Errorf("no locales in %s", path)
	}

	b := &Bundle{tables: tables}

	// The default language leads so the matcher falls back to it.
	if _, ok := tables[DefaultLang]; ok {
		b.addTag(DefaultLang)
	}
	for name := range tables {
		if name == DefaultLang {
			continue
		}
		b.addTag(name)
	}
	if len(b.names) == 0 {
		return nil, fmt.Errorf("no parseable locale tags in %s", path)
	}
	b.matcher = language.NewMatcher(b.tags)

	util.LogInfo("Loaded %d locales from %s", len(tables), path)
	return b, nil
}

func (b *Bundle) addTag(name string) {
	tag, err := language.Parse(name)
	if err != nil {
		util.LogWarn("Skipping locale %q: %v", name, err)
		return
	}
	b.tags = append(b.tags, tag)
	b.names = append(b.names, name)
}

// Resolve picks the best supported language for an explicit lang value
// and/or an Accept-Language header. Empty inputs resolve to the default.
func (b *Bundle) Resolve(lang, acceptLanguage string) string {
	if _, ok := b.tables[lang]; ok {
		return lang
	}
	if lang == "" && acceptLanguage == "" {
		return b.names[0]
	}

	desired, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil {
		desired = nil
	}
	if lang != "" {
		if tag, err := language.Parse(lang); err == nil {
			desired = append([]language.Tag{tag}, desired...)
		}
	}

	_, index, _ := b.matcher.Match(desired...)
	return b.names[index]
}

// Table returns the whole translation table for a resolved language.
func (b *Bundle) Table(lang string) map[string]string {
	if t, ok := b.tables[lang]; ok {
		return t
	}
	return b.tables[b.names[0]]
}

// T looks one key up, falling back to the default language, then to the
// key itself so a missing translation stays visible instead of blank.
func (b *Bundle) T(lang, key string) string {
	if s, ok := b.tables[lang][key]; ok {
		return s
	}
	if s, ok := b.tables[b.names[0]][key]; ok {
		return s
	}
	return key
}

// Languages lists the supported language names, default first.
func (b *Bundle) Languages() []string {
	return b.names
}
