// Package lang holds the embedded message catalogs and renders them for a
// player's locale.
package lang

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"slices"
	"strings"
	"sync"

	"github.com/sandertv/gophertunnel/minecraft/text"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"gopkg.in/yaml.v3"
)

// BaseLocale is the locale used when a player's locale has no catalog.
const BaseLocale = "pt-BR"

type catalogFile struct {
	Locale    string            `yaml:"locale"`
	Namespace string            `yaml:"namespace"`
	Messages  map[string]string `yaml:"messages"`
}

// Bundle contains the messages of every locale.
type Bundle struct {
	locales map[string]map[string]string
	tags    []language.Tag
	matcher language.Matcher
}

//go:embed locales/*/*.yaml
var embeddedFS embed.FS

var (
	defaultOnce   sync.Once
	defaultBundle *Bundle
)

// Default returns the embedded bundle, registered with x/text/message.
func Default() *Bundle {
	defaultOnce.Do(func() {
		b, err := LoadFromFS(embeddedFS)
		if err != nil {
			panic(err)
		}
		b.Register()
		defaultBundle = b
	})
	return defaultBundle
}

// LoadFromFS loads every locales/<locale>/<namespace>.yaml file of fsys.
func LoadFromFS(fsys fs.FS) (*Bundle, error) {
	paths, err := fs.Glob(fsys, "locales/*/*.yaml")
	if err != nil {
		return nil, fmt.Errorf("glob locale catalogs: %w", err)
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no catalog files found")
	}
	slices.Sort(paths)

	b := &Bundle{locales: map[string]map[string]string{}}
	for _, p := range paths {
		data, err := fs.ReadFile(fsys, p)
		if err != nil {
			return nil, fmt.Errorf("read catalog %s: %w", p, err)
		}
		var file catalogFile
		if err := yaml.Unmarshal(data, &file); err != nil {
			return nil, fmt.Errorf("parse catalog %s: %w", p, err)
		}
		if err := b.add(p, file); err != nil {
			return nil, err
		}
	}
	if _, ok := b.locales[BaseLocale]; !ok {
		return nil, fmt.Errorf("base locale %s is not defined in catalogs", BaseLocale)
	}

	// The base locale goes first so the matcher falls back to it.
	locales := b.Locales()
	slices.SortStableFunc(locales, func(a, c string) int {
		switch {
		case a == BaseLocale:
			return -1
		case c == BaseLocale:
			return 1
		}
		return 0
	})
	for _, l := range locales {
		tag, err := language.Parse(l)
		if err != nil {
			return nil, fmt.Errorf("parse locale tag %q: %w", l, err)
		}
		b.tags = append(b.tags, tag)
	}
	b.matcher = language.NewMatcher(b.tags)
	return b, nil
}

func (b *Bundle) add(p string, file catalogFile) error {
	localeFromPath := path.Base(path.Dir(p))
	namespaceFromPath := strings.TrimSuffix(path.Base(p), path.Ext(p))

	if file.Locale != localeFromPath {
		return fmt.Errorf("catalog %s: locale %q must match path locale %q", p, file.Locale, localeFromPath)
	}
	if file.Namespace != namespaceFromPath {
		return fmt.Errorf("catalog %s: namespace %q must match filename namespace %q", p, file.Namespace, namespaceFromPath)
	}
	if len(file.Messages) == 0 {
		return fmt.Errorf("catalog %s: messages map is required", p)
	}
	messages, ok := b.locales[file.Locale]
	if !ok {
		messages = map[string]string{}
		b.locales[file.Locale] = messages
	}
	for key, value := range file.Messages {
		key = strings.TrimSpace(key)
		if key == "" {
			return fmt.Errorf("catalog %s: message key cannot be blank", p)
		}
		if _, exists := messages[key]; exists {
			return fmt.Errorf("catalog %s: duplicate key %q in locale %q", p, key, file.Locale)
		}
		messages[key] = value
	}
	return nil
}

// Register registers all messages with the default x/text/message catalog.
func (b *Bundle) Register() {
	for _, tag := range b.tags {
		for key, value := range b.locales[tag.String()] {
			_ = message.SetString(tag, key, value)
		}
	}
}

// Locales returns the sorted locale identifiers of the bundle.
func (b *Bundle) Locales() []string {
	out := make([]string, 0, len(b.locales))
	for l := range b.locales {
		out = append(out, l)
	}
	slices.Sort(out)
	return out
}

// Keys returns the sorted message keys of locale.
func (b *Bundle) Keys(locale string) []string {
	out := make([]string, 0, len(b.locales[locale]))
	for k := range b.locales[locale] {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}

// Match returns the supported tag closest to tag.
func (b *Bundle) Match(tag language.Tag) language.Tag {
	_, idx, _ := b.matcher.Match(tag)
	return b.tags[idx]
}

// Translate formats the message key for tag and converts its colour tags to
// Minecraft formatting codes.
func (b *Bundle) Translate(tag language.Tag, key string, args ...any) string {
	s := message.NewPrinter(b.Match(tag)).Sprintf(key, args...)
	return text.Colourf(strings.ReplaceAll(s, "%", "%%"))
}

// Translate formats key for tag using the default bundle.
func Translate(tag language.Tag, key string, args ...any) string {
	return Default().Translate(tag, key, args...)
}

// Parse parses a locale name such as "pt-BR" or "en_US", falling back to the
// base locale.
func Parse(locale string) language.Tag {
	tag, err := language.Parse(strings.ReplaceAll(strings.TrimSpace(locale), "_", "-"))
	if err != nil {
		return language.MustParse(BaseLocale)
	}
	return tag
}
