package lang

import (
	"strings"
	"testing"
	"testing/fstest"

	"golang.org/x/text/language"
)

func TestCatalogsShareKeys(t *testing.T) {
	b := Default()
	base := b.Keys(BaseLocale)
	if len(base) == 0 {
		t.Fatalf("base locale has no keys")
	}
	for _, locale := range b.Locales() {
		keys := b.Keys(locale)
		if strings.Join(keys, ",") != strings.Join(base, ",") {
			t.Fatalf("locale %s keys differ from %s", locale, BaseLocale)
		}
	}
}

func TestMatchFallsBackToBase(t *testing.T) {
	b := Default()
	cases := map[string]string{
		"pt-BR": "pt-BR",
		"pt-PT": "pt-BR",
		"en-GB": "en-US",
		"en-US": "en-US",
		"de-DE": "pt-BR",
	}
	for in, want := range cases {
		if got := b.Match(language.MustParse(in)); got.String() != want {
			t.Fatalf("Match(%s) = %s, want %s", in, got, want)
		}
	}
}

func TestTranslate(t *testing.T) {
	got := Translate(language.MustParse("pt-BR"), "lobby.cooldown", 3)
	if !strings.Contains(got, "Aguarde 3 segundos") {
		t.Fatalf("Translate() = %q, want the cooldown message", got)
	}
	if !strings.Contains(got, "§c") {
		t.Fatalf("Translate() = %q, want a red colour code", got)
	}
	if strings.Contains(got, "<red>") {
		t.Fatalf("Translate() left colour tags in %q", got)
	}

	got = Translate(language.MustParse("en-US"), "era.welcome", 2, "Medieval")
	if !strings.Contains(got, "Welcome to Era 2: Medieval!") {
		t.Fatalf("Translate() = %q", got)
	}
}

func TestParse(t *testing.T) {
	if got := Parse("en_US").String(); got != "en-US" {
		t.Fatalf("Parse(en_US) = %s, want en-US", got)
	}
	if got := Parse("???").String(); got != BaseLocale {
		t.Fatalf("Parse(invalid) = %s, want %s", got, BaseLocale)
	}
}

func TestLoadFromFSValidates(t *testing.T) {
	cases := map[string]fstest.MapFS{
		"missing base": {
			"locales/en-US/lobby.yaml": {Data: []byte("locale: en-US\nnamespace: lobby\nmessages:\n  a: \"b\"\n")},
		},
		"locale mismatch": {
			"locales/pt-BR/lobby.yaml": {Data: []byte("locale: en-US\nnamespace: lobby\nmessages:\n  a: \"b\"\n")},
		},
		"namespace mismatch": {
			"locales/pt-BR/lobby.yaml": {Data: []byte("locale: pt-BR\nnamespace: other\nmessages:\n  a: \"b\"\n")},
		},
		"no messages": {
			"locales/pt-BR/lobby.yaml": {Data: []byte("locale: pt-BR\nnamespace: lobby\n")},
		},
		"empty": {},
	}
	for name, fsys := range cases {
		if _, err := LoadFromFS(fsys); err == nil {
			t.Fatalf("%s: LoadFromFS() returned nil error", name)
		}
	}
}
