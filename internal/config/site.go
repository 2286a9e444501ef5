package config

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

//go:embed site.yaml
var defaultSite []byte

// Reserved category keys that are not nations.
const (
	KeyNews    = "news"
	KeyDefault = "default"
)

// Site is the nation list and UI translations served to the public site.
type Site struct {
	Nations         []string                     `yaml:"nations"`
	DefaultLanguage string                       `yaml:"default_language"`
	Translations    map[string]map[string]string `yaml:"translations"`
}

// NationLink is a navigation entry for a nation page.
type NationLink struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Path  string `json:"path"`
}

// LoadSite reads the site file at path, or the embedded default when path is
// empty.
func LoadSite(path string) (*Site, error) {
	data := defaultSite
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read site file: %w", err)
		}
		data = raw
	}
	return ParseSite(data)
}

// ParseSite decodes and validates a site document.
func ParseSite(data []byte) (*Site, error) {
	var site Site
	if err := yaml.Unmarshal(data, &site); err != nil {
		return nil, fmt.Errorf("failed to parse site file: %w", err)
	}

	if site.DefaultLanguage == "" {
		site.DefaultLanguage = KeyDefault
	}

	if err := site.validate(); err != nil {
		return nil, err
	}
	return &site, nil
}

func (s *Site) validate() error {
	if len(s.Nations) == 0 {
		return fmt.Errorf("at least one nation is required")
	}

	seen := make(map[string]bool, len(s.Nations))
	for i, key := range s.Nations {
		key = strings.ToLower(strings.TrimSpace(key))
		if key == "" {
			return fmt.Errorf("nation %d has an empty key", i)
		}
		if key == KeyNews || key == KeyDefault {
			return fmt.Errorf("nation key %q is reserved", key)
		}
		if seen[key] {
			return fmt.Errorf("duplicate nation key %q", key)
		}
		seen[key] = true
		s.Nations[i] = key
	}

	if _, ok := s.Translations[s.DefaultLanguage]; !ok {
		return fmt.Errorf("missing translations for default language %q", s.DefaultLanguage)
	}
	return nil
}

// IsNation reports whether key is a configured nation.
func (s *Site) IsNation(key string) bool {
	for _, n := range s.Nations {
		if n == key {
			return true
		}
	}
	return false
}

// Categories returns every collection key the feed is seeded with: the
// nations followed by news.
func (s *Site) Categories() []string {
	out := make([]string, 0, len(s.Nations)+1)
	out = append(out, s.Nations...)
	return append(out, KeyNews)
}

// Language resolves a requested language, falling back to the default.
func (s *Site) Language(lang string) string {
	if _, ok := s.Translations[lang]; ok {
		return lang
	}
	return s.DefaultLanguage
}

// Translate looks up key in lang, then in the default language. Missing keys
// return an empty string.
func (s *Site) Translate(lang, key string) string {
	if v, ok := s.Translations[lang][key]; ok {
		return v
	}
	return s.Translations[s.DefaultLanguage][key]
}

// Translator binds a language so callers can pass it where a
// single-argument lookup is expected.
func (s *Site) Translator(lang string) Translator {
	return Translator{site: s, lang: s.Language(lang)}
}

// NationLinks lists the navigation entries in configured order.
func (s *Site) NationLinks() []NationLink {
	title := cases.Title(language.Und)
	out := make([]NationLink, 0, len(s.Nations))
	for _, key := range s.Nations {
		out = append(out, NationLink{Key: key, Label: title.String(key), Path: "/nation/" + key})
	}
	return out
}

// Translator is a Site lookup bound to one language.
type Translator struct {
	site *Site
	lang string
}

func (t Translator) Translate(key string) string {
	return t.site.Translate(t.lang, key)
}

// Lang returns the resolved language.
func (t Translator) Lang() string {
	return t.lang
}
