package i18n

import (
	"embed"
	"fmt"
	"io/fs"
	"path"

	"gopkg.in/yaml.v3"
)

//go:embed locales
var localesFS embed.FS

// Translator resolves message keys per locale. Catalogs are flat key->format
// YAML maps; formats take fmt.Sprintf arguments. Unknown locales and keys fall
// back to the fallback catalog, and an unknown key resolves to itself so a
// missing translation is visible instead of fatal.
type Translator struct {
	catalogs map[string]map[string]string
	order    []string
	fallback string
}

func NewTranslator(fsys fs.FS, locales []string, fallback string) (*Translator, error) {
	catalogs := make(map[string]map[string]string, len(locales))
	order := make([]string, 0, len(locales))
	for _, code := range locales {
		filePath := path.Join("locales", code+".yaml")
		data, err := fs.ReadFile(fsys, filePath)
		if err != nil {
			return nil, fmt.Errorf("read translation file %s: %w", filePath, err)
		}
		var m map[string]string
		if err := yaml.Unmarshal(data, &m); err != nil {
			return nil, fmt.Errorf("parse translation file %s: %w", filePath, err)
		}
		catalogs[code] = m
		order = append(order, code)
	}
	if _, ok := catalogs[fallback]; !ok {
		return nil, fmt.Errorf("fallback locale %q has no catalog", fallback)
	}
	return &Translator{catalogs: catalogs, order: order, fallback: fallback}, nil
}

// Default loads the embedded catalogs.
func Default(locales []string, fallback string) (*Translator, error) {
	return NewTranslator(localesFS, locales, fallback)
}

func (t *Translator) T(locale, key string, args ...interface{}) string {
	m, ok := t.catalogs[locale]
	if !ok {
		m = t.catalogs[t.fallback]
	}
	format, ok := m[key]
	if !ok {
		if format, ok = t.catalogs[t.fallback][key]; !ok {
			return key
		}
	}
	if len(args) > 0 {
		return fmt.Sprintf(format, args...)
	}
	return format
}

// Locales returns the supported locale codes in configuration order.
func (t *Translator) Locales() []string { return t.order }

func (t *Translator) Fallback() string { return t.fallback }
