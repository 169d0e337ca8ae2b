package i18n

import (
	"embed"
	"fmt"
	"io/fs"
	"path"

	"github.com/BurntSushi/toml"
	"github.com/nicksnyder/go-i18n/v2/i18n"
	"golang.org/x/text/language"
)

//go:embed locales/*.toml
var localeFS embed.FS

type Translations struct {
	bundle   *i18n.Bundle
	localize *i18n.Localizer
}

// NewTranslations loads the embedded message files and localizes into lang.
func NewTranslations(lang string) (*Translations, error) {
	return NewTranslationsFS(lang, localeFS, "locales")
}

// NewTranslationsFS loads every active.*.toml file found in dir of fsys.
func NewTranslationsFS(lang string, fsys fs.FS, dir string) (*Translations, error) {
	if lang == "" {
		return nil, fmt.Errorf("language cannot be empty")
	}
	if _, err := language.Parse(lang); err != nil {
		return nil, fmt.Errorf("invalid language %q: %w", lang, err)
	}

	bundle := i18n.NewBundle(language.English)
	bundle.RegisterUnmarshalFunc("toml", toml.Unmarshal)

	files, err := fs.Glob(fsys, path.Join(dir, "active.*.toml"))
	if err != nil {
		return nil, fmt.Errorf("error reading locales: %w", err)
	}

	for _, file := range files {
		if _, err := bundle.LoadMessageFileFS(fsys, file); err != nil {
			return nil, fmt.Errorf("error loading locale file %s: %w", file, err)
		}
	}

	return &Translations{
		bundle:   bundle,
		localize: i18n.NewLocalizer(bundle, lang),
	}, nil
}

// Supported reports whether a message file exists for lang.
func (t *Translations) Supported(lang string) bool {
	for _, tag := range t.bundle.LanguageTags() {
		if tag.String() == lang {
			return true
		}
	}
	return false
}

func (t *Translations) SetLanguage(lang string) error {
	if !t.Supported(lang) {
		return fmt.Errorf("language '%s' not supported", lang)
	}
	t.localize = i18n.NewLocalizer(t.bundle, lang)
	return nil
}

func (t *Translations) GetMessage(messageID string, count int, templateData map[string]interface{}) string {
	localized, err := t.localize.Localize(&i18n.LocalizeConfig{
		DefaultMessage: &i18n.Message{
			ID: messageID,
		},
		PluralCount:  count,
		TemplateData: templateData,
	})
	if err != nil {
		return "Translation missing: " + messageID
	}
	return localized
}
