package i18n

import (
	"embed"
	"encoding/json"
	"fmt"

	goi18n "github.com/nicksnyder/go-i18n/v2/i18n"
	"golang.org/x/text/language"
)

//go:embed locales/*.json
var locales embed.FS

var embedded = []string{"locales/active.en.json", "locales/active.id.json"}

type Translator struct {
	bundle *goi18n.Bundle
}

// New builds a translator seeded with the embedded en and id locales.
func New(defaultLang string) (*Translator, error) {
	tag, err := language.Parse(defaultLang)
	if err != nil {
		tag = language.English
	}

	bundle := goi18n.NewBundle(tag)
	bundle.RegisterUnmarshalFunc("json", json.Unmarshal)
	for _, path := range embedded {
		if _, err := bundle.LoadMessageFileFS(locales, path); err != nil {
			return nil, fmt.Errorf("load %s: %w", path, err)
		}
	}

	return &Translator{bundle: bundle}, nil
}

// Load adds or overrides messages from a locale file on disk.
func (t *Translator) Load(path string) error {
	_, err := t.bundle.LoadMessageFile(path)
	return err
}

// Translate resolves messageID for the first matching language (an
// Accept-Language header value works as-is). Unknown ids yield fallback.
func (t *Translator) Translate(messageID, fallback string, langs ...string) string {
	localizer := goi18n.NewLocalizer(t.bundle, langs...)
	msg, err := localizer.Localize(&goi18n.LocalizeConfig{MessageID: messageID})
	if err != nil || msg == "" {
		return fallback
	}
	return msg
}
