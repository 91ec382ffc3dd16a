// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package i18n

import (
	"embed"
	"fmt"
	"io/fs"

	"github.com/Xuanwo/go-locale"
	"github.com/vorlif/spreak"
	"golang.org/x/text/language"
)

//go:embed locale/*.po
var locales embed.FS

// Translator is the part of a localizer the rest of the application needs.
type Translator interface {
	Get(singular string) string
	Getf(singular string, vars ...interface{}) string
	Language() language.Tag
}

// New returns a localizer for loc. An empty or unparsable loc falls back to the locale of the
// environment and, if that cannot be detected, to English.
func New(loc string) (*spreak.Localizer, error) {
	localeFS, err := fs.Sub(locales, "locale")
	if err != nil {
		return nil, fmt.Errorf("failed to load locales: %w", err)
	}

	tag := Tag(loc)
	bundle, err := spreak.NewBundle(
		spreak.WithSourceLanguage(language.English),
		spreak.WithFallbackLanguage(language.English),
		spreak.WithDomainFs(spreak.NoDomain, localeFS),
		spreak.WithLanguage(tag),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create i18n bundle: %w", err)
	}
	return spreak.NewLocalizer(bundle, tag), nil
}

// Tag resolves loc into a language tag.
func Tag(loc string) language.Tag {
	if loc != "" {
		if tag, err := language.Parse(loc); err == nil {
			return tag
		}
	}
	tag, err := locale.Detect()
	if err != nil || tag == language.Und {
		return language.English // Unable to detect locale, fallback to English
	}
	return tag
}
