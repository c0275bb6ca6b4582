package apperr

import (
	"embed"
	"errors"
	"io/fs"
	"path"
	"sync"

	"github.com/nicksnyder/go-i18n/v2/i18n"
	"github.com/pelletier/go-toml/v2"
	"go.uber.org/zap"
	"golang.org/x/text/language"
)

const (
	LanguageEn = "en"
	LanguageFr = "fr"
)

// Languages lists the languages messages are available in
var Languages = []string{LanguageEn, LanguageFr}

//go:embed locales/*.toml
var locales embed.FS

var (
	bundleOnce sync.Once
	bundle     *i18n.Bundle
)

// Bundle returns the message bundle, loading the embedded locales on first use
func Bundle() *i18n.Bundle {
	bundleOnce.Do(func() {
		bundle = i18n.NewBundle(language.English)
		bundle.RegisterUnmarshalFunc("toml", toml.Unmarshal)

		files, err := fs.ReadDir(locales, "locales")
		if err != nil {
			zap.L().Error("failed to list locales", zap.Error(err))
			return
		}
		for _, f := range files {
			if f.IsDir() {
				continue
			}
			if _, err := bundle.LoadMessageFileFS(locales, path.Join("locales", f.Name())); err != nil {
				zap.L().Warn("failed to load locale", zap.String("file", f.Name()), zap.Error(err))
			}
		}
	})
	return bundle
}

// Message returns the user-facing text for err in lang, falling back to
// English and then to the code itself. It never includes the cause.
func Message(err error, lang string) string {
	if err == nil {
		return ""
	}
	return Translate(CodeOf(err), lang)
}

// Translate looks up a message id. An id missing from lang is looked up in
// English before the id itself is returned.
func Translate(id, lang string) string {
	cfg := &i18n.LocalizeConfig{MessageID: id}
	msg, err := i18n.NewLocalizer(Bundle(), lang, LanguageEn).Localize(cfg)
	var missing *i18n.MessageNotFoundErr
	if errors.As(err, &missing) && lang != LanguageEn {
		msg, err = i18n.NewLocalizer(Bundle(), LanguageEn).Localize(cfg)
	}
	if err != nil {
		zap.L().Warn("translation not found", zap.String("lang", lang), zap.String("message_id", id), zap.Error(err))
		return id
	}
	return msg
}
