package i18n

import (
	"os"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// DefaultLang is the fallback language
var DefaultLang = language.English

// SupportedLangs are the languages we support
var SupportedLangs = []language.Tag{
	language.English,
	language.German,
}

var matcher = language.NewMatcher(SupportedLangs)

// MatchLanguage returns the best matching language for a locale or
// Accept-Language style string.
func MatchLanguage(lang string) language.Tag {
	tags, _, _ := language.ParseAcceptLanguage(lang)
	tag, _, _ := matcher.Match(tags...)
	return tag
}

// LocaleFromEnv returns the locale named by LC_ALL or LANG, without the
// encoding suffix.
func LocaleFromEnv() string {
	lang := os.Getenv("LC_ALL")
	if lang == "" {
		lang = os.Getenv("LANG")
	}
	if i := strings.Index(lang, "."); i != -1 {
		lang = lang[:i]
	}
	// POSIX locales use underscores ("en_US")
	return strings.ReplaceAll(lang, "_", "-")
}

// NewCLIPrinter returns a printer for the system's locale (from env vars)
func NewCLIPrinter() *message.Printer {
	lang := LocaleFromEnv()
	if lang == "" || lang == "C" || lang == "POSIX" {
		return message.NewPrinter(DefaultLang)
	}

	tag, err := language.Parse(lang)
	if err != nil {
		tag = MatchLanguage(lang)
	} else {
		tag, _, _ = matcher.Match(tag)
	}

	return message.NewPrinter(tag)
}
