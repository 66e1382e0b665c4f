// Package i18n localizes modlate's own CLI messages.
//
// The tool translates mod files into Japanese by default, so its own
// output should speak Japanese too when the terminal locale asks for it.
// Catalogs live under locales/{lang}/LC_MESSAGES/modlate.po, are embedded
// into the binary, and resolve through gotext. English msgids double as
// the fallback text, so a missing catalog never breaks output.
package i18n

import (
	"embed"
	"os"
	"strings"

	"github.com/leonelquinteros/gotext"
)

//go:embed all:locales
var locales embed.FS

// domain is the gettext domain name.
const domain = "modlate"

var po *gotext.Locale

// Init loads the catalog for lang, or for the locale found in the
// environment when lang is empty. Call once before any T or N.
func Init(lang string) {
	if lang == "" {
		lang = detectLanguage()
	}

	po = gotext.NewLocaleFSWithPath(lang, locales, "locales")
	po.AddDomain(domain)
	po.SetDomain(domain)
}

// T translates a message, falling back to the msgid itself.
func T(msgid string) string {
	if po == nil {
		return msgid
	}
	return po.Get(msgid)
}

// N translates a message with plural forms.
func N(singular, plural string, n int) string {
	if po == nil {
		if n == 1 {
			return singular
		}
		return plural
	}
	return po.GetN(singular, plural, n)
}

// localeEnvVars in GNU gettext priority order.
var localeEnvVars = []string{"LANGUAGE", "LC_ALL", "LC_MESSAGES", "LANG"}

// detectLanguage picks the user's locale from the environment.
func detectLanguage() string {
	for _, env := range localeEnvVars {
		val := os.Getenv(env)
		if env == "LANGUAGE" {
			// Colon-separated preference list; the first entry wins.
			val, _, _ = strings.Cut(val, ":")
		}
		if lang := normalizeLocale(val); lang != "" {
			return lang
		}
	}
	return "en"
}

// normalizeLocale strips the encoding suffix ("ja_JP.UTF-8" -> "ja_JP")
// and rejects the no-translation locales C and POSIX.
func normalizeLocale(val string) string {
	val, _, _ = strings.Cut(val, ".")
	if val == "" || val == "C" || val == "POSIX" {
		return ""
	}
	return val
}
