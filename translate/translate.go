// Package translate formats user-visible messages for the host locale.
package translate

import (
	"log"
	"os"

	"github.com/jeandeaual/go-locale"

	"golang.org/x/text/message"
)

// LANG_OVERRIDE names the environment variable that forces a locale.
const LANG_OVERRIDE = "INTCODE_LANG"

var printer *message.Printer

func init() {
	printer = message.NewPrinter(message.MatchLanguage(Locales()...))
}

// Locales returns the preferred locales, most preferred first.
// The INTCODE_LANG override wins over the host settings.
func Locales() (locales []string) {
	if lang := os.Getenv(LANG_OVERRIDE); lang != "" {
		return []string{lang}
	}

	locales, err := locale.GetLocales()
	if err != nil {
		log.Printf("intcode: locale: %v", err)
	}

	if len(locales) == 0 {
		locales = []string{"en-US"}
	}

	return
}

// From an en-US Sprintf() format, translate to string.
func From(key message.Reference, args ...any) string {
	return printer.Sprintf(key, args...)
}
