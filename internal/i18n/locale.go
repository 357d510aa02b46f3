package i18n

import "strings"

const DefaultLocale = "ja"

var supportedLocales = map[string]struct{}{
	"ja": {},
	"en": {},
}

// NormalizeLocale picks the first supported language from an
// Accept-Language style list, falling back to DefaultLocale.
func NormalizeLocale(header string) string {
	if strings.TrimSpace(header) == "" {
		return DefaultLocale
	}

	for _, part := range strings.Split(header, ",") {
		lang, _, _ := strings.Cut(part, ";")
		lang, _, _ = strings.Cut(strings.ToLower(strings.TrimSpace(lang)), "-")
		if lang == "" {
			continue
		}
		if _, ok := supportedLocales[lang]; ok {
			return lang
		}
	}

	return DefaultLocale
}
