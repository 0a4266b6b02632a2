// Package i18n resolves the request language and localizes page copy.
package i18n

import (
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	platformi18n "github.com/louisbranch/launchweek/internal/platform/i18n"
	lwcatalog "github.com/louisbranch/launchweek/internal/platform/i18n/catalog"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

const (
	// LangParam is the query parameter used to select a language.
	LangParam = "lang"
	// LangCookieName stores the visitor's language preference.
	LangCookieName = "lw_lang"
)

// Localizer formats localized copy.
type Localizer interface {
	Sprintf(key message.Reference, args ...any) string
}

// LanguageOption is one entry of the language switcher.
type LanguageOption struct {
	Tag    string
	Label  string
	URL    string
	Active bool
}

var (
	catalogOnce sync.Once
	messages    catalog.Catalog
)

func messageCatalog() catalog.Catalog {
	catalogOnce.Do(func() {
		built, err := lwcatalog.Default().Catalog()
		if err != nil {
			built = catalog.NewBuilder()
		}
		messages = built
	})
	return messages
}

// Printer returns a localizer for tag backed by the embedded catalogs.
func Printer(tag language.Tag) *message.Printer {
	return message.NewPrinter(tag, message.Catalog(messageCatalog()))
}

// ResolveTag determines the best language for the request. The bool
// reports whether the lang query parameter chose it and should persist.
func ResolveTag(r *http.Request) (language.Tag, bool) {
	if r == nil {
		return platformi18n.DefaultTag(), false
	}
	if r.URL != nil {
		if value := strings.TrimSpace(r.URL.Query().Get(LangParam)); value != "" {
			if tag, ok := platformi18n.ParseTag(value); ok {
				return tag, true
			}
		}
	}
	if cookie, err := r.Cookie(LangCookieName); err == nil {
		if tag, ok := platformi18n.ParseTag(cookie.Value); ok {
			return tag, false
		}
	}
	if accept := strings.TrimSpace(r.Header.Get("Accept-Language")); accept != "" {
		if tags, _, err := language.ParseAcceptLanguage(accept); err == nil {
			return platformi18n.MatchTags(tags), false
		}
	}
	return platformi18n.DefaultTag(), false
}

// SetLanguageCookie persists the selected language on the response.
func SetLanguageCookie(w http.ResponseWriter, tag language.Tag) {
	if w == nil {
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     LangCookieName,
		Value:    tag.String(),
		Path:     "/",
		MaxAge:   int((365 * 24 * time.Hour).Seconds()),
		SameSite: http.SameSiteLaxMode,
	})
}

// ResolveLocalizer resolves the request language, persists an explicit
// choice and returns the localizer with its language tag string.
func ResolveLocalizer(w http.ResponseWriter, r *http.Request) (Localizer, string) {
	tag, persist := ResolveTag(r)
	if persist {
		SetLanguageCookie(w, tag)
	}
	return Printer(tag), tag.String()
}

// T localizes key, returning the key itself without a localizer.
func T(loc Localizer, key string, args ...any) string {
	if loc == nil {
		return key
	}
	return loc.Sprintf(key, args...)
}

// LanguageOptions lists the supported languages for the switcher.
func LanguageOptions(r *http.Request, active string) []LanguageOption {
	path, rawQuery := "/", ""
	if r != nil && r.URL != nil {
		path, rawQuery = r.URL.Path, r.URL.RawQuery
	}
	supported := platformi18n.SupportedTags()
	options := make([]LanguageOption, 0, len(supported))
	for _, tag := range supported {
		options = append(options, LanguageOption{
			Tag:    tag.String(),
			Label:  languageLabel(tag),
			URL:    languageURL(path, rawQuery, tag.String()),
			Active: tag.String() == active,
		})
	}
	return options
}

func languageLabel(tag language.Tag) string {
	if base, _ := tag.Base(); base.String() == "pt" {
		return "Português"
	}
	return "English"
}

func languageURL(path, rawQuery, tag string) string {
	if strings.TrimSpace(path) == "" {
		path = "/"
	}
	query, err := url.ParseQuery(rawQuery)
	if err != nil {
		query = url.Values{}
	}
	query.Set(LangParam, tag)
	return (&url.URL{Path: path, RawQuery: query.Encode()}).String()
}
