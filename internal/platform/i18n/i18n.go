// Package i18n defines the languages launch week pages can be served in.
package i18n

import (
	"strings"

	"golang.org/x/text/language"
)

var (
	defaultTag    = language.MustParse("en-US")
	supportedTags = []language.Tag{defaultTag, language.MustParse("pt-BR")}
	matcher       = language.NewMatcher(supportedTags)
)

// DefaultTag returns the fallback language.
func DefaultTag() language.Tag {
	return defaultTag
}

// SupportedTags returns a copy of the supported language list.
func SupportedTags() []language.Tag {
	out := make([]language.Tag, len(supportedTags))
	copy(out, supportedTags)
	return out
}

// ParseTag parses value and reports whether it maps to a supported language.
func ParseTag(value string) (language.Tag, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return defaultTag, false
	}
	tag, err := language.Parse(value)
	if err != nil {
		return defaultTag, false
	}
	matched, _, confidence := matcher.Match(tag)
	if confidence == language.No {
		return defaultTag, false
	}
	return supportedBase(matched), true
}

// MatchTags picks the best supported language for the preference list.
func MatchTags(tags []language.Tag) language.Tag {
	if len(tags) == 0 {
		return defaultTag
	}
	matched, _, confidence := matcher.Match(tags...)
	if confidence == language.No {
		return defaultTag
	}
	return supportedBase(matched)
}

// supportedBase strips matcher extensions such as -u-rg so callers get one of
// the supported tags verbatim.
func supportedBase(tag language.Tag) language.Tag {
	base, _ := tag.Base()
	for _, supported := range supportedTags {
		supportedBase, _ := supported.Base()
		if supportedBase == base {
			return supported
		}
	}
	return defaultTag
}
