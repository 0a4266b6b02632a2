package page

import "sync"

// Theme is a colour scheme applied to the page.
type Theme string

const (
	ThemeSystem Theme = "system"
	ThemeLight  Theme = "light"
	ThemeDark   Theme = "dark"
)

// ParseTheme returns the theme named by value, or ThemeSystem.
func ParseTheme(value string) Theme {
	switch Theme(value) {
	case ThemeLight, ThemeDark:
		return Theme(value)
	default:
		return ThemeSystem
	}
}

// ThemeScope tracks the theme of one page view. Overrides stack on top of
// the base theme and each is released independently.
type ThemeScope struct {
	mu        sync.Mutex
	base      Theme
	overrides []themeOverride
	nextID    int
}

type themeOverride struct {
	id    int
	theme Theme
}

// NewThemeScope returns a scope whose theme is base until overridden.
func NewThemeScope(base Theme) *ThemeScope {
	return &ThemeScope{base: base}
}

// Current returns the innermost override, or the base theme.
func (s *ThemeScope) Current() Theme {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n := len(s.overrides); n > 0 {
		return s.overrides[n-1].theme
	}
	return s.base
}

// Override applies theme until restore is called. Calling restore more
// than once has no further effect.
func (s *ThemeScope) Override(theme Theme) (restore func()) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.overrides = append(s.overrides, themeOverride{id: id, theme: theme})
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			for i, o := range s.overrides {
				if o.id == id {
					s.overrides = append(s.overrides[:i], s.overrides[i+1:]...)
					return
				}
			}
		})
	}
}
