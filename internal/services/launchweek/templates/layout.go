package templates

import (
	"context"
	"io"

	"github.com/a-h/templ"
)

// AppName is the product name shown in titles.
const AppName = "Launch Week"

// LanguageOption is one entry of the language switcher.
type LanguageOption struct {
	Tag    string
	Label  string
	URL    string
	Active bool
}

// Head carries document metadata, including open-graph tags.
type Head struct {
	Title        string
	Description  string
	Lang         string
	Theme        string
	CanonicalURL string
	ImageURL     string
	Languages    []LanguageOption
}

// ComposePageTitle appends the product name unless already present.
func ComposePageTitle(title string) string {
	if title == "" || title == AppName {
		return AppName
	}
	return title + " | " + AppName
}

// Layout renders the full document around its children.
func Layout(head Head) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := &htmlWriter{w: w}
		lang := head.Lang
		if lang == "" {
			lang = "en-US"
		}
		theme := head.Theme
		if theme == "" {
			theme = "system"
		}
		title := ComposePageTitle(head.Title)
		h.printf(`<!DOCTYPE html><html lang="%s" data-theme="%s"><head>`, lang, theme)
		h.raw(`<meta charset="utf-8"><meta name="viewport" content="width=device-width, initial-scale=1">`)
		h.printf(`<title>%s</title>`, title)
		h.printf(`<meta name="description" content="%s">`, head.Description)
		h.printf(`<meta property="og:type" content="website"><meta property="og:title" content="%s"><meta property="og:description" content="%s">`, title, head.Description)
		if head.CanonicalURL != "" {
			h.printf(`<link rel="canonical" href="%s"><meta property="og:url" content="%s">`, safeURL(head.CanonicalURL), safeURL(head.CanonicalURL))
		}
		if head.ImageURL != "" {
			h.printf(`<meta property="og:image" content="%s"><meta name="twitter:card" content="summary_large_image"><meta name="twitter:image" content="%s">`, safeURL(head.ImageURL), safeURL(head.ImageURL))
		}
		h.raw(`<link rel="stylesheet" href="/static/launchweek.css">`)
		h.raw(`<script src="https://unpkg.com/htmx.org@2.0.4" defer></script><script src="https://unpkg.com/htmx-ext-sse@2.2.2" defer></script>`)
		h.raw(`</head><body>`)
		h.render(ctx, templ.GetChildren(ctx))
		if len(head.Languages) > 0 {
			h.raw(`<footer class="lw-footer"><nav aria-label="language">`)
			for _, option := range head.Languages {
				if option.Active {
					h.printf(`<span aria-current="true">%s</span>`, option.Label)
					continue
				}
				h.printf(`<a href="%s" hreflang="%s">%s</a>`, safeURL(option.URL), option.Tag, option.Label)
			}
			h.raw(`</nav></footer>`)
		}
		h.raw(`</body></html>`)
		return h.err
	})
}
