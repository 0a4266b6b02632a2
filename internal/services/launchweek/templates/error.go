package templates

import (
	"context"
	"io"
	"net/http"

	"github.com/a-h/templ"
)

const (
	errorNotFoundKey    = "error.http.not_found"
	errorInternalKey    = "error.http.internal"
	errorUnavailableKey = "error.http.unavailable"
	errorBackKey        = "error.page.back"
)

// ErrorPageTitle returns the browser title for an error page.
func ErrorPageTitle(statusCode int, loc Localizer) string {
	return T(loc, errorKey(statusCode))
}

// ErrorState renders the error body with a link back to the page.
func ErrorState(statusCode int, backURL string, loc Localizer) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		h := &htmlWriter{w: w}
		h.printf(`<main id="lw-error-state" class="lw-main lw-error-page" data-status="%d"><h1>%s</h1>`, normalizeErrorStatus(statusCode), T(loc, errorKey(statusCode)))
		h.printf(`<a href="%s">%s</a></main>`, safeURL(backURL), T(loc, errorBackKey))
		return h.err
	})
}

func errorKey(statusCode int) string {
	switch normalizeErrorStatus(statusCode) {
	case http.StatusNotFound:
		return errorNotFoundKey
	case http.StatusServiceUnavailable:
		return errorUnavailableKey
	default:
		return errorInternalKey
	}
}

func normalizeErrorStatus(statusCode int) int {
	switch statusCode {
	case http.StatusNotFound, http.StatusServiceUnavailable:
		return statusCode
	default:
		return http.StatusInternalServerError
	}
}
