// Package weberror renders error responses for launch week modules.
//
// Not-found and server failures get the themed error page (or its HTMX
// fragment); other client errors get a short localized message in the
// representation the client asked for. Causes never reach the client.
package weberror

import (
	"net/http"
	"strings"

	"github.com/a-h/templ"
	apperrors "github.com/louisbranch/launchweek/internal/services/launchweek/platform/errors"
	"github.com/louisbranch/launchweek/internal/services/launchweek/platform/httpx"
	webi18n "github.com/louisbranch/launchweek/internal/services/launchweek/platform/i18n"
	"github.com/louisbranch/launchweek/internal/services/launchweek/routepath"
	"github.com/louisbranch/launchweek/internal/services/launchweek/templates"
	"go.uber.org/zap"
)

// ShouldRenderAppError reports whether status gets the error page.
func ShouldRenderAppError(statusCode int) bool {
	return statusCode == http.StatusNotFound || statusCode >= http.StatusInternalServerError
}

// PublicMessage returns the localized copy for err's key, else the status text.
func PublicMessage(loc webi18n.Localizer, err error) string {
	if err == nil {
		return ""
	}
	if key := apperrors.LocalizationKey(err); key != "" && loc != nil {
		if localized := strings.TrimSpace(loc.Sprintf(key)); localized != "" && localized != key {
			return localized
		}
	}
	statusCode := apperrors.HTTPStatus(err)
	if statusCode < http.StatusBadRequest || http.StatusText(statusCode) == "" {
		statusCode = http.StatusInternalServerError
	}
	return http.StatusText(statusCode)
}

// WriteAppError writes the error page, or only its fragment for HTMX.
// Statuses outside ShouldRenderAppError are reported as 500.
func WriteAppError(w http.ResponseWriter, r *http.Request, statusCode int) {
	if !ShouldRenderAppError(statusCode) {
		statusCode = http.StatusInternalServerError
	}
	loc, lang := webi18n.ResolveLocalizer(w, r)
	fragment := templates.ErrorState(statusCode, routepath.LaunchWeek, loc)

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(statusCode)
	ctx := httpx.RequestContext(r)
	var err error
	if httpx.IsHTMXRequest(r) {
		err = fragment.Render(ctx, w)
	} else {
		head := templates.Head{Title: templates.ErrorPageTitle(statusCode, loc), Lang: lang}
		err = templates.Layout(head).Render(templ.WithChildren(ctx, fragment), w)
	}
	if err != nil {
		http.Error(w, http.StatusText(statusCode), statusCode)
	}
}

// WriteModuleError maps err to a status and writes the matching response.
// Server failures are logged with their cause and request id.
func WriteModuleError(w http.ResponseWriter, r *http.Request, err error, logger *zap.Logger) {
	statusCode := apperrors.HTTPStatus(err)
	if statusCode >= http.StatusInternalServerError && logger != nil {
		logger.Error("request failed",
			zap.String("path", r.URL.Path),
			zap.String("kind", string(apperrors.KindOf(err))),
			zap.String("request_id", r.Header.Get(httpx.RequestIDHeader)),
			zap.Error(err),
		)
	}
	loc, _ := webi18n.ResolveLocalizer(w, r)
	switch {
	case wantsJSON(r):
		w.Header().Set("Cache-Control", "no-store")
		_ = httpx.WriteJSONError(w, statusCode, PublicMessage(loc, err))
	case ShouldRenderAppError(statusCode):
		WriteAppError(w, r, statusCode)
	default:
		w.Header().Set("Cache-Control", "no-store")
		http.Error(w, PublicMessage(loc, err), statusCode)
	}
}

func wantsJSON(r *http.Request) bool {
	accept := r.Header.Get("Accept")
	return strings.Contains(accept, "application/json") && !strings.Contains(accept, "text/html")
}
