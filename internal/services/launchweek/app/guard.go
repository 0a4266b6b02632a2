package app

import (
	"net/http"

	module "github.com/louisbranch/launchweek/internal/services/launchweek/module"
	apperrors "github.com/louisbranch/launchweek/internal/services/launchweek/platform/errors"
	"github.com/louisbranch/launchweek/internal/services/launchweek/platform/requestmeta"
	"github.com/louisbranch/launchweek/internal/services/launchweek/platform/sessioncookie"
	"github.com/louisbranch/launchweek/internal/services/launchweek/platform/weberror"
	"go.uber.org/zap"
)

// protectedGuards requires a session, then same-origin proof for cookie
// mutations.
func protectedGuards(authenticated func(*http.Request) bool, policy requestmeta.SchemePolicy, deps module.Dependencies) func(http.Handler) http.Handler {
	logger := deps.LoggerOrNop()
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !authenticated(r) {
				weberror.WriteModuleError(w, r, apperrors.E(apperrors.KindUnauthorized, "session required"), logger)
				return
			}
			if needsOriginProof(r) && !requestmeta.HasSameOriginProof(r, policy) {
				logger.Warn("cross-origin mutation rejected",
					zap.String("path", r.URL.Path),
					zap.String("origin", r.Header.Get("Origin")),
				)
				weberror.WriteModuleError(w, r, apperrors.E(apperrors.KindForbidden, "same-origin proof required"), logger)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// needsOriginProof reports a state-changing request carrying the session
// cookie, the shape a cross-site form post would take.
func needsOriginProof(r *http.Request) bool {
	switch r.Method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		_, ok := sessioncookie.Read(r)
		return ok
	default:
		return false
	}
}
