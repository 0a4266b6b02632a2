package app

import (
	"net/http"

	module "github.com/louisbranch/launchweek/internal/services/launchweek/module"
)

// Config captures the composition inputs for the launch week root handler.
type Config struct {
	Dependencies     module.Dependencies
	PublicModules    []module.Module
	ProtectedModules []module.Module
}

// BuildRootHandler composes a root mux using the configured module groups.
// Requests are authenticated when the dependencies resolve a session.
func BuildRootHandler(cfg Config) (http.Handler, error) {
	deps := cfg.Dependencies
	authRequired := func(r *http.Request) bool {
		if deps.ResolveSession == nil {
			return false
		}
		_, ok := deps.ResolveSession(r)
		return ok
	}
	return Compose(ComposeInput{
		Dependencies:        deps,
		AuthRequired:        authRequired,
		PublicModules:       cfg.PublicModules,
		ProtectedModules:    cfg.ProtectedModules,
		RequestSchemePolicy: deps.SchemePolicy,
	})
}
