// Package public serves the root redirect, health check and not-found page.
package public

import (
	"net/http"

	module "github.com/louisbranch/launchweek/internal/services/launchweek/module"
	"github.com/louisbranch/launchweek/internal/services/launchweek/routepath"
)

// Module provides unauthenticated site routes.
type Module struct{}

// New returns the public module.
func New() Module {
	return Module{}
}

// ID returns a stable module identifier.
func (Module) ID() string { return "public" }

// Mount wires the public route handlers.
func (Module) Mount(deps module.Dependencies) (module.Mount, error) {
	mux := http.NewServeMux()
	registerRoutes(mux, handlers{deps: deps})
	return module.Mount{Prefix: routepath.Root, Handler: mux}, nil
}
