// Package ticket serves the launch week page, its live event stream and
// the shareable ticket image.
package ticket

import (
	"net/http"

	module "github.com/louisbranch/launchweek/internal/services/launchweek/module"
	"github.com/louisbranch/launchweek/internal/services/launchweek/platform/modulehandler"
	"github.com/louisbranch/launchweek/internal/services/launchweek/routepath"
)

// Module provides the public launch week routes.
type Module struct{}

// New returns the ticket module.
func New() Module {
	return Module{}
}

// ID returns a stable module identifier.
func (Module) ID() string { return "ticket" }

// Mount wires the ticket route handlers.
func (Module) Mount(deps module.Dependencies) (module.Mount, error) {
	mux := http.NewServeMux()
	registerRoutes(mux, newHandlers(modulehandler.NewBase(deps)))
	return module.Mount{Prefix: routepath.LaunchWeekPrefix, Handler: mux}, nil
}
