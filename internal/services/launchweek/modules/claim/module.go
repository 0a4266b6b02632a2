// Package claim lets a signed-in participant claim a launch week ticket.
package claim

import (
	"net/http"

	module "github.com/louisbranch/launchweek/internal/services/launchweek/module"
	"github.com/louisbranch/launchweek/internal/services/launchweek/platform/httpx"
	"github.com/louisbranch/launchweek/internal/services/launchweek/platform/modulehandler"
	"github.com/louisbranch/launchweek/internal/services/launchweek/routepath"
)

// Module provides the protected claim route.
type Module struct{}

// New returns the claim module.
func New() Module {
	return Module{}
}

// ID returns a stable module identifier.
func (Module) ID() string { return "claim" }

// Mount wires the claim handler.
func (Module) Mount(deps module.Dependencies) (module.Mount, error) {
	h := handlers{Base: modulehandler.NewBase(deps)}
	mux := http.NewServeMux()
	mux.HandleFunc(http.MethodPost+" "+routepath.Claim, h.handleClaim)
	mux.HandleFunc(http.MethodGet+" "+routepath.Claim, httpx.MethodNotAllowed(http.MethodPost))
	mux.HandleFunc(routepath.AppLaunchWeekPrefix+"{rest...}", h.WriteNotFound)
	return module.Mount{Prefix: routepath.AppLaunchWeekPrefix, Handler: mux}, nil
}
