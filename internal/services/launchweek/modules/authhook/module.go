// Package authhook receives session transitions pushed by the auth backend
// and fans them out to the page views subscribed for the browser device.
package authhook

import (
	"net/http"

	module "github.com/louisbranch/launchweek/internal/services/launchweek/module"
	"github.com/louisbranch/launchweek/internal/services/launchweek/platform/httpx"
	"github.com/louisbranch/launchweek/internal/services/launchweek/routepath"
)

// Module provides the session push hook.
type Module struct{}

// New returns the auth hook module.
func New() Module {
	return Module{}
}

// ID returns a stable module identifier.
func (Module) ID() string { return "authhook" }

// Mount wires the session hook. Without a configured secret every hook
// path answers 404.
func (Module) Mount(deps module.Dependencies) (module.Mount, error) {
	mux := http.NewServeMux()
	h := handlers{deps: deps}
	if h.enabled() {
		mux.HandleFunc(http.MethodPost+" "+routepath.SessionHook, h.handleSession)
		mux.HandleFunc(routepath.SessionHook, httpx.MethodNotAllowed(http.MethodPost))
	}
	mux.HandleFunc(routepath.AuthHooksPrefix+"{rest...}", h.handleNotFound)
	return module.Mount{Prefix: routepath.AuthHooksPrefix, Handler: mux}, nil
}
