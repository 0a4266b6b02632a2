package public

import (
	"net/http"

	module "github.com/louisbranch/launchweek/internal/services/launchweek/module"
	"github.com/louisbranch/launchweek/internal/services/launchweek/platform/httpx"
	"github.com/louisbranch/launchweek/internal/services/launchweek/platform/weberror"
	"github.com/louisbranch/launchweek/internal/services/launchweek/routepath"
)

type handlers struct {
	deps module.Dependencies
}

func (h handlers) handleRoot(w http.ResponseWriter, r *http.Request) {
	target := routepath.LaunchWeek
	if r.URL.RawQuery != "" {
		target += "?" + r.URL.RawQuery
	}
	httpx.WriteRedirect(w, r, target)
}

func (h handlers) handleHealth(w http.ResponseWriter, _ *http.Request) {
	_ = httpx.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h handlers) handleNotFound(w http.ResponseWriter, r *http.Request) {
	weberror.WriteAppError(w, r, http.StatusNotFound)
}
