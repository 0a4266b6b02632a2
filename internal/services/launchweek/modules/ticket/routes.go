package ticket

import (
	"net/http"

	"github.com/louisbranch/launchweek/internal/services/launchweek/platform/httpx"
	"github.com/louisbranch/launchweek/internal/services/launchweek/routepath"
)

func registerRoutes(mux *http.ServeMux, h handlers) {
	if mux == nil {
		return
	}
	mux.HandleFunc(http.MethodGet+" "+routepath.LaunchWeek, h.handlePage)
	mux.HandleFunc(http.MethodGet+" "+routepath.LaunchWeekPrefix+"{$}", h.handlePage)
	mux.HandleFunc(http.MethodGet+" "+routepath.Events, h.handleEvents)
	mux.HandleFunc(http.MethodGet+" "+routepath.TicketsPrefix+"{username}/og.svg", h.handleImage)
	mux.HandleFunc(http.MethodPost+" "+routepath.LaunchWeek, httpx.MethodNotAllowed(http.MethodGet))
	mux.HandleFunc(routepath.LaunchWeekPrefix+"{rest...}", h.WriteNotFound)
}
