// Package module defines the contract launch week feature modules mount by.
package module

import (
	"net/http"
	"time"

	"github.com/louisbranch/launchweek/internal/services/launchweek/auth"
	"github.com/louisbranch/launchweek/internal/services/launchweek/platform/requestmeta"
	"github.com/louisbranch/launchweek/internal/services/launchweek/presence"
	"github.com/louisbranch/launchweek/internal/services/launchweek/profile"
	"github.com/louisbranch/launchweek/internal/services/launchweek/render"
	"github.com/louisbranch/launchweek/internal/services/launchweek/session"
	"github.com/louisbranch/launchweek/internal/services/launchweek/storage"
	"go.uber.org/zap"
)

// Module is one mountable feature area.
type Module interface {
	ID() string
	Mount(Dependencies) (Mount, error)
}

// Mount is the prefix and handler a module contributes to the root mux.
type Mount struct {
	Prefix  string
	Handler http.Handler
}

// ResolveSession returns the verified session presented by a request.
type ResolveSession func(*http.Request) (session.Session, bool)

// Dependencies are the shared collaborators handed to every module.
type Dependencies struct {
	Directory storage.Directory
	Resolver  *profile.Resolver
	Presence  *presence.Aggregator
	Renderer  *render.Renderer
	Tokens    *auth.Tokens
	Hub       *auth.Hub

	// HookSecret authenticates the auth backend's session push hook.
	HookSecret string
	// PublicURL is the absolute site origin used in share links.
	PublicURL    string
	SchemePolicy requestmeta.SchemePolicy
	// Heartbeat is the idle interval between event stream keep-alives.
	Heartbeat time.Duration

	ResolveSession ResolveSession
	Logger         *zap.Logger
	Now            func() time.Time
}

// NowOrDefault returns deps.Now, or time.Now when unset.
func (d Dependencies) NowOrDefault() time.Time {
	if d.Now != nil {
		return d.Now()
	}
	return time.Now()
}

// LoggerOrNop returns deps.Logger, or a no-op logger when unset.
func (d Dependencies) LoggerOrNop() *zap.Logger {
	if d.Logger != nil {
		return d.Logger
	}
	return zap.NewNop()
}
