// Package modules lists the launch week feature modules by access group.
package modules

import (
	module "github.com/louisbranch/launchweek/internal/services/launchweek/module"
	"github.com/louisbranch/launchweek/internal/services/launchweek/modules/authhook"
	"github.com/louisbranch/launchweek/internal/services/launchweek/modules/claim"
	"github.com/louisbranch/launchweek/internal/services/launchweek/modules/public"
	"github.com/louisbranch/launchweek/internal/services/launchweek/modules/ticket"
)

// DefaultPublicModules returns the modules served without a session:
// site routes, the ticket page with its event stream, and the auth hook.
func DefaultPublicModules() []module.Module {
	return []module.Module{
		public.New(),
		ticket.New(),
		authhook.New(),
	}
}

// DefaultProtectedModules returns the modules mounted under /app/.
func DefaultProtectedModules() []module.Module {
	return []module.Module{
		claim.New(),
	}
}
