// Package app composes launch week modules into the root HTTP handler.
//
// Modules come in two groups. Public modules serve anything outside
// /app/; protected modules live under /app/ and are wrapped with session
// and same-origin guards. Prefixes are unique across both groups.
package app

import (
	"fmt"
	"net/http"
	"strings"

	module "github.com/louisbranch/launchweek/internal/services/launchweek/module"
	"github.com/louisbranch/launchweek/internal/services/launchweek/platform/requestmeta"
	"github.com/louisbranch/launchweek/internal/services/launchweek/routepath"
)

// ComposeInput carries module groups and shared composition contracts.
type ComposeInput struct {
	Dependencies        module.Dependencies
	AuthRequired        func(*http.Request) bool
	PublicModules       []module.Module
	ProtectedModules    []module.Module
	RequestSchemePolicy requestmeta.SchemePolicy
}

type moduleGroup struct {
	name      string
	modules   []module.Module
	protected bool
	wrap      func(http.Handler) http.Handler
}

// composer owns the root mux and the prefix registry while mounting.
type composer struct {
	mux    *http.ServeMux
	deps   module.Dependencies
	owners map[string]string
}

// Compose builds a root HTTP handler from module groups.
func Compose(input ComposeInput) (http.Handler, error) {
	authenticated := input.AuthRequired
	if authenticated == nil {
		authenticated = func(*http.Request) bool { return false }
	}
	c := composer{mux: http.NewServeMux(), deps: input.Dependencies, owners: map[string]string{}}
	groups := []moduleGroup{
		{name: "public", modules: input.PublicModules},
		{
			name:      "protected",
			modules:   input.ProtectedModules,
			protected: true,
			wrap:      protectedGuards(authenticated, input.RequestSchemePolicy, input.Dependencies),
		},
	}
	for _, group := range groups {
		for _, feature := range group.modules {
			if err := c.mount(group, feature); err != nil {
				return nil, err
			}
		}
	}
	return c.mux, nil
}

func (c composer) mount(group moduleGroup, feature module.Module) error {
	if feature == nil {
		return fmt.Errorf("%s module is nil", group.name)
	}
	mount, err := feature.Mount(c.deps)
	if err != nil {
		return fmt.Errorf("mount module %q: %w", feature.ID(), err)
	}
	if err := validatePrefix(mount.Prefix); err != nil {
		return fmt.Errorf("mount module %q has invalid prefix %q: %w", feature.ID(), mount.Prefix, err)
	}
	if mount.Handler == nil {
		return fmt.Errorf("mount module %q: handler is required", feature.ID())
	}
	switch protected := strings.HasPrefix(mount.Prefix, routepath.AppPrefix); {
	case group.protected && !protected:
		return fmt.Errorf("module %q must mount under %s, got %q", feature.ID(), routepath.AppPrefix, mount.Prefix)
	case !group.protected && protected:
		return fmt.Errorf("module %q has protected prefix %q in public group", feature.ID(), mount.Prefix)
	}

	handler := mount.Handler
	if group.wrap != nil {
		handler = group.wrap(handler)
	}
	// The slashless alias keeps "/launch-week" from hitting the mux's
	// trailing-slash redirect.
	for _, pattern := range []string{mount.Prefix, strings.TrimSuffix(mount.Prefix, "/")} {
		if pattern == "" {
			continue
		}
		if owner, taken := c.owners[pattern]; taken {
			return fmt.Errorf("module %q duplicates prefix %q owned by module %q", feature.ID(), pattern, owner)
		}
		c.owners[pattern] = feature.ID()
		c.mux.Handle(pattern, handler)
	}
	return nil
}

func validatePrefix(prefix string) error {
	switch {
	case prefix == "":
		return fmt.Errorf("prefix is required")
	case strings.TrimSpace(prefix) != prefix:
		return fmt.Errorf("prefix must not include surrounding whitespace")
	case !strings.HasPrefix(prefix, "/"):
		return fmt.Errorf("prefix must begin with /")
	case !strings.HasSuffix(prefix, "/"):
		return fmt.Errorf("prefix must end with /")
	}
	return nil
}
