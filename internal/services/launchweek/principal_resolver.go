package launchweek

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/louisbranch/launchweek/internal/services/launchweek/auth"
	"github.com/louisbranch/launchweek/internal/services/launchweek/platform/httpx"
	"github.com/louisbranch/launchweek/internal/services/launchweek/platform/sessioncookie"
	"github.com/louisbranch/launchweek/internal/services/launchweek/session"
)

type requestSessionState struct {
	once    sync.Once
	session session.Session
	ok      bool
}

type requestSessionStateKey struct{}

type sessionResolver struct {
	tokens *auth.Tokens
	now    func() time.Time
}

func newSessionResolver(tokens *auth.Tokens, now func() time.Time) sessionResolver {
	if now == nil {
		now = time.Now
	}
	return sessionResolver{tokens: tokens, now: now}
}

func (r sessionResolver) resolveUncached(request *http.Request) (session.Session, bool) {
	if request == nil || r.tokens == nil {
		return session.Session{}, false
	}
	token, ok := sessioncookie.Read(request)
	if !ok {
		return session.Session{}, false
	}
	current, err := r.tokens.Verify(token)
	if err != nil || !current.Valid(r.now()) {
		return session.Session{}, false
	}
	return current, true
}

// resolveSession verifies the request's session cookie once per request.
func (r sessionResolver) resolveSession(request *http.Request) (session.Session, bool) {
	if state := requestSessionStateFromRequest(request); state != nil {
		state.once.Do(func() {
			state.session, state.ok = r.resolveUncached(request)
		})
		return state.session, state.ok
	}
	return r.resolveUncached(request)
}

func withRequestSessionState() httpx.Middleware {
	return func(next http.Handler) http.Handler {
		if next == nil {
			next = http.NotFoundHandler()
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r == nil {
				next.ServeHTTP(w, r)
				return
			}
			ctx := context.WithValue(r.Context(), requestSessionStateKey{}, &requestSessionState{})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func requestSessionStateFromRequest(r *http.Request) *requestSessionState {
	if r == nil {
		return nil
	}
	state, _ := r.Context().Value(requestSessionStateKey{}).(*requestSessionState)
	return state
}
