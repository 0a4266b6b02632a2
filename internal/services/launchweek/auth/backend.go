package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/louisbranch/launchweek/internal/services/launchweek/session"
)

// Backend is the session.Backend for one browser: it resolves the session
// token the browser presented and listens for events pushed to its device.
type Backend struct {
	tokens *Tokens
	hub    *Hub
	token  string
	device string
}

// NewBackend binds tokens and hub to one browser's token and device id.
func NewBackend(tokens *Tokens, hub *Hub, token, device string) *Backend {
	return &Backend{
		tokens: tokens,
		hub:    hub,
		token:  strings.TrimSpace(token),
		device: strings.TrimSpace(device),
	}
}

// GetCurrentSession verifies the presented token. Missing or invalid tokens
// are anonymous, not failures.
func (b *Backend) GetCurrentSession(ctx context.Context) (session.Session, bool, error) {
	if err := ctx.Err(); err != nil {
		return session.Session{}, false, fmt.Errorf("%w: %v", session.ErrAuthUnavailable, err)
	}
	if b == nil || b.tokens == nil {
		return session.Session{}, false, session.ErrAuthUnavailable
	}
	if b.token == "" {
		return session.Session{}, false, nil
	}
	current, err := b.tokens.Verify(b.token)
	if errors.Is(err, ErrInvalidToken) {
		return session.Session{}, false, nil
	}
	if err != nil {
		return session.Session{}, false, fmt.Errorf("%w: %v", session.ErrAuthUnavailable, err)
	}
	return current, true, nil
}

// Subscribe listens for events pushed to this browser's device id.
func (b *Backend) Subscribe(fn func(session.Event)) func() {
	if b == nil || b.hub == nil {
		return func() {}
	}
	return b.hub.Subscribe(b.device, fn)
}

var _ session.Backend = (*Backend)(nil)
