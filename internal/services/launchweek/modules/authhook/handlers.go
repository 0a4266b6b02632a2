package authhook

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/louisbranch/launchweek/internal/platform/id"
	"github.com/louisbranch/launchweek/internal/services/launchweek/auth"
	module "github.com/louisbranch/launchweek/internal/services/launchweek/module"
	"github.com/louisbranch/launchweek/internal/services/launchweek/platform/httpx"
	"github.com/louisbranch/launchweek/internal/services/launchweek/session"
	"go.uber.org/zap"
)

const maxPayloadBytes = 16 << 10

// Payload is the JSON body the auth backend posts.
type Payload struct {
	Device string `json:"device"`
	Kind   string `json:"kind"`
	Token  string `json:"token,omitempty"`
}

// Result reports how many live page views received the event.
type Result struct {
	Delivered int `json:"delivered"`
}

type handlers struct {
	deps module.Dependencies
}

func (h handlers) enabled() bool {
	return strings.TrimSpace(h.deps.HookSecret) != ""
}

func (h handlers) logger() *zap.Logger {
	return h.deps.LoggerOrNop()
}

func (h handlers) handleNotFound(w http.ResponseWriter, _ *http.Request) {
	_ = httpx.WriteJSONError(w, http.StatusNotFound, "not found")
}

// handleSession verifies the shared secret, decodes the transition and
// publishes it to the device's subscribers.
func (h handlers) handleSession(w http.ResponseWriter, r *http.Request) {
	if !h.authorized(r) {
		w.Header().Set("WWW-Authenticate", `Bearer realm="launchweek-hooks"`)
		_ = httpx.WriteJSONError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	event, device, err := h.decode(r)
	if err != nil {
		_ = httpx.WriteJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	delivered := 0
	if h.deps.Hub != nil {
		delivered = h.deps.Hub.Publish(device, event)
	}
	h.logger().Debug("session event published",
		zap.String("kind", string(event.Kind)),
		zap.Int("delivered", delivered),
	)
	_ = httpx.WriteJSON(w, http.StatusOK, Result{Delivered: delivered})
}

func (h handlers) authorized(r *http.Request) bool {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok {
		return false
	}
	secret := strings.TrimSpace(h.deps.HookSecret)
	return subtle.ConstantTimeCompare([]byte(strings.TrimSpace(token)), []byte(secret)) == 1
}

func (h handlers) decode(r *http.Request) (session.Event, string, error) {
	var payload Payload
	decoder := json.NewDecoder(io.LimitReader(r.Body, maxPayloadBytes))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&payload); err != nil {
		return session.Event{}, "", errors.New("malformed payload")
	}
	device := strings.TrimSpace(payload.Device)
	if !id.Valid(device) {
		return session.Event{}, "", errors.New("device is required")
	}
	kind := session.EventKind(strings.TrimSpace(payload.Kind))
	switch kind {
	case session.EventSignedOut:
		return session.Event{Kind: kind}, device, nil
	case session.EventSignedIn, session.EventRefreshed:
		if h.deps.Tokens == nil {
			return session.Event{}, "", errors.New("session verification unavailable")
		}
		current, err := h.deps.Tokens.Verify(payload.Token)
		if err != nil {
			if !errors.Is(err, auth.ErrInvalidToken) {
				h.logger().Warn("session hook verification failed", zap.Error(err))
			}
			return session.Event{}, "", errors.New("invalid session token")
		}
		return session.Event{Kind: kind, Session: current}, device, nil
	default:
		return session.Event{}, "", errors.New("unknown event kind")
	}
}
