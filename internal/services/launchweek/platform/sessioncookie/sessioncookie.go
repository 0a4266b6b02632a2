// Package sessioncookie centralizes the launch week cookies: the session
// token, the device id that routes pushed session events, and the pending
// referral.
package sessioncookie

import (
	"net/http"
	"strings"
	"time"

	"github.com/louisbranch/launchweek/internal/platform/id"
	"github.com/louisbranch/launchweek/internal/services/launchweek/platform/requestmeta"
)

const (
	// Name is the session token cookie.
	Name = "lw_session"
	// DeviceName identifies one browser across page loads.
	DeviceName = "lw_device"
	// ReferralName holds the username that referred this browser.
	ReferralName = "lw_referral"

	deviceMaxAge   = 365 * 24 * time.Hour
	referralMaxAge = 30 * 24 * time.Hour
)

// Read returns the trimmed session token when present.
func Read(r *http.Request) (string, bool) {
	return read(r, Name)
}

// Write sets the session token cookie until expiresAt.
func Write(w http.ResponseWriter, r *http.Request, token string, expiresAt time.Time, policy requestmeta.SchemePolicy) {
	maxAge := 0
	if !expiresAt.IsZero() {
		maxAge = max(int(time.Until(expiresAt).Seconds()), 1)
	}
	write(w, r, policy, &http.Cookie{Name: Name, Value: strings.TrimSpace(token), MaxAge: maxAge})
}

// Clear expires the session token cookie.
func Clear(w http.ResponseWriter, r *http.Request, policy requestmeta.SchemePolicy) {
	write(w, r, policy, &http.Cookie{Name: Name, MaxAge: -1})
}

// ReadDevice returns the device id when present and well formed.
func ReadDevice(r *http.Request) (string, bool) {
	value, ok := read(r, DeviceName)
	if !ok || !id.Valid(value) {
		return "", false
	}
	return value, true
}

// EnsureDevice returns the device id, issuing a new cookie when missing.
func EnsureDevice(w http.ResponseWriter, r *http.Request, policy requestmeta.SchemePolicy) (string, error) {
	if device, ok := ReadDevice(r); ok {
		return device, nil
	}
	device, err := id.NewID()
	if err != nil {
		return "", err
	}
	write(w, r, policy, &http.Cookie{Name: DeviceName, Value: device, MaxAge: int(deviceMaxAge.Seconds())})
	return device, nil
}

// ReadReferral returns the pending referral username.
func ReadReferral(r *http.Request) (string, bool) {
	return read(r, ReferralName)
}

// WriteReferral remembers the referring username.
func WriteReferral(w http.ResponseWriter, r *http.Request, username string, policy requestmeta.SchemePolicy) {
	write(w, r, policy, &http.Cookie{Name: ReferralName, Value: username, MaxAge: int(referralMaxAge.Seconds())})
}

// ClearReferral drops the pending referral once it has been recorded.
func ClearReferral(w http.ResponseWriter, r *http.Request, policy requestmeta.SchemePolicy) {
	write(w, r, policy, &http.Cookie{Name: ReferralName, MaxAge: -1})
}

func read(r *http.Request, name string) (string, bool) {
	if r == nil {
		return "", false
	}
	cookie, err := r.Cookie(name)
	if err != nil || cookie == nil {
		return "", false
	}
	value := strings.TrimSpace(cookie.Value)
	if value == "" {
		return "", false
	}
	return value, true
}

func write(w http.ResponseWriter, r *http.Request, policy requestmeta.SchemePolicy, cookie *http.Cookie) {
	if w == nil {
		return
	}
	cookie.Path = "/"
	cookie.HttpOnly = true
	cookie.Secure = requestmeta.IsHTTPS(r, policy)
	cookie.SameSite = http.SameSiteLaxMode
	http.SetCookie(w, cookie)
}
