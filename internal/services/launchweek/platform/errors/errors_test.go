package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/louisbranch/launchweek/internal/services/launchweek/auth"
	"github.com/louisbranch/launchweek/internal/services/launchweek/storage"
)

func TestHTTPStatusMapsKnownKinds(t *testing.T) {
	t.Parallel()

	cases := []struct {
		kind Kind
		want int
	}{
		{KindInvalidInput, http.StatusBadRequest},
		{KindUnauthorized, http.StatusUnauthorized},
		{KindForbidden, http.StatusForbidden},
		{KindUnavailable, http.StatusServiceUnavailable},
		{KindNotFound, http.StatusNotFound},
		{KindConflict, http.StatusConflict},
		{KindUnknown, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		tc := tc
		if got := HTTPStatus(E(tc.kind, "x")); got != tc.want {
			t.Fatalf("HTTPStatus(%s) = %d, want %d", tc.kind, got, tc.want)
		}
	}
}

func TestHTTPStatusMapsDomainErrors(t *testing.T) {
	t.Parallel()

	if got := HTTPStatus(fmt.Errorf("claim: %w", storage.ErrAlreadyExists)); got != http.StatusConflict {
		t.Fatalf("already exists status = %d, want %d", got, http.StatusConflict)
	}
	if got := HTTPStatus(storage.ErrNotFound); got != http.StatusNotFound {
		t.Fatalf("not found status = %d, want %d", got, http.StatusNotFound)
	}
	if got := HTTPStatus(auth.ErrInvalidToken); got != http.StatusUnauthorized {
		t.Fatalf("invalid token status = %d, want %d", got, http.StatusUnauthorized)
	}
}

func TestHTTPStatusDefaultsToInternalError(t *testing.T) {
	t.Parallel()

	if got := HTTPStatus(errors.New("boom")); got != http.StatusInternalServerError {
		t.Fatalf("status = %d, want %d", got, http.StatusInternalServerError)
	}
	if got := HTTPStatus(nil); got != http.StatusOK {
		t.Fatalf("HTTPStatus(nil) = %d, want %d", got, http.StatusOK)
	}
}

func TestErrorStringFallsBackToKindWhenMessageEmpty(t *testing.T) {
	t.Parallel()

	err := Error{Kind: KindForbidden}
	if got := err.Error(); got != string(KindForbidden) {
		t.Fatalf("Error() = %q, want %q", got, string(KindForbidden))
	}
}

func TestLocalizationKeyUnwrapsTypedErrors(t *testing.T) {
	t.Parallel()

	err := fmt.Errorf("wrap: %w", EK(KindConflict, " error.claim.already_claimed ", "taken"))
	if got := LocalizationKey(err); got != "error.claim.already_claimed" {
		t.Fatalf("LocalizationKey() = %q, want %q", got, "error.claim.already_claimed")
	}
	if got := LocalizationKey(errors.New("plain")); got != "" {
		t.Fatalf("LocalizationKey(plain) = %q, want empty", got)
	}
}

func TestWrapKeepsCauseAndKind(t *testing.T) {
	t.Parallel()

	if Wrap(KindInvalidInput, "parse", nil) != nil {
		t.Fatal("Wrap(nil) should be nil")
	}
	cause := errors.New("unexpected EOF")
	err := Wrap(KindInvalidInput, "parse claim form", cause)
	if !errors.Is(err, cause) {
		t.Fatalf("errors.Is(err, cause) = false")
	}
	if got := err.Error(); got != "parse claim form: unexpected EOF" {
		t.Fatalf("Error() = %q", got)
	}
	if got := HTTPStatus(err); got != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", got, http.StatusBadRequest)
	}
}

func TestKindOfPrefersTypedErrorOverSentinel(t *testing.T) {
	t.Parallel()

	err := Wrap(KindUnavailable, "lookup", storage.ErrNotFound)
	if got := KindOf(err); got != KindUnavailable {
		t.Fatalf("KindOf() = %q, want %q", got, KindUnavailable)
	}
	if got := KindOf(fmt.Errorf("lookup: %w", storage.ErrNotFound)); got != KindNotFound {
		t.Fatalf("KindOf(sentinel) = %q, want %q", got, KindNotFound)
	}
	if got := KindOf(nil); got != "" {
		t.Fatalf("KindOf(nil) = %q, want empty", got)
	}
}
