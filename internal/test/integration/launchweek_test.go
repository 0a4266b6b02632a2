//go:build integration

package integration

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	seedcmd "github.com/louisbranch/launchweek/internal/cmd/seed"
	"github.com/louisbranch/launchweek/internal/services/launchweek"
	"github.com/louisbranch/launchweek/internal/services/launchweek/auth"
	"github.com/louisbranch/launchweek/internal/services/launchweek/platform/sessioncookie"
	"github.com/louisbranch/launchweek/internal/services/launchweek/session"
	"github.com/louisbranch/launchweek/internal/services/launchweek/storage/driver"
)

const (
	sessionSecret = "integration-secret-integration-secret"
	hookSecret    = "integration-hook-secret"
)

// TestLaunchWeekIntegration drives the service over real HTTP against a
// seeded sqlite directory.
func TestLaunchWeekIntegration(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tokens, err := auth.NewTokens(sessionSecret, "launchweek-auth")
	if err != nil {
		t.Fatalf("NewTokens() error = %v", err)
	}
	baseURL := startServer(ctx, t, tokens)
	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookiejar: %v", err)
	}
	client := &http.Client{Timeout: 5 * time.Second, Jar: jar}

	t.Run("anonymous page shows claim form", func(t *testing.T) {
		status, body := get(t, client, baseURL+"/launch-week", false)
		if status != http.StatusOK {
			t.Fatalf("status = %d, want %d", status, http.StatusOK)
		}
		assertHTMLContains(t, body, "<!DOCTYPE html>", `id="lw-ticket"`, "sse-connect")
	})

	t.Run("htmx request gets fragment only", func(t *testing.T) {
		status, body := get(t, client, baseURL+"/launch-week?username=ada", true)
		if status != http.StatusOK {
			t.Fatalf("status = %d, want %d", status, http.StatusOK)
		}
		assertHTMLContains(t, body, `id="lw-ticket"`, "@ada")
		assertHTMLNotContains(t, body, "<!DOCTYPE html>")
	})

	t.Run("seeded ticket image", func(t *testing.T) {
		status, body := get(t, client, baseURL+"/launch-week/tickets/ada/og.svg", false)
		if status != http.StatusOK {
			t.Fatalf("status = %d, want %d", status, http.StatusOK)
		}
		assertHTMLContains(t, body, "<svg", "Ada Lovelace")
	})

	t.Run("unknown ticket image", func(t *testing.T) {
		status, _ := get(t, client, baseURL+"/launch-week/tickets/nobody/og.svg", false)
		if status != http.StatusNotFound {
			t.Fatalf("status = %d, want %d", status, http.StatusNotFound)
		}
	})

	t.Run("auth hook pushes ticket to open stream", func(t *testing.T) {
		device := deviceCookie(t, jar, baseURL)
		streamCtx, stopStream := context.WithCancel(ctx)
		defer stopStream()

		req, err := http.NewRequestWithContext(streamCtx, http.MethodGet, baseURL+"/launch-week/events", nil)
		if err != nil {
			t.Fatalf("create stream request: %v", err)
		}
		streamClient := &http.Client{Jar: jar}
		resp, err := streamClient.Do(req)
		if err != nil {
			t.Fatalf("open stream: %v", err)
		}
		defer resp.Body.Close()
		reader := bufio.NewReader(resp.Body)
		if first := readEventData(t, reader); !strings.Contains(first, `data-state="form"`) {
			t.Fatalf("first event = %q, want claim form", first)
		}

		token, err := tokens.Issue(session.Session{ID: "sess-ada", UserID: "demo-ada"})
		if err != nil {
			t.Fatalf("Issue() error = %v", err)
		}
		delivered := postHook(t, baseURL, map[string]string{"device": device, "kind": "signed_in", "token": token})
		if delivered != 1 {
			t.Fatalf("delivered = %d, want 1", delivered)
		}
		if next := readEventData(t, reader); !strings.Contains(next, "#00001") {
			t.Fatalf("pushed event = %q, want ada's ticket", next)
		}
	})
}

func startServer(ctx context.Context, t *testing.T, tokens *auth.Tokens) string {
	t.Helper()

	directory, err := driver.Open(ctx, "sqlite", filepath.Join(t.TempDir(), "launchweek.db"))
	if err != nil {
		t.Fatalf("open directory: %v", err)
	}
	t.Cleanup(func() { _ = directory.Close() })
	participants, err := seedcmd.LoadParticipants()
	if err != nil {
		t.Fatalf("LoadParticipants() error = %v", err)
	}
	if _, err := seedcmd.Seed(ctx, directory, participants, time.Now().UTC(), io.Discard); err != nil {
		t.Fatalf("Seed() error = %v", err)
	}

	httpAddr := pickUnusedAddress(t)
	server, err := launchweek.NewServer(ctx, launchweek.Config{
		HTTPAddr:        httpAddr,
		Directory:       directory,
		Tokens:          tokens,
		HookSecret:      hookSecret,
		GoldenThreshold: 3,
		Heartbeat:       time.Minute,
	})
	if err != nil {
		t.Fatalf("NewServer() error = %v", err)
	}
	go func() { _ = server.ListenAndServe(ctx) }()
	t.Cleanup(server.Close)

	baseURL := "http://" + httpAddr
	waitForHealth(t, baseURL)
	return baseURL
}

func pickUnusedAddress(t *testing.T) string {
	t.Helper()
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	addr := listener.Addr().String()
	if err := listener.Close(); err != nil {
		t.Fatalf("close listener: %v", err)
	}
	return addr
}

// waitForHealth polls /up with capped backoff until the server answers.
func waitForHealth(t *testing.T, baseURL string) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	client := &http.Client{Timeout: time.Second}
	backoff := 50 * time.Millisecond
	for {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"/up", nil)
		if err != nil {
			t.Fatalf("create health request: %v", err)
		}
		if resp, err := client.Do(req); err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return
			}
		}
		select {
		case <-ctx.Done():
			t.Fatalf("wait for health: %v", ctx.Err())
		case <-time.After(backoff):
		}
		backoff = min(backoff*2, time.Second)
	}
}

func get(t *testing.T, client *http.Client, target string, htmx bool) (int, string) {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, target, nil)
	if err != nil {
		t.Fatalf("create request: %v", err)
	}
	if htmx {
		req.Header.Set("HX-Request", "true")
	}
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp.StatusCode, string(body)
}

func deviceCookie(t *testing.T, jar http.CookieJar, baseURL string) string {
	t.Helper()
	u, err := url.Parse(baseURL)
	if err != nil {
		t.Fatalf("parse base url: %v", err)
	}
	for _, c := range jar.Cookies(u) {
		if c.Name == sessioncookie.DeviceName {
			return c.Value
		}
	}
	t.Fatal("device cookie was not issued")
	return ""
}

func postHook(t *testing.T, baseURL string, payload map[string]string) int {
	t.Helper()
	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	req, err := http.NewRequest(http.MethodPost, baseURL+"/auth/hooks/session", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("create hook request: %v", err)
	}
	req.Header.Set("Authorization", "Bearer "+hookSecret)
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("post hook: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("hook status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
	var result struct {
		Delivered int `json:"delivered"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatalf("decode hook result: %v", err)
	}
	return result.Delivered
}

// readEventData returns the joined data lines of the next event, skipping
// keep-alive comments.
func readEventData(t *testing.T, reader *bufio.Reader) string {
	t.Helper()
	var data []string
	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			t.Fatalf("read event stream: %v", err)
		}
		line = strings.TrimRight(line, "\n")
		switch {
		case line == "" && len(data) > 0:
			return strings.Join(data, "\n")
		case strings.HasPrefix(line, "data: "):
			data = append(data, strings.TrimPrefix(line, "data: "))
		}
	}
}

func assertHTMLContains(t *testing.T, body string, fragments ...string) {
	t.Helper()
	for _, fragment := range fragments {
		if !strings.Contains(body, fragment) {
			t.Errorf("expected HTML to contain %q\nbody:\n%s", fragment, body)
		}
	}
}

func assertHTMLNotContains(t *testing.T, body string, fragments ...string) {
	t.Helper()
	for _, fragment := range fragments {
		if strings.Contains(body, fragment) {
			t.Errorf("expected HTML to NOT contain %q", fragment)
		}
	}
}
