package seed

import (
	"bytes"
	"context"
	"flag"
	"strings"
	"testing"
	"time"

	"github.com/louisbranch/launchweek/internal/services/launchweek/auth"
	"github.com/louisbranch/launchweek/internal/test/mock/directoryfakes"
)

func TestLoadParticipants(t *testing.T) {
	t.Parallel()

	participants, err := LoadParticipants()
	if err != nil {
		t.Fatalf("LoadParticipants() error = %v", err)
	}
	if len(participants) == 0 {
		t.Fatal("expected demo participants")
	}
	if participants[0].Username != "ada" || !participants[0].Golden {
		t.Fatalf("first participant = %+v, want golden ada", participants[0])
	}
}

func TestParseParticipantsRejectsForwardReferral(t *testing.T) {
	t.Parallel()

	data := []byte(`participants:
  - {user_id: u1, username: one, referred_by: two}
  - {user_id: u2, username: two}
`)
	if _, err := parseParticipants(data); err == nil || !strings.Contains(err.Error(), "listed earlier") {
		t.Fatalf("parseParticipants() error = %v, want ordering error", err)
	}
}

func TestSeedIsIdempotent(t *testing.T) {
	t.Parallel()

	dir := directoryfakes.New()
	participants, err := LoadParticipants()
	if err != nil {
		t.Fatalf("LoadParticipants() error = %v", err)
	}
	participants = append(participants, Generated(3)...)
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	claimed, err := Seed(context.Background(), dir, participants, start, nil)
	if err != nil {
		t.Fatalf("Seed() error = %v", err)
	}
	if claimed != len(participants) {
		t.Fatalf("claimed = %d, want %d", claimed, len(participants))
	}
	ada, err := dir.GetTicketByUsername(context.Background(), "ada")
	if err != nil {
		t.Fatalf("GetTicketByUsername() error = %v", err)
	}
	if ada.Number != 1 || ada.ReferralCount != 3 {
		t.Fatalf("ada = %+v, want ticket 1 with 3 referrals", ada)
	}

	var skipped bytes.Buffer
	claimed, err = Seed(context.Background(), dir, participants, start, &skipped)
	if err != nil {
		t.Fatalf("second Seed() error = %v", err)
	}
	if claimed != 0 {
		t.Fatalf("second claimed = %d, want 0", claimed)
	}
	if !strings.Contains(skipped.String(), "skip ada") {
		t.Fatalf("skip log = %q", skipped.String())
	}
}

func TestDevTokenVerifies(t *testing.T) {
	t.Parallel()

	cfg := Config{
		SessionSecret: strings.Repeat("k", 32),
		SessionIssuer: "launchweek-auth",
		TokenUser:     "demo-ada",
		TokenTTL:      time.Hour,
	}
	token, err := DevToken(cfg, time.Now())
	if err != nil {
		t.Fatalf("DevToken() error = %v", err)
	}
	tokens, err := auth.NewTokens(cfg.SessionSecret, cfg.SessionIssuer)
	if err != nil {
		t.Fatalf("NewTokens() error = %v", err)
	}
	got, err := tokens.Verify(token)
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if got.UserID != "demo-ada" || got.ExpiresAt.IsZero() {
		t.Fatalf("session = %+v", got)
	}
}

func TestParseConfigFlags(t *testing.T) {
	fs := flag.NewFlagSet("seed", flag.ContinueOnError)
	cfg, err := ParseConfig(fs, []string{"-extra", "5", "-token-user", "demo-ada"})
	if err != nil {
		t.Fatalf("ParseConfig() error = %v", err)
	}
	if cfg.Extra != 5 || cfg.TokenUser != "demo-ada" {
		t.Fatalf("cfg = %+v", cfg)
	}
	if cfg.TokenTTL != 24*time.Hour {
		t.Fatalf("TokenTTL = %s, want 24h", cfg.TokenTTL)
	}

	fs = flag.NewFlagSet("seed", flag.ContinueOnError)
	if _, err := ParseConfig(fs, []string{"-extra", "-1"}); err == nil {
		t.Fatal("expected negative extra error")
	}
}
