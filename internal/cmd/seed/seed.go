// Package seed populates a local participant directory with demo tickets.
package seed

import (
	"context"
	_ "embed"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"
	"time"

	entrypoint "github.com/louisbranch/launchweek/internal/platform/cmd"
	"github.com/louisbranch/launchweek/internal/services/launchweek/auth"
	"github.com/louisbranch/launchweek/internal/services/launchweek/session"
	"github.com/louisbranch/launchweek/internal/services/launchweek/storage"
	"github.com/louisbranch/launchweek/internal/services/launchweek/storage/driver"
	"gopkg.in/yaml.v3"
)

//go:embed participants.yaml
var participantsYAML []byte

// Config holds seed command configuration.
type Config struct {
	DirectoryDriver string `env:"LAUNCHWEEK_DIRECTORY_DRIVER" envDefault:"sqlite"`
	DirectoryDSN    string `env:"LAUNCHWEEK_DIRECTORY_DSN" envDefault:"data/launchweek.db"`
	SessionSecret   string `env:"LAUNCHWEEK_SESSION_SECRET"`
	SessionIssuer   string `env:"LAUNCHWEEK_SESSION_ISSUER" envDefault:"launchweek-auth"`

	// Extra adds generated participants after the demo fixtures.
	Extra int
	// TokenUser, when set, prints a session token for that user id.
	TokenUser string
	TokenTTL  time.Duration
}

// Participant is one demo fixture entry.
type Participant struct {
	UserID            string `yaml:"user_id"`
	Username          string `yaml:"username"`
	Name              string `yaml:"name"`
	Golden            bool   `yaml:"golden"`
	ReferredBy        string `yaml:"referred_by"`
	BackgroundVariant *int   `yaml:"background_variant"`
}

type fixtureFile struct {
	Participants []Participant `yaml:"participants"`
}

// ParseConfig parses environment and flags into Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	cfg.TokenTTL = 24 * time.Hour
	fs.StringVar(&cfg.DirectoryDriver, "directory-driver", cfg.DirectoryDriver, "Participant directory driver (sqlite, postgres)")
	fs.StringVar(&cfg.DirectoryDSN, "directory-dsn", cfg.DirectoryDSN, "Participant directory path or DSN")
	fs.IntVar(&cfg.Extra, "extra", 0, "number of generated participants to add after the fixtures")
	fs.StringVar(&cfg.TokenUser, "token-user", "", "print a development session token for this user id")
	fs.DurationVar(&cfg.TokenTTL, "token-ttl", cfg.TokenTTL, "development session token lifetime")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	if cfg.Extra < 0 {
		return Config{}, fmt.Errorf("extra must not be negative, got %d", cfg.Extra)
	}
	return cfg, nil
}

// LoadParticipants decodes the embedded demo fixtures.
func LoadParticipants() ([]Participant, error) {
	return parseParticipants(participantsYAML)
}

func parseParticipants(data []byte) ([]Participant, error) {
	var file fixtureFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("decode participants: %w", err)
	}
	seen := make(map[string]bool, len(file.Participants))
	for i, p := range file.Participants {
		if strings.TrimSpace(p.UserID) == "" || strings.TrimSpace(p.Username) == "" {
			return nil, fmt.Errorf("participant %d: user_id and username are required", i)
		}
		if p.ReferredBy != "" && !seen[p.ReferredBy] {
			return nil, fmt.Errorf("participant %q: referrer %q must be listed earlier", p.Username, p.ReferredBy)
		}
		seen[p.Username] = true
	}
	return file.Participants, nil
}

// Generated returns n synthetic participants with stable identities.
func Generated(n int) []Participant {
	out := make([]Participant, 0, n)
	for i := 1; i <= n; i++ {
		out = append(out, Participant{
			UserID:   fmt.Sprintf("demo-guest-%04d", i),
			Username: fmt.Sprintf("guest-%04d", i),
			Name:     fmt.Sprintf("Guest %d", i),
		})
	}
	return out
}

// Run executes the seed command.
func Run(ctx context.Context, cfg Config, out io.Writer, errOut io.Writer) error {
	if out == nil {
		out = io.Discard
	}
	if errOut == nil {
		errOut = io.Discard
	}
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceSeed, func(ctx context.Context) error {
		participants, err := LoadParticipants()
		if err != nil {
			return err
		}
		participants = append(participants, Generated(cfg.Extra)...)

		directory, err := driver.Open(ctx, cfg.DirectoryDriver, cfg.DirectoryDSN)
		if err != nil {
			return err
		}
		defer directory.Close()

		claimed, err := Seed(ctx, directory, participants, time.Now().UTC(), errOut)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Seeded %d participants (%d already present)\n", claimed, len(participants)-claimed)

		if strings.TrimSpace(cfg.TokenUser) != "" {
			token, err := DevToken(cfg, time.Now())
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Session token for %s:\n%s\n", cfg.TokenUser, token)
		}
		return nil
	})
}

// Seed claims each participant in order, one second apart so listings are
// stable. Participants already present are skipped.
func Seed(ctx context.Context, directory storage.Directory, participants []Participant, start time.Time, errOut io.Writer) (int, error) {
	if directory == nil {
		return 0, errors.New("directory is required")
	}
	if errOut == nil {
		errOut = io.Discard
	}
	claimed := 0
	for i, p := range participants {
		_, err := directory.ClaimTicket(ctx, storage.ClaimInput{
			UserID:            p.UserID,
			Username:          p.Username,
			Name:              p.Name,
			ReferredBy:        p.ReferredBy,
			Golden:            p.Golden,
			BackgroundVariant: p.BackgroundVariant,
			CreatedAt:         start.Add(time.Duration(i) * time.Second),
		})
		switch {
		case err == nil:
			claimed++
		case errors.Is(err, storage.ErrAlreadyExists):
			fmt.Fprintf(errOut, "skip %s: already claimed\n", p.Username)
		default:
			return claimed, fmt.Errorf("claim %s: %w", p.Username, err)
		}
	}
	return claimed, nil
}

// DevToken signs a session token for cfg.TokenUser.
func DevToken(cfg Config, now time.Time) (string, error) {
	tokens, err := auth.NewTokens(cfg.SessionSecret, cfg.SessionIssuer)
	if err != nil {
		return "", fmt.Errorf("init session tokens: %w", err)
	}
	current := session.Session{
		ID:     "dev-" + strings.TrimSpace(cfg.TokenUser),
		UserID: strings.TrimSpace(cfg.TokenUser),
	}
	if cfg.TokenTTL > 0 {
		current.ExpiresAt = now.Add(cfg.TokenTTL)
	}
	return tokens.Issue(current)
}
