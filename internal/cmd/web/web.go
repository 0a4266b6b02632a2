// Package web parses launch week web flags and launches the service.
package web

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"strings"
	"time"

	entrypoint "github.com/louisbranch/launchweek/internal/platform/cmd"
	"github.com/louisbranch/launchweek/internal/platform/logging"
	"github.com/louisbranch/launchweek/internal/services/launchweek"
	"github.com/louisbranch/launchweek/internal/services/launchweek/auth"
	"github.com/louisbranch/launchweek/internal/services/launchweek/storage/driver"
	"go.uber.org/zap"
)

// Config holds web command configuration.
type Config struct {
	HTTPAddr  string `env:"LAUNCHWEEK_HTTP_ADDR" envDefault:"localhost:8080"`
	PublicURL string `env:"LAUNCHWEEK_PUBLIC_URL"`

	DirectoryDriver string `env:"LAUNCHWEEK_DIRECTORY_DRIVER" envDefault:"sqlite"`
	DirectoryDSN    string `env:"LAUNCHWEEK_DIRECTORY_DSN" envDefault:"data/launchweek.db"`

	SessionSecret string `env:"LAUNCHWEEK_SESSION_SECRET"`
	SessionIssuer string `env:"LAUNCHWEEK_SESSION_ISSUER" envDefault:"launchweek-auth"`
	HookSecret    string `env:"LAUNCHWEEK_HOOK_SECRET"`

	PresenceLimit   int           `env:"LAUNCHWEEK_PRESENCE_LIMIT" envDefault:"500"`
	PresenceTimeout time.Duration `env:"LAUNCHWEEK_PRESENCE_TIMEOUT" envDefault:"750ms"`
	GoldenThreshold int           `env:"LAUNCHWEEK_GOLDEN_THRESHOLD" envDefault:"3"`
	Heartbeat       time.Duration `env:"LAUNCHWEEK_STREAM_HEARTBEAT" envDefault:"25s"`

	TrustForwardedProto bool `env:"LAUNCHWEEK_TRUST_FORWARDED_PROTO"`

	LogLevel  string `env:"LAUNCHWEEK_LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LAUNCHWEEK_LOG_FORMAT" envDefault:"json"`
}

// ParseConfig parses environment and flags into Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	fs.StringVar(&cfg.HTTPAddr, "http-addr", cfg.HTTPAddr, "HTTP listen address")
	fs.StringVar(&cfg.PublicURL, "public-url", cfg.PublicURL, "Absolute site URL used in share links")
	fs.StringVar(&cfg.DirectoryDriver, "directory-driver", cfg.DirectoryDriver, "Participant directory driver (sqlite, postgres)")
	fs.StringVar(&cfg.DirectoryDSN, "directory-dsn", cfg.DirectoryDSN, "Participant directory path or DSN")
	fs.StringVar(&cfg.SessionIssuer, "session-issuer", cfg.SessionIssuer, "Expected session token issuer")
	fs.IntVar(&cfg.PresenceLimit, "presence-limit", cfg.PresenceLimit, "Maximum participants shown as presence")
	fs.DurationVar(&cfg.PresenceTimeout, "presence-timeout", cfg.PresenceTimeout, "Presence fetch timeout")
	fs.IntVar(&cfg.GoldenThreshold, "golden-threshold", cfg.GoldenThreshold, "Referrals that upgrade a ticket to golden (0 disables)")
	fs.DurationVar(&cfg.Heartbeat, "stream-heartbeat", cfg.Heartbeat, "Event stream keep-alive interval")
	fs.BoolVar(&cfg.TrustForwardedProto, "trust-forwarded-proto", cfg.TrustForwardedProto, "Trust X-Forwarded-Proto from the proxy")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level (debug, info, warn, error)")
	fs.StringVar(&cfg.LogFormat, "log-format", cfg.LogFormat, "Log format (json, console)")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports configuration that cannot start the service.
func (c Config) Validate() error {
	if strings.TrimSpace(c.HTTPAddr) == "" {
		return errors.New("http address is required")
	}
	if len(c.SessionSecret) < 32 {
		return errors.New("LAUNCHWEEK_SESSION_SECRET must be at least 32 bytes")
	}
	if c.PresenceLimit < 0 {
		return fmt.Errorf("presence limit must not be negative, got %d", c.PresenceLimit)
	}
	if c.PresenceTimeout < 0 {
		return fmt.Errorf("presence timeout must not be negative, got %s", c.PresenceTimeout)
	}
	return nil
}

// Run starts the launch week web service.
func Run(ctx context.Context, cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	return entrypoint.RunWithTelemetryAndOptions(ctx, entrypoint.ServiceWeb, entrypoint.RunOptions{Logger: logger}, func(ctx context.Context) error {
		tokens, err := auth.NewTokens(cfg.SessionSecret, cfg.SessionIssuer)
		if err != nil {
			return fmt.Errorf("init session tokens: %w", err)
		}
		directory, err := driver.Open(ctx, cfg.DirectoryDriver, cfg.DirectoryDSN)
		if err != nil {
			return err
		}
		defer func() {
			if err := directory.Close(); err != nil {
				logger.Warn("close directory", zap.Error(err))
			}
		}()

		server, err := launchweek.NewServer(ctx, launchweek.Config{
			HTTPAddr:            cfg.HTTPAddr,
			Directory:           directory,
			Tokens:              tokens,
			HookSecret:          cfg.HookSecret,
			PublicURL:           cfg.PublicURL,
			TrustForwardedProto: cfg.TrustForwardedProto,
			GoldenThreshold:     cfg.GoldenThreshold,
			PresenceLimit:       cfg.PresenceLimit,
			PresenceTimeout:     cfg.PresenceTimeout,
			Heartbeat:           cfg.Heartbeat,
			Logger:              logger,
		})
		if err != nil {
			return fmt.Errorf("init launch week server: %w", err)
		}
		defer server.Close()

		logger.Info("launch week listening",
			zap.String("addr", cfg.HTTPAddr),
			zap.String("directory_driver", cfg.DirectoryDriver),
		)
		if err := server.ListenAndServe(ctx); err != nil {
			return fmt.Errorf("serve launch week: %w", err)
		}
		return nil
	})
}
