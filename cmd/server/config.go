package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Environment modes. Development surfaces unexpected errors verbatim and
// shortens the idle-session default.
const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Default session TTL per environment when --session-ttl is not given
const (
	devSessionTTL  = 10 * time.Minute
	prodSessionTTL = 6 * time.Hour
)

type config struct {
	bind        string
	port        int
	storage     string
	redisURL    string
	sessionTTL  time.Duration
	environment string
}

func (c *config) validate() error {
	if c.port < 1 || c.port > 65535 {
		return fmt.Errorf("invalid port (must be between 1-65535 inclusive): %d", c.port)
	}
	if c.environment != EnvDevelopment && c.environment != EnvProduction {
		return fmt.Errorf("invalid environment (must be development or production): %s", c.environment)
	}
	return nil
}

func (c *config) development() bool {
	return c.environment == EnvDevelopment
}

// effectiveTTL resolves the idle-session duration, falling back to the
// environment's default when unset.
func (c *config) effectiveTTL() time.Duration {
	if c.sessionTTL > 0 {
		return c.sessionTTL
	}
	if c.development() {
		return devSessionTTL
	}
	return prodSessionTTL
}

func newCmd(cfg *config) *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("QUORUM")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cmd := &cobra.Command{
		Use:           "quorum",
		Short:         "Session coordination server for realtime multiplayer games.",
		Args:          cobra.ExactArgs(0),
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.validate(); err != nil {
				return err
			}
			return run(cmd.Context(), cfg)
		},
	}

	fs := cmd.Flags()

	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	fs.StringVarP(&cfg.bind, "bind", "b", "", "address to bind to (env: QUORUM_BIND)")
	fs.IntVarP(&cfg.port, "port", "p", 8080, "port to listen on (env: QUORUM_PORT)")
	fs.StringVar(&cfg.storage, "storage", "memory", "storage backend, memory or redis (env: QUORUM_STORAGE)")
	fs.StringVar(&cfg.redisURL, "redis-url", "redis://localhost:6379", "redis connection URL (env: QUORUM_REDIS_URL)")
	fs.DurationVar(&cfg.sessionTTL, "session-ttl", 0, "time before idle sessions are destroyed; 0 uses the environment default (env: QUORUM_SESSION_TTL)")
	fs.StringVar(&cfg.environment, "environment", EnvDevelopment, "development or production (env: QUORUM_ENVIRONMENT)")

	fs.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
		_ = v.BindEnv(f.Name)
		if !f.Changed && v.IsSet(f.Name) {
			_ = fs.Set(f.Name, fmt.Sprintf("%v", v.Get(f.Name)))
		}
	})

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SetHelpCommand(&cobra.Command{Hidden: true})

	return cmd
}
