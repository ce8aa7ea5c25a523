package snek

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/disgoorg/snowflake/v2"
	"github.com/restartfu/gophig"

	"github.com/sneknetwork/snek/snek/api"
	"github.com/sneknetwork/snek/snek/discord"
	"github.com/sneknetwork/snek/snek/internal"
	"github.com/sneknetwork/snek/snek/util"
)

// DefaultConfigPath is where ReadConfig looks for the config when no path is given.
const DefaultConfigPath = "./config.toml"

// Config holds the service configuration.
type Config struct {
	Snek struct {
		SentryDsn   string
		Environment string
		LogLevel    string // Can be "debug", "info", "warn", "error"
		LogFormat   string // Can be "text", "json"
	}
	Service struct {
		GinAddress string
		APIKey     string

		SiteURL   string
		SiteToken string

		DiscordURL   string
		DiscordToken string

		RequestTimeout util.Duration
	}
	Moderation struct {
		// MuteRoles maps guild ids to the id of their mute role.
		MuteRoles               map[string]string
		BanDeleteMessageSeconds int
		ExpiryWorkers           int
		ExpiryLookahead         util.Duration
		ChannelCachePath        string
	}
}

// DefaultConfig returns a config with prefilled default values.
func DefaultConfig() Config {
	c := Config{}

	c.Snek.SentryDsn = ""
	c.Snek.Environment = "production"
	c.Snek.LogLevel = "info" // Default to info level in production
	c.Snek.LogFormat = "text"

	c.Service.GinAddress = ":8080"
	c.Service.APIKey = "secret-key"

	c.Service.SiteURL = api.DefaultSiteURL
	c.Service.DiscordURL = discord.DefaultURL
	c.Service.RequestTimeout = util.Duration(internal.DefaultRequestTimeout)

	c.Moderation.MuteRoles = map[string]string{}
	c.Moderation.BanDeleteMessageSeconds = 0
	c.Moderation.ExpiryWorkers = internal.DefaultExpiryWorkers
	c.Moderation.ExpiryLookahead = util.Duration(24 * time.Hour)
	c.Moderation.ChannelCachePath = "resources/cache/dm_channels.json"

	return c
}

// MuteRoles parses the configured mute roles.
func (c Config) MuteRoles() (map[snowflake.ID]snowflake.ID, error) {
	roles := make(map[snowflake.ID]snowflake.ID, len(c.Moderation.MuteRoles))
	for g, r := range c.Moderation.MuteRoles {
		guild, err := snowflake.Parse(g)
		if err != nil {
			return nil, fmt.Errorf("mute roles: invalid guild id %q: %w", g, err)
		}
		role, err := snowflake.Parse(r)
		if err != nil {
			return nil, fmt.Errorf("mute roles: invalid role id %q for guild %s: %w", r, g, err)
		}
		roles[guild] = role
	}
	return roles, nil
}

// ParseLogLevel returns the appropriate slog.Level based on string configuration.
// Returns an error if the provided log level string is not recognized.
func ParseLogLevel(level string) (slog.Level, error) {
	switch level {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unrecognized log level: %q", level)
	}
}

// NewLogger returns a logger writing to w with the configured level and format.
func NewLogger(w io.Writer, c Config) (*slog.Logger, error) {
	level, err := ParseLogLevel(c.Snek.LogLevel)
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: level}

	switch strings.ToLower(c.Snek.LogFormat) {
	case "", "text":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	}
	return nil, fmt.Errorf("unrecognized log format: %q", c.Snek.LogFormat)
}

// ReadConfig loads the configuration from the TOML file at path.
// If the file doesn't exist, it creates a new one with default values.
// Secrets set in the environment take precedence over the file.
func ReadConfig(path string) (Config, error) {
	if path == "" {
		path = DefaultConfigPath
	}
	g := gophig.NewGophig[Config](path, gophig.TOMLMarshaler{}, os.ModePerm)
	_, err := g.LoadConf()
	if os.IsNotExist(err) {
		err = g.SaveConf(DefaultConfig())
		if err != nil {
			return Config{}, err
		}
	}
	c, err := g.LoadConf()
	if err != nil {
		return Config{}, err
	}
	applyEnv(&c)
	return c, nil
}

// applyEnv overrides secrets and urls of c with those set in the environment.
func applyEnv(c *Config) {
	overrides := map[string]*string{
		"SNEK_API_TOKEN": &c.Service.SiteToken,
		"SNEK_SITE_URL":  &c.Service.SiteURL,
		"BOT_TOKEN":      &c.Service.DiscordToken,
		"SENTRY_DSN":     &c.Snek.SentryDsn,
	}
	for key, field := range overrides {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			*field = v
		}
	}
}
