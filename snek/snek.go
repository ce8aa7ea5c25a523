// Package snek wires the moderation service together: the site API client, the Discord
// client, the infraction engine, the moderation commands and the HTTP server.
package snek

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/df-mc/atomic"
	"github.com/hashicorp/go-cleanhttp"

	"github.com/sneknetwork/snek/snek/api"
	"github.com/sneknetwork/snek/snek/command"
	"github.com/sneknetwork/snek/snek/discord"
	"github.com/sneknetwork/snek/snek/infraction"
	"github.com/sneknetwork/snek/snek/internal"
	"github.com/sneknetwork/snek/snek/member"
	"github.com/sneknetwork/snek/snek/scheduler"
	"github.com/sneknetwork/snek/snek/web"
)

// Snek represents the moderation service.
// It holds configuration, logging, and manages the service components.
type Snek struct {
	log  *slog.Logger
	conf Config

	discord  *discord.Client
	expiries *scheduler.Scheduler[int]

	moderation *command.Moderation
	web        *web.Server

	closed atomic.Bool
}

// NewSnek creates a new instance of Snek.
func NewSnek(log *slog.Logger, conf Config) (*Snek, error) {
	roles, err := conf.MuteRoles()
	if err != nil {
		return nil, err
	}

	channels := discord.NewMemoryChannelCache()
	if path := conf.Moderation.ChannelCachePath; path != "" {
		if channels, err = discord.NewChannelCache(log, path); err != nil {
			return nil, fmt.Errorf("load dm channel cache: %w", err)
		}
	}

	timeout := conf.Service.RequestTimeout.Std()
	if timeout <= 0 {
		timeout = internal.DefaultRequestTimeout
	}

	// Both APIs share one connection pool.
	transport := cleanhttp.DefaultPooledTransport()

	dc := discord.NewClient(log, conf.Service.DiscordURL, conf.Service.DiscordToken,
		&http.Client{Transport: transport, Timeout: timeout}, channels)
	site := api.NewClient(log, conf.Service.SiteURL, conf.Service.SiteToken,
		api.WithTransport(transport),
		api.WithTimeout(timeout),
		api.WithRetries(internal.MaxHTTPRetries, internal.RetryWaitMin, internal.RetryWaitMax),
	)
	store := site.Infractions()

	engine := infraction.NewEngine(log.With("subsystem", "infraction"), store, dc.Notifier())
	resolver := member.NewResolver(log, dc, dc, site)
	expiries, err := scheduler.New[int](log, "infraction expiry")
	if err != nil {
		return nil, err
	}

	mod := command.NewModeration(log.With("subsystem", "moderation"), command.Config{
		MuteRoles:               roles,
		BanDeleteMessageSeconds: conf.Moderation.BanDeleteMessageSeconds,
		ExpiryWorkers:           conf.Moderation.ExpiryWorkers,
		ExpiryLookahead:         conf.Moderation.ExpiryLookahead.Std(),
	}, engine, dc, dc, dc, resolver, store, expiries)

	return &Snek{
		log:        log,
		conf:       conf,
		discord:    dc,
		expiries:   expiries,
		moderation: mod,
		web:        web.NewServer(log, conf.Service.GinAddress, conf.Service.APIKey, mod),
	}, nil
}

// Moderation returns the moderation commands of the service.
func (s *Snek) Moderation() *command.Moderation {
	return s.moderation
}

// Start loads pending expirations and serves HTTP until ctx is done, then shuts the server
// down and closes the service.
func (s *Snek) Start(ctx context.Context) error {
	s.log.Info("Starting Snek...")
	defer s.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go s.moderation.RunExpirations(ctx)

	errs := make(chan error, 1)
	go func() {
		errs <- s.web.ListenAndServe()
	}()

	select {
	case err := <-errs:
		return err
	case <-ctx.Done():
	}

	sctx, scancel := context.WithTimeout(context.WithoutCancel(ctx), internal.ShutdownTimeout)
	defer scancel()
	if err := s.web.Shutdown(sctx); err != nil {
		return fmt.Errorf("shutdown web server: %w", err)
	}
	return <-errs
}

// Close closes the service and all its associated components. Pending expirations are
// dropped and picked up again on the next start.
func (s *Snek) Close() {
	if !s.closed.CAS(false, true) {
		return
	}
	s.log.Debug("Stopping Expiry Scheduler...")
	s.expiries.Close()
	s.log.Debug("Closing Discord Client...")
	s.discord.Close()
}
