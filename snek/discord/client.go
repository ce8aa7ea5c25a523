// Package discord adapts the Discord REST API to what moderation needs: bans, kicks, roles,
// nicknames, lookups and direct messages.
package discord

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/df-mc/atomic"
	"github.com/disgoorg/disgo/rest"
	"github.com/hashicorp/go-cleanhttp"

	"github.com/sneknetwork/snek/snek/internal"
)

// DefaultURL is the base url of the Discord REST API.
const DefaultURL = "https://discord.com/api/v10"

// Client represents a client of the Discord REST API authenticated as a bot.
type Client struct {
	closed atomic.Bool

	client rest.Client
	rest   rest.Rest

	log      *slog.Logger
	channels *ChannelCache
}

// NewClient returns a client of the Discord API at baseURL sending requests with httpClient.
// httpClient and channels may be nil, in which case a pooled client is used and DM channels
// are only cached in memory.
func NewClient(log *slog.Logger, baseURL, token string, httpClient *http.Client, channels *ChannelCache) *Client {
	if baseURL == "" {
		baseURL = DefaultURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Transport: cleanhttp.DefaultPooledTransport(), Timeout: internal.DefaultRequestTimeout}
	}
	if channels == nil {
		channels = NewMemoryChannelCache()
	}
	log = log.With("subsystem", "discord")

	client := rest.NewClient(token,
		rest.WithURL(strings.TrimRight(baseURL, "/")),
		rest.WithHTTPClient(httpClient),
		rest.WithLogger(log),
	)
	return &Client{
		client:   client,
		rest:     rest.New(client),
		log:      log,
		channels: channels,
	}
}

// Close stops the client from making further requests and waits for pending ones.
func (c *Client) Close() {
	if !c.closed.CAS(false, true) {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), internal.CleanupTimeout)
	defer cancel()
	c.client.Close(ctx)
}

// opts returns the options of a request made with ctx. reason, if set, is shown in the guild
// audit log.
func (c *Client) opts(ctx context.Context, reason string) []rest.RequestOpt {
	opts := []rest.RequestOpt{rest.WithCtx(ctx)}
	if reason != "" {
		opts = append(opts, rest.WithReason(reason))
	}
	return opts
}

// check returns ErrClosed once the client was closed.
func (c *Client) check() error {
	if c.closed.Load() {
		return ErrClosed
	}
	return nil
}
