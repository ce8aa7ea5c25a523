package discord

import (
	"context"
	"time"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/snowflake/v2"
)

// maxDeleteMessageSeconds is the longest message history Discord deletes on a ban.
const maxDeleteMessageSeconds = 7 * 24 * 60 * 60

// Ban bans user from guild and deletes their messages of the last deleteMessageSeconds.
func (c *Client) Ban(ctx context.Context, guild, user snowflake.ID, reason string, deleteMessageSeconds int) error {
	if err := c.check(); err != nil {
		return err
	}
	deleteMessageSeconds = min(max(deleteMessageSeconds, 0), maxDeleteMessageSeconds)
	return classify(c.rest.AddBan(guild, user, time.Duration(deleteMessageSeconds)*time.Second, c.opts(ctx, reason)...))
}

// Unban lifts the ban of user in guild.
func (c *Client) Unban(ctx context.Context, guild, user snowflake.ID, reason string) error {
	if err := c.check(); err != nil {
		return err
	}
	return classify(c.rest.DeleteBan(guild, user, c.opts(ctx, reason)...))
}

// Kick removes user from guild.
func (c *Client) Kick(ctx context.Context, guild, user snowflake.ID, reason string) error {
	if err := c.check(); err != nil {
		return err
	}
	return classify(c.rest.RemoveMember(guild, user, c.opts(ctx, reason)...))
}

// AddRole gives user role in guild.
func (c *Client) AddRole(ctx context.Context, guild, user, role snowflake.ID, reason string) error {
	if err := c.check(); err != nil {
		return err
	}
	return classify(c.rest.AddMemberRole(guild, user, role, c.opts(ctx, reason)...))
}

// RemoveRole takes role from user in guild.
func (c *Client) RemoveRole(ctx context.Context, guild, user, role snowflake.ID, reason string) error {
	if err := c.check(); err != nil {
		return err
	}
	return classify(c.rest.RemoveMemberRole(guild, user, role, c.opts(ctx, reason)...))
}

// SetNickname changes the nickname of user in guild. An empty nick resets it.
func (c *Client) SetNickname(ctx context.Context, guild, user snowflake.ID, nick, reason string) error {
	if err := c.check(); err != nil {
		return err
	}
	_, err := c.rest.UpdateMember(guild, user, discord.MemberUpdate{Nick: &nick}, c.opts(ctx, reason)...)
	return classify(err)
}
