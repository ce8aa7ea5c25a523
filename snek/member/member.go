// Package member describes the users moderation commands act upon.
package member

import (
	"fmt"

	"github.com/disgoorg/snowflake/v2"
)

// User is a reference to a platform user in one of three resolution states: ResolvedMember,
// FetchedUser or ProxyReference. It is resolved once where a command enters the system and
// only read afterwards.
type User interface {
	// ID returns the platform id of the user.
	ID() snowflake.ID
	// Mention returns the mention form of the user, e.g. <@80351110224678912>.
	Mention() string
	// DisplayName returns the best known human-readable name of the user.
	DisplayName() string

	user()
}

// Mention returns the mention form of the user id.
func Mention(id snowflake.ID) string {
	return fmt.Sprintf("<@%s>", id)
}

// ResolvedMember is a user who is currently a member of the guild the command was used in.
type ResolvedMember struct {
	UserID    snowflake.ID
	GuildID   snowflake.ID
	Username  string
	Nick      string
	AvatarURL string
}

// ID ...
func (m ResolvedMember) ID() snowflake.ID { return m.UserID }

// Mention ...
func (m ResolvedMember) Mention() string { return Mention(m.UserID) }

// DisplayName returns the guild nickname of the member, falling back to the username.
func (m ResolvedMember) DisplayName() string {
	if m.Nick != "" {
		return m.Nick
	}
	return m.Username
}

func (ResolvedMember) user() {}

// FetchedUser is a platform user that was fetched by id, but is not a member of the guild.
type FetchedUser struct {
	UserID        snowflake.ID
	Username      string
	Discriminator string
	AvatarURL     string
}

// ID ...
func (u FetchedUser) ID() snowflake.ID { return u.UserID }

// Mention ...
func (u FetchedUser) Mention() string { return Mention(u.UserID) }

// DisplayName ...
func (u FetchedUser) DisplayName() string {
	if u.Discriminator != "" && u.Discriminator != "0" {
		return u.Username + "#" + u.Discriminator
	}
	return u.Username
}

func (FetchedUser) user() {}

// ProxyReference is a user known only by id, with whatever the site API knows about them.
// It is used when the platform cannot produce the user, most commonly for banned users.
type ProxyReference struct {
	UserID    snowflake.ID
	Name      string
	AvatarURL string
}

// ID ...
func (p ProxyReference) ID() snowflake.ID { return p.UserID }

// Mention ...
func (p ProxyReference) Mention() string { return Mention(p.UserID) }

// DisplayName returns the name stored by the site API, or the mention if there is none.
func (p ProxyReference) DisplayName() string {
	if p.Name != "" {
		return p.Name
	}
	return p.Mention()
}

func (ProxyReference) user() {}
