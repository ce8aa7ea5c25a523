package infraction

import (
	"errors"
	"fmt"
	"time"

	"github.com/disgoorg/snowflake/v2"

	"github.com/sneknetwork/snek/snek/member"
)

// ErrInvalidPayload is returned when a payload is missing required fields.
var ErrInvalidPayload = errors.New("invalid infraction payload")

// Visibility decides whether the subject of an infraction is told about it.
type Visibility uint8

const (
	// Notify sends the subject a private notice.
	Notify Visibility = iota
	// Hidden keeps the infraction from the subject, e.g. internal notes.
	Hidden
)

// Expiry is the point at which an infraction stops being in effect. The zero value is a
// permanent infraction.
type Expiry struct {
	at time.Time
}

// Permanent returns an expiry that never passes.
func Permanent() Expiry {
	return Expiry{}
}

// ExpiresAt returns an expiry at t.
func ExpiresAt(t time.Time) Expiry {
	return Expiry{at: t.UTC()}
}

// Permanent reports whether the expiry never passes.
func (e Expiry) Permanent() bool {
	return e.at.IsZero()
}

// Time returns the expiry time, or false if the expiry is permanent.
func (e Expiry) Time() (time.Time, bool) {
	return e.at, !e.at.IsZero()
}

// Passed reports whether the expiry is at or before now.
func (e Expiry) Passed(now time.Time) bool {
	return !e.Permanent() && !e.at.After(now)
}

// Guild is the group an infraction was given in.
type Guild struct {
	ID      snowflake.ID
	Name    string
	IconURL string
}

// Record is an infraction as stored by the site API. ID is non-zero exactly when the record
// has been persisted.
type Record struct {
	ID         int
	Kind       Kind
	User       snowflake.ID
	Actor      snowflake.ID
	Guild      snowflake.ID
	Reason     string
	Expiry     Expiry
	Active     bool
	Visibility Visibility
}

// Persisted reports whether the site API has assigned the record an id.
func (r Record) Persisted() bool {
	return r.ID != 0
}

// Hidden reports whether the subject of the record is not notified.
func (r Record) Hidden() bool {
	return r.Visibility == Hidden
}

// Payload is an infraction about to be applied.
type Payload struct {
	Kind       Kind
	Target     member.User
	Actor      member.User
	Guild      Guild
	Reason     string
	Expiry     Expiry
	Visibility Visibility
}

// validate ...
func (p Payload) validate() error {
	switch {
	case !p.Kind.Valid():
		return fmt.Errorf("%w: unknown type %d", ErrInvalidPayload, uint8(p.Kind))
	case p.Target == nil:
		return fmt.Errorf("%w: no target user", ErrInvalidPayload)
	case p.Actor == nil:
		return fmt.Errorf("%w: no actor", ErrInvalidPayload)
	case p.Guild.ID == 0:
		return fmt.Errorf("%w: no guild", ErrInvalidPayload)
	}
	return nil
}

// record returns the unpersisted record for the payload. Point-in-time kinds are never
// active; durational kinds are active until pardoned or expired.
func (p Payload) record() Record {
	return Record{
		Kind:       p.Kind,
		User:       p.Target.ID(),
		Actor:      p.Actor.ID(),
		Guild:      p.Guild.ID,
		Reason:     p.Reason,
		Expiry:     p.Expiry,
		Active:     p.Kind.Pardonable(),
		Visibility: p.Visibility,
	}
}

// Filter selects records from the site API. Nil fields are not filtered on.
type Filter struct {
	User   *snowflake.ID
	Guild  *snowflake.ID
	Kind   *Kind
	Active *bool
	Hidden *bool
}

// Patch holds the fields of a partial record update. Nil fields are left unchanged.
type Patch struct {
	Active *bool
	Reason *string
}
