package infraction

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
)

// Notice colours.
const (
	ColourInfraction = 0xe74c3c
	ColourPardon     = 0x2ecc71
)

// NoticeField is a name/value pair shown in a notice.
type NoticeField struct {
	Name  string
	Value string
}

// Notice is the private message sent to the subject of an infraction or pardon.
type Notice struct {
	Record Record
	Guild  Guild
	Pardon bool
	At     time.Time
}

// InfractionNotice returns the notice telling a user an infraction was applied to them.
func InfractionNotice(r Record, g Guild, at time.Time) Notice {
	return Notice{Record: r, Guild: g, At: at}
}

// PardonNotice returns the notice telling a user their infraction was pardoned.
func PardonNotice(r Record, g Guild, at time.Time) Notice {
	return Notice{Record: r, Guild: g, Pardon: true, At: at}
}

// Title ...
func (n Notice) Title() string {
	if n.Pardon {
		return n.Record.Kind.Title() + " Pardon"
	}
	return n.Record.Kind.Title() + " Infraction"
}

// Colour ...
func (n Notice) Colour() int {
	if n.Pardon {
		return ColourPardon
	}
	return ColourInfraction
}

// Description returns the body text of the notice, which may be empty.
func (n Notice) Description() string {
	if n.Pardon {
		return fmt.Sprintf("Your %s has been pardoned.", n.Record.Kind.Label())
	}
	if n.Record.Reason == "" {
		return ""
	}
	return "**Reason**\n" + n.Record.Reason
}

// Fields returns the fields of the notice. Only infraction notices of expiring infractions
// carry an expiry field.
func (n Notice) Fields() []NoticeField {
	fields := []NoticeField{
		{Name: "Guild", Value: n.Guild.Name},
		{Name: "Infraction Type", Value: n.Record.Kind.Title()},
	}
	if n.Pardon {
		return fields
	}
	if at, ok := n.Record.Expiry.Time(); ok {
		fields = append(fields, NoticeField{
			Name:  "Expires At",
			Value: humanize.RelTime(at, n.At, "ago", "from now"),
		})
	}
	return fields
}
