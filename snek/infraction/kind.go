package infraction

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Kind is the type of moderation action an infraction records.
type Kind uint8

const (
	Ban Kind = iota + 1
	Kick
	Mute
	Watch
	ForceNick
	Warning
	Note
)

// kindNames are the names the site API stores kinds under.
var kindNames = map[Kind]string{
	Ban:       "ban",
	Kick:      "kick",
	Mute:      "mute",
	Watch:     "watch",
	ForceNick: "force_nick",
	Warning:   "warning",
	Note:      "note",
}

var titleCaser = cases.Title(language.English)

// Kinds returns every kind in declaration order.
func Kinds() []Kind {
	return []Kind{Ban, Kick, Mute, Watch, ForceNick, Warning, Note}
}

// ParseKind parses the site API name of a kind, ignoring case.
func ParseKind(s string) (Kind, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for k, name := range kindNames {
		if name == s {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown infraction type %q", s)
}

// String returns the site API name of the kind.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// Valid reports whether k is one of the declared kinds.
func (k Kind) Valid() bool {
	_, ok := kindNames[k]
	return ok
}

// Label returns the kind as it reads in sentences, e.g. "force nick".
func (k Kind) Label() string {
	return strings.ReplaceAll(k.String(), "_", " ")
}

// Title returns the label in title case, e.g. "Force Nick".
func (k Kind) Title() string {
	return titleCaser.String(k.Label())
}

// Pardonable reports whether infractions of the kind stay in effect for a duration and can
// therefore be pardoned. Kicks, warnings and notes happen at a single point in time.
func (k Kind) Pardonable() bool {
	switch k {
	case Ban, Mute, Watch, ForceNick:
		return true
	case Kick, Warning, Note:
		return false
	}
	return false
}

// MarshalText ...
func (k Kind) MarshalText() ([]byte, error) {
	if !k.Valid() {
		return nil, fmt.Errorf("unknown infraction type %d", uint8(k))
	}
	return []byte(k.String()), nil
}

// UnmarshalText ...
func (k *Kind) UnmarshalText(text []byte) error {
	parsed, err := ParseKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}
