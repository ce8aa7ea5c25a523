package infraction

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestInfractionNotice(t *testing.T) {
	now := time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC)
	r := Record{ID: 1, Kind: Mute, Reason: "spamming", Expiry: ExpiresAt(now.Add(72 * time.Hour))}
	n := InfractionNotice(r, Guild{ID: 1, Name: "Snek Network"}, now)

	assert.Equal(t, "Mute Infraction", n.Title())
	assert.Equal(t, ColourInfraction, n.Colour())
	assert.Equal(t, "**Reason**\nspamming", n.Description())
	assert.Equal(t, []NoticeField{
		{Name: "Guild", Value: "Snek Network"},
		{Name: "Infraction Type", Value: "Mute"},
		{Name: "Expires At", Value: "3 days from now"},
	}, n.Fields())
}

func TestInfractionNoticeWithoutReasonOrExpiry(t *testing.T) {
	n := InfractionNotice(Record{Kind: Warning}, Guild{Name: "Snek Network"}, time.Now())

	assert.Empty(t, n.Description())
	assert.Len(t, n.Fields(), 2)
}

func TestPardonNotice(t *testing.T) {
	now := time.Now()
	r := Record{Kind: ForceNick, Expiry: ExpiresAt(now.Add(time.Hour))}
	n := PardonNotice(r, Guild{Name: "Snek Network"}, now)

	assert.Equal(t, "Force Nick Pardon", n.Title())
	assert.Equal(t, ColourPardon, n.Colour())
	assert.Equal(t, "Your force nick has been pardoned.", n.Description())
	assert.Len(t, n.Fields(), 2)
}

func TestExpiry(t *testing.T) {
	now := time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC)

	assert.True(t, Permanent().Permanent())
	assert.False(t, Permanent().Passed(now))

	e := ExpiresAt(now)
	assert.True(t, e.Passed(now))
	assert.False(t, e.Passed(now.Add(-time.Second)))
	at, ok := e.Time()
	assert.True(t, ok)
	assert.True(t, at.Equal(now))
}
