package web

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/disgoorg/snowflake/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sneknetwork/snek/snek/command"
	"github.com/sneknetwork/snek/snek/infraction"
)

// commandsFake answers every command with the configured reply.
type commandsFake struct {
	reply   command.Reply
	err     error
	records []infraction.Record

	kind    infraction.Kind
	request command.Request
}

func (f *commandsFake) Apply(_ context.Context, kind infraction.Kind, r command.Request) (command.Reply, error) {
	f.kind, f.request = kind, r
	return f.reply, f.err
}

func (f *commandsFake) Pardon(_ context.Context, kind infraction.Kind, r command.Request) (command.Reply, error) {
	f.kind, f.request = kind, r
	return f.reply, f.err
}

func (f *commandsFake) History(_ context.Context, guild, user snowflake.ID) ([]infraction.Record, error) {
	f.request = command.Request{Guild: guild, Target: user}
	return f.records, f.err
}

func newTestServer(cmds Commands) *Server {
	return NewServer(slog.New(slog.NewTextHandler(io.Discard, nil)), ":0", "secret", cmds)
}

func serve(s *Server, method, target, body string, authorized bool) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if authorized {
		req.Header.Set("authorization", "secret")
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestUnauthorized(t *testing.T) {
	s := newTestServer(&commandsFake{})

	rec := serve(s, http.MethodGet, "/guilds/300/users/100/infractions", "", false)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "unauthorized", decode(t, rec)["error"])
}

func TestMetricsNeedNoAuthorization(t *testing.T) {
	s := newTestServer(&commandsFake{})

	rec := serve(s, http.MethodGet, "/metrics", "", false)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestApply(t *testing.T) {
	f := &commandsFake{reply: command.Reply{
		Status:  infraction.StatusApplied,
		Message: "📬 👌 Applied mute to <@100>.",
		Record:  &infraction.Record{ID: 9, Kind: infraction.Mute, User: 100, Actor: 200, Guild: 300, Active: true},
	}}
	s := newTestServer(f)

	rec := serve(s, http.MethodPost, "/guilds/300/infractions",
		`{"type":"mute","user":"100","actor":"200","reason":"spam","duration":"1d"}`, true)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	assert.Equal(t, infraction.Mute, f.kind)
	assert.Equal(t, command.Request{Guild: 300, Actor: 200, Target: 100, Reason: "spam", Duration: 24 * time.Hour}, f.request)

	body := decode(t, rec)
	assert.Equal(t, "applied", body["status"])
	assert.Equal(t, "📬 👌 Applied mute to <@100>.", body["message"])
	infr := body["infraction"].(map[string]any)
	assert.EqualValues(t, 9, infr["id"])
	assert.Equal(t, "mute", infr["type"])
	assert.Equal(t, true, infr["active"])
}

func TestApplyBadRequests(t *testing.T) {
	s := newTestServer(&commandsFake{})

	assert.Equal(t, http.StatusBadRequest, serve(s, http.MethodPost, "/guilds/abc/infractions", `{}`, true).Code)
	assert.Equal(t, http.StatusBadRequest, serve(s, http.MethodPost, "/guilds/300/infractions", `{"type":"superstar"}`, true).Code)
	assert.Equal(t, http.StatusBadRequest, serve(s, http.MethodPost, "/guilds/300/infractions", `{"type":"ban","duration":"soon"}`, true).Code)
}

func TestApplyFailures(t *testing.T) {
	tests := map[string]struct {
		reply command.Reply
		err   error
		code  int
	}{
		"not a member": {
			reply: command.Reply{Message: "❌ Failed to apply infraction."},
			err:   command.ErrNotMember,
			code:  http.StatusBadRequest,
		},
		"enforcement failed": {
			reply: command.Reply{Status: infraction.StatusCompensated, Message: "❌ Failed to apply infraction."},
			err:   &infraction.EnforcementError{RecordID: 7, Kind: infraction.Ban, Err: errors.New("missing permissions")},
			code:  http.StatusBadGateway,
		},
		"site api down": {
			reply: command.Reply{Message: "❌ Failed to apply infraction."},
			err:   errors.New("status: 503"),
			code:  http.StatusBadGateway,
		},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			s := newTestServer(&commandsFake{reply: tt.reply, err: tt.err})

			rec := serve(s, http.MethodPost, "/guilds/300/infractions", `{"type":"ban","user":"100","actor":"200"}`, true)
			assert.Equal(t, tt.code, rec.Code)
			body := decode(t, rec)
			assert.Equal(t, tt.reply.Message, body["message"])
			assert.Equal(t, tt.err.Error(), body["error"])
		})
	}
}

func TestPardon(t *testing.T) {
	tests := map[string]struct {
		status infraction.Status
		err    error
		code   int
	}{
		"pardoned":          {status: infraction.StatusPardoned, code: http.StatusOK},
		"nothing to pardon": {status: infraction.StatusNothingToPardon, code: http.StatusNotFound},
		"reversal failed":   {status: infraction.StatusReversalFailed, err: errors.New("unknown ban"), code: http.StatusBadGateway},
		"inconsistent":      {status: infraction.StatusInconsistent, err: errors.New("patch failed"), code: http.StatusInternalServerError},
		"not pardonable":    {err: command.ErrNotPardonable, code: http.StatusBadRequest},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			f := &commandsFake{reply: command.Reply{Status: tt.status}, err: tt.err}
			s := newTestServer(f)

			rec := serve(s, http.MethodDelete, "/guilds/300/infractions/force_nick/100?actor=200&reason=appealed", "", true)
			assert.Equal(t, tt.code, rec.Code)
			assert.Equal(t, infraction.ForceNick, f.kind)
			assert.Equal(t, command.Request{Guild: 300, Actor: 200, Target: 100, Reason: "appealed"}, f.request)
		})
	}
}

func TestPardonBadRequests(t *testing.T) {
	s := newTestServer(&commandsFake{})

	assert.Equal(t, http.StatusBadRequest, serve(s, http.MethodDelete, "/guilds/300/infractions/mute/100", "", true).Code)
	assert.Equal(t, http.StatusBadRequest, serve(s, http.MethodDelete, "/guilds/300/infractions/superstar/100?actor=200", "", true).Code)
	assert.Equal(t, http.StatusBadRequest, serve(s, http.MethodDelete, "/guilds/300/infractions/mute/abc?actor=200", "", true).Code)
}

func TestHistory(t *testing.T) {
	expires := time.Date(2026, 10, 21, 12, 0, 0, 0, time.UTC)
	f := &commandsFake{records: []infraction.Record{
		{ID: 1, Kind: infraction.Warning, User: 100, Guild: 300, Reason: "spam"},
		{ID: 2, Kind: infraction.Mute, User: 100, Guild: 300, Active: true, Expiry: infraction.ExpiresAt(expires)},
	}}
	s := newTestServer(f)

	rec := serve(s, http.MethodGet, "/guilds/300/users/100/infractions", "", true)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, command.Request{Guild: 300, Target: 100}, f.request)

	infractions := decode(t, rec)["infractions"].([]any)
	require.Len(t, infractions, 2)
	assert.Equal(t, "spam", infractions[0].(map[string]any)["reason"])
	assert.NotContains(t, infractions[0], "expires_at")
	assert.Equal(t, "2026-10-21T12:00:00Z", infractions[1].(map[string]any)["expires_at"])
}

func TestHistoryFailure(t *testing.T) {
	s := newTestServer(&commandsFake{err: errors.New("timeout")})

	rec := serve(s, http.MethodGet, "/guilds/300/users/100/infractions", "", true)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}
