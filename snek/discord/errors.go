package discord

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/disgoorg/disgo/rest"

	"github.com/sneknetwork/snek/snek/member"
)

// JSON error codes returned by the Discord API.
const (
	CodeUnknownGuild      = 10004
	CodeUnknownMember     = 10007
	CodeUnknownUser       = 10013
	CodeUnknownBan        = 10026
	CodeMissingAccess     = 50001
	CodeCannotMessageUser = 50007
	CodeMissingPermission = 50013
)

// ErrClosed is returned for requests made after the client was closed.
var ErrClosed = errors.New("discord client is closed")

// restError returns the Discord API error err wraps, if any.
func restError(err error) (*rest.Error, bool) {
	var rErr *rest.Error
	if !errors.As(err, &rErr) {
		return nil, false
	}
	return rErr, true
}

// status returns the HTTP status of e, or zero if there was no response.
func status(e *rest.Error) int {
	if e.Response == nil {
		return 0
	}
	return e.Response.StatusCode
}

// classify wraps errors about unknown members and users in member.ErrNotFound, so that
// callers can tell them from other failures without knowing Discord error codes.
func classify(err error) error {
	rErr, ok := restError(err)
	if !ok {
		return err
	}
	switch int(rErr.Code) {
	case CodeUnknownMember, CodeUnknownUser:
		return fmt.Errorf("%w: %w", member.ErrNotFound, err)
	}
	return err
}

// undeliverable reports whether err is one of the expected reasons a direct message cannot
// be sent: the user does not allow messages from the bot, is gone, or Discord is having
// trouble.
func undeliverable(err error) bool {
	rErr, ok := restError(err)
	if !ok {
		// Transport failures and timeouts.
		return !errors.Is(err, ErrClosed)
	}
	switch code, st := int(rErr.Code), status(rErr); {
	case code == CodeCannotMessageUser, code == CodeUnknownUser, code == CodeMissingAccess:
		return true
	case st == http.StatusForbidden, st == http.StatusNotFound:
		return true
	case st == http.StatusTooManyRequests, st >= http.StatusInternalServerError:
		return true
	}
	return false
}
