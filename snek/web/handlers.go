package web

import (
	"errors"
	"net/http"
	"time"

	"github.com/disgoorg/snowflake/v2"
	"github.com/gin-gonic/gin"
	"github.com/samber/lo"

	"github.com/sneknetwork/snek/snek/command"
	"github.com/sneknetwork/snek/snek/infraction"
	"github.com/sneknetwork/snek/snek/member"
	"github.com/sneknetwork/snek/snek/util"
)

// applyRequest is the body of an apply request.
type applyRequest struct {
	Type     infraction.Kind `json:"type"`
	User     snowflake.ID    `json:"user"`
	Actor    snowflake.ID    `json:"actor"`
	Reason   string          `json:"reason"`
	Duration *util.Duration  `json:"duration"`
	Nickname string          `json:"nickname"`
}

// recordView is an infraction as returned by the server.
type recordView struct {
	ID        int             `json:"id"`
	Type      infraction.Kind `json:"type"`
	User      snowflake.ID    `json:"user"`
	Actor     snowflake.ID    `json:"actor"`
	Guild     snowflake.ID    `json:"guild"`
	Reason    string          `json:"reason,omitempty"`
	ExpiresAt *time.Time      `json:"expires_at,omitempty"`
	Active    bool            `json:"active"`
	Hidden    bool            `json:"hidden"`
}

func newRecordView(r infraction.Record) recordView {
	v := recordView{
		ID:     r.ID,
		Type:   r.Kind,
		User:   r.User,
		Actor:  r.Actor,
		Guild:  r.Guild,
		Reason: r.Reason,
		Active: r.Active,
		Hidden: r.Hidden(),
	}
	if at, ok := r.Expiry.Time(); ok {
		v.ExpiresAt = &at
	}
	return v
}

func (s *Server) apply(c *gin.Context) {
	guild, err := snowflake.Parse(c.Param("guild"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid guild id"})
		return
	}
	var req applyRequest
	if err = c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	r := command.Request{
		Guild:    guild,
		Actor:    req.Actor,
		Target:   req.User,
		Reason:   req.Reason,
		Nickname: req.Nickname,
	}
	if req.Duration != nil {
		r.Duration = req.Duration.Std()
	}

	reply, err := s.cmds.Apply(c.Request.Context(), req.Type, r)
	s.respond(c, reply, err)
}

func (s *Server) pardon(c *gin.Context) {
	guild, err := snowflake.Parse(c.Param("guild"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid guild id"})
		return
	}
	user, err := snowflake.Parse(c.Param("user"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}
	kind, err := infraction.ParseKind(c.Param("type"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	actor, err := snowflake.Parse(c.Query("actor"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid actor id"})
		return
	}

	reply, err := s.cmds.Pardon(c.Request.Context(), kind, command.Request{
		Guild:  guild,
		Actor:  actor,
		Target: user,
		Reason: c.Query("reason"),
	})
	s.respond(c, reply, err)
}

func (s *Server) history(c *gin.Context) {
	guild, err := snowflake.Parse(c.Param("guild"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid guild id"})
		return
	}
	user, err := snowflake.Parse(c.Param("user"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}

	records, err := s.cmds.History(c.Request.Context(), guild, user)
	if err != nil {
		s.log.Error("failed to fetch infraction history", "user", user, "guild", guild, "error", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "failed to fetch infractions"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"infractions": lo.Map(records, func(r infraction.Record, _ int) recordView {
		return newRecordView(r)
	})})
}

// respond writes the reply of a command with the status matching its outcome.
func (s *Server) respond(c *gin.Context, reply command.Reply, err error) {
	body := gin.H{"status": reply.Status, "message": reply.Message}
	if reply.Record != nil {
		body["infraction"] = newRecordView(*reply.Record)
	}
	if err != nil {
		body["error"] = err.Error()
	}
	c.JSON(statusCode(reply.Status, err), body)
}

// statusCode maps the outcome of a command to an HTTP status.
func statusCode(status infraction.Status, err error) int {
	switch status {
	case infraction.StatusApplied, infraction.StatusPardoned:
		return http.StatusOK
	case infraction.StatusNothingToPardon:
		return http.StatusNotFound
	case infraction.StatusInconsistent:
		return http.StatusInternalServerError
	case infraction.StatusCompensated, infraction.StatusOrphaned, infraction.StatusReversalFailed:
		return http.StatusBadGateway
	}

	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, command.ErrNotMember),
		errors.Is(err, command.ErrNoMuteRole),
		errors.Is(err, command.ErrNoNickname),
		errors.Is(err, command.ErrNoReason),
		errors.Is(err, command.ErrNotPardonable),
		errors.Is(err, infraction.ErrInvalidPayload),
		errors.Is(err, member.ErrUnknownUser):
		return http.StatusBadRequest
	}
	return http.StatusBadGateway
}
