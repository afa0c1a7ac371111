package http

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/wirechat-client/internal/core"
)

// Chat is the consumer surface of the sync controller.
type Chat interface {
	Status() core.Status
	Roster() []string
	Messages() []core.Message
	AttemptJoin(ctx context.Context, name string) bool
	SubmitMessage(ctx context.Context, text string) bool
}

// ViewHandlers serves chat snapshots and actions over HTTP.
type ViewHandlers struct {
	chat    Chat
	limiter *rateLimiter
	log     *zerolog.Logger
}

// NewViewHandlers creates view handlers.
func NewViewHandlers(chat Chat, limiter *rateLimiter, logger *zerolog.Logger) *ViewHandlers {
	return &ViewHandlers{chat: chat, limiter: limiter, log: logger}
}

// JoinRequest is the body of POST /api/join.
type JoinRequest struct {
	Username string `json:"username"`
}

// SubmitRequest is the body of POST /api/messages.
type SubmitRequest struct {
	Text string `json:"text"`
}

// ActionResponse reports whether an action was taken. Blank input is not an
// error; it is simply not accepted.
type ActionResponse struct {
	Accepted bool `json:"accepted"`
}

// ErrorResponse represents an error response body.
type ErrorResponse struct {
	Error string `json:"error"`
}

// State returns identity, phase and connection state.
// GET /api/state
func (h *ViewHandlers) State(c *gin.Context) {
	c.JSON(http.StatusOK, stateFromStatus(h.chat.Status()))
}

// Roster returns the online participants.
// GET /api/roster
func (h *ViewHandlers) Roster(c *gin.Context) {
	c.JSON(http.StatusOK, RosterResponse{Users: h.chat.Roster()})
}

// Messages returns the message log.
// GET /api/messages
func (h *ViewHandlers) Messages(c *gin.Context) {
	c.JSON(http.StatusOK, messagesFromLog(h.chat.Messages(), h.chat.Status()))
}

// Join attempts to join with the given username.
// POST /api/join
func (h *ViewHandlers) Join(c *gin.Context) {
	var req JoinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Debug().Err(err).Msg("invalid join request")
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	accepted := h.chat.AttemptJoin(c.Request.Context(), req.Username)
	c.JSON(http.StatusAccepted, ActionResponse{Accepted: accepted})
}

// Submit sends a chat message. The message appears in GET /api/messages only
// after the server echoes it.
// POST /api/messages
func (h *ViewHandlers) Submit(c *gin.Context) {
	var req SubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Debug().Err(err).Msg("invalid submit request")
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}
	if !h.limiter.allow() {
		c.JSON(http.StatusTooManyRequests, ErrorResponse{Error: "rate limit exceeded"})
		return
	}

	accepted := h.chat.SubmitMessage(c.Request.Context(), req.Text)
	c.JSON(http.StatusAccepted, ActionResponse{Accepted: accepted})
}
