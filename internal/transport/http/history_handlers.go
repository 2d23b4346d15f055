package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/unalone/chat-service/internal/core"
	"github.com/unalone/chat-service/internal/proto"
)

const maxHistoryLimit = 100

// ErrorResponse is the REST error body.
type ErrorResponse struct {
	Error string `json:"error"`
}

// HistoryResponse is one page of a room's backlog, oldest first, with a
// continuation flag indicating whether older pages remain. Messages use the
// same wire shape the WebSocket surface emits.
type HistoryResponse struct {
	Messages []proto.Message `json:"messages"`
	HasMore  bool            `json:"has_more"`
}

// HistoryHandlers serves the read-only paginated history surface.
type HistoryHandlers struct {
	pipeline *core.Pipeline
	log      *zerolog.Logger
}

// NewHistoryHandlers creates history handlers over the message pipeline.
func NewHistoryHandlers(pipeline *core.Pipeline, logger *zerolog.Logger) *HistoryHandlers {
	return &HistoryHandlers{pipeline: pipeline, log: logger}
}

// GlobalHistory handles GET /api/chat/global/history.
func (h *HistoryHandlers) GlobalHistory(c *gin.Context) {
	h.history(c, core.GlobalRoom())
}

// MeetupHistory handles GET /api/chat/meetup/:meetupId/history.
func (h *HistoryHandlers) MeetupHistory(c *gin.Context) {
	meetupID := c.Param("meetupId")
	if meetupID == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "meetup id is required"})
		return
	}
	h.history(c, core.MeetupRoom(meetupID))
}

func (h *HistoryHandlers) history(c *gin.Context, room core.RoomID) {
	page := queryInt(c, "page", 1)
	if page < 1 {
		page = 1
	}
	limit := queryInt(c, "limit", h.pipeline.HistoryLimit())
	if limit < 1 {
		limit = h.pipeline.HistoryLimit()
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}

	messages, hasMore, err := h.pipeline.History(c.Request.Context(), room, page, limit)
	if err != nil {
		h.log.Error().Err(err).Stringer("room", room).Msg("failed to load history")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	response := HistoryResponse{Messages: make([]proto.Message, 0, len(messages)), HasMore: hasMore}
	for i := range messages {
		response.Messages = append(response.Messages, messageToWire(&messages[i]))
	}
	c.JSON(http.StatusOK, response)
}

func queryInt(c *gin.Context, key string, fallback int) int {
	raw := c.Query(key)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}
