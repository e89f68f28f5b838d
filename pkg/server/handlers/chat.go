// Package handlers implements the HTTP endpoint handlers.
package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/knnymrls/whoknows"
)

// ChatHandler serves the chat endpoints.
type ChatHandler struct {
	asker  whoknows.Asker
	logger *slog.Logger
}

// NewChatHandler creates a chat handler.
func NewChatHandler(asker whoknows.Asker, logger *slog.Logger) *ChatHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ChatHandler{asker: asker, logger: logger}
}

// Chat handles POST /api/v1/chat, returning one JSON response after full
// synthesis.
func (h *ChatHandler) Chat(c *gin.Context) {
	req, ok := h.bindRequest(c)
	if !ok {
		return
	}

	response, err := h.asker.Ask(c.Request.Context(), req)
	if err != nil {
		h.logger.Error("chat request failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, response)
}

// ChatStream handles POST /api/v1/chat/stream, emitting SSE frames in
// order: status* -> token* -> sources -> done, or a single error frame on
// failure. Each frame is flushed before the next is produced.
func (h *ChatHandler) ChatStream(c *gin.Context) {
	req, ok := h.bindRequest(c)
	if !ok {
		return
	}

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.WriteHeader(http.StatusOK)
	c.Writer.Flush()

	clientGone := c.Request.Context().Done()
	sink := func(event whoknows.StreamEvent) error {
		select {
		case <-clientGone:
			// Client disconnected; stop producing without writing to a
			// closed stream.
			return errClientGone
		default:
		}
		return writeSSE(c.Writer, event)
	}

	if err := h.asker.AskStream(c.Request.Context(), req, sink); err != nil {
		if errors.Is(err, errClientGone) {
			return
		}
		h.logger.Error("chat stream failed", "error", err)
	}
}

var errClientGone = errors.New("client disconnected")

// bindRequest decodes and validates the inbound request, writing the 400
// itself when invalid.
func (h *ChatHandler) bindRequest(c *gin.Context) (*whoknows.AskRequest, bool) {
	var req whoknows.AskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return nil, false
	}
	if err := req.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return nil, false
	}
	return &req, true
}

// writeSSE writes one data frame and flushes it so downstream proxies
// cannot reorder tokens.
func writeSSE(w gin.ResponseWriter, event whoknows.StreamEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "data: %s\n\n", payload); err != nil {
		return err
	}
	w.Flush()
	return nil
}
