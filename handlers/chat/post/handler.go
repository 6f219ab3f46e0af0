package post

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/a-h/chatrelay/inference"
	"github.com/a-h/chatrelay/models"
	"github.com/a-h/respond"
)

type Chatter interface {
	Chat(ctx context.Context, message string) (content string, err error)
}

func New(log *slog.Logger, backend Chatter, random Random) Handler {
	return Handler{
		log:     log,
		backend: backend,
		random:  random,
	}
}

type Handler struct {
	log     *slog.Logger
	backend Chatter
	random  Random
}

func (h Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req models.ChatPostRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log.Warn("failed to decode body, using empty message", slog.Any("error", err))
		req = models.ChatPostRequest{}
	}

	h.log.Info("received message", slog.String("message", req.Message))

	resp := models.ChatPostResponse{
		Reply: h.Reply(r.Context(), req.Message),
	}
	respond.WithJSON(w, resp, http.StatusOK)
}

const NoResponseReply = "No response from AI model"

// Reply forwards the message to the backend and maps the outcome to the text shown
// to the user. Backend failures are never returned as errors.
func (h Handler) Reply(ctx context.Context, message string) (reply string) {
	content, err := h.backend.Chat(ctx, message)
	switch {
	case err == nil && content == "":
		h.log.Warn("inference backend returned empty content")
		return NoResponseReply
	case err == nil:
		return content
	case errors.Is(err, inference.ErrTimeout):
		h.log.Error("inference backend timed out, using fallback response", slog.Any("error", err))
		return TimeoutReply(message)
	case errors.Is(err, inference.ErrUnavailable):
		h.log.Error("could not connect to inference backend, using fallback response", slog.Any("error", err))
		return UnavailableReply(h.random, message)
	case errors.Is(err, inference.ErrMalformedResponse):
		h.log.Warn("inference backend response had no content", slog.Any("error", err))
		return NoResponseReply
	default:
		h.log.Error("inference backend error", slog.Any("error", err))
		return ErrorReply(err)
	}
}
