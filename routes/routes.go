package routes

import (
	"log/slog"
	"net/http"

	chatpost "github.com/a-h/chatrelay/handlers/chat/post"
	"github.com/a-h/chatrelay/ui"
	"github.com/rs/cors"
)

// New returns the relay's HTTP handler: the chat API, and the chat UI.
func New(log *slog.Logger, backend chatpost.Chatter, random chatpost.Random) http.Handler {
	mux := http.NewServeMux()

	cph := chatpost.New(log, backend, random)
	mux.Handle("POST /api/chat", cph)

	mux.Handle("GET /", ui.Handler())

	return cors.AllowAll().Handler(mux)
}
