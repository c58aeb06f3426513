package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// ChatBasePath is where the web frontend expects the chat API.
const ChatBasePath = "/api/chat"

// NewRouter builds the service router. Chat routes are served both at the root
// and under ChatBasePath.
func NewRouter(chat *ChatHandler, requestTimeout time.Duration) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.StripSlashes)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestIDMiddleware)
	r.Use(middleware.Timeout(requestTimeout))
	r.Use(middleware.Compress(5))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	mountChat(r, chat)
	r.Route(ChatBasePath, func(r chi.Router) {
		mountChat(r, chat)
	})

	return r
}

func mountChat(r chi.Router, chat *ChatHandler) {
	r.Group(func(r chi.Router) {
		r.Use(middleware.AllowContentType("application/json"))
		r.Post("/session", chat.CreateSession)
		r.Post("/heartbeat", chat.Heartbeat)
		r.Post("/message", chat.SendMessage)
	})
	r.Get("/pay/{sessionID}", chat.PaymentPage)
}
