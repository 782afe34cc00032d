package server

import (
	"log/slog"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/swaggest/swgui/v5emb"
)

func addRoutes(r chi.Router, logger *slog.Logger, d Deps) {
	r.Get("/openapi.json", handleOpenAPI())
	r.Mount("/docs", v5emb.New("Imposter API", "/openapi.json", "/docs"))
	if d.Health != nil {
		r.Mount("/healthz", d.Health)
	}

	// Image proxy answers its own OPTIONS and 405s.
	r.HandleFunc("/api/generate-image", handleGenerateImage(logger, d.Gemini))

	r.Group(func(r chi.Router) {
		r.Use(rateLimit(d.RateLimitRPS, d.RateLimitBurst))

		r.Get("/api/categories", handleCategories())
		r.Post("/api/local/deal", handleLocalDeal(logger, d.Illustrator))

		r.Post("/api/rooms", handleCreateRoom(logger, d.Sessions))
		r.Get("/api/rooms/{code}", handleGetRoom(logger, d.Sessions))
		r.Post("/api/rooms/{code}/join", handleJoinRoom(logger, d.Sessions))
		r.Post("/api/rooms/{code}/leave", handleLeaveRoom(logger, d.Sessions))
		r.Patch("/api/rooms/{code}/settings", handleUpdateSettings(logger, d.Sessions))
		r.Post("/api/rooms/{code}/start", handleStartGame(logger, d.Sessions))
		r.Get("/api/rooms/{code}/card", handleCard(logger, d.Sessions, d.Illustrator))
		r.Post("/api/rooms/{code}/confirm", handleConfirmCard(logger, d.Sessions))
		r.Get("/api/rooms/{code}/invite", handleInvite(logger, d.Sessions, d.PublicURL))
		r.Get("/api/rooms/{code}/invite.png", handleInviteQR(logger, d.Sessions, d.PublicURL))
	})

	// Long-lived streams stay outside the limiter.
	r.Get("/api/rooms/{code}/events", handleEvents(logger, d.Sessions, d.Broker))
	r.Get("/api/rooms/{code}/ws", handleRoomWS(logger, d.Sessions, d.Broker))

	if d.SPADir != "" {
		if info, err := os.Stat(d.SPADir); err == nil && info.IsDir() {
			logger.Info("serving SPA", "dir", d.SPADir)
			r.NotFound(handleSPA(d.SPADir))
		}
	}
}
