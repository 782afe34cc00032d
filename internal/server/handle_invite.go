package server

import (
	"encoding/base64"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"
	qrcode "github.com/skip2/go-qrcode"

	"github.com/playperu/imposter/internal/session"
)

const qrSize = 320

type InviteResponse struct {
	Success bool   `json:"success"`
	Code    string `json:"code"`
	URL     string `json:"url"`
	QRCode  string `json:"qrCode"` // PNG data URL
}

// inviteURL is the link that opens the join dialog prefilled with code.
func inviteURL(publicURL, code string) string {
	return strings.TrimRight(publicURL, "/") + "/?room=" + url.QueryEscape(code)
}

func handleInvite(logger *slog.Logger, sessions *session.Service, publicURL string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		room, err := sessions.Get(r.Context(), chi.URLParam(r, "code"))
		if err != nil {
			writeDomainError(w, logger, err)
			return
		}
		link := inviteURL(publicURL, room.Code)
		png, err := qrcode.Encode(link, qrcode.Medium, qrSize)
		if err != nil {
			writeDomainError(w, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, InviteResponse{
			Success: true,
			Code:    room.Code,
			URL:     link,
			QRCode:  "data:image/png;base64," + base64.StdEncoding.EncodeToString(png),
		})
	}
}

func handleInviteQR(logger *slog.Logger, sessions *session.Service, publicURL string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		room, err := sessions.Get(r.Context(), chi.URLParam(r, "code"))
		if err != nil {
			writeDomainError(w, logger, err)
			return
		}
		png, err := qrcode.Encode(inviteURL(publicURL, room.Code), qrcode.Medium, qrSize)
		if err != nil {
			writeDomainError(w, logger, err)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		w.Header().Set("Cache-Control", "public, max-age=3600")
		_, _ = w.Write(png)
	}
}
