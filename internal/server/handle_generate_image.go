package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/playperu/imposter/internal/imagegen"
)

type GenerateImageRequest struct {
	Word       string `json:"word"`
	Quirkiness *int   `json:"quirkiness,omitempty"`
}

type GenerateImageResponse struct {
	Success    bool   `json:"success"`
	ImageURL   string `json:"imageUrl"`
	Word       string `json:"word"`
	Quirkiness int    `json:"quirkiness"`
}

type GenerateImageError struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// handleGenerateImage proxies one word to the image model so the API key
// never reaches the browser. It answers CORS preflights itself because the
// static front end may be hosted elsewhere.
func handleGenerateImage(logger *slog.Logger, gemini *imagegen.Gemini) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		if r.Method != http.MethodPost {
			writeJSON(w, http.StatusMethodNotAllowed, GenerateImageError{Error: "Method not allowed"})
			return
		}
		if !gemini.Configured() {
			writeJSON(w, http.StatusInternalServerError, GenerateImageError{Error: "GEMINI_API_KEY not configured"})
			return
		}

		var req GenerateImageRequest
		defer r.Body.Close()
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, GenerateImageError{Error: "Invalid request body", Details: err.Error()})
			return
		}
		req.Word = strings.TrimSpace(req.Word)
		if req.Word == "" {
			writeJSON(w, http.StatusBadRequest, GenerateImageError{Error: "Word is required"})
			return
		}
		quirkiness := 3
		if req.Quirkiness != nil {
			quirkiness = *req.Quirkiness
		}

		logger.Info("generating image", "word", req.Word, "quirkiness", quirkiness)
		url, err := gemini.Generate(r.Context(), req.Word, quirkiness)
		if err != nil {
			logger.Error("image generation failed", "word", req.Word, "error", err)
			// Transport errors stay in the log; only upstream answers are relayed.
			resp := GenerateImageError{Error: "Failed to generate image"}
			var apiErr *imagegen.APIError
			switch {
			case errors.As(err, &apiErr):
				resp = GenerateImageError{Error: fmt.Sprintf("Gemini API error: %d", apiErr.Status), Details: apiErr.Body}
			case errors.Is(err, imagegen.ErrNoImage):
				resp.Error = "No image data in Gemini response"
			}
			writeJSON(w, http.StatusInternalServerError, resp)
			return
		}

		writeJSON(w, http.StatusOK, GenerateImageResponse{
			Success:    true,
			ImageURL:   url,
			Word:       req.Word,
			Quirkiness: quirkiness,
		})
	}
}
