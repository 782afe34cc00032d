package server

import (
	"log/slog"
	"math/rand/v2"
	"net/http"

	"github.com/playperu/imposter/internal/imagegen"
	"github.com/playperu/imposter/internal/imposter"
)

type LocalDealRequest struct {
	Settings imposter.SettingsPatch `json:"settings"`
	Shuffle  bool                   `json:"shuffle"`
}

// LocalDealResponse is a whole pass-and-play round for one device. Every
// secret is included because the device itself runs the reveal protocol.
type LocalDealResponse struct {
	Success  bool              `json:"success"`
	Category string            `json:"category"`
	Settings imposter.Settings `json:"settings"`
	Table    *imposter.Table   `json:"table"`
	Images   map[string]string `json:"images,omitempty"`
}

// handleLocalDeal needs no room backend, so it keeps working when online
// play is unavailable.
func handleLocalDeal(logger *slog.Logger, illustrator *imagegen.Illustrator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req LocalDealRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		settings, err := req.Settings.Apply(imposter.DefaultSettings())
		if err != nil {
			writeDomainError(w, logger, err)
			return
		}

		rng := rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
		table, pair, category, err := imposter.DealLocal(rng, settings)
		if err != nil {
			writeDomainError(w, logger, err)
			return
		}
		if req.Shuffle {
			if err := table.Shuffle(rng); err != nil {
				writeDomainError(w, logger, err)
				return
			}
		}

		resp := LocalDealResponse{Success: true, Category: category, Settings: settings, Table: table}
		if settings.ImagesEnabled && illustrator != nil {
			civ, imp := illustrator.Pair(r.Context(), pair.Civilian, pair.Imposter, settings.Quirkiness)
			resp.Images = map[string]string{civ.Word: civ.URL, imp.Word: imp.URL}
		}
		writeJSON(w, http.StatusOK, resp)
	}
}
