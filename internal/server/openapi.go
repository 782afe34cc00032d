package server

import (
	"encoding/json"
	"net/http"

	openapi "github.com/swaggest/openapi-go"
	"github.com/swaggest/openapi-go/openapi3"
)

// HealthResponse maps each backend to its status.
type HealthResponse map[string]struct {
	Status string `json:"status" enum:"ok,error,disabled"`
}

type roomPath struct {
	Code string `path:"code" description:"Six character room code."`
}

type cardQuery struct {
	roomPath
	Token string `query:"token" required:"true" description:"The caller's secret player token from create or join."`
}

type joinRoomInput struct {
	roomPath
	JoinRoomRequest
}

type playerInput struct {
	roomPath
	PlayerRequest
}

type updateSettingsInput struct {
	roomPath
	UpdateSettingsRequest
}

func newOpenAPISpec() *openapi3.Spec {
	r := openapi3.NewReflector()
	r.Spec.Info.Title = "Imposter API"
	r.Spec.Info.Version = "0.1.0"
	r.Spec.Info.WithDescription("Backend API for the Imposter party game: rooms, role cards and live room updates.")

	add := func(method, path, summary, desc string, req any, resp any, okStatus int, errStatuses ...int) {
		op, _ := r.NewOperationContext(method, path)
		op.SetSummary(summary)
		op.SetDescription(desc)
		if req != nil {
			op.AddReqStructure(req)
		}
		op.AddRespStructure(resp, openapi.WithHTTPStatus(okStatus))
		for _, st := range errStatuses {
			op.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(st))
		}
		_ = r.AddOperation(op)
	}

	// GET /healthz
	getHealthz, _ := r.NewOperationContext(http.MethodGet, "/healthz")
	getHealthz.SetSummary("Health check")
	getHealthz.SetDescription("Returns the health status of backend dependencies.")
	getHealthz.AddRespStructure(HealthResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	getHealthz.AddRespStructure(HealthResponse{}, openapi.WithHTTPStatus(http.StatusServiceUnavailable))
	_ = r.AddOperation(getHealthz)

	add(http.MethodGet, "/api/categories", "List categories",
		"Word categories available for a round.",
		nil, CategoriesResponse{}, http.StatusOK)

	add(http.MethodPost, "/api/rooms", "Create room",
		"Creates a waiting room with the caller as host. Omitted settings take their defaults.",
		CreateRoomRequest{}, RoomResponse{}, http.StatusCreated,
		http.StatusBadRequest, http.StatusServiceUnavailable, http.StatusGatewayTimeout)

	add(http.MethodGet, "/api/rooms/{code}", "Get room",
		"Public room snapshot. Never includes words or roles.",
		roomPath{}, RoomResponse{}, http.StatusOK,
		http.StatusNotFound, http.StatusServiceUnavailable)

	add(http.MethodPost, "/api/rooms/{code}/join", "Join room",
		"Adds a player to a waiting room. Names are unique per room, ignoring case.",
		joinRoomInput{}, RoomResponse{}, http.StatusOK,
		http.StatusBadRequest, http.StatusNotFound, http.StatusConflict, http.StatusServiceUnavailable)

	add(http.MethodPost, "/api/rooms/{code}/leave", "Leave room",
		"Removes a player. When the host leaves the room is closed for everyone.",
		playerInput{}, LeaveResponse{}, http.StatusOK,
		http.StatusNotFound, http.StatusServiceUnavailable)

	add(http.MethodPatch, "/api/rooms/{code}/settings", "Update settings",
		"Host-only partial settings update while the room is waiting.",
		updateSettingsInput{}, RoomResponse{}, http.StatusOK,
		http.StatusBadRequest, http.StatusForbidden, http.StatusNotFound, http.StatusConflict)

	add(http.MethodPost, "/api/rooms/{code}/start", "Start round",
		"Host-only. Deals roles to everyone present and starts the round. Needs at least 3 players.",
		playerInput{}, RoomResponse{}, http.StatusOK,
		http.StatusForbidden, http.StatusNotFound, http.StatusConflict)

	add(http.MethodGet, "/api/rooms/{code}/card", "Reveal own card",
		"Returns only the caller's role and word and records that they looked. In sequential mode only the current player may look.",
		cardQuery{}, CardResponse{}, http.StatusOK,
		http.StatusBadRequest, http.StatusForbidden, http.StatusNotFound, http.StatusConflict)

	add(http.MethodPost, "/api/rooms/{code}/confirm", "Confirm card",
		"Locks the caller's revealed card for the round and passes the turn on.",
		playerInput{}, RoomResponse{}, http.StatusOK,
		http.StatusForbidden, http.StatusNotFound, http.StatusConflict)

	add(http.MethodGet, "/api/rooms/{code}/invite", "Invite link",
		"Join link for the room and its QR code as a PNG data URL.",
		roomPath{}, InviteResponse{}, http.StatusOK, http.StatusNotFound)

	// GET /api/rooms/{code}/invite.png
	getQR, _ := r.NewOperationContext(http.MethodGet, "/api/rooms/{code}/invite.png")
	getQR.SetSummary("Invite QR code")
	getQR.AddReqStructure(roomPath{})
	getQR.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusOK), openapi.WithContentType("image/png"))
	_ = r.AddOperation(getQR)

	// GET /api/rooms/{code}/events
	getEvents, _ := r.NewOperationContext(http.MethodGet, "/api/rooms/{code}/events")
	getEvents.SetSummary("Room event stream")
	getEvents.SetDescription("Server-Sent Events. Each `room` event carries a StreamMessage; the first is the current snapshot.")
	getEvents.AddReqStructure(roomPath{})
	getEvents.AddRespStructure(StreamMessage{}, openapi.WithHTTPStatus(http.StatusOK),
		openapi.WithContentType("text/event-stream"))
	_ = r.AddOperation(getEvents)

	// GET /api/rooms/{code}/ws
	getWS, _ := r.NewOperationContext(http.MethodGet, "/api/rooms/{code}/ws")
	getWS.SetSummary("Room WebSocket")
	getWS.SetDescription("Same frames as the event stream over a WebSocket.")
	getWS.AddReqStructure(roomPath{})
	getWS.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusSwitchingProtocols),
		openapi.WithContentType("application/json"))
	_ = r.AddOperation(getWS)

	add(http.MethodPost, "/api/local/deal", "Deal local round",
		"Deals a pass-and-play round for a single device. Works without the room backend.",
		LocalDealRequest{}, LocalDealResponse{}, http.StatusOK, http.StatusBadRequest)

	// POST /api/generate-image
	postImage, _ := r.NewOperationContext(http.MethodPost, "/api/generate-image")
	postImage.SetSummary("Generate card image")
	postImage.SetDescription("Illustrates one word with the configured image model.")
	postImage.AddReqStructure(GenerateImageRequest{})
	postImage.AddRespStructure(GenerateImageResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	postImage.AddRespStructure(GenerateImageError{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	postImage.AddRespStructure(GenerateImageError{}, openapi.WithHTTPStatus(http.StatusInternalServerError))
	_ = r.AddOperation(postImage)

	return r.Spec
}

func handleOpenAPI() http.HandlerFunc {
	spec := newOpenAPISpec()
	data, _ := json.MarshalIndent(spec, "", "  ")

	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
	}
}
