package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/ludoteca/catalog-api/internal/service"
)

type BoardGamesHandler struct {
	gameService *service.BoardGameService
}

func NewBoardGamesHandler(gameService *service.BoardGameService) *BoardGamesHandler {
	return &BoardGamesHandler{gameService: gameService}
}

type BoardGameRequest struct {
	Name        string   `json:"name" validate:"required"`
	Description string   `json:"description" validate:"required"`
	Complexity  float64  `json:"complexity" validate:"gte=0,lte=5"`
	MinAge      int      `json:"minAge" validate:"gte=0"`
	PlayTime    int      `json:"playTime" validate:"gte=0"`
	Year        int      `json:"year" validate:"gte=0"`
	Mechanics   []string `json:"mechanics"`
}

func (r BoardGameRequest) toInput() service.BoardGameInput {
	return service.BoardGameInput{
		Name:        r.Name,
		Description: r.Description,
		Complexity:  r.Complexity,
		MinAge:      r.MinAge,
		PlayTime:    r.PlayTime,
		Year:        r.Year,
		Mechanics:   r.Mechanics,
	}
}

func (h *BoardGamesHandler) List(w http.ResponseWriter, r *http.Request) {
	req, err := pageRequest(r)
	if err != nil {
		writeBadRequest(w, "invalid pagination parameters")
		return
	}

	page, err := h.gameService.List(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, page)
}

func (h *BoardGamesHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		writeBadRequest(w, "invalid board game id")
		return
	}

	dto, tag, notModified, err := h.gameService.GetByID(r.Context(), id, r.Header.Get("If-None-Match"))
	if err != nil {
		writeError(w, err)
		return
	}
	if notModified {
		w.Header().Set("ETag", tag)
		w.WriteHeader(http.StatusNotModified)
		return
	}

	w.Header().Set("ETag", tag)
	w.Header().Set("Cache-Control", "public, max-age=60")
	writeJSON(w, http.StatusOK, dto)
}

func (h *BoardGamesHandler) Create(w http.ResponseWriter, r *http.Request) {
	ownerID, err := idParam(r, "userId")
	if err != nil {
		writeBadRequest(w, "invalid owner id")
		return
	}

	var req BoardGameRequest
	if err := decodeValid(r, &req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}

	dto, err := h.gameService.Create(r.Context(), req.toInput(), ownerID, r.Header.Get(IdempotencyHeader))
	if err != nil {
		writeError(w, err)
		return
	}

	status := http.StatusOK
	if dto.Created {
		status = http.StatusCreated
	}
	writeJSON(w, status, dto)
}

// CreateBatch accepts an array of games and answers 202; persistence
// happens out-of-band through the worker.
func (h *BoardGamesHandler) CreateBatch(w http.ResponseWriter, r *http.Request) {
	ownerID, err := idParam(r, "userId")
	if err != nil {
		writeBadRequest(w, "invalid owner id")
		return
	}

	var reqs []BoardGameRequest
	if err := json.NewDecoder(r.Body).Decode(&reqs); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}
	if len(reqs) == 0 {
		writeBadRequest(w, "batch must contain at least one board game")
		return
	}
	for _, req := range reqs {
		if err := validate.Struct(req); err != nil {
			writeBadRequest(w, "invalid request body")
			return
		}
	}

	inputs := make([]service.BoardGameInput, len(reqs))
	for i, req := range reqs {
		inputs[i] = req.toInput()
	}

	if err := h.gameService.EnqueueBatch(r.Context(), inputs, ownerID); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]string{
		"message": "batch accepted for processing",
	})
}

func (h *BoardGamesHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		writeBadRequest(w, "invalid board game id")
		return
	}

	var req BoardGameRequest
	if err := decodeValid(r, &req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}

	dto, err := h.gameService.Update(r.Context(), id, req.toInput())
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto)
}

func (h *BoardGamesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		writeBadRequest(w, "invalid board game id")
		return
	}

	if err := h.gameService.Delete(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
