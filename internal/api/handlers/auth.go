package handlers

import (
	"net/http"

	"github.com/ludoteca/catalog-api/internal/service"
)

type AuthHandler struct {
	authService *service.AuthService
}

func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

type TokenResponse struct {
	AccessToken string `json:"access_token"`
}

// Token exchanges the shared API key for a signed access token.
func (h *AuthHandler) Token(w http.ResponseWriter, r *http.Request) {
	apiKey := r.Header.Get("X-API-Key")
	if apiKey == "" {
		writeBadRequest(w, "X-API-Key header is required")
		return
	}

	token, err := h.authService.IssueAPIToken(apiKey)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, TokenResponse{AccessToken: token})
}
