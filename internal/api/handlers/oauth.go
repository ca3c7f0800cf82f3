package handlers

import (
	"errors"
	"html/template"
	"net/http"

	"github.com/ludoteca/catalog-api/internal/oidc"
	"go.uber.org/zap"
)

var homeTemplate = template.Must(template.New("home").Parse(`<!DOCTYPE html>
<html>
<head><title>Authorization result</title></head>
<body>
<h1>Authorization result</h1>
{{if .Code}}<p>code: <code>{{.Code}}</code></p>{{end}}
{{if .State}}<p>state: <code>{{.State}}</code></p>{{end}}
{{if .Error}}<p>error: <code>{{.Error}}</code> {{.ErrorDescription}}</p>{{end}}
</body>
</html>
`))

// OAuthHandler exposes the authorization and token endpoints of the
// embedded provider.
type OAuthHandler struct {
	provider *oidc.Provider
	logger   *zap.Logger
}

func NewOAuthHandler(provider *oidc.Provider, logger *zap.Logger) *OAuthHandler {
	return &OAuthHandler{provider: provider, logger: logger}
}

// Authorize validates the authorization request and redirects the user
// agent to the interaction page.
func (h *OAuthHandler) Authorize(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	params := oidc.AuthParams{
		RedirectURI:         q.Get("redirect_uri"),
		Scope:               q.Get("scope"),
		State:               q.Get("state"),
		Nonce:               q.Get("nonce"),
		CodeChallenge:       q.Get("code_challenge"),
		CodeChallengeMethod: q.Get("code_challenge_method"),
	}

	location, err := h.provider.Authorize(r.Context(), q.Get("client_id"), q.Get("response_type"), params)
	if err != nil {
		switch {
		case errors.Is(err, oidc.ErrUnknownClient), errors.Is(err, oidc.ErrInvalidRedirectURI):
			writeBadRequest(w, err.Error())
		default:
			h.logger.Error("authorize failed", zap.Error(err))
			writeBadRequest(w, "invalid authorization request")
		}
		return
	}

	http.Redirect(w, r, location, http.StatusSeeOther)
}

type oauthError struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description,omitempty"`
}

// Token redeems an authorization code for tokens.
func (h *OAuthHandler) Token(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeJSON(w, http.StatusBadRequest, oauthError{Error: "invalid_request"})
		return
	}
	if r.PostFormValue("grant_type") != "authorization_code" {
		writeJSON(w, http.StatusBadRequest, oauthError{Error: "unsupported_grant_type"})
		return
	}

	clientID, clientSecret, ok := r.BasicAuth()
	if !ok {
		clientID = r.PostFormValue("client_id")
		clientSecret = r.PostFormValue("client_secret")
	}

	resp, err := h.provider.Exchange(r.Context(),
		r.PostFormValue("code"),
		clientID,
		clientSecret,
		r.PostFormValue("redirect_uri"),
		r.PostFormValue("code_verifier"),
	)
	if err != nil {
		switch {
		case errors.Is(err, oidc.ErrUnknownClient):
			writeJSON(w, http.StatusUnauthorized, oauthError{Error: "invalid_client"})
		case errors.Is(err, oidc.ErrInvalidGrant):
			writeJSON(w, http.StatusBadRequest, oauthError{Error: "invalid_grant"})
		default:
			h.logger.Error("token exchange failed", zap.Error(err))
			writeJSON(w, http.StatusInternalServerError, oauthError{Error: "server_error"})
		}
		return
	}

	w.Header().Set("Cache-Control", "no-store")
	writeJSON(w, http.StatusOK, resp)
}

type homePage struct {
	Code             string
	State            string
	Error            string
	ErrorDescription string
}

// Home is a development landing page registered as a redirect URI. It
// echoes the authorization response parameters.
func (h *OAuthHandler) Home(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page := homePage{
		Code:             q.Get("code"),
		State:            q.Get("state"),
		Error:            q.Get("error"),
		ErrorDescription: q.Get("error_description"),
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := homeTemplate.Execute(w, page); err != nil {
		h.logger.Error("home template render failed", zap.Error(err))
	}
}
