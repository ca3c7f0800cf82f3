package handlers

import (
	"errors"
	"html/template"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/ludoteca/catalog-api/internal/domain"
	"github.com/ludoteca/catalog-api/internal/oidc"
	"github.com/ludoteca/catalog-api/internal/service"
	"go.uber.org/zap"
)

var loginTemplate = template.Must(template.New("login").Parse(`<!DOCTYPE html>
<html>
<head><title>Sign in</title></head>
<body>
<h1>Sign in</h1>
{{if .Error}}<p class="error">{{.Error}}</p>{{end}}
<form method="post" action="/interaction/{{.UID}}/login">
  <input name="email" type="email" placeholder="Email" autofocus />
  <input name="password" type="password" placeholder="Password" />
  <label><input name="remember" type="checkbox" value="yes" /> Remember me</label>
  <button type="submit">Sign in</button>
</form>
</body>
</html>
`))

var consentTemplate = template.Must(template.New("consent").Parse(`<!DOCTYPE html>
<html>
<head><title>Authorize</title></head>
<body>
<h1>Authorize {{.ClientName}}</h1>
<p>This application requests access to:</p>
<ul>
{{range .Scopes}}<li>{{.}}</li>{{end}}
</ul>
<form method="post" action="/interaction/{{.UID}}/consent/confirm">
  <button type="submit">Allow</button>
</form>
<form method="post" action="/interaction/{{.UID}}/consent/abort">
  <button type="submit">Deny</button>
</form>
</body>
</html>
`))

// InteractionHandler drives the login and consent pages over the engine's
// narrow interface. Failed credential checks re-render the login form with
// a message; only the outcome ever reaches the engine.
type InteractionHandler struct {
	engine      oidc.Engine
	authService *service.AuthService
	logger      *zap.Logger
}

func NewInteractionHandler(engine oidc.Engine, authService *service.AuthService, logger *zap.Logger) *InteractionHandler {
	return &InteractionHandler{engine: engine, authService: authService, logger: logger}
}

type loginPage struct {
	UID   string
	Error string
}

type consentPage struct {
	UID        string
	ClientName string
	Scopes     []string
}

// Page renders the login or consent form depending on the session prompt.
func (h *InteractionHandler) Page(w http.ResponseWriter, r *http.Request) {
	uid, interaction, ok := h.details(w, r)
	if !ok {
		return
	}

	switch interaction.Prompt {
	case oidc.PromptLogin:
		h.renderLogin(w, loginPage{UID: uid})
	case oidc.PromptConsent:
		h.renderConsent(w, consentPage{
			UID:        uid,
			ClientName: interaction.ClientName,
			Scopes:     splitScopes(interaction.Params.Scope),
		})
	default:
		writeBadRequest(w, "unknown interaction prompt")
	}
}

// Login checks the submitted credentials. Unknown user and wrong password
// both re-render the form with HTTP 200 so the user can try again; the
// session stays at the login prompt.
func (h *InteractionHandler) Login(w http.ResponseWriter, r *http.Request) {
	uid, _, ok := h.details(w, r)
	if !ok {
		return
	}

	if err := r.ParseForm(); err != nil {
		writeBadRequest(w, "invalid form body")
		return
	}
	email := r.PostFormValue("email")
	password := r.PostFormValue("password")
	remember := r.PostFormValue("remember") == "yes"

	user, err := h.authService.VerifyCredentials(r.Context(), email, password)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrUserNotFound):
			h.renderLogin(w, loginPage{UID: uid, Error: "user not found"})
		case errors.Is(err, domain.ErrInvalidCredentials):
			h.renderLogin(w, loginPage{UID: uid, Error: "invalid credentials"})
		default:
			writeError(w, err)
		}
		return
	}

	accountID := strconv.FormatUint(uint64(user.ID), 10)
	location, err := h.engine.FinishLogin(r.Context(), uid, accountID, remember)
	if err != nil {
		h.finishFailed(w, err)
		return
	}

	http.Redirect(w, r, location, http.StatusSeeOther)
}

// ConfirmConsent reuses the session's grant when present, creates one
// otherwise, attaches the requested scopes and reports consent completion.
func (h *InteractionHandler) ConfirmConsent(w http.ResponseWriter, r *http.Request) {
	uid, interaction, ok := h.details(w, r)
	if !ok {
		return
	}

	grantID, err := h.engine.EnsureGrant(r.Context(), uid, splitScopes(interaction.Params.Scope))
	if err != nil {
		h.finishFailed(w, err)
		return
	}

	location, err := h.engine.FinishConsent(r.Context(), uid, grantID)
	if err != nil {
		h.finishFailed(w, err)
		return
	}

	http.Redirect(w, r, location, http.StatusSeeOther)
}

// AbortConsent reports an access_denied outcome; the engine redirects the
// client with the error parameters.
func (h *InteractionHandler) AbortConsent(w http.ResponseWriter, r *http.Request) {
	uid, _, ok := h.details(w, r)
	if !ok {
		return
	}

	location, err := h.engine.FinishError(r.Context(), uid, "access_denied", "user denied consent")
	if err != nil {
		h.finishFailed(w, err)
		return
	}

	http.Redirect(w, r, location, http.StatusSeeOther)
}

func (h *InteractionHandler) details(w http.ResponseWriter, r *http.Request) (string, *oidc.Interaction, bool) {
	uid := strings.TrimSpace(chi.URLParam(r, "uid"))
	if uid == "" {
		writeBadRequest(w, "interaction uid is required")
		return "", nil, false
	}

	interaction, err := h.engine.Details(r.Context(), uid)
	if err != nil {
		if errors.Is(err, oidc.ErrInteractionNotFound) {
			writeJSON(w, http.StatusNotFound, errorResponse{Message: "interaction session not found"})
		} else {
			h.finishFailed(w, err)
		}
		return "", nil, false
	}
	return uid, interaction, true
}

func (h *InteractionHandler) finishFailed(w http.ResponseWriter, err error) {
	h.logger.Error("interaction failure", zap.Error(err))
	writeJSON(w, http.StatusInternalServerError, errorResponse{Message: "internal server error"})
}

func (h *InteractionHandler) renderLogin(w http.ResponseWriter, page loginPage) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := loginTemplate.Execute(w, page); err != nil {
		h.logger.Error("login template render failed", zap.Error(err))
	}
}

func (h *InteractionHandler) renderConsent(w http.ResponseWriter, page consentPage) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := consentTemplate.Execute(w, page); err != nil {
		h.logger.Error("consent template render failed", zap.Error(err))
	}
}

func splitScopes(scope string) []string {
	fields := strings.Fields(scope)
	if len(fields) == 0 {
		return []string{"openid"}
	}
	return fields
}
