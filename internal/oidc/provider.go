package oidc

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/ludoteca/catalog-api/internal/config"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const grantTTL = 30 * 24 * time.Hour

// Provider is a Redis-backed authorization-code engine with PKCE. Sessions,
// grants and codes live in Redis with their own TTLs; access and ID tokens
// are HS256 JWTs.
type Provider struct {
	client redis.UniversalClient
	cfg    *config.Config
	oauth  Client
	logger *zap.Logger
}

func NewProvider(client redis.UniversalClient, cfg *config.Config, logger *zap.Logger) *Provider {
	return &Provider{
		client: client,
		cfg:    cfg,
		oauth: Client{
			ID:           cfg.OIDCClientID,
			Secret:       cfg.OIDCClientSecret,
			Name:         cfg.OIDCClientID,
			RedirectURIs: cfg.OIDCRedirectURIs,
		},
		logger: logger,
	}
}

func interactionKey(uid string) string { return "oidc:interaction:" + uid }
func grantKey(id string) string        { return "oidc:grant:" + id }
func codeKey(code string) string       { return "oidc:code:" + code }

// Authorize validates an authorization request and opens an interaction
// session at the login prompt. Returns the interaction page path.
func (p *Provider) Authorize(ctx context.Context, clientID, responseType string, params AuthParams) (string, error) {
	if clientID != p.oauth.ID {
		return "", ErrUnknownClient
	}
	if responseType != "code" {
		return "", fmt.Errorf("unsupported response_type %q", responseType)
	}
	if !p.redirectAllowed(params.RedirectURI) {
		return "", ErrInvalidRedirectURI
	}

	interaction := &Interaction{
		UID:        uuid.NewString(),
		Prompt:     PromptLogin,
		ClientID:   clientID,
		ClientName: p.oauth.Name,
		Params:     params,
	}
	if err := p.saveInteraction(ctx, interaction); err != nil {
		return "", err
	}

	return "/interaction/" + interaction.UID, nil
}

func (p *Provider) redirectAllowed(uri string) bool {
	for _, allowed := range p.oauth.RedirectURIs {
		if uri == allowed {
			return true
		}
	}
	return false
}

func (p *Provider) Details(ctx context.Context, uid string) (*Interaction, error) {
	raw, err := p.client.Get(ctx, interactionKey(uid)).Bytes()
	if err == redis.Nil {
		return nil, ErrInteractionNotFound
	}
	if err != nil {
		return nil, err
	}
	var interaction Interaction
	if err := json.Unmarshal(raw, &interaction); err != nil {
		return nil, err
	}
	return &interaction, nil
}

func (p *Provider) saveInteraction(ctx context.Context, interaction *Interaction) error {
	raw, err := json.Marshal(interaction)
	if err != nil {
		return err
	}
	return p.client.Set(ctx, interactionKey(interaction.UID), raw, p.cfg.InteractionTTL).Err()
}

func (p *Provider) FinishLogin(ctx context.Context, uid, accountID string, remember bool) (string, error) {
	interaction, err := p.Details(ctx, uid)
	if err != nil {
		return "", err
	}

	interaction.AccountID = accountID
	interaction.Prompt = PromptConsent
	if err := p.saveInteraction(ctx, interaction); err != nil {
		return "", err
	}

	p.logger.Info("login completed",
		zap.String("uid", uid), zap.String("accountId", accountID), zap.Bool("remember", remember))
	return "/interaction/" + uid, nil
}

func (p *Provider) EnsureGrant(ctx context.Context, uid string, scopes []string) (string, error) {
	interaction, err := p.Details(ctx, uid)
	if err != nil {
		return "", err
	}

	var grant *Grant
	if interaction.GrantID != "" {
		grant, err = p.findGrant(ctx, interaction.GrantID)
		if err != nil {
			return "", err
		}
	}
	if grant == nil {
		grant = &Grant{
			ID:        uuid.NewString(),
			AccountID: interaction.AccountID,
			ClientID:  interaction.ClientID,
		}
	}

	grant.Scopes = mergeScopes(grant.Scopes, scopes)

	raw, err := json.Marshal(grant)
	if err != nil {
		return "", err
	}
	if err := p.client.Set(ctx, grantKey(grant.ID), raw, grantTTL).Err(); err != nil {
		return "", err
	}

	interaction.GrantID = grant.ID
	if err := p.saveInteraction(ctx, interaction); err != nil {
		return "", err
	}

	return grant.ID, nil
}

func (p *Provider) findGrant(ctx context.Context, id string) (*Grant, error) {
	raw, err := p.client.Get(ctx, grantKey(id)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var grant Grant
	if err := json.Unmarshal(raw, &grant); err != nil {
		return nil, err
	}
	return &grant, nil
}

func mergeScopes(existing, requested []string) []string {
	seen := make(map[string]bool, len(existing)+len(requested))
	out := make([]string, 0, len(existing)+len(requested))
	for _, s := range append(existing, requested...) {
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}

// authorizationCode is the one-time record exchanged at the token endpoint.
type authorizationCode struct {
	ClientID            string `json:"clientId"`
	AccountID           string `json:"accountId"`
	GrantID             string `json:"grantId"`
	RedirectURI         string `json:"redirectUri"`
	Scope               string `json:"scope"`
	Nonce               string `json:"nonce,omitempty"`
	CodeChallenge       string `json:"codeChallenge,omitempty"`
	CodeChallengeMethod string `json:"codeChallengeMethod,omitempty"`
}

func (p *Provider) FinishConsent(ctx context.Context, uid, grantID string) (string, error) {
	interaction, err := p.Details(ctx, uid)
	if err != nil {
		return "", err
	}

	code := uuid.NewString()
	record := authorizationCode{
		ClientID:            interaction.ClientID,
		AccountID:           interaction.AccountID,
		GrantID:             grantID,
		RedirectURI:         interaction.Params.RedirectURI,
		Scope:               interaction.Params.Scope,
		Nonce:               interaction.Params.Nonce,
		CodeChallenge:       interaction.Params.CodeChallenge,
		CodeChallengeMethod: interaction.Params.CodeChallengeMethod,
	}
	raw, err := json.Marshal(record)
	if err != nil {
		return "", err
	}
	if err := p.client.Set(ctx, codeKey(code), raw, p.cfg.AuthorizationCodeTTL).Err(); err != nil {
		return "", err
	}
	if err := p.client.Del(ctx, interactionKey(uid)).Err(); err != nil {
		return "", err
	}

	redirect, err := url.Parse(interaction.Params.RedirectURI)
	if err != nil {
		return "", err
	}
	q := redirect.Query()
	q.Set("code", code)
	if interaction.Params.State != "" {
		q.Set("state", interaction.Params.State)
	}
	redirect.RawQuery = q.Encode()

	p.logger.Info("consent completed", zap.String("uid", uid), zap.String("grantId", grantID))
	return redirect.String(), nil
}

func (p *Provider) FinishError(ctx context.Context, uid, code, description string) (string, error) {
	interaction, err := p.Details(ctx, uid)
	if err != nil {
		return "", err
	}
	if err := p.client.Del(ctx, interactionKey(uid)).Err(); err != nil {
		return "", err
	}

	redirect, err := url.Parse(interaction.Params.RedirectURI)
	if err != nil {
		return "", err
	}
	q := redirect.Query()
	q.Set("error", code)
	if description != "" {
		q.Set("error_description", description)
	}
	if interaction.Params.State != "" {
		q.Set("state", interaction.Params.State)
	}
	redirect.RawQuery = q.Encode()

	p.logger.Info("interaction aborted", zap.String("uid", uid), zap.String("error", code))
	return redirect.String(), nil
}

// TokenResponse is the token endpoint payload.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	IDToken     string `json:"id_token,omitempty"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
	Scope       string `json:"scope,omitempty"`
}

// Exchange redeems a one-time authorization code for tokens, verifying the
// client secret, redirect URI and PKCE verifier.
func (p *Provider) Exchange(ctx context.Context, code, clientID, clientSecret, redirectURI, codeVerifier string) (*TokenResponse, error) {
	if clientID != p.oauth.ID {
		return nil, ErrUnknownClient
	}
	if p.oauth.Secret != "" && subtle.ConstantTimeCompare([]byte(clientSecret), []byte(p.oauth.Secret)) != 1 {
		return nil, ErrUnknownClient
	}

	raw, err := p.client.GetDel(ctx, codeKey(code)).Bytes()
	if err == redis.Nil {
		return nil, ErrInvalidGrant
	}
	if err != nil {
		return nil, err
	}

	var record authorizationCode
	if err := json.Unmarshal(raw, &record); err != nil {
		return nil, err
	}
	if record.ClientID != clientID || record.RedirectURI != redirectURI {
		return nil, ErrInvalidGrant
	}
	if record.CodeChallenge != "" && !verifyPKCE(record.CodeChallenge, record.CodeChallengeMethod, codeVerifier) {
		return nil, ErrInvalidGrant
	}

	now := time.Now()
	exp := now.Add(time.Duration(p.cfg.JWTExpirationHours) * time.Hour)

	accessToken, err := p.sign(jwt.MapClaims{
		"iss":   p.cfg.Issuer,
		"sub":   record.AccountID,
		"aud":   record.ClientID,
		"scope": record.Scope,
		"iat":   now.Unix(),
		"exp":   exp.Unix(),
	})
	if err != nil {
		return nil, err
	}

	resp := &TokenResponse{
		AccessToken: accessToken,
		TokenType:   "Bearer",
		ExpiresIn:   int(exp.Sub(now).Seconds()),
		Scope:       record.Scope,
	}

	if strings.Contains(" "+record.Scope+" ", " openid ") {
		idClaims := jwt.MapClaims{
			"iss": p.cfg.Issuer,
			"sub": record.AccountID,
			"aud": record.ClientID,
			"iat": now.Unix(),
			"exp": exp.Unix(),
		}
		if record.Nonce != "" {
			idClaims["nonce"] = record.Nonce
		}
		idToken, err := p.sign(idClaims)
		if err != nil {
			return nil, err
		}
		resp.IDToken = idToken
	}

	return resp, nil
}

func (p *Provider) sign(claims jwt.MapClaims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(p.cfg.JWTSecret))
}

func verifyPKCE(challenge, method, verifier string) bool {
	if verifier == "" {
		return false
	}
	switch method {
	case "", "plain":
		return subtle.ConstantTimeCompare([]byte(challenge), []byte(verifier)) == 1
	case "S256":
		sum := sha256.Sum256([]byte(verifier))
		encoded := base64.RawURLEncoding.EncodeToString(sum[:])
		return subtle.ConstantTimeCompare([]byte(challenge), []byte(encoded)) == 1
	default:
		return false
	}
}
