package handlers_test

import (
	"io"
	"net/http"
	"net/url"
	"strings"
	"testing"

	"github.com/ludoteca/catalog-api/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// noRedirectClient surfaces 3xx responses instead of following them so the
// tests can inspect Location headers.
func noRedirectClient() *http.Client {
	return &http.Client{
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

// startAuthorization begins the flow at the authorize endpoint and returns
// the interaction uid from the redirect.
func startAuthorization(t *testing.T, ts *testutil.TestServer) string {
	t.Helper()

	params := url.Values{
		"client_id":     {"foo"},
		"response_type": {"code"},
		"redirect_uri":  {"http://localhost:0/home"},
		"scope":         {"openid profile"},
		"state":         {"xyz"},
	}

	resp, err := noRedirectClient().Get(ts.BaseURL() + "/oauth/authorize?" + params.Encode())
	require.NoError(t, err)
	defer resp.Body.Close()

	testutil.AssertStatusCode(t, resp, http.StatusSeeOther)
	location := resp.Header.Get("Location")
	require.True(t, strings.HasPrefix(location, "/interaction/"), "unexpected location %q", location)
	return strings.TrimPrefix(location, "/interaction/")
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(body)
}

func TestInteraction_LoginPage(t *testing.T) {
	ts := testutil.NewTestServer(t)
	uid := startAuthorization(t, ts)

	resp, err := http.Get(ts.BaseURL() + "/interaction/" + uid)
	require.NoError(t, err)
	defer resp.Body.Close()

	testutil.AssertStatusCode(t, resp, http.StatusOK)
	body := readBody(t, resp)
	assert.Contains(t, body, "Sign in")
	assert.Contains(t, body, "/interaction/"+uid+"/login")
}

func TestInteraction_UnknownSession(t *testing.T) {
	ts := testutil.NewTestServer(t)

	resp, err := http.Get(ts.BaseURL() + "/interaction/no-such-uid")
	require.NoError(t, err)
	defer resp.Body.Close()

	testutil.AssertStatusCode(t, resp, http.StatusNotFound)
}

func TestInteraction_LoginFailures(t *testing.T) {
	ts := testutil.NewTestServer(t)

	testutil.NewUserBuilder().
		WithEmail("alice@example.com").
		WithPassword("password123").
		Build(t, ts.DB.DB)

	tests := []struct {
		name        string
		email       string
		password    string
		wantMessage string
	}{
		{
			name:        "unknown email",
			email:       "nobody@example.com",
			password:    "password123",
			wantMessage: "user not found",
		},
		{
			name:        "wrong password",
			email:       "alice@example.com",
			password:    "wrong-password",
			wantMessage: "invalid credentials",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uid := startAuthorization(t, ts)

			resp, err := noRedirectClient().PostForm(ts.BaseURL()+"/interaction/"+uid+"/login", url.Values{
				"email":    {tt.email},
				"password": {tt.password},
			})
			require.NoError(t, err)
			defer resp.Body.Close()

			// The form re-renders with a message; the session stays alive at
			// the login prompt.
			testutil.AssertStatusCode(t, resp, http.StatusOK)
			body := readBody(t, resp)
			assert.Contains(t, body, tt.wantMessage)
			assert.Contains(t, body, "/interaction/"+uid+"/login")
		})
	}
}

func TestInteraction_RetryAfterFailedLogin(t *testing.T) {
	ts := testutil.NewTestServer(t)
	client := noRedirectClient()

	testutil.NewUserBuilder().
		WithEmail("alice@example.com").
		WithPassword("password123").
		Build(t, ts.DB.DB)

	uid := startAuthorization(t, ts)

	// A rejected submission leaves the session at the login prompt.
	resp, err := client.PostForm(ts.BaseURL()+"/interaction/"+uid+"/login", url.Values{
		"email":    {"alice@example.com"},
		"password": {"wrong-password"},
	})
	require.NoError(t, err)
	defer resp.Body.Close()
	testutil.AssertStatusCode(t, resp, http.StatusOK)
	assert.Contains(t, readBody(t, resp), "invalid credentials")

	// Correct credentials on the same uid still complete the login.
	resp, err = client.PostForm(ts.BaseURL()+"/interaction/"+uid+"/login", url.Values{
		"email":    {"alice@example.com"},
		"password": {"password123"},
	})
	require.NoError(t, err)
	defer resp.Body.Close()
	testutil.AssertStatusCode(t, resp, http.StatusSeeOther)
	assert.Equal(t, "/interaction/"+uid, resp.Header.Get("Location"))

	// The session moved on to consent.
	resp, err = http.Get(ts.BaseURL() + "/interaction/" + uid)
	require.NoError(t, err)
	defer resp.Body.Close()
	testutil.AssertStatusCode(t, resp, http.StatusOK)
	assert.Contains(t, readBody(t, resp), "/interaction/"+uid+"/consent/confirm")
}

func TestInteraction_FullConsentFlow(t *testing.T) {
	ts := testutil.NewTestServer(t)
	client := noRedirectClient()

	testutil.NewUserBuilder().
		WithEmail("alice@example.com").
		WithPassword("password123").
		Build(t, ts.DB.DB)

	uid := startAuthorization(t, ts)

	// Login with valid credentials moves to the consent prompt.
	resp, err := client.PostForm(ts.BaseURL()+"/interaction/"+uid+"/login", url.Values{
		"email":    {"alice@example.com"},
		"password": {"password123"},
	})
	require.NoError(t, err)
	defer resp.Body.Close()
	testutil.AssertStatusCode(t, resp, http.StatusSeeOther)
	assert.Equal(t, "/interaction/"+uid, resp.Header.Get("Location"))

	// The consent page lists the requested scopes.
	resp, err = http.Get(ts.BaseURL() + "/interaction/" + uid)
	require.NoError(t, err)
	defer resp.Body.Close()
	testutil.AssertStatusCode(t, resp, http.StatusOK)
	body := readBody(t, resp)
	assert.Contains(t, body, "openid")
	assert.Contains(t, body, "profile")

	// Confirming issues an authorization code on the client redirect.
	resp, err = client.PostForm(ts.BaseURL()+"/interaction/"+uid+"/consent/confirm", nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	testutil.AssertStatusCode(t, resp, http.StatusSeeOther)

	redirect, err := url.Parse(resp.Header.Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, "/home", redirect.Path)
	assert.NotEmpty(t, redirect.Query().Get("code"))
	assert.Equal(t, "xyz", redirect.Query().Get("state"))
}

func TestInteraction_Abort(t *testing.T) {
	ts := testutil.NewTestServer(t)
	uid := startAuthorization(t, ts)

	resp, err := noRedirectClient().PostForm(ts.BaseURL()+"/interaction/"+uid+"/consent/abort", nil)
	require.NoError(t, err)
	defer resp.Body.Close()

	testutil.AssertStatusCode(t, resp, http.StatusSeeOther)

	redirect, err := url.Parse(resp.Header.Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, "access_denied", redirect.Query().Get("error"))
	assert.Equal(t, "xyz", redirect.Query().Get("state"))
}

func TestOAuth_TokenExchange(t *testing.T) {
	ts := testutil.NewTestServer(t)
	client := noRedirectClient()

	testutil.NewUserBuilder().
		WithEmail("alice@example.com").
		WithPassword("password123").
		Build(t, ts.DB.DB)

	uid := startAuthorization(t, ts)

	resp, err := client.PostForm(ts.BaseURL()+"/interaction/"+uid+"/login", url.Values{
		"email":    {"alice@example.com"},
		"password": {"password123"},
	})
	require.NoError(t, err)
	resp.Body.Close()

	resp, err = client.PostForm(ts.BaseURL()+"/interaction/"+uid+"/consent/confirm", nil)
	require.NoError(t, err)
	resp.Body.Close()

	redirect, err := url.Parse(resp.Header.Get("Location"))
	require.NoError(t, err)
	code := redirect.Query().Get("code")
	require.NotEmpty(t, code)

	resp, err = http.PostForm(ts.BaseURL()+"/oauth/token", url.Values{
		"grant_type":    {"authorization_code"},
		"code":          {code},
		"client_id":     {"foo"},
		"client_secret": {"bar"},
		"redirect_uri":  {"http://localhost:0/home"},
	})
	require.NoError(t, err)
	defer resp.Body.Close()

	testutil.AssertStatusCode(t, resp, http.StatusOK)
	var token struct {
		AccessToken string `json:"access_token"`
		IDToken     string `json:"id_token"`
		TokenType   string `json:"token_type"`
	}
	testutil.AssertJSONResponse(t, resp, &token)
	assert.NotEmpty(t, token.AccessToken)
	assert.NotEmpty(t, token.IDToken)
	assert.Equal(t, "Bearer", token.TokenType)
}

func TestOAuth_TokenRejectsBadClient(t *testing.T) {
	ts := testutil.NewTestServer(t)

	resp, err := http.PostForm(ts.BaseURL()+"/oauth/token", url.Values{
		"grant_type":    {"authorization_code"},
		"code":          {"whatever"},
		"client_id":     {"foo"},
		"client_secret": {"wrong"},
		"redirect_uri":  {"http://localhost:0/home"},
	})
	require.NoError(t, err)
	defer resp.Body.Close()

	testutil.AssertStatusCode(t, resp, http.StatusUnauthorized)
}

func TestOAuth_HomeEchoesResult(t *testing.T) {
	ts := testutil.NewTestServer(t)

	resp, err := http.Get(ts.BaseURL() + "/home?code=abc&state=xyz")
	require.NoError(t, err)
	defer resp.Body.Close()

	testutil.AssertStatusCode(t, resp, http.StatusOK)
	body := readBody(t, resp)
	assert.Contains(t, body, "abc")
	assert.Contains(t, body, "xyz")
}
