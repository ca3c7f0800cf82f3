package handlers_test

import (
	"net/http"
	"testing"

	"github.com/ludoteca/catalog-api/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthHandler_Token(t *testing.T) {
	ts := testutil.NewTestServer(t)

	tests := []struct {
		name           string
		apiKey         string
		expectedStatus int
	}{
		{
			name:           "valid api key",
			apiKey:         "test-api-key",
			expectedStatus: http.StatusOK,
		},
		{
			name:           "wrong api key",
			apiKey:         "nope",
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "missing api key",
			apiKey:         "",
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := http.NewRequest(http.MethodPost, ts.BaseURL()+"/auth/token", nil)
			require.NoError(t, err)
			if tt.apiKey != "" {
				req.Header.Set("X-API-Key", tt.apiKey)
			}

			resp, err := http.DefaultClient.Do(req)
			require.NoError(t, err)
			defer resp.Body.Close()

			testutil.AssertStatusCode(t, resp, tt.expectedStatus)

			if tt.expectedStatus == http.StatusOK {
				var body struct {
					AccessToken string `json:"access_token"`
				}
				testutil.AssertJSONResponse(t, resp, &body)
				assert.NotEmpty(t, body.AccessToken)

				// The issued token is accepted by the protected API.
				apiReq := testutil.CreateAuthenticatedRequest(t, http.MethodGet, ts.APIURL("/users/"), nil, body.AccessToken)
				apiResp, err := http.DefaultClient.Do(apiReq)
				require.NoError(t, err)
				defer apiResp.Body.Close()
				testutil.AssertStatusCode(t, apiResp, http.StatusOK)
			}
		})
	}
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	ts := testutil.NewTestServer(t)

	resp, err := http.Get(ts.APIURL("/users/"))
	require.NoError(t, err)
	defer resp.Body.Close()

	testutil.AssertStatusCode(t, resp, http.StatusUnauthorized)
}
