package handlers_test

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/ludoteca/catalog-api/internal/api/handlers"
	"github.com/ludoteca/catalog-api/internal/service"
	"github.com/ludoteca/catalog-api/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUsersHandler_Create(t *testing.T) {
	ts := testutil.NewTestServer(t)
	token := ts.APIToken(t)

	tests := []struct {
		name           string
		request        map[string]string
		expectedStatus int
	}{
		{
			name: "successful creation",
			request: map[string]string{
				"name":     "Alice",
				"email":    "alice@example.com",
				"password": "password123",
			},
			expectedStatus: http.StatusCreated,
		},
		{
			name: "duplicate email",
			request: map[string]string{
				"name":     "Alice Again",
				"email":    "alice@example.com",
				"password": "password123",
			},
			expectedStatus: http.StatusConflict,
		},
		{
			name: "invalid email",
			request: map[string]string{
				"name":     "Bob",
				"email":    "not-an-email",
				"password": "password123",
			},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "short password",
			request: map[string]string{
				"name":     "Bob",
				"email":    "bob@example.com",
				"password": "short",
			},
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := testutil.CreateAuthenticatedRequest(t, http.MethodPost, ts.APIURL("/users/"), tt.request, token)
			resp, err := http.DefaultClient.Do(req)
			require.NoError(t, err)
			defer resp.Body.Close()

			testutil.AssertStatusCode(t, resp, tt.expectedStatus)

			if tt.expectedStatus == http.StatusCreated {
				var dto service.UserDTO
				testutil.AssertJSONResponse(t, resp, &dto)
				assert.NotZero(t, dto.ID)
				assert.True(t, dto.Created)
			}
		})
	}
}

func TestUsersHandler_CreateIdempotentReplay(t *testing.T) {
	ts := testutil.NewTestServer(t)
	token := ts.APIToken(t)

	body := map[string]string{
		"name":     "Alice",
		"email":    "alice@example.com",
		"password": "password123",
	}

	do := func() *http.Response {
		req := testutil.CreateAuthenticatedRequest(t, http.MethodPost, ts.APIURL("/users/"), body, token)
		req.Header.Set(handlers.IdempotencyHeader, "req-1")
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		return resp
	}

	resp := do()
	defer resp.Body.Close()
	testutil.AssertStatusCode(t, resp, http.StatusCreated)
	var first service.UserDTO
	testutil.AssertJSONResponse(t, resp, &first)
	assert.True(t, first.Created)

	// Replay answers 200 with the original resource and no created flag.
	resp = do()
	defer resp.Body.Close()
	testutil.AssertStatusCode(t, resp, http.StatusOK)
	var second service.UserDTO
	testutil.AssertJSONResponse(t, resp, &second)
	assert.Equal(t, first.ID, second.ID)
	assert.False(t, second.Created)
}

func TestUsersHandler_GetConditional(t *testing.T) {
	ts := testutil.NewTestServer(t)
	token := ts.APIToken(t)

	user, _ := testutil.NewUserBuilder().Build(t, ts.DB.DB)
	url := ts.APIURL(fmt.Sprintf("/users/%d", user.ID))

	req := testutil.CreateAuthenticatedRequest(t, http.MethodGet, url, nil, token)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	testutil.AssertStatusCode(t, resp, http.StatusOK)
	etag := resp.Header.Get("ETag")
	require.NotEmpty(t, etag)
	assert.Equal(t, "public, max-age=60", resp.Header.Get("Cache-Control"))

	var dto service.UserDTO
	testutil.AssertJSONResponse(t, resp, &dto)
	assert.Equal(t, user.ID, dto.ID)

	// Conditional request with the tag short-circuits to an empty 304.
	req = testutil.CreateAuthenticatedRequest(t, http.MethodGet, url, nil, token)
	req.Header.Set("If-None-Match", etag)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	testutil.AssertStatusCode(t, resp, http.StatusNotModified)
	assert.Equal(t, etag, resp.Header.Get("ETag"))
}

func TestUsersHandler_GetNotFound(t *testing.T) {
	ts := testutil.NewTestServer(t)
	token := ts.APIToken(t)

	req := testutil.CreateAuthenticatedRequest(t, http.MethodGet, ts.APIURL("/users/9999"), nil, token)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	testutil.AssertErrorResponse(t, resp, http.StatusNotFound, "user not found")
}

func TestUsersHandler_ListPagination(t *testing.T) {
	ts := testutil.NewTestServer(t)
	token := ts.APIToken(t)

	for i := 0; i < 3; i++ {
		testutil.NewUserBuilder().Build(t, ts.DB.DB)
	}

	req := testutil.CreateAuthenticatedRequest(t, http.MethodGet, ts.APIURL("/users/?page=1&limit=2"), nil, token)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	testutil.AssertStatusCode(t, resp, http.StatusOK)

	var page struct {
		Data []service.UserDTO `json:"data"`
		Meta struct {
			Page        int  `json:"page"`
			Limit       int  `json:"limit"`
			HasNextPage bool `json:"hasNextPage"`
		} `json:"meta"`
	}
	testutil.AssertJSONResponse(t, resp, &page)
	assert.Len(t, page.Data, 2)
	assert.Equal(t, 1, page.Meta.Page)
	assert.True(t, page.Meta.HasNextPage)
}

func TestUsersHandler_UpdateAndDelete(t *testing.T) {
	ts := testutil.NewTestServer(t)
	token := ts.APIToken(t)

	user, _ := testutil.NewUserBuilder().WithEmail("carol@example.com").Build(t, ts.DB.DB)
	url := ts.APIURL(fmt.Sprintf("/users/%d", user.ID))

	req := testutil.CreateAuthenticatedRequest(t, http.MethodPut, url, map[string]string{
		"name":  "Carol Renamed",
		"email": "carol@example.com",
	}, token)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	testutil.AssertStatusCode(t, resp, http.StatusOK)
	var dto service.UserDTO
	testutil.AssertJSONResponse(t, resp, &dto)
	assert.Equal(t, "Carol Renamed", dto.Name)

	req = testutil.CreateAuthenticatedRequest(t, http.MethodDelete, url, nil, token)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	testutil.AssertStatusCode(t, resp, http.StatusNoContent)

	req = testutil.CreateAuthenticatedRequest(t, http.MethodGet, url, nil, token)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	testutil.AssertStatusCode(t, resp, http.StatusNotFound)
}
