package kickapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/golden-vcr/kickauth"
	"github.com/golden-vcr/kickauth/internal/kicktest"
)

func Test_Client_noAccessToken(t *testing.T) {
	provider := kicktest.NewProvider(t, "my-client-id", "my-client-secret")
	c := NewClient(provider.APIURL(), provider.HTTPClient())

	calls := []func() (json.RawMessage, error){
		func() (json.RawMessage, error) { return c.GetUser(context.Background()) },
		func() (json.RawMessage, error) { return c.GetChannel(context.Background(), "bigjoebob") },
		func() (json.RawMessage, error) { return c.GetLivestream(context.Background(), "1337") },
		func() (json.RawMessage, error) {
			return c.Request(context.Background(), http.MethodPost, "/v1/chat", map[string]string{"content": "hi"})
		},
	}
	for _, call := range calls {
		data, err := call()
		assert.ErrorIs(t, err, ErrNoAccessToken)
		assert.Nil(t, data)
	}
	assert.Equal(t, 0, provider.TotalCalls())
}

func Test_Client_GetUser(t *testing.T) {
	provider := kicktest.NewProvider(t, "my-client-id", "my-client-secret")
	accessToken, _ := provider.IssueTokens()

	c := NewClient(provider.APIURL(), provider.HTTPClient())
	c.SetAccessToken(accessToken, "")

	data, err := c.GetUser(context.Background())
	require.NoError(t, err)
	assert.JSONEq(t, `{"data":[{"user_id":1337,"name":"BigJoeBob","email":"bigjoebob@example.com"}],"message":"OK"}`, string(data))

	calls := provider.Calls("/api/v1/user")
	require.Len(t, calls, 1)
	assert.Equal(t, "Bearer "+accessToken, calls[0].Header.Get("Authorization"))
	assert.Equal(t, "application/json", calls[0].Header.Get("Content-Type"))
}

func Test_Client_GetChannel(t *testing.T) {
	provider := kicktest.NewProvider(t, "my-client-id", "my-client-secret")
	accessToken, _ := provider.IssueTokens()

	c := NewClient(provider.APIURL(), provider.HTTPClient())
	c.SetAccessToken(accessToken, "Bearer")

	data, err := c.GetChannel(context.Background(), "bigjoebob")
	require.NoError(t, err)
	assert.JSONEq(t, `{"data":{"broadcaster_user_id":1337,"slug":"bigjoebob"},"message":"OK"}`, string(data))

	data, err = c.GetLivestream(context.Background(), "1337")
	require.NoError(t, err)
	assert.JSONEq(t, `{"data":{"channel_id":"1337","is_live":true},"message":"OK"}`, string(data))
}

func Test_Client_upstreamErrors(t *testing.T) {
	provider := kicktest.NewProvider(t, "my-client-id", "my-client-secret")
	accessToken, _ := provider.IssueTokens()

	tests := []struct {
		name       string
		token      string
		channel    string
		wantStatus int
		wantBody   string
	}{
		{
			"unknown channel is passed through as 404",
			accessToken,
			"nobody",
			http.StatusNotFound,
			`{"message":"Channel not found"}`,
		},
		{
			"invalid token is passed through as 401",
			"not-a-real-token",
			"bigjoebob",
			http.StatusUnauthorized,
			`{"message":"Unauthorized"}`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewClient(provider.APIURL(), provider.HTTPClient())
			c.SetAccessToken(tt.token, "")

			data, err := c.GetChannel(context.Background(), tt.channel)
			assert.Nil(t, data)
			var upstreamErr *kickauth.UpstreamError
			require.True(t, errors.As(err, &upstreamErr))
			assert.Equal(t, tt.wantStatus, upstreamErr.StatusCode)
			assert.JSONEq(t, tt.wantBody, string(upstreamErr.Body))
		})
	}
}

func Test_Client_Request(t *testing.T) {
	var gotMethod, gotQuery, gotBody, gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(res http.ResponseWriter, req *http.Request) {
		gotMethod = req.Method
		gotQuery = req.URL.RawQuery
		gotAuth = req.Header.Get("Authorization")
		body, _ := io.ReadAll(req.Body)
		gotBody = string(body)
		res.Header().Set("Content-Type", "application/json")
		res.Write([]byte(`{"ok":true}`))
	}))
	t.Cleanup(srv.Close)

	c := NewClient(srv.URL+"/", srv.Client())
	c.SetAccessToken("abc", "OAuth")

	data, err := c.Request(context.Background(), http.MethodGet, "/v1/categories", map[string]string{"q": "retro"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"ok":true}`, string(data))
	assert.Equal(t, http.MethodGet, gotMethod)
	assert.Equal(t, "q=retro", gotQuery)
	assert.Equal(t, "OAuth abc", gotAuth)

	_, err = c.Request(context.Background(), http.MethodPost, "/v1/chat", map[string]string{"content": "hi"})
	require.NoError(t, err)
	assert.Equal(t, http.MethodPost, gotMethod)
	assert.JSONEq(t, `{"content":"hi"}`, gotBody)
}

func Test_NewClient_leavesHTTPClientUnchanged(t *testing.T) {
	provider := kicktest.NewProvider(t, "my-client-id", "my-client-secret")
	accessToken, _ := provider.IssueTokens()
	shared := provider.HTTPClient()
	want := *shared

	c := NewClient(provider.APIURL(), shared)
	_, err := c.WithAccessToken(accessToken, "").GetUser(context.Background())
	require.NoError(t, err)

	assert.Equal(t, time.Duration(0), shared.Timeout)
	assert.Equal(t, want.Transport, shared.Transport)
	assert.Nil(t, shared.CheckRedirect)
	assert.Nil(t, shared.Jar)
}

func Test_Client_WithAccessToken(t *testing.T) {
	provider := kicktest.NewProvider(t, "my-client-id", "my-client-secret")
	first, _ := provider.IssueTokens()
	second, _ := provider.IssueTokens()

	base := NewClient(provider.APIURL(), provider.HTTPClient())
	_, err := base.GetUser(context.Background())
	assert.ErrorIs(t, err, ErrNoAccessToken)

	_, err = base.WithAccessToken(first, "").GetUser(context.Background())
	require.NoError(t, err)
	_, err = base.WithAccessToken(second, "Bearer").GetUser(context.Background())
	require.NoError(t, err)

	// Deriving a client never gives the base client a token
	_, err = base.GetUser(context.Background())
	assert.ErrorIs(t, err, ErrNoAccessToken)

	calls := provider.Calls("/api/v1/user")
	require.Len(t, calls, 2)
	assert.Equal(t, "Bearer "+first, calls[0].Header.Get("Authorization"))
	assert.Equal(t, "Bearer "+second, calls[1].Header.Get("Authorization"))
}
