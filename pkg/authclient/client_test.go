package authclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRefreshTokens_OK(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/auth/refresh", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)

		rc, err := r.Cookie("refreshToken")
		require.NoError(t, err)
		assert.Equal(t, "refresh-1", rc.Value)

		_ = json.NewEncoder(w).Encode(RefreshResponse{
			AccessToken:  "access-2",
			RefreshToken: "refresh-2",
			AccessExp:    100,
			RefreshExp:   200,
			Role:         "user",
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL + "/")
	resp, err := c.RefreshTokens(context.Background(), "refresh-1", "access-1")
	require.NoError(t, err)
	assert.Equal(t, "access-2", resp.AccessToken)
	assert.Equal(t, "refresh-2", resp.RefreshToken)
}

func TestRefreshTokens_Rejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL).RefreshTokens(context.Background(), "r", "a")
	require.ErrorContains(t, err, "401")
}
