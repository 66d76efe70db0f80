package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"

	"bridge-backend/internal/config"
	"bridge-backend/internal/dto"
)

const testUser = "evmos1t2htvpfl862vnwdqnuekd9p4ulh3h6hd4k0fm4"

var testAuth = config.AuthConfig{JWTSecret: "test-secret", Issuer: "bridge-backend"}

func newAuthEngine(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger, _ := test.NewNullLogger()

	r := gin.New()
	r.GET("/me", NewAuthMiddleware(testAuth, logger).RequireAuth(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user": UserAddress(c), "chain": SessionChainID(c)})
	})
	return r
}

func doAuthRequest(r *gin.Engine, target, authHeader string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRequireAuthAcceptsSessionToken(t *testing.T) {
	r := newAuthEngine(t)
	token, err := IssueSessionToken(testAuth, testUser, "evmos_9001-2", time.Hour)
	require.NoError(t, err)

	for _, w := range []*httptest.ResponseRecorder{
		doAuthRequest(r, "/me", "Bearer "+token),
		doAuthRequest(r, "/me?token="+token, ""),
	} {
		require.Equal(t, http.StatusOK, w.Code)
		var body map[string]string
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		require.Equal(t, testUser, body["user"])
		require.Equal(t, "evmos_9001-2", body["chain"])
	}
}

func TestRequireAuthRejects(t *testing.T) {
	r := newAuthEngine(t)

	expired, err := IssueSessionToken(testAuth, testUser, "evmos_9001-2", -time.Minute)
	require.NoError(t, err)
	otherSecret, err := IssueSessionToken(config.AuthConfig{JWTSecret: "other"}, testUser, "evmos_9001-2", time.Hour)
	require.NoError(t, err)
	otherIssuer, err := IssueSessionToken(config.AuthConfig{JWTSecret: testAuth.JWTSecret, Issuer: "someone-else"}, testUser, "", time.Hour)
	require.NoError(t, err)
	noUser, err := IssueSessionToken(testAuth, "", "evmos_9001-2", time.Hour)
	require.NoError(t, err)
	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, dto.SessionClaims{UserAddress: testUser}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
		code   string
	}{
		{"missing", "", "MISSING_AUTH_HEADER"},
		{"not bearer", "Basic abc", "INVALID_AUTH_FORMAT"},
		{"empty bearer", "Bearer  ", "EMPTY_TOKEN"},
		{"garbage", "Bearer abc.def.ghi", "INVALID_TOKEN"},
		{"expired", "Bearer " + expired, "INVALID_TOKEN"},
		{"wrong secret", "Bearer " + otherSecret, "INVALID_TOKEN"},
		{"wrong issuer", "Bearer " + otherIssuer, "INVALID_TOKEN"},
		{"no user", "Bearer " + noUser, "INVALID_TOKEN"},
		{"alg none", "Bearer " + none, "INVALID_TOKEN"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doAuthRequest(r, "/me", tt.header)
			require.Equal(t, http.StatusUnauthorized, w.Code)

			var body dto.ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			require.False(t, body.Success)
			require.Equal(t, tt.code, body.Code)
		})
	}
}

func TestIssueSessionTokenRequiresSecret(t *testing.T) {
	_, err := IssueSessionToken(config.AuthConfig{}, testUser, "", time.Hour)
	require.Error(t, err)
}
