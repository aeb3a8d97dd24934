package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"portfolio-api/internal/model"
	"portfolio-api/internal/store"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestPasswordRoundTrip(t *testing.T) {
	hash, err := HashPassword("correct horse")
	require.NoError(t, err)
	assert.NotEqual(t, "correct horse", hash)
	assert.True(t, CheckPassword(hash, "correct horse"))
	assert.False(t, CheckPassword(hash, "wrong"))
}

func TestAuthenticate(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemoryStore()
	hash, err := HashPassword("pw")
	require.NoError(t, err)
	require.NoError(t, mem.CreateAdmin(ctx, &model.Admin{Username: "Owner", PasswordHash: hash}))

	admin, err := Authenticate(ctx, mem, "owner", "pw")
	require.NoError(t, err)
	assert.Equal(t, "Owner", admin.Username)

	_, err = Authenticate(ctx, mem, "owner", "nope")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = Authenticate(ctx, mem, "ghost", "pw")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestSessions_IssueAndParse(t *testing.T) {
	sessions := NewSessions("test-secret", time.Hour)
	admin := &model.Admin{ID: "a1", Username: "owner"}

	token, expiresAt, err := sessions.Issue(admin)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, 5*time.Second)

	claims, err := sessions.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, "a1", claims.AdminID)
	assert.Equal(t, "owner", claims.Username)
}

func TestSessions_RejectsBadTokens(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	sessions := NewSessions("test-secret", time.Hour)
	sessions.now = func() time.Time { return now }

	token, _, err := sessions.Issue(&model.Admin{ID: "a1", Username: "owner"})
	require.NoError(t, err)

	other := NewSessions("other-secret", time.Hour)
	other.now = sessions.now
	_, err = other.Parse(token)
	assert.ErrorIs(t, err, ErrInvalidToken, "wrong secret")

	now = now.Add(2 * time.Hour)
	_, err = sessions.Parse(token)
	assert.ErrorIs(t, err, ErrInvalidToken, "expired")

	none := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{Username: "owner"})
	unsigned, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = sessions.Parse(unsigned)
	assert.ErrorIs(t, err, ErrInvalidToken, "alg none")

	_, err = sessions.Parse("garbage")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestRequireSession(t *testing.T) {
	sessions := NewSessions("test-secret", time.Hour)
	token, _, err := sessions.Issue(&model.Admin{ID: "a1", Username: "owner"})
	require.NoError(t, err)

	router := gin.New()
	router.GET("/private", RequireSession(sessions), func(c *gin.Context) {
		claims, ok := ClaimsFrom(c)
		require.True(t, ok)
		c.JSON(http.StatusOK, gin.H{"user": claims.Username})
	})

	tests := []struct {
		name     string
		prepare  func(*http.Request)
		wantCode int
	}{
		{"no credentials", func(*http.Request) {}, http.StatusUnauthorized},
		{"bearer", func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+token) }, http.StatusOK},
		{"cookie", func(r *http.Request) { r.AddCookie(&http.Cookie{Name: CookieName, Value: token}) }, http.StatusOK},
		{"bad bearer", func(r *http.Request) { r.Header.Set("Authorization", "Bearer nope") }, http.StatusUnauthorized},
		{"basic scheme", func(r *http.Request) { r.Header.Set("Authorization", "Basic "+token) }, http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/private", nil)
			tt.prepare(req)
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantCode, rec.Code)
			if tt.wantCode == http.StatusUnauthorized {
				assert.JSONEq(t, `{"detail":"Authentication credentials were not provided."}`, rec.Body.String())
			}
		})
	}
}
