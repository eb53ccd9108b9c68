package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dnovakovic099/secure-stay-server-sub003/internal/config"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAuthTestRouter(cfg *config.Config) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(AuthMiddleware(cfg))
	router.GET("/protected", func(c *gin.Context) {
		userID, _ := c.Get("userID")
		c.JSON(http.StatusOK, gin.H{"userID": userID})
	})
	return router
}

func signToken(t *testing.T, secret string, claims *Claims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func TestAuthMiddleware(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.JWT.Secret = "test-secret"

	validClaims := &Claims{
		UserID: "user-1",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}

	tests := []struct {
		name       string
		authHeader string
		wantStatus int
		wantError  string
	}{
		{
			name:       "valid token",
			authHeader: "Bearer " + signToken(t, "test-secret", validClaims),
			wantStatus: http.StatusOK,
		},
		{
			name:       "missing header",
			authHeader: "",
			wantStatus: http.StatusUnauthorized,
			wantError:  "Authorization header is required",
		},
		{
			name:       "not a bearer token",
			authHeader: "Basic abc123",
			wantStatus: http.StatusUnauthorized,
			wantError:  "Invalid token",
		},
		{
			name:       "garbage token",
			authHeader: "Bearer not.a.token",
			wantStatus: http.StatusUnauthorized,
			wantError:  "Invalid token",
		},
		{
			name:       "wrong signing key",
			authHeader: "Bearer " + signToken(t, "other-secret", validClaims),
			wantStatus: http.StatusUnauthorized,
			wantError:  "Invalid token",
		},
		{
			name: "expired token",
			authHeader: "Bearer " + signToken(t, "test-secret", &Claims{
				UserID: "user-1",
				RegisteredClaims: jwt.RegisteredClaims{
					ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
				},
			}),
			wantStatus: http.StatusUnauthorized,
			wantError:  "Token has expired",
		},
		{
			name: "missing user id",
			authHeader: "Bearer " + signToken(t, "test-secret", &Claims{
				RegisteredClaims: jwt.RegisteredClaims{
					ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
				},
			}),
			wantStatus: http.StatusUnauthorized,
			wantError:  "Invalid token",
		},
		{
			name: "missing expiry",
			authHeader: "Bearer " + signToken(t, "test-secret", &Claims{
				UserID: "user-1",
			}),
			wantStatus: http.StatusUnauthorized,
			wantError:  "Invalid token",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newAuthTestRouter(cfg)

			req := httptest.NewRequest(http.MethodGet, "/protected", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantError != "" {
				assert.Contains(t, w.Body.String(), tt.wantError)
			} else {
				assert.Contains(t, w.Body.String(), "user-1")
			}
		})
	}
}
