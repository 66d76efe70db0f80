package middleware

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"

	"bridge-backend/internal/config"
	"bridge-backend/internal/dto"
)

// gin context keys set by RequireAuth
const (
	ContextUserAddress = "user_address"
	ContextChainID     = "chain_id"
)

// AuthMiddleware JWT session authentication
type AuthMiddleware struct {
	secret []byte
	issuer string
	logger *logrus.Logger
}

// NewAuthMiddleware create JWT middleware
func NewAuthMiddleware(cfg config.AuthConfig, logger *logrus.Logger) *AuthMiddleware {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &AuthMiddleware{
		secret: []byte(cfg.JWTSecret),
		issuer: cfg.Issuer,
		logger: logger,
	}
}

// IssueSessionToken signs a session token for a bech32 address
func IssueSessionToken(cfg config.AuthConfig, userAddress, chainID string, ttl time.Duration) (string, error) {
	if cfg.JWTSecret == "" {
		return "", fmt.Errorf("jwt secret is not configured")
	}
	now := time.Now()
	claims := dto.SessionClaims{
		UserAddress: userAddress,
		ChainID:     chainID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    cfg.Issuer,
			Subject:   userAddress,
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(cfg.JWTSecret))
}

// ValidateToken verify a session token
func (a *AuthMiddleware) ValidateToken(tokenString string) (*dto.SessionClaims, error) {
	options := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if a.issuer != "" {
		options = append(options, jwt.WithIssuer(a.issuer))
	}

	token, err := jwt.ParseWithClaims(tokenString, &dto.SessionClaims{}, func(token *jwt.Token) (interface{}, error) {
		return a.secret, nil
	}, options...)
	if err != nil {
		return nil, fmt.Errorf("token validation failed: %w", err)
	}

	claims, ok := token.Claims.(*dto.SessionClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	if claims.UserAddress == "" {
		return nil, fmt.Errorf("token has no user address")
	}
	return claims, nil
}

// RequireAuth rejects requests without a valid session token.
// The token comes from "Authorization: Bearer" or, for websocket upgrades, the "token" query parameter.
func (a *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, code, message := bearerToken(c)
		if code != "" {
			a.reject(c, code, message, nil)
			return
		}

		claims, err := a.ValidateToken(tokenString)
		if err != nil {
			a.reject(c, "INVALID_TOKEN", "Invalid or expired token", err)
			return
		}

		c.Set(ContextUserAddress, claims.UserAddress)
		c.Set(ContextChainID, claims.ChainID)

		a.logger.WithFields(logrus.Fields{
			"path":         c.Request.URL.Path,
			"method":       c.Request.Method,
			"user_address": claims.UserAddress,
			"chain_id":     claims.ChainID,
		}).Debug("JWT authentication succeeded")

		c.Next()
	}
}

func bearerToken(c *gin.Context) (token, code, message string) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		if token := c.Query("token"); token != "" {
			return token, "", ""
		}
		return "", "MISSING_AUTH_HEADER", "Missing Authorization header. Please provide a valid JWT token."
	}
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return "", "INVALID_AUTH_FORMAT", "Authorization header must be in format: Bearer <token>"
	}
	token = strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	if token == "" {
		return "", "EMPTY_TOKEN", "Token cannot be empty"
	}
	return token, "", ""
}

func (a *AuthMiddleware) reject(c *gin.Context, code, message string, err error) {
	fields := logrus.Fields{
		"path":   c.Request.URL.Path,
		"method": c.Request.Method,
		"code":   code,
	}
	if err != nil {
		fields["error"] = err.Error()
	}
	a.logger.WithFields(fields).Warn("JWT authentication failed")

	c.AbortWithStatusJSON(http.StatusUnauthorized, dto.ErrorResponse{
		Success: false,
		Error:   "Authentication required",
		Message: message,
		Code:    code,
	})
}

// UserAddress session address set by RequireAuth
func UserAddress(c *gin.Context) string {
	return c.GetString(ContextUserAddress)
}

// SessionChainID session chain set by RequireAuth
func SessionChainID(c *gin.Context) string {
	return c.GetString(ContextChainID)
}
