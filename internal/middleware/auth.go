package middleware

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/alexedwards/argon2id"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/JillVernus/claude-relay-service/internal/config"
	apierrors "github.com/JillVernus/claude-relay-service/internal/errors"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)

// AdminClaims are the JWT claims issued to a logged-in administrator
type AdminClaims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// AdminAuthenticator issues and validates admin bearer tokens
type AdminAuthenticator struct {
	config *config.AdminConfig
}

// NewAdminAuthenticator creates an admin authenticator
func NewAdminAuthenticator(cfg *config.AdminConfig) *AdminAuthenticator {
	return &AdminAuthenticator{config: cfg}
}

// Login verifies admin credentials and returns a signed access token
func (a *AdminAuthenticator) Login(username, password string) (string, error) {
	if username != a.config.Username || a.config.PasswordHash == "" {
		return "", apierrors.ErrInvalidCredentialsError
	}

	match, err := argon2id.ComparePasswordAndHash(password, a.config.PasswordHash)
	if err != nil || !match {
		return "", apierrors.ErrInvalidCredentialsError
	}

	now := time.Now()
	claims := &AdminClaims{
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "admin-access",
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(a.config.TokenExpiry)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(a.config.JWTSecret))
	if err != nil {
		return "", fmt.Errorf("sign admin token: %w", err)
	}
	return signed, nil
}

// AdminAuth creates a middleware that requires a valid admin bearer token
func (a *AdminAuthenticator) AdminAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			respondWithError(c, apierrors.ErrInvalidCredentialsError)
			c.Abort()
			return
		}

		tokenString, err := extractBearerToken(authHeader)
		if err != nil {
			respondWithError(c, apierrors.ErrInvalidCredentialsError)
			c.Abort()
			return
		}

		claims, err := a.ValidateToken(tokenString)
		if err != nil {
			if errors.Is(err, ErrTokenExpired) {
				respondWithError(c, apierrors.ErrTokenExpiredError)
			} else {
				respondWithError(c, apierrors.ErrInvalidCredentialsError)
			}
			c.Abort()
			return
		}

		c.Set("admin_username", claims.Username)
		c.Next()
	}
}

// ValidateToken parses and validates an admin access token
func (a *AdminAuthenticator) ValidateToken(tokenString string) (*AdminClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &AdminClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(a.config.JWTSecret), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*AdminClaims)
	if !ok || !token.Valid || claims.Subject != "admin-access" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func extractBearerToken(authHeader string) (string, error) {
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return "", ErrInvalidToken
	}
	return parts[1], nil
}

func respondWithError(c *gin.Context, apiErr *apierrors.APIError) {
	c.JSON(apiErr.HTTPStatus, apierrors.ErrorResponse{
		Success:   false,
		Error:     *apiErr,
		RequestID: c.GetString(ContextKeyRequestID),
	})
}
