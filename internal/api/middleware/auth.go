package middleware

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/printgate/printgate/internal/config"
)

const defaultTokenTTL = 24 * time.Hour

type Claims struct {
	jwt.RegisteredClaims
	Authenticated bool `json:"authenticated"`
}

// Auth verifies the request key on incoming calls. Callers present either
// the raw key (X-Api-Key header or bearer) or a short-lived token minted
// from it. An empty configured key hash disables authentication, which is
// the expected setup on trusted local networks.
type Auth struct {
	keyHash     []byte
	tokenSecret []byte
	tokenTTL    time.Duration
}

type TokenRequest struct {
	Key string `json:"key" binding:"required"`
}

type TokenResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

func NewAuth(cfg config.AuthConfig) *Auth {
	ttl := cfg.TokenTTL
	if ttl <= 0 {
		ttl = defaultTokenTTL
	}
	return &Auth{
		keyHash:     []byte(cfg.APIKeyHash),
		tokenSecret: []byte(cfg.TokenSecret),
		tokenTTL:    ttl,
	}
}

func (a *Auth) Enabled() bool {
	return len(a.keyHash) > 0
}

func (a *Auth) verifyKey(key string) bool {
	return bcrypt.CompareHashAndPassword(a.keyHash, []byte(key)) == nil
}

func (a *Auth) generateToken() (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(a.tokenTTL)
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			Issuer:    "printgate",
		},
		Authenticated: true,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(a.tokenSecret)
	return signed, expiresAt, err
}

func (a *Auth) validateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return a.tokenSecret, nil
	})
	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil
	}

	return nil, errors.New("invalid token")
}

func credentialFromRequest(c *gin.Context) string {
	if key := c.GetHeader("X-Api-Key"); key != "" {
		return key
	}

	authHeader := c.GetHeader("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}

	return ""
}

// TokenHandler exchanges a valid request key for a signed bearer token.
func (a *Auth) TokenHandler(c *gin.Context) {
	if !a.Enabled() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "authentication is not configured"})
		return
	}
	if len(a.tokenSecret) == 0 {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "token auth is not configured"})
		return
	}

	var req TokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	if !a.verifyKey(req.Key) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid key"})
		return
	}

	token, expiresAt, err := a.generateToken()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate token"})
		return
	}

	c.JSON(http.StatusOK, TokenResponse{Token: token, ExpiresAt: expiresAt})
}

// RequireAuth rejects requests carrying neither a valid key nor a valid
// token.
func (a *Auth) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !a.Enabled() {
			c.Next()
			return
		}

		credential := credentialFromRequest(c)
		if credential == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}

		// Tokens are three dot-separated segments; anything else is
		// treated as a raw key.
		if strings.Count(credential, ".") == 2 && len(a.tokenSecret) > 0 {
			if _, err := a.validateToken(credential); err == nil {
				c.Next()
				return
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
			return
		}

		if !a.verifyKey(credential) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid key"})
			return
		}

		c.Next()
	}
}
