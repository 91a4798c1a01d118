package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const identityKey = "identity_email"

type identityClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// AuthRequired rejects requests without a valid Bearer token. The token's
// email claim becomes the requester identity for ownership checks.
func AuthRequired(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		email, ok := emailFromBearer(c, secret)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		c.Set(identityKey, email)
		c.Next()
	}
}

// AuthOptional sets the identity when a valid token is present and lets the
// request through either way. Hold requests accept a body email from
// anonymous visitors.
func AuthOptional(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		if email, ok := emailFromBearer(c, secret); ok {
			c.Set(identityKey, email)
		}
		c.Next()
	}
}

func emailFromBearer(c *gin.Context, secret []byte) (string, bool) {
	header := c.GetHeader("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return "", false
	}
	tokenStr := strings.TrimPrefix(header, "Bearer ")

	claims := &identityClaims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil || !token.Valid || claims.Email == "" {
		return "", false
	}
	return claims.Email, true
}

func identityFromContext(c *gin.Context) string {
	return c.GetString(identityKey)
}
