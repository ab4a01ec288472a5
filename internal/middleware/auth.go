package middleware

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/clearvoice/recording-gateway/pkg/response"
)

// ContextSubject is the key for the authenticated caller's subject claim.
const ContextSubject = "auth_subject"

var errInvalidToken = errors.New("invalid token")

// Auth returns a middleware requiring an HS256 bearer JWT signed with
// secret on control routes. The gateway has no user store; only signature
// and expiry are checked, and the subject claim is stashed for logging.
func Auth(secret string) gin.HandlerFunc {
	key := []byte(secret)
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			response.Unauthorized(c, "missing authorization header")
			c.Abort()
			return
		}
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			response.Unauthorized(c, "invalid authorization header")
			c.Abort()
			return
		}
		sub, err := validateToken(parts[1], key)
		if err != nil {
			response.Unauthorized(c, "invalid or expired token")
			c.Abort()
			return
		}
		c.Set(ContextSubject, sub)
		c.Next()
	}
}

func validateToken(tokenString string, key []byte) (string, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errInvalidToken
		}
		return key, nil
	})
	if err != nil || !token.Valid {
		return "", errInvalidToken
	}
	sub, _ := token.Claims.GetSubject()
	return sub, nil
}
