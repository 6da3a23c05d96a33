package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/polkiloo/atelier/internal/domain/model"
	pkgAuth "github.com/polkiloo/atelier/internal/pkg/auth"
)

const (
	// IdentityContextKey is a gin context key for the caller identity.
	IdentityContextKey = "identity"
	// SessionHeader carries an anonymous cart session id.
	SessionHeader = "X-Session-ID"
	// SessionCookieName is the cookie used when the client does not send SessionHeader.
	SessionCookieName = "atelier_session"

	sessionCookieMaxAge = 30 * 24 * 60 * 60
)

// TokenParser resolves a bearer token to a holder id.
type TokenParser interface {
	ParseToken(token string) (string, error)
}

// Identity resolves the caller from a bearer token and a cart session id.
// Anonymous callers without a session get a fresh one via cookie.
func Identity(tokens TokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		var who model.Identity

		if token := bearerToken(c); token != "" {
			holderID, err := tokens.ParseToken(token)
			if err != nil {
				if errors.Is(err, pkgAuth.ErrInvalidToken) {
					c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
					return
				}
				c.AbortWithStatus(http.StatusInternalServerError)
				return
			}
			who.HolderID = holderID
		}

		who.SessionID = sessionID(c)
		if who.SessionID == "" {
			who.SessionID = pkgAuth.NewSessionID()
			SetSessionCookie(c, who.SessionID)
		}

		c.Set(IdentityContextKey, who)
		c.Next()
	}
}

func bearerToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if len(authHeader) > 7 && strings.EqualFold(authHeader[:7], "bearer ") {
		return strings.TrimSpace(authHeader[7:])
	}
	return ""
}

func sessionID(c *gin.Context) string {
	if id := strings.TrimSpace(c.GetHeader(SessionHeader)); pkgAuth.ValidSessionID(id) {
		return id
	}
	if cookie, err := c.Cookie(SessionCookieName); err == nil && pkgAuth.ValidSessionID(cookie) {
		return cookie
	}
	return ""
}

// SetSessionCookie writes the cart session cookie and mirrors it in a response header.
func SetSessionCookie(c *gin.Context, id string) {
	c.SetCookie(SessionCookieName, id, sessionCookieMaxAge, "/", "", false, true)
	c.Header(SessionHeader, id)
}
