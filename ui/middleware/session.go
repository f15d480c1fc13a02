package middleware

import (
	"log"
	"net/http"
	"time"

	"chartcraft/domain/core"

	"github.com/gin-gonic/gin"
)

const sessionKey = "chartcraft.session"

// SessionConfig describes the session cookie.
type SessionConfig struct {
	CookieName string
	TTL        time.Duration
	Secure     bool
}

// EnsureSession gives every request a session id. A missing or malformed
// cookie starts a new session and sets a fresh cookie.
func EnsureSession(cfg SessionConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		var id core.SessionID
		if raw, err := c.Cookie(cfg.CookieName); err == nil {
			if parsed, perr := core.ParseSessionID(raw); perr == nil {
				id = parsed
			} else {
				log.Printf("[EnsureSession] Ignoring malformed session cookie: %v", perr)
			}
		}
		if id == "" {
			id = core.NewSessionID()
		}

		// Refresh on every request so the cookie lives as long as the workspace.
		c.SetSameSite(http.SameSiteLaxMode)
		c.SetCookie(cfg.CookieName, id.String(), int(cfg.TTL.Seconds()), "/", "", cfg.Secure, true)
		c.Set(sessionKey, id)
		c.Next()
	}
}

// SessionID returns the id set by EnsureSession, or "" when the middleware
// did not run.
func SessionID(c *gin.Context) core.SessionID {
	if v, ok := c.Get(sessionKey); ok {
		if id, ok := v.(core.SessionID); ok {
			return id
		}
	}
	return ""
}
