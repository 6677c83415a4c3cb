package middleware

import (
	"context"
	"errors"
	"log"
	"net/http"

	"github.com/TurahWilson/TubesIAE/model"
	"github.com/TurahWilson/TubesIAE/session"
	"github.com/TurahWilson/TubesIAE/util"
	"github.com/gin-gonic/gin"
)

const sessionKey = "session"

// SessionRestorer looks a session up by its cookie value.
type SessionRestorer interface {
	Restore(ctx context.Context, id string) (*model.Session, error)
}

// LoadSession restores the session named by the cookie, if any, and stores
// it in the context. Requests without a valid session continue anonymously.
func LoadSession(store SessionRestorer, cookieName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := c.Cookie(cookieName)
		if err != nil || id == "" {
			c.Next()
			return
		}
		sess, err := store.Restore(c.Request.Context(), id)
		switch {
		case err == nil:
			c.Set(sessionKey, sess)
		case errors.Is(err, session.ErrNoSession):
		default:
			log.Printf("Error restoring session: %v", err)
		}
		c.Next()
	}
}

// GetSession returns the session restored by LoadSession.
func GetSession(c *gin.Context) (*model.Session, bool) {
	v, ok := c.Get(sessionKey)
	if !ok {
		return nil, false
	}
	sess, ok := v.(*model.Session)
	return sess, ok && sess.Authenticated()
}

// RequireSession sends anonymous browsers back to the login form and
// answers 401 to JSON clients.
func RequireSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := GetSession(c); ok {
			c.Next()
			return
		}
		if util.WantsJSON(c) {
			util.CallUserNotAuthorized(c, util.APIErrorParams{
				Msg: "Not logged in",
				Err: session.ErrNoSession,
			})
			c.Abort()
			return
		}
		c.Redirect(http.StatusSeeOther, "/")
		c.Abort()
	}
}
