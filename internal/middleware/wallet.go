package middleware

import (
	"net/http"

	"frontend/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const walletKey = "wallet"

// WalletSession resolves the wallet cookie into the request context. A
// missing cookie leaves the visitor disconnected; a bad or expired one is
// cleared. It never aborts the request.
func WalletSession(sessions service.WalletService, cookieName string, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(cookieName)
		if err != nil || token == "" {
			c.Next()
			return
		}

		session, err := sessions.Parse(token)
		if err != nil {
			logger.Debug("Discarding wallet session", zap.String("request_id", GetRequestID(c)), zap.Error(err))
			ClearWalletCookie(c, cookieName)
			c.Next()
			return
		}

		c.Set(walletKey, session)
		c.Next()
	}
}

// GetWallet returns the connected wallet session, or nil.
func GetWallet(c *gin.Context) *service.WalletSession {
	v, ok := c.Get(walletKey)
	if !ok {
		return nil
	}
	session, _ := v.(*service.WalletSession)
	return session
}

// SetWalletCookie stores a session token for maxAge seconds.
func SetWalletCookie(c *gin.Context, cookieName, token string, maxAge int) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(cookieName, token, maxAge, "/", "", false, true)
}

func ClearWalletCookie(c *gin.Context, cookieName string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(cookieName, "", -1, "/", "", false, true)
}
