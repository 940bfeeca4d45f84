package session

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/ppmp/internal/config"
)

const (
	DefaultCookieName = "_sid"
	DefaultHeaderName = "X-Session-Token"
)

// Manager reads session tokens issued by the sign-in provider.
type Manager struct {
	cookieName string
	headerName string
}

func NewManager(cfg config.Config) *Manager {
	m := &Manager{
		cookieName: strings.TrimSpace(cfg.AuthCookieName),
		headerName: strings.TrimSpace(cfg.AuthHeaderName),
	}
	if m.cookieName == "" {
		m.cookieName = DefaultCookieName
	}
	if m.headerName == "" {
		m.headerName = DefaultHeaderName
	}
	return m
}

func (m *Manager) CookieName() string {
	return m.cookieName
}

// ReadToken prefers the cookie and falls back to the header, then to a bearer token.
func (m *Manager) ReadToken(c *gin.Context) (string, bool) {
	if token, err := c.Cookie(m.cookieName); err == nil && strings.TrimSpace(token) != "" {
		return strings.TrimSpace(token), true
	}
	if token := strings.TrimSpace(c.GetHeader(m.headerName)); token != "" {
		return token, true
	}
	authHeader := strings.TrimSpace(c.GetHeader("Authorization"))
	if len(authHeader) > 7 && strings.EqualFold(authHeader[:7], "bearer ") {
		if token := strings.TrimSpace(authHeader[7:]); token != "" {
			return token, true
		}
	}
	return "", false
}
