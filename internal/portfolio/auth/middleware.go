package auth

import (
	"context"
	"net/url"

	"github.com/gartstein/vcpms/internal/portfolio/models"
	"github.com/gartstein/vcpms/internal/portfolio/session"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

const (
	CookieName = "vcpms_session"
	LoginPath  = "/"

	requestContextKey = "request_context"
)

// UserLoader looks up the user a session belongs to.
type UserLoader interface {
	GetUser(ctx context.Context, id uint) (*models.User, error)
}

// Middleware resolves the session cookie into a session.RequestContext.
type Middleware struct {
	secret   string
	sessions *session.Manager
	users    UserLoader
	logger   *zap.Logger
}

func NewMiddleware(secret string, sessions *session.Manager, users UserLoader, logger *zap.Logger) *Middleware {
	return &Middleware{
		secret:   secret,
		sessions: sessions,
		users:    users,
		logger:   logger.Named("auth"),
	}
}

// Resolve returns the request context for the cookie on c, or nil when the
// request carries no live session of an active user.
func (m *Middleware) Resolve(c *fiber.Ctx) *session.RequestContext {
	raw := c.Cookies(CookieName)
	if raw == "" {
		return nil
	}
	sessionID, err := ValidateToken(raw, m.secret)
	if err != nil {
		m.logger.Debug("invalid session cookie", zap.Error(err))
		return nil
	}
	ctx := c.UserContext()
	state, err := m.sessions.Load(ctx, sessionID)
	if err != nil {
		m.logger.Debug("session not loaded", zap.Error(err))
		return nil
	}
	user, err := m.users.GetUser(ctx, state.UserID)
	if err != nil || !user.IsActive {
		return nil
	}
	return &session.RequestContext{SessionID: sessionID, User: user, State: state}
}

// RequireLogin redirects anonymous requests to the login page, keeping the
// original path and query in ?next=.
func (m *Middleware) RequireLogin() fiber.Handler {
	return func(c *fiber.Ctx) error {
		rc := m.Resolve(c)
		if rc == nil {
			next := url.QueryEscape(string(c.Request().RequestURI()))
			return c.Redirect(LoginPath+"?next="+next, fiber.StatusFound)
		}
		c.Locals(requestContextKey, rc)
		return c.Next()
	}
}

// RequireStaff sends non-staff users to redirectTo. It must run after
// RequireLogin.
func RequireStaff(redirectTo string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !FromContext(c).IsStaff() {
			return c.Redirect(redirectTo, fiber.StatusFound)
		}
		return c.Next()
	}
}

// FromContext returns the request context stored by RequireLogin.
func FromContext(c *fiber.Ctx) *session.RequestContext {
	rc, _ := c.Locals(requestContextKey).(*session.RequestContext)
	return rc
}

// SetCookie issues the signed session cookie.
func SetCookie(c *fiber.Ctx, token string, maxAge int) {
	c.Cookie(&fiber.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   maxAge,
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}

func ClearCookie(c *fiber.Ctx) {
	c.ClearCookie(CookieName)
}
