package handlers

import (
	"errors"
	"strings"

	"github.com/gartstein/vcpms/internal/portfolio/auth"
	"github.com/gartstein/vcpms/internal/portfolio/controller"
	e "github.com/gartstein/vcpms/internal/portfolio/errors"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// safeNext keeps only local redirect targets.
func safeNext(next string) string {
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") {
		return dashboardPath
	}
	return next
}

// LoginPage shows the login form. Logged-in users go straight to the
// dashboard.
func (h *Handler) LoginPage(c *fiber.Ctx) error {
	if h.auth.Resolve(c) != nil {
		return redirect(c, dashboardPath)
	}
	return showForm(c, controller.LoginInput{Next: c.Query("next")}, nil)
}

func (h *Handler) Login(c *fiber.Ctx) error {
	var in controller.LoginInput
	if err := bind(c, &in); err != nil {
		return h.renderForm(c, in, err, "")
	}
	if in.Next == "" {
		in.Next = c.Query("next")
	}
	login, err := h.svc.Accounts.Login(c.UserContext(), in)
	if err != nil {
		in.Password = ""
		if errors.Is(err, e.ErrUnauthorized) {
			return h.renderForm(c, in, e.FieldError(e.NonFieldKey, controller.InvalidCredentials), "")
		}
		return h.mapServiceError(c, err, "")
	}
	auth.SetCookie(c, login.Token, int(h.svc.Accounts.SessionTTL().Seconds()))
	return redirect(c, safeNext(in.Next))
}

// Logout ends the session, if any, and returns to the login page.
func (h *Handler) Logout(c *fiber.Ctx) error {
	if rc := h.auth.Resolve(c); rc != nil {
		if err := h.svc.Accounts.Logout(c.UserContext(), rc); err != nil {
			h.logger.Warn("Logout failed", zap.Error(err))
		}
	}
	auth.ClearCookie(c)
	return redirect(c, loginPath)
}
