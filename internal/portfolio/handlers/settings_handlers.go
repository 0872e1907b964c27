package handlers

import (
	"github.com/gartstein/vcpms/internal/portfolio/auth"
	e "github.com/gartstein/vcpms/internal/portfolio/errors"
	"github.com/gartstein/vcpms/internal/portfolio/models"
	"github.com/gofiber/fiber/v2"
)

// AccountSettings shows the signed-in user with empty settings forms.
func (h *Handler) AccountSettings(c *fiber.Ctx) error {
	user := auth.FromContext(c).User
	return c.JSON(fiber.Map{
		"user": user,
		"contact_details": models.ContactDetailsInput{
			FirstName: user.FirstName,
			LastName:  user.LastName,
			Email:     user.Email,
			Phone:     user.Phone,
		},
		"change_password": models.ChangePasswordInput{},
	})
}

func (h *Handler) ChangePassword(c *fiber.Ctx) error {
	var in models.ChangePasswordInput
	if err := bind(c, &in); err != nil {
		return h.renderForm(c, models.ChangePasswordInput{}, err, "")
	}
	if err := h.svc.Accounts.ChangePassword(c.UserContext(), auth.FromContext(c).User, in); err != nil {
		return h.renderForm(c, models.ChangePasswordInput{}, err, "")
	}
	return redirect(c, settingsPath)
}

func (h *Handler) UpdateContactDetails(c *fiber.Ctx) error {
	var in models.ContactDetailsInput
	if err := bind(c, &in); err != nil {
		return h.renderForm(c, in, err, "")
	}
	if _, err := h.svc.Accounts.UpdateContactDetails(c.UserContext(), auth.FromContext(c).User, in); err != nil {
		return h.renderForm(c, in, err, "")
	}
	return redirect(c, settingsPath)
}

func (h *Handler) UploadProfilePicture(c *fiber.Ctx) error {
	fh := optionalFile(c, "profile_picture")
	if fh == nil {
		return h.renderForm(c, fiber.Map{}, e.FieldError("profile_picture", "This field is required."), "")
	}
	up, closeFn, err := upload(fh)
	if err != nil {
		return h.mapServiceError(c, err, "")
	}
	defer closeFn()
	if _, err := h.svc.Accounts.UploadProfilePicture(c.UserContext(), auth.FromContext(c).User, up); err != nil {
		return h.renderForm(c, fiber.Map{"profile_picture": fh.Filename}, err, "")
	}
	return redirect(c, settingsPath)
}

// RemoveProfilePicture clears the picture; having none is not an error.
func (h *Handler) RemoveProfilePicture(c *fiber.Ctx) error {
	if err := h.svc.Accounts.RemoveProfilePicture(c.UserContext(), auth.FromContext(c).User); err != nil {
		return h.mapServiceError(c, err, settingsPath)
	}
	return redirect(c, settingsPath)
}

// DeactivateAccount deletes the signed-in user and sends them to login.
func (h *Handler) DeactivateAccount(c *fiber.Ctx) error {
	if err := h.svc.Accounts.Deactivate(c.UserContext(), auth.FromContext(c)); err != nil {
		return h.mapServiceError(c, err, "")
	}
	auth.ClearCookie(c)
	return redirect(c, loginPath)
}
