package handlers

import (
	"fmt"
	"strconv"

	"github.com/gartstein/vcpms/internal/portfolio/controller"
	"github.com/gartstein/vcpms/internal/portfolio/models"
	"github.com/gofiber/fiber/v2"
)

// bindUser reads the user form. HTML checkboxes post "on", which the body
// parser cannot turn into a bool, so form bodies are read field by field.
func bindUser(c *fiber.Ctx) (models.UserInput, error) {
	var in models.UserInput
	if c.Is("json") {
		return in, bind(c, &in)
	}
	group, _ := strconv.ParseUint(c.FormValue("group"), 10, 64)
	return models.UserInput{
		Email:     c.FormValue("email"),
		FirstName: c.FormValue("first_name"),
		LastName:  c.FormValue("last_name"),
		Password:  c.FormValue("password"),
		Phone:     c.FormValue("phone"),
		IsActive:  checked(c, "is_active"),
		GroupID:   uint(group),
	}, nil
}

func editUserPath(id uint) string { return fmt.Sprintf("/permissions/%d/edit_user/", id) }

func (h *Handler) Users(c *fiber.Ctx) error {
	page, err := h.svc.Admin.ListUsers(c.UserContext(), pageQuery(c, "page"))
	if err != nil {
		return h.mapServiceError(c, err, "")
	}
	return c.JSON(fiber.Map{"users": page})
}

func (h *Handler) groupChoices(c *fiber.Ctx) (fiber.Map, error) {
	groups, err := h.svc.Admin.GroupChoices(c.UserContext())
	if err != nil {
		return nil, err
	}
	return fiber.Map{"groups": groups}, nil
}

func (h *Handler) CreateUserPage(c *fiber.Ctx) error {
	choices, err := h.groupChoices(c)
	if err != nil {
		return h.mapServiceError(c, err, "")
	}
	return showForm(c, models.UserInput{IsActive: true}, choices)
}

func (h *Handler) CreateUser(c *fiber.Ctx) error {
	in, err := bindUser(c)
	if err != nil {
		return h.renderForm(c, in, err, "")
	}
	if _, err := h.svc.Admin.CreateUser(c.UserContext(), in); err != nil {
		in.Password = ""
		return h.renderForm(c, in, err, "")
	}
	return redirect(c, usersPath)
}

func (h *Handler) EditUserPage(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return h.mapServiceError(c, err, usersPath)
	}
	u, err := h.svc.Admin.GetUser(c.UserContext(), id)
	if err != nil {
		return h.mapServiceError(c, err, usersPath)
	}
	choices, err := h.groupChoices(c)
	if err != nil {
		return h.mapServiceError(c, err, "")
	}
	return showForm(c, u.Input(), choices)
}

func (h *Handler) EditUser(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return h.mapServiceError(c, err, usersPath)
	}
	in, err := bindUser(c)
	if err != nil {
		return h.renderForm(c, in, err, "")
	}
	if _, err := h.svc.Admin.UpdateUser(c.UserContext(), id, in); err != nil {
		return h.renderForm(c, in, err, usersPath)
	}
	return redirect(c, usersPath)
}

func (h *Handler) DeleteUserPage(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return h.mapServiceError(c, err, usersPath)
	}
	u, err := h.svc.Admin.GetUser(c.UserContext(), id)
	if err != nil {
		return h.mapServiceError(c, err, usersPath)
	}
	return c.JSON(fiber.Map{"user": u})
}

func (h *Handler) DeleteUser(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return h.mapServiceError(c, err, usersPath)
	}
	if err := h.svc.Admin.DeleteUser(c.UserContext(), id); err != nil {
		return h.mapServiceError(c, err, usersPath)
	}
	return redirect(c, usersPath)
}

func (h *Handler) ResetPasswordPage(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return h.mapServiceError(c, err, usersPath)
	}
	u, err := h.svc.Admin.GetUser(c.UserContext(), id)
	if err != nil {
		return h.mapServiceError(c, err, usersPath)
	}
	return c.JSON(fiber.Map{"user": u, "reset_to": models.DefaultResetPassword})
}

// ResetPassword sets the default password and returns to the user's form.
func (h *Handler) ResetPassword(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return h.mapServiceError(c, err, usersPath)
	}
	if err := h.svc.Admin.ResetPassword(c.UserContext(), id); err != nil {
		return h.mapServiceError(c, err, usersPath)
	}
	return redirect(c, editUserPath(id))
}

func (h *Handler) Groups(c *fiber.Ctx) error {
	page, err := h.svc.Admin.ListGroups(c.UserContext(), pageQuery(c, "page"))
	if err != nil {
		return h.mapServiceError(c, err, "")
	}
	return c.JSON(fiber.Map{"groups": page})
}

func permissionChoices() fiber.Map {
	return fiber.Map{"permissions": controller.PermissionChoices()}
}

func (h *Handler) CreateGroupPage(c *fiber.Ctx) error {
	return showForm(c, models.GroupInput{}, permissionChoices())
}

func (h *Handler) CreateGroup(c *fiber.Ctx) error {
	var in models.GroupInput
	if err := bind(c, &in); err != nil {
		return h.renderForm(c, in, err, "")
	}
	if _, err := h.svc.Admin.CreateGroup(c.UserContext(), in); err != nil {
		return h.renderForm(c, in, err, "")
	}
	return redirect(c, groupsPath)
}

func (h *Handler) EditGroupPage(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return h.mapServiceError(c, err, groupsPath)
	}
	g, err := h.svc.Admin.GetGroup(c.UserContext(), id)
	if err != nil {
		return h.mapServiceError(c, err, groupsPath)
	}
	return showForm(c, g.Input(), permissionChoices())
}

func (h *Handler) EditGroup(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return h.mapServiceError(c, err, groupsPath)
	}
	var in models.GroupInput
	if err := bind(c, &in); err != nil {
		return h.renderForm(c, in, err, "")
	}
	if _, err := h.svc.Admin.UpdateGroup(c.UserContext(), id, in); err != nil {
		return h.renderForm(c, in, err, groupsPath)
	}
	return redirect(c, groupsPath)
}

func (h *Handler) DeleteGroupPage(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return h.mapServiceError(c, err, groupsPath)
	}
	g, err := h.svc.Admin.GetGroup(c.UserContext(), id)
	if err != nil {
		return h.mapServiceError(c, err, groupsPath)
	}
	return c.JSON(fiber.Map{"group": g})
}

func (h *Handler) DeleteGroup(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return h.mapServiceError(c, err, groupsPath)
	}
	if err := h.svc.Admin.DeleteGroup(c.UserContext(), id); err != nil {
		return h.mapServiceError(c, err, groupsPath)
	}
	return redirect(c, groupsPath)
}
