package handlers

import (
	"github.com/gartstein/vcpms/internal/portfolio/auth"
	"github.com/gartstein/vcpms/internal/portfolio/models"
	"github.com/gofiber/fiber/v2"
)

func (h *Handler) CreateCompanyPage(c *fiber.Ctx) error {
	return showForm(c, models.CompanyInput{}, nil)
}

func (h *Handler) CreateCompany(c *fiber.Ctx) error {
	var in models.CompanyInput
	if err := bind(c, &in); err != nil {
		return h.renderForm(c, in, err, "")
	}
	if _, err := h.svc.Companies.CreateCompany(c.UserContext(), in); err != nil {
		return h.renderForm(c, in, err, "")
	}
	return redirect(c, dashboardPath)
}

func (h *Handler) UpdateCompanyPage(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return h.mapServiceError(c, err, dashboardPath)
	}
	company, err := h.svc.Companies.GetCompany(c.UserContext(), id)
	if err != nil {
		return h.mapServiceError(c, err, dashboardPath)
	}
	return showForm(c, company.Input(), nil)
}

func (h *Handler) UpdateCompany(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return h.mapServiceError(c, err, dashboardPath)
	}
	var in models.CompanyInput
	if err := bind(c, &in); err != nil {
		return h.renderForm(c, in, err, "")
	}
	if _, err := h.svc.Companies.UpdateCompany(c.UserContext(), id, in); err != nil {
		return h.renderForm(c, in, err, dashboardPath)
	}
	return redirect(c, companyPage(id))
}

func (h *Handler) DeleteCompany(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return h.mapServiceError(c, err, dashboardPath)
	}
	if err := h.svc.Companies.DeleteCompany(c.UserContext(), id); err != nil {
		return h.mapServiceError(c, err, dashboardPath)
	}
	return redirect(c, dashboardPath)
}

func (h *Handler) ArchiveCompany(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return h.mapServiceError(c, err, dashboardPath)
	}
	if err := h.svc.Companies.SetArchived(c.UserContext(), id, true); err != nil {
		return h.mapServiceError(c, err, dashboardPath)
	}
	return redirect(c, companyPage(id))
}

func (h *Handler) UnarchiveCompany(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return h.mapServiceError(c, err, archivePath)
	}
	if err := h.svc.Companies.SetArchived(c.UserContext(), id, false); err != nil {
		return h.mapServiceError(c, err, archivePath)
	}
	return redirect(c, archivePath)
}

// CompanyPage shows a company with its people, documents and investments.
// Archived companies send non-staff back to the dashboard.
// CompanyByRegistration redirects to the page of the company registered
// under the number.
func (h *Handler) CompanyByRegistration(c *fiber.Ctx) error {
	company, err := h.svc.Companies.CompanyByRegistrationNumber(c.UserContext(), c.Params("number"))
	if err != nil {
		return h.mapServiceError(c, err, dashboardPath)
	}
	return redirect(c, companyPage(company.ID))
}

func (h *Handler) CompanyPage(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return h.mapServiceError(c, err, dashboardPath)
	}
	detail, err := h.svc.Companies.CompanyDetail(c.UserContext(), auth.FromContext(c), id, pageQuery(c, "page"))
	if err != nil {
		return h.mapServiceError(c, err, dashboardPath)
	}
	return c.JSON(detail)
}
