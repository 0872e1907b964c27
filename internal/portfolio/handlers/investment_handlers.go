package handlers

import (
	"fmt"

	"github.com/gartstein/vcpms/internal/portfolio/controller"
	"github.com/gartstein/vcpms/internal/portfolio/models"
	"github.com/gofiber/fiber/v2"
)

// investmentReturn is the company page an investment form goes back to.
func investmentReturn(inv *models.Investment) string {
	if id := controller.RedirectCompany(inv); id != 0 {
		return companyPage(id)
	}
	return dashboardPath
}

func contractRightList(investmentID uint) string {
	return fmt.Sprintf("/contract_right_list/%d", investmentID)
}

func (h *Handler) CreateCompanyInvestorPage(c *fiber.Ctx) error {
	companies, err := h.svc.Companies.CompanyChoices(c.UserContext())
	if err != nil {
		return h.mapServiceError(c, err, "")
	}
	return showForm(c, controller.CompanyInvestorInput{}, fiber.Map{
		"companies":       companies,
		"classifications": models.InvestorClassifications,
	})
}

func (h *Handler) CreateCompanyInvestor(c *fiber.Ctx) error {
	var in controller.CompanyInvestorInput
	if err := bind(c, &in); err != nil {
		return h.renderForm(c, in, err, "")
	}
	if _, err := h.svc.Investments.CreateCompanyInvestor(c.UserContext(), in); err != nil {
		return h.renderForm(c, in, err, "")
	}
	return redirect(c, companyPage(in.CompanyID))
}

func (h *Handler) UpdateCompanyInvestorPage(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return h.mapServiceError(c, err, dashboardPath)
	}
	inv, err := h.svc.Investments.CompanyInvestor(c.UserContext(), id)
	if err != nil {
		return h.mapServiceError(c, err, dashboardPath)
	}
	return showForm(c, controller.CompanyInvestorInput{CompanyID: id, Classification: string(inv.Classification)},
		fiber.Map{"classifications": models.InvestorClassifications})
}

func (h *Handler) UpdateCompanyInvestor(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return h.mapServiceError(c, err, dashboardPath)
	}
	var in controller.CompanyInvestorInput
	if err := bind(c, &in); err != nil {
		return h.renderForm(c, in, err, "")
	}
	in.CompanyID = id
	if _, err := h.svc.Investments.UpdateCompanyInvestor(c.UserContext(), id, in.Classification); err != nil {
		return h.renderForm(c, in, err, dashboardPath)
	}
	return redirect(c, companyPage(id))
}

func (h *Handler) CreatePortfolioCompanyPage(c *fiber.Ctx) error {
	companies, err := h.svc.Companies.CompanyChoices(c.UserContext())
	if err != nil {
		return h.mapServiceError(c, err, "")
	}
	return showForm(c, models.PortfolioCompanyInput{}, fiber.Map{"companies": companies})
}

func (h *Handler) CreatePortfolioCompany(c *fiber.Ctx) error {
	var in models.PortfolioCompanyInput
	if err := bind(c, &in); err != nil {
		return h.renderForm(c, in, err, "")
	}
	if _, err := h.svc.Investments.CreatePortfolioCompany(c.UserContext(), in); err != nil {
		return h.renderForm(c, in, err, "")
	}
	return redirect(c, companyPage(in.ParentCompanyID))
}

func (h *Handler) UpdatePortfolioCompanyPage(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return h.mapServiceError(c, err, dashboardPath)
	}
	pc, err := h.svc.Investments.PortfolioCompany(c.UserContext(), id)
	if err != nil {
		return h.mapServiceError(c, err, dashboardPath)
	}
	return showForm(c, models.PortfolioCompanyInput{ParentCompanyID: id, WayraNumber: pc.WayraNumber}, nil)
}

func (h *Handler) UpdatePortfolioCompany(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return h.mapServiceError(c, err, dashboardPath)
	}
	var in models.PortfolioCompanyInput
	if err := bind(c, &in); err != nil {
		return h.renderForm(c, in, err, "")
	}
	in.ParentCompanyID = id
	if _, err := h.svc.Investments.UpdatePortfolioCompany(c.UserContext(), id, in.WayraNumber); err != nil {
		return h.renderForm(c, in, err, dashboardPath)
	}
	return redirect(c, companyPage(id))
}

func (h *Handler) DeletePortfolioCompany(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return h.mapServiceError(c, err, dashboardPath)
	}
	if err := h.svc.Investments.DeletePortfolioCompany(c.UserContext(), id); err != nil {
		return h.mapServiceError(c, err, dashboardPath)
	}
	return redirect(c, companyPage(id))
}

func (h *Handler) CreateInvestmentPage(c *fiber.Ctx) error {
	companyID, err := paramID(c, "company_id")
	if err != nil {
		return h.mapServiceError(c, err, dashboardPath)
	}
	choices, err := h.svc.Investments.Choices(c.UserContext())
	if err != nil {
		return h.mapServiceError(c, err, "")
	}
	return showForm(c, fiber.Map{"company_id": companyID, "investment": models.InvestmentInput{}}, choices)
}

func (h *Handler) CreateInvestment(c *fiber.Ctx) error {
	companyID, err := paramID(c, "company_id")
	if err != nil {
		return h.mapServiceError(c, err, dashboardPath)
	}
	var in models.InvestmentInput
	if err := bind(c, &in); err != nil {
		return h.renderForm(c, in, err, "")
	}
	if _, err := h.svc.Investments.CreateInvestment(c.UserContext(), in); err != nil {
		return h.renderForm(c, in, err, "")
	}
	return redirect(c, companyPage(companyID))
}

func (h *Handler) UpdateInvestmentPage(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return h.mapServiceError(c, err, dashboardPath)
	}
	inv, err := h.svc.Investments.GetInvestment(c.UserContext(), id)
	if err != nil {
		return h.mapServiceError(c, err, dashboardPath)
	}
	choices, err := h.svc.Investments.Choices(c.UserContext())
	if err != nil {
		return h.mapServiceError(c, err, "")
	}
	return showForm(c, inv.Input(), choices)
}

func (h *Handler) UpdateInvestment(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return h.mapServiceError(c, err, dashboardPath)
	}
	var in models.InvestmentInput
	if err := bind(c, &in); err != nil {
		return h.renderForm(c, in, err, "")
	}
	inv, err := h.svc.Investments.UpdateInvestment(c.UserContext(), id, in)
	if err != nil {
		return h.renderForm(c, in, err, dashboardPath)
	}
	return redirect(c, investmentReturn(inv))
}

// DeleteInvestmentPage asks for confirmation.
func (h *Handler) DeleteInvestmentPage(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return h.mapServiceError(c, err, dashboardPath)
	}
	inv, err := h.svc.Investments.GetInvestment(c.UserContext(), id)
	if err != nil {
		return h.mapServiceError(c, err, dashboardPath)
	}
	return c.JSON(fiber.Map{"investment": inv})
}

func (h *Handler) DeleteInvestment(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return h.mapServiceError(c, err, dashboardPath)
	}
	inv, err := h.svc.Investments.DeleteInvestment(c.UserContext(), id)
	if err != nil {
		return h.mapServiceError(c, err, dashboardPath)
	}
	return redirect(c, investmentReturn(inv))
}

func (h *Handler) ContractRights(c *fiber.Ctx) error {
	id, err := paramID(c, "investment_id")
	if err != nil {
		return h.mapServiceError(c, err, dashboardPath)
	}
	rights, err := h.svc.Investments.ListContractRights(c.UserContext(), id, pageQuery(c, "page"))
	if err != nil {
		return h.mapServiceError(c, err, dashboardPath)
	}
	return c.JSON(rights)
}

func (h *Handler) CreateContractRightPage(c *fiber.Ctx) error {
	id, err := paramID(c, "investment_id")
	if err != nil {
		return h.mapServiceError(c, err, dashboardPath)
	}
	if _, err := h.svc.Investments.GetInvestment(c.UserContext(), id); err != nil {
		return h.mapServiceError(c, err, dashboardPath)
	}
	return showForm(c, models.ContractRightInput{}, nil)
}

func (h *Handler) CreateContractRight(c *fiber.Ctx) error {
	id, err := paramID(c, "investment_id")
	if err != nil {
		return h.mapServiceError(c, err, dashboardPath)
	}
	var in models.ContractRightInput
	if err := bind(c, &in); err != nil {
		return h.renderForm(c, in, err, "")
	}
	if _, err := h.svc.Investments.CreateContractRight(c.UserContext(), id, in); err != nil {
		return h.renderForm(c, in, err, dashboardPath)
	}
	return redirect(c, contractRightList(id))
}

func (h *Handler) DeleteContractRightPage(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return h.mapServiceError(c, err, dashboardPath)
	}
	cr, err := h.svc.Investments.GetContractRight(c.UserContext(), id)
	if err != nil {
		return h.mapServiceError(c, err, dashboardPath)
	}
	return c.JSON(fiber.Map{"contract_right": cr})
}

func (h *Handler) DeleteContractRight(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return h.mapServiceError(c, err, dashboardPath)
	}
	cr, err := h.svc.Investments.DeleteContractRight(c.UserContext(), id)
	if err != nil {
		return h.mapServiceError(c, err, dashboardPath)
	}
	return redirect(c, contractRightList(cr.InvestmentID))
}
