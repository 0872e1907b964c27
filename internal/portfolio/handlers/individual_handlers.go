package handlers

import (
	"fmt"
	"strconv"

	"github.com/gartstein/vcpms/internal/portfolio/auth"
	"github.com/gartstein/vcpms/internal/portfolio/controller"
	"github.com/gartstein/vcpms/internal/portfolio/models"
	"github.com/gofiber/fiber/v2"
)

// bindIndividual reads the individual form. JSON bodies carry the nested
// form; HTML forms post flat fields with experiences as
// experiences-<n>-<field>.
func bindIndividual(c *fiber.Ctx) (controller.IndividualForm, error) {
	var form controller.IndividualForm
	if c.Is("json") {
		return form, bind(c, &form)
	}
	if err := bind(c, &form.Individual); err != nil {
		return form, err
	}
	if err := bind(c, &form.Address); err != nil {
		return form, err
	}
	for i := 0; i < controller.MaxPastExperiences; i++ {
		field := func(name string) string { return c.FormValue(fmt.Sprintf("experiences-%d-%s", i, name)) }
		start, _ := strconv.Atoi(field("start_year"))
		end, _ := strconv.Atoi(field("end_year"))
		form.Experiences = append(form.Experiences, models.ExperienceInput{
			CompanyName: field("company_name"),
			WorkTitle:   field("work_title"),
			StartYear:   start,
			EndYear:     end,
			Description: field("description"),
		})
	}
	for n := len(form.Experiences); n > 0 && form.Experiences[n-1].Empty(); n-- {
		form.Experiences = form.Experiences[:n-1]
	}
	return form, nil
}

// setPicture stores an optional profile_pic upload for the individual.
func (h *Handler) setPicture(c *fiber.Ctx, id uint) error {
	fh := optionalFile(c, "profile_pic")
	if fh == nil {
		return nil
	}
	up, closeFn, err := upload(fh)
	if err != nil {
		return err
	}
	defer closeFn()
	_, err = h.svc.Individuals.SetProfilePicture(c.UserContext(), id, up)
	return err
}

func (h *Handler) CreateIndividualPage(c *fiber.Ctx) error {
	return showForm(c, controller.IndividualForm{}, fiber.Map{"max_experiences": controller.MaxPastExperiences})
}

func (h *Handler) CreateIndividual(c *fiber.Ctx) error {
	form, err := bindIndividual(c)
	if err != nil {
		return h.renderForm(c, form, err, "")
	}
	ind, err := h.svc.Individuals.CreateIndividual(c.UserContext(), form)
	if err != nil {
		return h.renderForm(c, form, err, "")
	}
	if err := h.setPicture(c, ind.ID); err != nil {
		return h.renderForm(c, form, err, individualsPath)
	}
	return redirect(c, individualsPath)
}

func (h *Handler) UpdateIndividualPage(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return h.mapServiceError(c, err, individualsPath)
	}
	form, err := h.svc.Individuals.Form(c.UserContext(), id)
	if err != nil {
		return h.mapServiceError(c, err, individualsPath)
	}
	return showForm(c, form, fiber.Map{"max_experiences": controller.MaxPastExperiences})
}

func (h *Handler) UpdateIndividual(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return h.mapServiceError(c, err, individualsPath)
	}
	form, err := bindIndividual(c)
	if err != nil {
		return h.renderForm(c, form, err, "")
	}
	if _, err := h.svc.Individuals.UpdateIndividual(c.UserContext(), id, form); err != nil {
		return h.renderForm(c, form, err, individualsPath)
	}
	if err := h.setPicture(c, id); err != nil {
		return h.renderForm(c, form, err, individualsPath)
	}
	return redirect(c, individualsPath)
}

// DeleteIndividualPage asks for confirmation.
func (h *Handler) DeleteIndividualPage(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return h.mapServiceError(c, err, individualsPath)
	}
	ind, err := h.svc.Individuals.GetIndividual(c.UserContext(), id)
	if err != nil {
		return h.mapServiceError(c, err, individualsPath)
	}
	return c.JSON(fiber.Map{"individual": ind})
}

func (h *Handler) DeleteIndividual(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return h.mapServiceError(c, err, individualsPath)
	}
	if err := h.svc.Individuals.DeleteIndividual(c.UserContext(), id); err != nil {
		return h.mapServiceError(c, err, individualsPath)
	}
	return redirect(c, individualsPath)
}

func (h *Handler) ArchiveIndividual(c *fiber.Ctx) error {
	return h.setIndividualArchived(c, true)
}

func (h *Handler) UnarchiveIndividual(c *fiber.Ctx) error {
	return h.setIndividualArchived(c, false)
}

func (h *Handler) setIndividualArchived(c *fiber.Ctx, archived bool) error {
	id, err := paramID(c, "id")
	if err != nil {
		return h.mapServiceError(c, err, individualsPath)
	}
	if err := h.svc.Individuals.SetArchived(c.UserContext(), id, archived); err != nil {
		return h.mapServiceError(c, err, individualsPath)
	}
	return redirect(c, individualProfile(id))
}

// IndividualPage shows the profile, its documents and investments.
func (h *Handler) IndividualPage(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return h.mapServiceError(c, err, individualsPath)
	}
	detail, err := h.svc.Individuals.IndividualDetail(c.UserContext(), auth.FromContext(c), id, pageQuery(c, "page"))
	if err != nil {
		return h.mapServiceError(c, err, individualsPath)
	}
	return c.JSON(detail)
}

// founderChoices lists the companies and individuals a founder form offers.
func (h *Handler) founderChoices(c *fiber.Ctx) (fiber.Map, error) {
	companies, err := h.svc.Companies.CompanyChoices(c.UserContext())
	if err != nil {
		return nil, err
	}
	individuals, err := h.svc.Individuals.IndividualChoices(c.UserContext())
	if err != nil {
		return nil, err
	}
	return fiber.Map{"companies": companies, "individuals": individuals}, nil
}

func (h *Handler) CreateFounderPage(c *fiber.Ctx) error {
	choices, err := h.founderChoices(c)
	if err != nil {
		return h.mapServiceError(c, err, "")
	}
	return showForm(c, models.FounderInput{}, choices)
}

func (h *Handler) CreateFounder(c *fiber.Ctx) error {
	var in models.FounderInput
	if err := bind(c, &in); err != nil {
		return h.renderForm(c, in, err, "")
	}
	if _, err := h.svc.Founders.CreateFounder(c.UserContext(), in); err != nil {
		return h.renderForm(c, in, err, "")
	}
	return redirect(c, individualsPath)
}

func (h *Handler) UpdateFounderPage(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return h.mapServiceError(c, err, individualsPath)
	}
	f, err := h.svc.Founders.Founder(c.UserContext(), id)
	if err != nil {
		return h.mapServiceError(c, err, individualsPath)
	}
	choices, err := h.founderChoices(c)
	if err != nil {
		return h.mapServiceError(c, err, "")
	}
	return showForm(c, models.FounderInput{CompanyFoundedID: f.CompanyFoundedID, IndividualFounderID: f.IndividualFounderID}, choices)
}

func (h *Handler) UpdateFounder(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return h.mapServiceError(c, err, individualsPath)
	}
	var in models.FounderInput
	if err := bind(c, &in); err != nil {
		return h.renderForm(c, in, err, "")
	}
	if _, err := h.svc.Founders.UpdateFounder(c.UserContext(), id, in); err != nil {
		return h.renderForm(c, in, err, individualsPath)
	}
	return redirect(c, individualsPath)
}

func (h *Handler) DeleteFounderPage(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return h.mapServiceError(c, err, individualsPath)
	}
	f, err := h.svc.Founders.Founder(c.UserContext(), id)
	if err != nil {
		return h.mapServiceError(c, err, individualsPath)
	}
	return c.JSON(fiber.Map{"founder": f})
}

func (h *Handler) DeleteFounder(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return h.mapServiceError(c, err, individualsPath)
	}
	if err := h.svc.Founders.DeleteFounder(c.UserContext(), id); err != nil {
		return h.mapServiceError(c, err, individualsPath)
	}
	return redirect(c, individualsPath)
}

func (h *Handler) CreateIndividualInvestorPage(c *fiber.Ctx) error {
	individuals, err := h.svc.Individuals.IndividualChoices(c.UserContext())
	if err != nil {
		return h.mapServiceError(c, err, "")
	}
	return showForm(c, controller.IndividualInvestorInput{}, fiber.Map{
		"individuals":     individuals,
		"classifications": models.InvestorClassifications,
	})
}

func (h *Handler) CreateIndividualInvestor(c *fiber.Ctx) error {
	var in controller.IndividualInvestorInput
	if err := bind(c, &in); err != nil {
		return h.renderForm(c, in, err, "")
	}
	if _, err := h.svc.Investments.CreateIndividualInvestor(c.UserContext(), in); err != nil {
		return h.renderForm(c, in, err, "")
	}
	return redirect(c, individualsPath)
}

func (h *Handler) UpdateIndividualInvestorPage(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return h.mapServiceError(c, err, individualsPath)
	}
	inv, err := h.svc.Investments.IndividualInvestor(c.UserContext(), id)
	if err != nil {
		return h.mapServiceError(c, err, individualsPath)
	}
	return showForm(c, controller.IndividualInvestorInput{IndividualID: id, Classification: string(inv.Classification)},
		fiber.Map{"classifications": models.InvestorClassifications})
}

func (h *Handler) UpdateIndividualInvestor(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return h.mapServiceError(c, err, individualsPath)
	}
	var in controller.IndividualInvestorInput
	if err := bind(c, &in); err != nil {
		return h.renderForm(c, in, err, "")
	}
	in.IndividualID = id
	if _, err := h.svc.Investments.UpdateIndividualInvestor(c.UserContext(), id, in.Classification); err != nil {
		return h.renderForm(c, in, err, individualsPath)
	}
	return redirect(c, individualProfile(id))
}
