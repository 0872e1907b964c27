package handlers

import (
	"github.com/gartstein/vcpms/internal/portfolio/controller"
	"github.com/gartstein/vcpms/internal/portfolio/models"
	"github.com/gofiber/fiber/v2"
)

func (h *Handler) Programmes(c *fiber.Ctx) error {
	page, err := h.svc.Programmes.ListProgrammes(c.UserContext(), pageQuery(c, "page"))
	if err != nil {
		return h.mapServiceError(c, err, "")
	}
	return c.JSON(fiber.Map{"programmes": page})
}

// SearchProgrammes answers the inline search on GET and the full result
// page on POST.
func (h *Handler) SearchProgrammes(c *fiber.Ctx) error {
	q := searchQuery(c)
	if c.Method() == fiber.MethodGet {
		found, err := h.svc.Programmes.SearchInline(c.UserContext(), q)
		if err != nil {
			return h.mapServiceError(c, err, "")
		}
		return c.JSON(fiber.Map{"searched": q, "programmes": found})
	}
	if q.Empty() {
		return redirect(c, programmesPath)
	}
	page, err := h.svc.Programmes.Search(c.UserContext(), q, searchPage(c))
	if err != nil {
		return h.mapServiceError(c, err, "")
	}
	return c.JSON(fiber.Map{"searched": q, "programmes": page})
}

// programmeChoices lists the companies and individuals a programme can
// enrol.
func (h *Handler) programmeChoices(c *fiber.Ctx) (fiber.Map, error) {
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

// bindProgramme reads the programme form and its optional cover image. The
// returned close func is never nil.
func bindProgramme(c *fiber.Ctx) (models.ProgrammeInput, *controller.Upload, func(), error) {
	var in models.ProgrammeInput
	noop := func() {}
	if err := bind(c, &in); err != nil {
		return in, nil, noop, err
	}
	fh := optionalFile(c, "cover")
	if fh == nil {
		return in, nil, noop, nil
	}
	up, closeFn, err := upload(fh)
	if err != nil {
		return in, nil, noop, err
	}
	return in, &up, closeFn, nil
}

func (h *Handler) CreateProgrammePage(c *fiber.Ctx) error {
	choices, err := h.programmeChoices(c)
	if err != nil {
		return h.mapServiceError(c, err, "")
	}
	return showForm(c, models.ProgrammeInput{}, choices)
}

func (h *Handler) CreateProgramme(c *fiber.Ctx) error {
	in, cover, closeFn, err := bindProgramme(c)
	defer closeFn()
	if err != nil {
		return h.renderForm(c, in, err, "")
	}
	if _, err := h.svc.Programmes.CreateProgramme(c.UserContext(), in, cover); err != nil {
		return h.renderForm(c, in, err, "")
	}
	return redirect(c, programmesPath)
}

func (h *Handler) UpdateProgrammePage(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return h.mapServiceError(c, err, programmesPath)
	}
	p, err := h.svc.Programmes.GetProgramme(c.UserContext(), id)
	if err != nil {
		return h.mapServiceError(c, err, programmesPath)
	}
	choices, err := h.programmeChoices(c)
	if err != nil {
		return h.mapServiceError(c, err, "")
	}
	return showForm(c, p.Input(), choices)
}

func (h *Handler) UpdateProgramme(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return h.mapServiceError(c, err, programmesPath)
	}
	in, cover, closeFn, err := bindProgramme(c)
	defer closeFn()
	if err != nil {
		return h.renderForm(c, in, err, "")
	}
	if _, err := h.svc.Programmes.UpdateProgramme(c.UserContext(), id, in, cover); err != nil {
		return h.renderForm(c, in, err, programmesPath)
	}
	return redirect(c, programmesPath)
}

func (h *Handler) DeleteProgrammePage(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return h.mapServiceError(c, err, programmesPath)
	}
	p, err := h.svc.Programmes.GetProgramme(c.UserContext(), id)
	if err != nil {
		return h.mapServiceError(c, err, programmesPath)
	}
	return c.JSON(fiber.Map{"programme": p})
}

func (h *Handler) DeleteProgramme(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return h.mapServiceError(c, err, programmesPath)
	}
	if err := h.svc.Programmes.DeleteProgramme(c.UserContext(), id); err != nil {
		return h.mapServiceError(c, err, programmesPath)
	}
	return redirect(c, programmesPath)
}

func (h *Handler) ProgrammePage(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return h.mapServiceError(c, err, programmesPath)
	}
	detail, err := h.svc.Programmes.ProgrammeDetail(c.UserContext(), id)
	if err != nil {
		return h.mapServiceError(c, err, programmesPath)
	}
	return c.JSON(detail)
}
