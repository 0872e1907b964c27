package handlers

import (
	"github.com/gartstein/vcpms/internal/portfolio/auth"
	"github.com/gartstein/vcpms/internal/portfolio/listing"
	"github.com/gofiber/fiber/v2"
)

// searchQuery reads the search box from the query string or the form body.
func searchQuery(c *fiber.Ctx) listing.Query {
	if c.Method() == fiber.MethodPost {
		return listing.Query(c.FormValue("searchresult"))
	}
	return listing.Query(c.Query("searchresult"))
}

// searchPage reads the page of a full search result.
func searchPage(c *fiber.Ctx) int {
	if c.Method() == fiber.MethodPost {
		return listing.ParsePage(c.FormValue("page"))
	}
	return pageQuery(c, "page")
}

func (h *Handler) Dashboard(c *fiber.Ctx) error {
	list, err := h.svc.Dashboard.Companies(c.UserContext(), auth.FromContext(c), pageQuery(c, "page"))
	if err != nil {
		return h.mapServiceError(c, err, "")
	}
	return c.JSON(list)
}

func (h *Handler) ChangeCompanyFilter(c *fiber.Ctx) error {
	mode := listing.ParseCompanyMode(c.Query("filter_number"))
	list, err := h.svc.Dashboard.ChangeCompanyFilter(c.UserContext(), auth.FromContext(c), mode, pageQuery(c, "page"))
	if err != nil {
		return h.mapServiceError(c, err, "")
	}
	return c.JSON(list)
}

func (h *Handler) ChangeCompanyLayout(c *fiber.Ctx) error {
	layout := listing.ParseLayout(c.Query("layout_number"))
	list, err := h.svc.Dashboard.ChangeCompanyLayout(c.UserContext(), auth.FromContext(c), layout, pageQuery(c, "page"))
	if err != nil {
		return h.mapServiceError(c, err, "")
	}
	return c.JSON(list)
}

// SearchCompanies answers the inline search on GET and the full result page
// on POST. An empty full search goes back to the dashboard.
func (h *Handler) SearchCompanies(c *fiber.Ctx) error {
	q := searchQuery(c)
	rc := auth.FromContext(c)
	if c.Method() == fiber.MethodGet {
		found, err := h.svc.Dashboard.SearchCompaniesInline(c.UserContext(), rc, q)
		if err != nil {
			return h.mapServiceError(c, err, "")
		}
		return c.JSON(fiber.Map{"searched": q, "companies": found})
	}
	if q.Empty() {
		return redirect(c, dashboardPath)
	}
	page, err := h.svc.Dashboard.SearchCompaniesPage(c.UserContext(), rc, q, searchPage(c))
	if err != nil {
		return h.mapServiceError(c, err, "")
	}
	return c.JSON(fiber.Map{"searched": q, "page": page})
}

func (h *Handler) IndividualDashboard(c *fiber.Ctx) error {
	list, err := h.svc.Dashboard.Individuals(c.UserContext(), auth.FromContext(c), pageQuery(c, "page"))
	if err != nil {
		return h.mapServiceError(c, err, "")
	}
	return c.JSON(list)
}

func (h *Handler) ChangeIndividualFilter(c *fiber.Ctx) error {
	mode := listing.ParseIndividualMode(c.Query("filter_number"))
	list, err := h.svc.Dashboard.ChangeIndividualFilter(c.UserContext(), auth.FromContext(c), mode, pageQuery(c, "page"))
	if err != nil {
		return h.mapServiceError(c, err, "")
	}
	return c.JSON(list)
}

func (h *Handler) ChangeIndividualLayout(c *fiber.Ctx) error {
	layout := listing.ParseLayout(c.Query("layout_number"))
	list, err := h.svc.Dashboard.ChangeIndividualLayout(c.UserContext(), auth.FromContext(c), layout, pageQuery(c, "page"))
	if err != nil {
		return h.mapServiceError(c, err, "")
	}
	return c.JSON(list)
}

func (h *Handler) SearchIndividuals(c *fiber.Ctx) error {
	q := searchQuery(c)
	rc := auth.FromContext(c)
	if c.Method() == fiber.MethodGet {
		found, err := h.svc.Dashboard.SearchIndividualsInline(c.UserContext(), rc, q)
		if err != nil {
			return h.mapServiceError(c, err, "")
		}
		return c.JSON(fiber.Map{"searched": q, "individuals": found})
	}
	if q.Empty() {
		return redirect(c, individualsPath)
	}
	page, err := h.svc.Dashboard.SearchIndividualsPage(c.UserContext(), rc, q, searchPage(c))
	if err != nil {
		return h.mapServiceError(c, err, "")
	}
	return c.JSON(fiber.Map{"searched": q, "page": page})
}

// Archive is staff only; the route already sent everyone else to logout.
func (h *Handler) Archive(c *fiber.Ctx) error {
	archive, err := h.svc.Dashboard.Archive(c.UserContext(), auth.FromContext(c), pageQuery(c, "page1"), pageQuery(c, "page2"))
	if err != nil {
		return h.mapServiceError(c, err, logoutPath)
	}
	return c.JSON(archive)
}

func (h *Handler) SearchArchive(c *fiber.Ctx) error {
	q := searchQuery(c)
	res, err := h.svc.Dashboard.SearchArchive(c.UserContext(), auth.FromContext(c), q)
	if err != nil {
		return h.mapServiceError(c, err, logoutPath)
	}
	return c.JSON(fiber.Map{"searched": q, "companies": res.Companies, "individuals": res.Individuals})
}

func (h *Handler) ChangeArchivedCompanyFilter(c *fiber.Ctx) error {
	mode := listing.ParseCompanyMode(c.Query("filter_number"))
	page, err := h.svc.Dashboard.ChangeArchivedCompanyFilter(c.UserContext(), auth.FromContext(c), mode, pageQuery(c, "page1"))
	if err != nil {
		return h.mapServiceError(c, err, logoutPath)
	}
	return c.JSON(fiber.Map{"companies": page})
}

func (h *Handler) ChangeArchivedIndividualFilter(c *fiber.Ctx) error {
	mode := listing.ParseIndividualMode(c.Query("filter_number"))
	page, err := h.svc.Dashboard.ChangeArchivedIndividualFilter(c.UserContext(), auth.FromContext(c), mode, pageQuery(c, "page2"))
	if err != nil {
		return h.mapServiceError(c, err, logoutPath)
	}
	return c.JSON(fiber.Map{"individuals": page})
}
