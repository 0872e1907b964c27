package handlers

import (
	"fmt"
	"net/url"

	"github.com/gartstein/vcpms/internal/portfolio/models"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// checked reads an HTML checkbox.
func checked(c *fiber.Ctx, field string) bool {
	switch c.FormValue(field) {
	case "on", "true", "1", "True":
		return true
	}
	return false
}

// back returns to the referring page when it is on this host, or the
// dashboard otherwise.
func back(c *fiber.Ctx) error {
	ref, err := url.Parse(c.Get(fiber.HeaderReferer))
	if err != nil {
		return redirect(c, dashboardPath)
	}
	if ref.Host != "" && ref.Host != c.Hostname() {
		return redirect(c, dashboardPath)
	}
	return redirect(c, safeNext(ref.RequestURI()))
}

// uploadDocument handles both document forms of an owner page: a link when
// upload_url is posted, a file otherwise.
func (h *Handler) uploadDocument(c *fiber.Ctx, owner models.Owner, ownerPage string) error {
	isPrivate := checked(c, "is_private")
	if c.FormValue("upload_url") != "" {
		name, link := c.FormValue("file_name"), c.FormValue("url")
		if _, err := h.svc.Documents.AddURL(c.UserContext(), owner, name, link, isPrivate); err != nil {
			return h.renderForm(c, fiber.Map{"file_name": name, "url": link, "is_private": isPrivate}, err, ownerPage)
		}
		return redirect(c, ownerPage)
	}

	fh, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(formResponse{
			Form:   fiber.Map{"is_private": isPrivate},
			Errors: map[string]string{"file": "This field is required."},
		})
	}
	up, closeFn, err := upload(fh)
	if err != nil {
		return h.mapServiceError(c, err, "")
	}
	defer closeFn()
	if _, err := h.svc.Documents.UploadFile(c.UserContext(), owner, up, isPrivate); err != nil {
		return h.renderForm(c, fiber.Map{"file": fh.Filename, "is_private": isPrivate}, err, ownerPage)
	}
	return redirect(c, ownerPage)
}

func (h *Handler) UploadCompanyDocument(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return h.mapServiceError(c, err, dashboardPath)
	}
	return h.uploadDocument(c, models.Owner{Kind: models.OwnerCompany, ID: id}, companyPage(id))
}

func (h *Handler) UploadIndividualDocument(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return h.mapServiceError(c, err, individualsPath)
	}
	return h.uploadDocument(c, models.Owner{Kind: models.OwnerIndividual, ID: id}, individualProfile(id))
}

func (h *Handler) UploadProgrammeDocument(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return h.mapServiceError(c, err, programmesPath)
	}
	return h.uploadDocument(c, models.Owner{Kind: models.OwnerProgramme, ID: id}, programmePage(id))
}

// OpenDocument follows a link document to its target.
func (h *Handler) OpenDocument(c *fiber.Ctx) error {
	id, err := paramID(c, "file_id")
	if err != nil {
		return h.mapServiceError(c, err, "")
	}
	target, err := h.svc.Documents.LinkTarget(c.UserContext(), id)
	if err != nil {
		return h.mapServiceError(c, err, "")
	}
	return redirect(c, target)
}

// DownloadDocument streams a stored file as an attachment.
func (h *Handler) DownloadDocument(c *fiber.Ctx) error {
	id, err := paramID(c, "file_id")
	if err != nil {
		return h.mapServiceError(c, err, "")
	}
	doc, rc, err := h.svc.Documents.OpenFile(c.UserContext(), id)
	if err != nil {
		return h.mapServiceError(c, err, "")
	}
	c.Attachment(doc.FileName)
	if doc.FileSize > 0 {
		return c.SendStream(rc, int(doc.FileSize))
	}
	return c.SendStream(rc)
}

func (h *Handler) ToggleDocumentPrivacy(c *fiber.Ctx) error {
	id, err := paramID(c, "file_id")
	if err != nil {
		return h.mapServiceError(c, err, "")
	}
	if _, err := h.svc.Documents.TogglePrivacy(c.UserContext(), id); err != nil {
		return h.mapServiceError(c, err, "")
	}
	return back(c)
}

// ReplaceDocumentFile swaps the stored file of a file document.
func (h *Handler) ReplaceDocumentFile(c *fiber.Ctx) error {
	id, err := paramID(c, "file_id")
	if err != nil {
		return h.mapServiceError(c, err, "")
	}
	fh, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(formResponse{
			Form:   fiber.Map{},
			Errors: map[string]string{"file": "This field is required."},
		})
	}
	up, closeFn, err := upload(fh)
	if err != nil {
		return h.mapServiceError(c, err, "")
	}
	defer closeFn()
	if _, err := h.svc.Documents.ReplaceFile(c.UserContext(), id, up); err != nil {
		return h.renderForm(c, fiber.Map{"file": fh.Filename}, err, "")
	}
	return back(c)
}

// DeleteDocument removes the document. A file left behind on disk does not
// fail the request.
func (h *Handler) DeleteDocument(c *fiber.Ctx) error {
	id, err := paramID(c, "file_id")
	if err != nil {
		return h.mapServiceError(c, err, "")
	}
	doc, err := h.svc.Documents.DeleteDocument(c.UserContext(), id)
	if err != nil {
		if doc == nil {
			return h.mapServiceError(c, err, "")
		}
		h.logger.Warn("Document deleted but file remains", zap.Uint("document_id", id), zap.Error(err))
	}
	return back(c)
}

func companyPage(id uint) string       { return fmt.Sprintf("/portfolio_company/%d", id) }
func individualProfile(id uint) string { return fmt.Sprintf("/individual_profile_page/%d/", id) }
func programmePage(id uint) string     { return fmt.Sprintf("/programme_page/%d", id) }
