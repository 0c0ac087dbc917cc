package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/onedaypage/backend/internal/config"
	"github.com/onedaypage/backend/internal/cookiestore"
	"github.com/onedaypage/backend/internal/editlink"
	"github.com/onedaypage/backend/internal/middleware"
	"github.com/onedaypage/backend/internal/models"
	"github.com/onedaypage/backend/internal/services"
	"github.com/onedaypage/backend/pkg/logger"
	"github.com/onedaypage/backend/pkg/utils"
	"gorm.io/gorm"
)

type PagesHandler struct {
	DB      *gorm.DB
	Pages   *services.PageService
	Access  *services.AccessService
	Cookies *cookiestore.Store
	Policy  config.PageConfig
}

func NewPagesHandler(db *gorm.DB, pages *services.PageService, access *services.AccessService, cookies *cookiestore.Store, policy config.PageConfig) *PagesHandler {
	return &PagesHandler{DB: db, Pages: pages, Access: access, Cookies: cookies, Policy: policy}
}

type createPageRequest struct {
	Title string `json:"title"`
	Theme string `json:"theme"`
}

type createPageResponse struct {
	Page     models.Page `json:"page"`
	Token    string      `json:"token"`
	EditLink string      `json:"editLink"`
}

// Create makes a new page and hands the creator their edit credential. The
// raw secret appears exactly once in this response and in the cookie; it is
// never serialized with the page afterwards.
func (h *PagesHandler) Create(c *fiber.Ctx) error {
	var req createPageRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}

	if req.Title == "" {
		return utils.Error(c, fiber.StatusBadRequest, "title is required")
	}
	if len(req.Title) > 255 {
		return utils.Error(c, fiber.StatusBadRequest, "title must be 255 characters or less")
	}

	theme := models.PageThemeConfetti
	if req.Theme != "" {
		if !isValidTheme(req.Theme) {
			return utils.Error(c, fiber.StatusBadRequest, "invalid theme")
		}
		theme = models.PageTheme(req.Theme)
	}

	page, err := h.Pages.Create(c.Context(), req.Title, theme)
	if err != nil {
		return utils.Error(c, fiber.StatusServiceUnavailable, "failed creating page, try again")
	}

	h.Cookies.Store(c, page.ID, page.Secret)

	return utils.Success(c, fiber.StatusCreated, createPageResponse{
		Page:     *page,
		Token:    page.Secret,
		EditLink: editlink.Encode(page.ID, page.Secret),
	})
}

// PublicGet serves a page to any visitor without a token. This is the
// deliberate open-view policy for low-stakes celebratory content; it can be
// switched off, and edit access is never granted through this path.
func (h *PagesHandler) PublicGet(c *fiber.Ctx) error {
	if !h.Policy.PublicView {
		return utils.Error(c, fiber.StatusForbidden, "public viewing is disabled")
	}

	pageID, err := parseUUID(c.Params("id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid page id")
	}

	var page models.Page
	if err := h.DB.Where("id = ? AND expires_at > NOW()", pageID).First(&page).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return utils.Error(c, fiber.StatusNotFound, "page not found")
		}
		return utils.Error(c, fiber.StatusServiceUnavailable, "failed loading page, try again")
	}

	return utils.Success(c, fiber.StatusOK, page)
}

type accessResponse struct {
	Status services.Status `json:"status"`
}

// CheckAccess reports the access status for the claimed credential so the
// frontend can pick between editor, "session expired", and "unauthorized"
// screens. The claimed secret comes from the token query parameter, falling
// back to the cookie. A storage outage is 503, never reported as invalid.
func (h *PagesHandler) CheckAccess(c *fiber.Ctx) error {
	h.Cookies.SweepIfExpired(c)

	pageID, err := parseUUID(c.Params("id"))
	if err != nil {
		return utils.Success(c, fiber.StatusOK, accessResponse{Status: services.StatusInvalid})
	}

	claimed := c.Query("token")
	if claimed == "" {
		claimed = h.Cookies.Retrieve(c, pageID)
	}

	status, err := h.Access.Check(c.Context(), &pageID, claimed)
	if err != nil {
		return utils.Error(c, fiber.StatusServiceUnavailable, "could not verify access, try again")
	}

	return utils.Success(c, fiber.StatusOK, accessResponse{Status: status})
}

type updatePageRequest struct {
	Title *string `json:"title"`
	Theme *string `json:"theme"`
}

func (h *PagesHandler) Update(c *fiber.Ctx) error {
	pageID := middleware.PageID(c)

	var req updatePageRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}

	patch := map[string]interface{}{}
	if req.Title != nil {
		if *req.Title == "" || len(*req.Title) > 255 {
			return utils.Error(c, fiber.StatusBadRequest, "title must be 1-255 characters")
		}
		patch["title"] = *req.Title
	}
	if req.Theme != nil {
		if !isValidTheme(*req.Theme) {
			return utils.Error(c, fiber.StatusBadRequest, "invalid theme")
		}
		patch["theme"] = *req.Theme
	}
	if len(patch) == 0 {
		return utils.Error(c, fiber.StatusBadRequest, "nothing to update")
	}

	if err := h.DB.Model(&models.Page{}).Where("id = ?", pageID).Updates(patch).Error; err != nil {
		return utils.Error(c, fiber.StatusServiceUnavailable, "failed updating page, try again")
	}

	var page models.Page
	if err := h.DB.First(&page, "id = ?", pageID).Error; err != nil {
		return utils.Error(c, fiber.StatusServiceUnavailable, "failed loading page, try again")
	}

	return utils.Success(c, fiber.StatusOK, page)
}

type rotateResponse struct {
	Token    string `json:"token"`
	EditLink string `json:"editLink"`
}

// Rotate replaces the page secret and extends the page's lifetime. Losing
// the rotation race against a concurrent rotation yields 409; the stored
// secret then belongs to exactly one winner.
func (h *PagesHandler) Rotate(c *fiber.Ctx) error {
	pageID := middleware.PageID(c)

	newSecret, ok, err := h.Pages.RotateSecret(c.Context(), pageID, middleware.EditSecret(c))
	if err != nil {
		return utils.Error(c, fiber.StatusServiceUnavailable, "failed rotating token, try again")
	}
	if !ok {
		return utils.Error(c, fiber.StatusConflict, "token no longer current")
	}

	h.Cookies.Store(c, pageID, newSecret)

	return utils.Success(c, fiber.StatusOK, rotateResponse{
		Token:    newSecret,
		EditLink: editlink.Encode(pageID, newSecret),
	})
}

func (h *PagesHandler) Delete(c *fiber.Ctx) error {
	pageID := middleware.PageID(c)

	if err := h.Pages.Delete(c.Context(), pageID); err != nil {
		return utils.Error(c, fiber.StatusServiceUnavailable, "failed deleting page, try again")
	}

	h.Cookies.RemoveEntry(c, pageID)

	logger.InfoWithPage(pageID.String(), "page_deleted", nil)

	return utils.Success(c, fiber.StatusOK, fiber.Map{"deleted": true})
}
