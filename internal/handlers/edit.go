package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/onedaypage/backend/internal/cookiestore"
	"github.com/onedaypage/backend/internal/editlink"
	"github.com/onedaypage/backend/internal/services"
	"github.com/onedaypage/backend/pkg/utils"
)

// EditHandler is the landing point for shared edit links. It decodes the
// /edit/{uuid}?token=... shape, resolves the access status, and caches a
// URL-proven secret in the cookie so the link needs to be used only once.
type EditHandler struct {
	Access  *services.AccessService
	Cookies *cookiestore.Store
}

func NewEditHandler(access *services.AccessService, cookies *cookiestore.Store) *EditHandler {
	return &EditHandler{Access: access, Cookies: cookies}
}

func (h *EditHandler) Enter(c *fiber.Ctx) error {
	h.Cookies.SweepIfExpired(c)

	pageID, urlSecret := editlink.Decode(c.Path(), string(c.Request().URI().QueryString()))
	if pageID == nil {
		return utils.Success(c, fiber.StatusOK, accessResponse{Status: services.StatusInvalid})
	}

	claimed := urlSecret
	if claimed == "" {
		claimed = h.Cookies.Retrieve(c, *pageID)
	}

	status, err := h.Access.Check(c.Context(), pageID, claimed)
	if err != nil {
		return utils.Error(c, fiber.StatusServiceUnavailable, "could not verify access, try again")
	}

	switch status {
	case services.StatusValid:
		if urlSecret != "" {
			h.Cookies.Store(c, *pageID, urlSecret)
		}
	case services.StatusExpired:
		h.Cookies.RemoveEntry(c, *pageID)
	}

	return utils.Success(c, fiber.StatusOK, accessResponse{Status: status})
}
