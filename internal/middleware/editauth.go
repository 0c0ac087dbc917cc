package middleware

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/onedaypage/backend/internal/cookiestore"
	"github.com/onedaypage/backend/internal/services"
	"github.com/onedaypage/backend/pkg/logger"
	"github.com/onedaypage/backend/pkg/utils"
)

const (
	pageIDKey     = "pageID"
	editSecretKey = "editSecret"
)

type EditAuthMiddleware struct {
	Access  *services.AccessService
	Cookies *cookiestore.Store
}

func NewEditAuthMiddleware(access *services.AccessService, cookies *cookiestore.Store) *EditAuthMiddleware {
	return &EditAuthMiddleware{Access: access, Cookies: cookies}
}

// RequireEditAccess guards every mutating page route. The claimed secret
// comes from the token query parameter, falling back to the browser cookie.
//
// Two-tier check, composed explicitly: when both a URL token and a cached
// cookie secret are present and disagree, the request is denied locally
// without a database round trip. A local match is only a hint — the
// authoritative decision is always the server-side comparison. A storage
// failure is surfaced as 503, never conflated with a denial.
func (m *EditAuthMiddleware) RequireEditAccess(c *fiber.Ctx) error {
	m.Cookies.SweepIfExpired(c)

	pageID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid page id")
	}

	claimed := c.Query("token")
	cached := m.Cookies.Retrieve(c, pageID)
	fromURL := claimed != ""
	if claimed == "" {
		claimed = cached
	}

	if fromURL && cached != "" && !cookiestore.Match(cached, claimed) {
		logger.WarnWithPage(pageID.String(), "edit_access_local_mismatch", map[string]interface{}{
			"path": c.Path(),
			"ip":   c.IP(),
		})
		return utils.Error(c, fiber.StatusUnauthorized, "invalid access token")
	}

	status, err := m.Access.Check(c.Context(), &pageID, claimed)
	if err != nil {
		logger.ErrorWithPage(pageID.String(), "edit_access_check_failed", err, map[string]interface{}{
			"path": c.Path(),
		})
		return utils.Error(c, fiber.StatusServiceUnavailable, "could not verify access, try again")
	}

	switch status {
	case services.StatusValid:
		// A secret proven valid from the URL is re-cached so later visits
		// can rely on the cookie alone.
		if fromURL {
			m.Cookies.Store(c, pageID, claimed)
		}
		c.Locals(pageIDKey, pageID)
		c.Locals(editSecretKey, claimed)
		return c.Next()
	case services.StatusExpired:
		m.Cookies.RemoveEntry(c, pageID)
		return utils.Error(c, fiber.StatusGone, "page expired")
	default:
		if cached != "" && claimed == cached {
			m.Cookies.RemoveEntry(c, pageID)
		}
		return utils.Error(c, fiber.StatusUnauthorized, "invalid access token")
	}
}

// PageID returns the page id proven by RequireEditAccess.
func PageID(c *fiber.Ctx) uuid.UUID {
	if id, ok := c.Locals(pageIDKey).(uuid.UUID); ok {
		return id
	}
	return uuid.Nil
}

// EditSecret returns the secret the current request proved possession of.
func EditSecret(c *fiber.Ctx) string {
	if secret, ok := c.Locals(editSecretKey).(string); ok {
		return secret
	}
	return ""
}
