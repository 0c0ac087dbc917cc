// Package cookiestore manages the browser-side credential cookie. The cookie
// is a cache and proof-of-possession carrier only; the page record in the
// database stays the sole authority for any mutating action.
package cookiestore

import (
	"encoding/base64"
	"encoding/json"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/onedaypage/backend/internal/config"
)

// Entry is one stored credential: which page, its secret, and when the
// browser obtained it (epoch milliseconds).
type Entry struct {
	PageID    string `json:"uuid"`
	Secret    string `json:"token"`
	CreatedAt int64  `json:"createdAt"`
}

type Store struct {
	cfg config.CookieConfig
}

func New(cfg config.CookieConfig) *Store {
	return &Store{cfg: cfg}
}

// Store persists the credential for a page, overwriting any existing entry
// for the same page. Under the single-slot policy all other entries are
// dropped as well, matching the original one-page-per-device behavior.
func (s *Store) Store(c *fiber.Ctx, pageID uuid.UUID, secret string) {
	var entries []Entry
	if !s.cfg.SingleSlot {
		entries = s.fresh(s.parse(c), time.Now())
		entries = removeEntry(entries, pageID.String())
	}

	entries = append(entries, Entry{
		PageID:    pageID.String(),
		Secret:    secret,
		CreatedAt: time.Now().UnixMilli(),
	})

	s.write(c, entries)
}

// Retrieve returns the cached secret for a page, or "" when the cookie is
// absent, holds a different page, fails to parse, or the entry is past the
// client-side lifetime. Parse failures are treated as absence: the cookie is
// untrusted input and never worth an error.
func (s *Store) Retrieve(c *fiber.Ctx, pageID uuid.UUID) string {
	now := time.Now()
	for _, entry := range s.parse(c) {
		if entry.PageID != pageID.String() {
			continue
		}
		if s.expired(entry, now) {
			return ""
		}
		return entry.Secret
	}
	return ""
}

// RemoveEntry drops the credential for one page and keeps the rest of the
// cookie intact. Under the single-slot policy, or when no entries remain,
// the whole cookie is cleared.
func (s *Store) RemoveEntry(c *fiber.Ctx, pageID uuid.UUID) {
	if s.cfg.SingleSlot {
		s.Remove(c)
		return
	}

	kept := removeEntry(s.parse(c), pageID.String())
	if len(kept) == 0 {
		s.Remove(c)
		return
	}
	s.write(c, kept)
}

// Remove clears the cookie unconditionally.
func (s *Store) Remove(c *fiber.Ctx) {
	c.Cookie(&fiber.Cookie{
		Name:     s.cfg.Name,
		Value:    "",
		Path:     "/",
		Expires:  time.Now().Add(-time.Hour),
		MaxAge:   -1,
		Secure:   s.cfg.Secure,
		SameSite: fiber.CookieSameSiteStrictMode,
	})
}

// SweepIfExpired drops entries older than the configured lifetime. This is
// local hygiene against stale credentials, independent of server state; the
// authoritative expiry check always happens against the page record.
func (s *Store) SweepIfExpired(c *fiber.Ctx) {
	entries := s.parse(c)
	if len(entries) == 0 {
		return
	}

	fresh := s.fresh(entries, time.Now())
	if len(fresh) == len(entries) {
		return
	}
	if len(fresh) == 0 {
		s.Remove(c)
		return
	}
	s.write(c, fresh)
}

// Match is the local fast-path comparison: a cached secret that disagrees
// with the claimed one short-circuits to a denial without a round trip. A
// match is only a hint and still requires server confirmation.
func Match(cached, claimed string) bool {
	return cached != "" && cached == claimed
}

func (s *Store) parse(c *fiber.Ctx) []Entry {
	raw := c.Cookies(s.cfg.Name)
	if raw == "" {
		return nil
	}

	decoded, err := base64.RawURLEncoding.DecodeString(raw)
	if err != nil {
		return nil
	}

	var entries []Entry
	if err := json.Unmarshal(decoded, &entries); err != nil {
		return nil
	}
	return entries
}

func (s *Store) write(c *fiber.Ctx, entries []Entry) {
	data, err := json.Marshal(entries)
	if err != nil {
		return
	}

	c.Cookie(&fiber.Cookie{
		Name:     s.cfg.Name,
		Value:    base64.RawURLEncoding.EncodeToString(data),
		Path:     "/",
		MaxAge:   int(s.cfg.MaxAge.Seconds()),
		Secure:   s.cfg.Secure,
		SameSite: fiber.CookieSameSiteStrictMode,
	})
}

func (s *Store) expired(entry Entry, now time.Time) bool {
	issued := time.UnixMilli(entry.CreatedAt)
	return now.Sub(issued) > s.cfg.MaxAge
}

func (s *Store) fresh(entries []Entry, now time.Time) []Entry {
	var kept []Entry
	for _, entry := range entries {
		if !s.expired(entry, now) {
			kept = append(kept, entry)
		}
	}
	return kept
}

func removeEntry(entries []Entry, pageID string) []Entry {
	var kept []Entry
	for _, entry := range entries {
		if entry.PageID != pageID {
			kept = append(kept, entry)
		}
	}
	return kept
}
