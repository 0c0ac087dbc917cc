// Package editlink encodes and decodes the shareable edit link for a page:
// /edit/{uuid} with an optional ?token={secret} query parameter.
package editlink

import (
	"net/url"
	"regexp"

	"github.com/google/uuid"
)

var editPathPattern = regexp.MustCompile(`^/edit/([0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12})$`)

// Encode builds the edit path for a page. An empty secret yields a bare path;
// the visitor then relies on the cookie-stored credential instead of the URL.
func Encode(pageID uuid.UUID, secret string) string {
	path := "/edit/" + pageID.String()
	if secret == "" {
		return path
	}
	return path + "?token=" + url.QueryEscape(secret)
}

// Decode extracts the page id and token from a request path and raw query
// string. Malformed input never fails: a path that is not exactly an edit
// path with a canonical lowercase UUID yields a nil page id, and a missing or
// unparseable query yields an empty token. Validity decisions belong to the
// access check, not here.
func Decode(path, rawQuery string) (*uuid.UUID, string) {
	var pageID *uuid.UUID
	if m := editPathPattern.FindStringSubmatch(path); m != nil {
		if id, err := uuid.Parse(m[1]); err == nil {
			pageID = &id
		}
	}

	var secret string
	if values, err := url.ParseQuery(rawQuery); err == nil {
		secret = values.Get("token")
	}

	return pageID, secret
}
