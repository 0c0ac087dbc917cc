package handlers

import (
	"strings"

	"github.com/google/uuid"
)

func parseUUID(value string) (uuid.UUID, error) {
	return uuid.Parse(strings.TrimSpace(value))
}

func isValidTheme(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "confetti", "balloons", "stars", "classic":
		return true
	default:
		return false
	}
}
