package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/onedaypage/backend/internal/models"
	"gorm.io/gorm"
)

// Status classifies the outcome of an access check as consumed by the UI.
// A storage failure is deliberately not a status: it is returned as an error
// so callers can tell "checked and denied" apart from "could not check".
type Status string

const (
	StatusValid   Status = "valid"
	StatusExpired Status = "expired"
	StatusInvalid Status = "invalid"
)

type AccessService struct {
	DB *gorm.DB
}

func NewAccessService(db *gorm.DB) *AccessService {
	return &AccessService{DB: db}
}

// Check is the authoritative, server-confirmed access decision for edit
// access to a page. It is a pure read: no state is mutated on any path.
//
// A nil or unknown page id yields StatusInvalid. A page past its expiry
// yields StatusExpired even while the row still exists pending sweep. The
// secret comparison is exact string equality; there are no partial or
// case-insensitive matches.
func (a *AccessService) Check(ctx context.Context, pageID *uuid.UUID, claimedSecret string) (Status, error) {
	if pageID == nil {
		return StatusInvalid, nil
	}

	var page models.Page
	err := a.DB.WithContext(ctx).First(&page, "id = ?", *pageID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return StatusInvalid, nil
	}
	if err != nil {
		return "", err
	}

	if page.Expired(time.Now()) {
		return StatusExpired, nil
	}

	if claimedSecret != page.Secret {
		return StatusInvalid, nil
	}

	return StatusValid, nil
}
