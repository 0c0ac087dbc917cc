package models

import (
	"time"
)

type PageTheme string

const (
	PageThemeConfetti PageTheme = "confetti"
	PageThemeBalloons PageTheme = "balloons"
	PageThemeStars    PageTheme = "stars"
	PageThemeClassic  PageTheme = "classic"
)

// Page is the authoritative record for a single birthday page. The secret is
// the bearer credential for edit access; it is never serialized to JSON.
type Page struct {
	BaseModel
	Secret     string    `json:"-" gorm:"type:varchar(64);not null"`
	ExpiresAt  time.Time `json:"expiresAt" gorm:"not null;index"`
	Title      string    `json:"title" gorm:"type:varchar(255);not null"`
	Theme      PageTheme `json:"theme" gorm:"type:varchar(20);not null;default:'confetti'"`
	PhotoQuota int       `json:"photoQuota" gorm:"not null;default:20"`
	Messages   []Message `json:"-" gorm:"foreignKey:PageID"`
	Photos     []Photo   `json:"-" gorm:"foreignKey:PageID"`
}

func (Page) TableName() string {
	return "pages"
}

// Expired reports whether the page is past its expiry at the given instant.
// An expired page is treated as deleted even if the row still exists pending
// the next sweep.
func (p *Page) Expired(now time.Time) bool {
	return now.After(p.ExpiresAt)
}
