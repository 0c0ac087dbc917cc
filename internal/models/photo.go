package models

import (
	"github.com/google/uuid"
)

type Photo struct {
	BaseModel
	PageID      uuid.UUID `json:"pageID" gorm:"type:uuid;not null;index"`
	ObjectKey   string    `json:"-" gorm:"type:text;not null"`
	FileName    string    `json:"fileName" gorm:"type:varchar(255);not null"`
	ContentType string    `json:"contentType" gorm:"type:varchar(100);not null"`
	Size        int64     `json:"size" gorm:"not null"`
	Page        Page      `json:"-" gorm:"foreignKey:PageID;references:ID"`
}

func (Photo) TableName() string {
	return "photos"
}
