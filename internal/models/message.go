package models

import (
	"github.com/google/uuid"
)

type Message struct {
	BaseModel
	PageID uuid.UUID `json:"pageID" gorm:"type:uuid;not null;index"`
	Author string    `json:"author" gorm:"type:varchar(100);not null"`
	Body   string    `json:"body" gorm:"type:text;not null"`
	Page   Page      `json:"-" gorm:"foreignKey:PageID;references:ID"`
}

func (Message) TableName() string {
	return "messages"
}
