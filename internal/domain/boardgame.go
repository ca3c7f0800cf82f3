package domain

import (
	"time"

	"gorm.io/datatypes"
)

type BoardGame struct {
	ID          uint           `json:"id" gorm:"primaryKey"`
	Name        string         `json:"name" gorm:"uniqueIndex;not null"`
	Description string         `json:"description" gorm:"not null"`
	Complexity  float64        `json:"complexity" gorm:"not null"`
	MinAge      int            `json:"minAge"`
	PlayTime    int            `json:"playTime"`
	Year        int            `json:"year"`
	Mechanics   datatypes.JSON `json:"mechanics,omitempty"`
	OwnerID     uint           `json:"ownerId" gorm:"index;not null"`
	Owner       *User          `json:"-" gorm:"foreignKey:OwnerID"`
	CreatedAt   time.Time      `json:"createdAt" gorm:"index"`
	UpdatedAt   time.Time      `json:"updatedAt"`
}
