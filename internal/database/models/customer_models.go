package models

import "time"

type Customer struct {
	ID         int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	NationalID string    `gorm:"type:varchar(16);uniqueIndex;not null" json:"national_id"`
	Name       string    `gorm:"type:varchar(255);not null;index" json:"name"`
	Email      *string   `gorm:"type:varchar(255)" json:"email"`
	Phone      string    `gorm:"type:varchar(32);not null" json:"phone"`
	Address    *string   `gorm:"type:text" json:"address"`
	City       *string   `gorm:"type:varchar(128)" json:"city"`
	Active     bool      `gorm:"not null" json:"active"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`

	Orders []Order `gorm:"foreignKey:CustomerID" json:"orders,omitempty"`
}
