package models

import "time"

// User carries both the identity record and the profile fields the
// application layers on top of it (company, address, logo, admin flag).
type User struct {
	ID           uint   `gorm:"primaryKey" json:"id"`
	Email        string `gorm:"size:255;unique;not null;index" json:"email"`
	PasswordHash string `gorm:"size:255;not null" json:"-"`

	Name    string `gorm:"size:255" json:"name,omitempty"`
	Company string `gorm:"size:255" json:"company,omitempty"`
	Address string `gorm:"size:500" json:"address,omitempty"`
	Phone   string `gorm:"size:50" json:"phone,omitempty"`
	LogoURL string `gorm:"size:500" json:"logo_url,omitempty"`
	Admin   bool   `gorm:"default:false" json:"admin"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
