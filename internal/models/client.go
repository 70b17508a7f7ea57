package models

import "time"

// Client represents a billable customer contact.
type Client struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// UserID is the owner of this client record.
	UserID uint `gorm:"index;not null" json:"user_id"`
	User   User `gorm:"foreignKey:UserID" json:"-"`

	Name    string `gorm:"size:255;not null" json:"name"`
	Email   string `gorm:"size:255;not null" json:"email"`
	Company string `gorm:"size:255" json:"company,omitempty"`
	Address string `gorm:"size:500" json:"address,omitempty"`
	Phone   string `gorm:"size:50" json:"phone,omitempty"`
	TaxID   string `gorm:"size:50" json:"tax_id,omitempty"`

	Invoices []Invoice `gorm:"foreignKey:ClientID" json:"invoices,omitempty"`
}

// GetUserID implements the Ownable convention used for ownership checks.
func (c *Client) GetUserID() uint {
	return c.UserID
}
