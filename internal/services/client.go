package services

import (
	"fmt"

	"github.com/mitgajera/InvoicePro/internal/models"

	"gorm.io/gorm"
)

// ClientService owns client-contact CRUD. Every read and write is
// scoped to the owning user id; there is no way to reach another
// user's rows through this service.
type ClientService struct {
	db *gorm.DB
}

func NewClientService(db *gorm.DB) *ClientService {
	return &ClientService{db: db}
}

// List returns all clients owned by the user, alphabetically.
func (s *ClientService) List(userID uint) ([]models.Client, error) {
	var clients []models.Client
	if err := s.db.Where("user_id = ?", userID).Order("name").Find(&clients).Error; err != nil {
		return nil, fmt.Errorf("list clients: %w", err)
	}
	return clients, nil
}

// Get fetches a single client owned by the user.
func (s *ClientService) Get(clientID, userID uint) (*models.Client, error) {
	var client models.Client
	if err := s.db.Where("id = ? AND user_id = ?", clientID, userID).First(&client).Error; err != nil {
		return nil, err
	}
	return &client, nil
}

// Add creates a client owned by the user. Name and email are required;
// the handler boundary validates them before calling.
func (s *ClientService) Add(userID uint, client models.Client) (*models.Client, error) {
	client.ID = 0
	client.UserID = userID
	if err := s.db.Create(&client).Error; err != nil {
		return nil, fmt.Errorf("create client: %w", err)
	}
	return &client, nil
}

// ClientPatch carries partial client updates. Nil fields are untouched.
type ClientPatch struct {
	Name    *string `json:"name"`
	Email   *string `json:"email"`
	Company *string `json:"company"`
	Address *string `json:"address"`
	Phone   *string `json:"phone"`
	TaxID   *string `json:"tax_id"`
}

// Update applies a partial update to a client after the ownership check.
func (s *ClientService) Update(clientID, userID uint, patch ClientPatch) (*models.Client, error) {
	client, err := s.Get(clientID, userID)
	if err != nil {
		return nil, err
	}
	if patch.Name != nil {
		client.Name = *patch.Name
	}
	if patch.Email != nil {
		client.Email = *patch.Email
	}
	if patch.Company != nil {
		client.Company = *patch.Company
	}
	if patch.Address != nil {
		client.Address = *patch.Address
	}
	if patch.Phone != nil {
		client.Phone = *patch.Phone
	}
	if patch.TaxID != nil {
		client.TaxID = *patch.TaxID
	}
	if err := s.db.Save(client).Error; err != nil {
		return nil, fmt.Errorf("update client: %w", err)
	}
	return client, nil
}

// Delete removes a client owned by the user.
func (s *ClientService) Delete(clientID, userID uint) error {
	res := s.db.Where("id = ? AND user_id = ?", clientID, userID).Delete(&models.Client{})
	if res.Error != nil {
		return fmt.Errorf("delete client: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
