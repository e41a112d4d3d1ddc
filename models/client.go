package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Client is a customer of a company. Clients exist independently of sessions;
// sessions reference them but never own them.
type Client struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CompanyID uuid.UUID `gorm:"type:uuid;not null;index" json:"company_id"`
	FirstName string    `gorm:"size:100;not null" json:"first_name"`
	LastName  string    `gorm:"size:100" json:"last_name"`
	Email     string    `gorm:"size:150" json:"email"`
	Phone     string    `gorm:"size:30;index" json:"phone"`
	Address   string    `gorm:"size:255" json:"address"`
	Notes     string    `gorm:"type:text" json:"notes"`
	IsActive  bool      `gorm:"default:true" json:"is_active"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Vehicles []ClientVehicle `gorm:"foreignKey:ClientID" json:"vehicles,omitempty"`
}

// DisplayName is what search results and reports show for a client.
func (c *Client) DisplayName() string {
	if c.LastName == "" {
		return c.FirstName
	}
	return c.FirstName + " " + c.LastName
}

// ClientVehicle is one vehicle belonging to a client.
type ClientVehicle struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CompanyID    uuid.UUID `gorm:"type:uuid;not null;index" json:"company_id"`
	ClientID     uuid.UUID `gorm:"type:uuid;not null;index" json:"client_id"`
	Make         string    `gorm:"size:60;not null" json:"make"`
	Model        string    `gorm:"size:60;not null" json:"model"`
	Year         int       `json:"year"`
	PlateNumber  string    `gorm:"size:30;index" json:"plate_number"`
	VIN          string    `gorm:"size:40" json:"vin"`
	Color        string    `gorm:"size:30" json:"color"`
	EngineNumber string    `gorm:"size:50" json:"engine_number"`
	Mileage      int64     `json:"mileage"`
	Notes        string    `gorm:"type:text" json:"notes"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Client Client `gorm:"foreignKey:ClientID" json:"-"`
}

func (v *ClientVehicle) DisplayName() string {
	name := v.Make + " " + v.Model
	if v.PlateNumber != "" {
		name += " (" + v.PlateNumber + ")"
	}
	return name
}

func (c *Client) BeforeCreate(tx *gorm.DB) (err error) {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return
}

func (v *ClientVehicle) BeforeCreate(tx *gorm.DB) (err error) {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	return
}
