package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Company represents one garage business (tenant). All operational data is
// scoped to a company; cross-company access is never allowed.
type Company struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name     string    `gorm:"size:150;not null" json:"name"`
	Code     string    `gorm:"size:20;uniqueIndex;not null" json:"code"` // e.g., "APEX", "DOWNTOWN"
	Email    string    `gorm:"size:150" json:"email"`
	Phone    string    `gorm:"size:30" json:"phone"`
	Address  string    `gorm:"size:255" json:"address"`
	TaxID    string    `gorm:"size:50" json:"tax_id"`
	IsActive bool      `gorm:"default:true" json:"is_active"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Branches []Branch      `gorm:"foreignKey:CompanyID" json:"branches,omitempty"`
	Users    []CompanyUser `gorm:"foreignKey:CompanyID" json:"users,omitempty"`
}

// Branch is a physical location of a company (workshop, service center).
type Branch struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CompanyID uuid.UUID `gorm:"type:uuid;not null;index" json:"company_id"`
	Name      string    `gorm:"size:150;not null" json:"name"`
	Address   string    `gorm:"size:255" json:"address"`
	Phone     string    `gorm:"size:30" json:"phone"`
	IsActive  bool      `gorm:"default:true" json:"is_active"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Company Company `gorm:"foreignKey:CompanyID" json:"-"`
}

// CompanyUser is a staff account within a company (advisor, technician, admin).
type CompanyUser struct {
	ID           uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	CompanyID    uuid.UUID  `gorm:"type:uuid;not null;index" json:"company_id"`
	BranchID     *uuid.UUID `gorm:"type:uuid" json:"branch_id,omitempty"`
	Name         string     `gorm:"size:150;not null" json:"name"`
	Email        string     `gorm:"size:150;uniqueIndex;not null" json:"email"`
	Phone        string     `gorm:"size:30" json:"phone"`
	PasswordHash string     `gorm:"size:255;not null" json:"-"`
	Role         string     `gorm:"size:30;not null;default:'technician'" json:"role"` // admin, advisor, technician, inspector
	IsActive     bool       `gorm:"default:true" json:"is_active"`
	InvitedAt    *time.Time `json:"invited_at,omitempty"`
	LastLoginAt  *time.Time `json:"last_login_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Company Company `gorm:"foreignKey:CompanyID" json:"-"`
}

func (c *Company) BeforeCreate(tx *gorm.DB) (err error) {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return
}

func (b *Branch) BeforeCreate(tx *gorm.DB) (err error) {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return
}

func (u *CompanyUser) BeforeCreate(tx *gorm.DB) (err error) {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return
}
