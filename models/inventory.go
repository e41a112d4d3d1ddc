package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// StockMovement kinds.
const (
	MovementReceipt    = "receipt"    // goods in
	MovementIssue      = "issue"      // parts consumed by a job card item
	MovementAdjustment = "adjustment" // manual count correction, signed quantity
)

// InventoryItem is a stocked part or consumable at a branch.
type InventoryItem struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	CompanyID uuid.UUID  `gorm:"type:uuid;not null;index" json:"company_id"`
	BranchID  *uuid.UUID `gorm:"type:uuid" json:"branch_id,omitempty"`

	SKU          string          `gorm:"size:60;not null;index" json:"sku"`
	Name         string          `gorm:"size:200;not null" json:"name"`
	Category     string          `gorm:"size:60" json:"category"` // e.g., "filters", "fluids", "brake parts"
	Unit         string          `gorm:"size:20;default:'pcs'" json:"unit"`
	QuantityOnHand int64         `gorm:"not null;default:0" json:"quantity_on_hand"`
	ReorderLevel int64           `gorm:"not null;default:0" json:"reorder_level"`
	UnitCost     decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0" json:"unit_cost"`
	UnitPrice    decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0" json:"unit_price"`
	IsActive     bool            `gorm:"default:true" json:"is_active"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Movements []StockMovement `gorm:"foreignKey:ItemID" json:"movements,omitempty"`
}

// NeedsReorder reports whether on-hand stock has fallen to the reorder level.
func (i *InventoryItem) NeedsReorder() bool {
	return i.QuantityOnHand <= i.ReorderLevel
}

// StockMovement is one change to an item's on-hand quantity. Quantity is
// positive for receipts, negative for issues; adjustments carry their sign.
type StockMovement struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CompanyID uuid.UUID `gorm:"type:uuid;not null;index" json:"company_id"`
	ItemID    uuid.UUID `gorm:"type:uuid;not null;index" json:"item_id"`

	Kind          string     `gorm:"size:20;not null" json:"kind"`
	Quantity      int64      `gorm:"not null" json:"quantity"`
	JobCardItemID *uuid.UUID `gorm:"type:uuid" json:"job_card_item_id,omitempty"` // set for issues against a task
	Reference     string     `gorm:"size:100" json:"reference"`
	Notes         string     `gorm:"size:255" json:"notes"`
	PerformedByID *uuid.UUID `gorm:"type:uuid" json:"performed_by_id,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

func (i *InventoryItem) BeforeCreate(tx *gorm.DB) (err error) {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return
}

func (m *StockMovement) BeforeCreate(tx *gorm.DB) (err error) {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return
}
