package handlers

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"p9e.in/garage/config"
	"p9e.in/garage/middleware"
	"p9e.in/garage/models"
)

// InventoryHandler manages stocked parts and their movements. On-hand
// quantities are never written directly, a movement row and the quantity
// update always land in the same transaction.
type InventoryHandler struct {
	db *gorm.DB
}

func NewInventoryHandler() *InventoryHandler {
	return &InventoryHandler{db: config.DB}
}

// CreateItemRequest registers a new stocked part
type CreateItemRequest struct {
	BranchID     *string         `json:"branch_id"`
	SKU          string          `json:"sku"`
	Name         string          `json:"name"`
	Category     string          `json:"category"`
	Unit         string          `json:"unit"`
	ReorderLevel int64           `json:"reorder_level"`
	UnitCost     decimal.Decimal `json:"unit_cost"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
}

func (h *InventoryHandler) CreateItem(w http.ResponseWriter, r *http.Request) {
	companyID := middleware.GetCompanyID(r)

	var req CreateItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON", err)
		return
	}
	if req.SKU == "" || req.Name == "" {
		writeError(w, http.StatusBadRequest, "sku and name are required", nil)
		return
	}

	var count int64
	h.db.Model(&models.InventoryItem{}).
		Where("company_id = ? AND sku = ?", companyID, req.SKU).Count(&count)
	if count > 0 {
		writeError(w, http.StatusConflict, "an item with this SKU already exists", nil)
		return
	}

	item := models.InventoryItem{
		CompanyID:    companyID,
		SKU:          req.SKU,
		Name:         req.Name,
		Category:     req.Category,
		Unit:         req.Unit,
		ReorderLevel: req.ReorderLevel,
		UnitCost:     req.UnitCost,
		UnitPrice:    req.UnitPrice,
		IsActive:     true,
	}
	if req.BranchID != nil {
		branchID, err := parseUUIDParam(*req.BranchID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid branch_id", err)
			return
		}
		item.BranchID = &branchID
	}
	if item.Unit == "" {
		item.Unit = "pcs"
	}

	if err := h.db.Create(&item).Error; err != nil {
		log.Printf("❌ Failed to create inventory item: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to create item", err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"message": "Item created successfully",
		"item":    item,
	})
}

func (h *InventoryHandler) GetItem(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	companyID := middleware.GetCompanyID(r)

	var item models.InventoryItem
	if err := h.db.First(&item, "id = ? AND company_id = ?", vars["id"], companyID).Error; err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"item":          item,
		"needs_reorder": item.NeedsReorder(),
	})
}

// ListItems lists inventory with optional category/search filters.
// ?low_stock=true narrows to items at or below their reorder level.
func (h *InventoryHandler) ListItems(w http.ResponseWriter, r *http.Request) {
	companyID := middleware.GetCompanyID(r)

	query := h.db.Model(&models.InventoryItem{}).
		Where("company_id = ? AND is_active = ?", companyID, true)

	if category := r.URL.Query().Get("category"); category != "" {
		query = query.Where("category = ?", category)
	}
	if search := r.URL.Query().Get("search"); search != "" {
		term := "%" + search + "%"
		query = query.Where("LOWER(name) LIKE LOWER(?) OR LOWER(sku) LIKE LOWER(?)", term, term)
	}
	if r.URL.Query().Get("low_stock") == "true" {
		query = query.Where("quantity_on_hand <= reorder_level")
	}

	var items []models.InventoryItem
	if err := query.Order("name ASC").Limit(200).Find(&items).Error; err != nil {
		writeError(w, http.StatusInternalServerError, "failed to fetch items", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"items": items,
		"count": len(items),
	})
}

// UpdateItemRequest edits the descriptive fields of an item. Quantity is not
// editable here, stock changes go through movements.
type UpdateItemRequest struct {
	Name         *string          `json:"name"`
	Category     *string          `json:"category"`
	Unit         *string          `json:"unit"`
	ReorderLevel *int64           `json:"reorder_level"`
	UnitCost     *decimal.Decimal `json:"unit_cost"`
	UnitPrice    *decimal.Decimal `json:"unit_price"`
	IsActive     *bool            `json:"is_active"`
}

func (h *InventoryHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	companyID := middleware.GetCompanyID(r)

	var req UpdateItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON", err)
		return
	}

	var item models.InventoryItem
	if err := h.db.First(&item, "id = ? AND company_id = ?", vars["id"], companyID).Error; err != nil {
		writeServiceError(w, err)
		return
	}

	if req.Name != nil {
		item.Name = *req.Name
	}
	if req.Category != nil {
		item.Category = *req.Category
	}
	if req.Unit != nil {
		item.Unit = *req.Unit
	}
	if req.ReorderLevel != nil {
		item.ReorderLevel = *req.ReorderLevel
	}
	if req.UnitCost != nil {
		item.UnitCost = *req.UnitCost
	}
	if req.UnitPrice != nil {
		item.UnitPrice = *req.UnitPrice
	}
	if req.IsActive != nil {
		item.IsActive = *req.IsActive
	}

	if err := h.db.Save(&item).Error; err != nil {
		writeError(w, http.StatusInternalServerError, "failed to update item", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Item updated successfully",
		"item":    item,
	})
}

// RecordMovementRequest changes on-hand stock
type RecordMovementRequest struct {
	Kind          string  `json:"kind"`
	Quantity      int64   `json:"quantity"`
	JobCardItemID *string `json:"job_card_item_id"`
	Reference     string  `json:"reference"`
	Notes         string  `json:"notes"`
}

// RecordMovement applies a stock movement and the resulting quantity change
// atomically. Receipts must be positive, issues must be positive (stored
// negative), adjustments carry their own sign. Stock can never go negative.
func (h *InventoryHandler) RecordMovement(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	companyID := middleware.GetCompanyID(r)
	userID := middleware.GetUserID(r)

	var req RecordMovementRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON", err)
		return
	}

	var delta int64
	switch req.Kind {
	case models.MovementReceipt:
		if req.Quantity <= 0 {
			writeError(w, http.StatusBadRequest, "receipt quantity must be positive", nil)
			return
		}
		delta = req.Quantity
	case models.MovementIssue:
		if req.Quantity <= 0 {
			writeError(w, http.StatusBadRequest, "issue quantity must be positive", nil)
			return
		}
		delta = -req.Quantity
	case models.MovementAdjustment:
		if req.Quantity == 0 {
			writeError(w, http.StatusBadRequest, "adjustment quantity cannot be zero", nil)
			return
		}
		delta = req.Quantity
	default:
		writeError(w, http.StatusBadRequest, "kind must be receipt, issue or adjustment", nil)
		return
	}

	var item models.InventoryItem
	if err := h.db.First(&item, "id = ? AND company_id = ?", vars["id"], companyID).Error; err != nil {
		writeServiceError(w, err)
		return
	}

	if item.QuantityOnHand+delta < 0 {
		writeError(w, http.StatusConflict, "insufficient stock on hand", nil)
		return
	}

	movement := models.StockMovement{
		CompanyID:     companyID,
		ItemID:        item.ID,
		Kind:          req.Kind,
		Quantity:      delta,
		Reference:     req.Reference,
		Notes:         req.Notes,
		PerformedByID: &userID,
	}

	if req.JobCardItemID != nil {
		itemID, err := parseUUIDParam(*req.JobCardItemID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid job_card_item_id", err)
			return
		}
		var count int64
		h.db.Model(&models.JobCardItem{}).
			Joins("JOIN job_cards ON job_cards.id = job_card_items.job_card_id").
			Where("job_card_items.id = ? AND job_cards.company_id = ?", itemID, companyID).
			Count(&count)
		if count == 0 {
			writeError(w, http.StatusNotFound, "job card item not found", nil)
			return
		}
		movement.JobCardItemID = &itemID
	}

	tx := h.db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	if err := tx.Create(&movement).Error; err != nil {
		tx.Rollback()
		writeError(w, http.StatusInternalServerError, "failed to record movement", err)
		return
	}

	item.QuantityOnHand += delta
	if err := tx.Model(&models.InventoryItem{}).
		Where("id = ?", item.ID).
		Update("quantity_on_hand", item.QuantityOnHand).Error; err != nil {
		tx.Rollback()
		writeError(w, http.StatusInternalServerError, "failed to update stock", err)
		return
	}
	if err := tx.Commit().Error; err != nil {
		writeError(w, http.StatusInternalServerError, "failed to commit transaction", err)
		return
	}

	if item.NeedsReorder() {
		log.Printf("⚠️ Item %s (%s) at or below reorder level: %d on hand", item.SKU, item.Name, item.QuantityOnHand)
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"message":       "Movement recorded successfully",
		"movement":      movement,
		"item":          item,
		"needs_reorder": item.NeedsReorder(),
	})
}

// ListMovements returns the movement history for an item, newest first.
func (h *InventoryHandler) ListMovements(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	companyID := middleware.GetCompanyID(r)

	var item models.InventoryItem
	if err := h.db.First(&item, "id = ? AND company_id = ?", vars["id"], companyID).Error; err != nil {
		writeServiceError(w, err)
		return
	}

	var movements []models.StockMovement
	if err := h.db.Where("item_id = ?", item.ID).
		Order("created_at DESC").Limit(200).Find(&movements).Error; err != nil {
		writeError(w, http.StatusInternalServerError, "failed to fetch movements", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"movements": movements,
		"count":     len(movements),
	})
}
