package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/require"

	"p9e.in/garage/models"
)

func seedInventoryItem(t *testing.T, h *InventoryHandler, fx testFixture, onHand, reorder int64) models.InventoryItem {
	t.Helper()
	item := models.InventoryItem{
		CompanyID:      fx.Company.ID,
		SKU:            "PAD-" + fx.Company.ID.String()[:8],
		Name:           "Brake pad set",
		Category:       "brake parts",
		Unit:           "pcs",
		QuantityOnHand: onHand,
		ReorderLevel:   reorder,
		IsActive:       true,
	}
	require.NoError(t, h.db.Create(&item).Error)
	return item
}

func movementRequest(t *testing.T, fx testFixture, itemID string, req RecordMovementRequest) *http.Request {
	t.Helper()
	body, _ := json.Marshal(req)
	r := httptest.NewRequest("POST", "/inventory/x/movements", bytes.NewReader(body))
	r = mux.SetURLVars(r, map[string]string{"id": itemID})
	return authRequest(t, r, fx.Company.ID)
}

func TestRecordMovementAdjustsStock(t *testing.T) {
	db := setupTestDB(t)
	fx := seedFixture(t, db)
	h := &InventoryHandler{db: db}
	item := seedInventoryItem(t, h, fx, 10, 2)

	req := movementRequest(t, fx, item.ID.String(), RecordMovementRequest{Kind: models.MovementIssue, Quantity: 4})
	rr := httptest.NewRecorder()
	h.RecordMovement(rr, req)
	require.Equal(t, http.StatusCreated, rr.Code)

	var saved models.InventoryItem
	require.NoError(t, db.First(&saved, "id = ?", item.ID).Error)
	require.Equal(t, int64(6), saved.QuantityOnHand)

	var movement models.StockMovement
	require.NoError(t, db.First(&movement, "item_id = ?", item.ID).Error)
	require.Equal(t, int64(-4), movement.Quantity)
}

func TestRecordMovementBlocksNegativeStock(t *testing.T) {
	db := setupTestDB(t)
	fx := seedFixture(t, db)
	h := &InventoryHandler{db: db}
	item := seedInventoryItem(t, h, fx, 3, 1)

	req := movementRequest(t, fx, item.ID.String(), RecordMovementRequest{Kind: models.MovementIssue, Quantity: 5})
	rr := httptest.NewRecorder()
	h.RecordMovement(rr, req)
	require.Equal(t, http.StatusConflict, rr.Code)

	var saved models.InventoryItem
	require.NoError(t, db.First(&saved, "id = ?", item.ID).Error)
	require.Equal(t, int64(3), saved.QuantityOnHand)

	var count int64
	db.Model(&models.StockMovement{}).Where("item_id = ?", item.ID).Count(&count)
	require.Zero(t, count)
}

func TestRecordMovementRejectsUnknownKind(t *testing.T) {
	db := setupTestDB(t)
	fx := seedFixture(t, db)
	h := &InventoryHandler{db: db}
	item := seedInventoryItem(t, h, fx, 3, 1)

	req := movementRequest(t, fx, item.ID.String(), RecordMovementRequest{Kind: "transfer", Quantity: 1})
	rr := httptest.NewRecorder()
	h.RecordMovement(rr, req)
	require.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestReceiptFlagsReorderCleared(t *testing.T) {
	db := setupTestDB(t)
	fx := seedFixture(t, db)
	h := &InventoryHandler{db: db}
	item := seedInventoryItem(t, h, fx, 1, 2)
	require.True(t, item.NeedsReorder())

	req := movementRequest(t, fx, item.ID.String(), RecordMovementRequest{Kind: models.MovementReceipt, Quantity: 10, Reference: "PO-1042"})
	rr := httptest.NewRecorder()
	h.RecordMovement(rr, req)
	require.Equal(t, http.StatusCreated, rr.Code)

	var saved models.InventoryItem
	require.NoError(t, db.First(&saved, "id = ?", item.ID).Error)
	require.Equal(t, int64(11), saved.QuantityOnHand)
	require.False(t, saved.NeedsReorder())
}
