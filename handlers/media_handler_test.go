package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/require"

	"p9e.in/garage/models"
)

// fakeStore is an in-memory object store for handler tests.
type fakeStore struct {
	objects map[string][]byte
	deleted []string
}

func newFakeStore() *fakeStore {
	return &fakeStore{objects: map[string][]byte{}}
}

func (s *fakeStore) GeneratePresignedUploadURL(key, contentType string, ttl time.Duration) (string, error) {
	return "https://fake.storage/upload/" + key, nil
}

func (s *fakeStore) GeneratePresignedDownloadURL(key string, ttl time.Duration) (string, error) {
	return "https://fake.storage/download/" + key, nil
}

func (s *fakeStore) UploadFile(_ context.Context, key string, r io.Reader, _ string) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	s.objects[key] = data
	return nil
}

func (s *fakeStore) DeleteObject(_ context.Context, key string) error {
	delete(s.objects, key)
	s.deleted = append(s.deleted, key)
	return nil
}

func (s *fakeStore) ObjectExists(_ context.Context, key string) (bool, error) {
	_, ok := s.objects[key]
	return ok, nil
}

func seedMediaItem(t *testing.T, h *MediaHandler, fx testFixture) models.MediaItem {
	t.Helper()
	item := models.MediaItem{
		CompanyID:  fx.Company.ID,
		SessionID:  fx.Session.ID,
		StorageKey: "companies/x/" + uuid.New().String(),
		FileName:   "damage.jpg",
		MediaType:  "image",
		Status:     models.MediaReady,
	}
	require.NoError(t, h.db.Create(&item).Error)
	return item
}

func TestCreateUploadURL(t *testing.T) {
	db := setupTestDB(t)
	fx := seedFixture(t, db)
	store := newFakeStore()
	h := &MediaHandler{db: db, store: store}

	body, _ := json.Marshal(CreateUploadURLRequest{
		FileName:    "dent.jpg",
		ContentType: "image/jpeg",
		MediaType:   "image",
		Category:    "damage",
		SizeBytes:   2048,
	})
	req := httptest.NewRequest("POST", "/sessions/"+fx.Session.ID.String()+"/media/upload-url", bytes.NewReader(body))
	req = mux.SetURLVars(req, map[string]string{"id": fx.Session.ID.String()})
	req = authRequest(t, req, fx.Company.ID)

	rr := httptest.NewRecorder()
	h.CreateUploadURL(rr, req)
	require.Equal(t, http.StatusCreated, rr.Code)

	var resp struct {
		MediaItem models.MediaItem `json:"media_item"`
		UploadURL string           `json:"upload_url"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.Equal(t, models.MediaPending, resp.MediaItem.Status)
	require.Contains(t, resp.UploadURL, "https://fake.storage/upload/")
	require.Contains(t, resp.MediaItem.StorageKey, "companies/"+fx.Company.ID.String())
}

func TestConfirmUploadVerifyMissingObject(t *testing.T) {
	db := setupTestDB(t)
	fx := seedFixture(t, db)
	store := newFakeStore()
	h := &MediaHandler{db: db, store: store}

	item := seedMediaItem(t, h, fx)
	item.Status = models.MediaPending
	require.NoError(t, db.Save(&item).Error)

	req := httptest.NewRequest("PUT", fmt.Sprintf("/media/%s/confirm?verify=true", item.ID), nil)
	req = mux.SetURLVars(req, map[string]string{"id": item.ID.String()})
	req = authRequest(t, req, fx.Company.ID)

	rr := httptest.NewRecorder()
	h.ConfirmUpload(rr, req)
	require.Equal(t, http.StatusConflict, rr.Code)

	// once the object is present the confirm goes through
	store.objects[item.StorageKey] = []byte("bytes")
	rr = httptest.NewRecorder()
	h.ConfirmUpload(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)

	var saved models.MediaItem
	require.NoError(t, db.First(&saved, "id = ?", item.ID).Error)
	require.Equal(t, models.MediaReady, saved.Status)
}

func TestLinkMediaLastWriteWins(t *testing.T) {
	db := setupTestDB(t)
	fx := seedFixture(t, db)
	h := &MediaHandler{db: db, store: newFakeStore()}
	item := seedMediaItem(t, h, fx)

	inspection := models.Inspection{CompanyID: fx.Company.ID, SessionID: fx.Session.ID}
	require.NoError(t, db.Create(&inspection).Error)
	card := models.JobCard{CompanyID: fx.Company.ID, SessionID: fx.Session.ID}
	require.NoError(t, db.Create(&card).Error)

	link := func(kind models.MediaLinkKind, target uuid.UUID) *httptest.ResponseRecorder {
		body, _ := json.Marshal(LinkMediaRequest{Kind: kind, TargetID: target})
		req := httptest.NewRequest("PUT", "/media/"+item.ID.String()+"/link", bytes.NewReader(body))
		req = mux.SetURLVars(req, map[string]string{"id": item.ID.String()})
		req = authRequest(t, req, fx.Company.ID)
		rr := httptest.NewRecorder()
		h.LinkMedia(rr, req)
		return rr
	}

	require.Equal(t, http.StatusOK, link(models.MediaLinkInspection, inspection.ID).Code)

	var saved models.MediaItem
	require.NoError(t, db.First(&saved, "id = ?", item.ID).Error)
	require.Equal(t, models.MediaLinkInspection, *saved.LinkedKind)
	require.Equal(t, inspection.ID, *saved.LinkedID)

	// relinking replaces the previous attachment
	require.Equal(t, http.StatusOK, link(models.MediaLinkJobCard, card.ID).Code)
	require.NoError(t, db.First(&saved, "id = ?", item.ID).Error)
	require.Equal(t, models.MediaLinkJobCard, *saved.LinkedKind)
	require.Equal(t, card.ID, *saved.LinkedID)
}

func TestLinkMediaRejectsTargetFromAnotherSession(t *testing.T) {
	db := setupTestDB(t)
	fx := seedFixture(t, db)
	other := seedFixture(t, db)
	h := &MediaHandler{db: db, store: newFakeStore()}
	item := seedMediaItem(t, h, fx)

	foreign := models.Inspection{CompanyID: other.Company.ID, SessionID: other.Session.ID}
	require.NoError(t, db.Create(&foreign).Error)

	body, _ := json.Marshal(LinkMediaRequest{Kind: models.MediaLinkInspection, TargetID: foreign.ID})
	req := httptest.NewRequest("PUT", "/media/"+item.ID.String()+"/link", bytes.NewReader(body))
	req = mux.SetURLVars(req, map[string]string{"id": item.ID.String()})
	req = authRequest(t, req, fx.Company.ID)

	rr := httptest.NewRecorder()
	h.LinkMedia(rr, req)
	require.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestUnlinkMediaKeepsSession(t *testing.T) {
	db := setupTestDB(t)
	fx := seedFixture(t, db)
	h := &MediaHandler{db: db, store: newFakeStore()}
	item := seedMediaItem(t, h, fx)
	kind := models.MediaLinkInspection
	target := uuid.New()
	item.LinkedKind = &kind
	item.LinkedID = &target
	require.NoError(t, db.Save(&item).Error)

	req := httptest.NewRequest("DELETE", "/media/"+item.ID.String()+"/link", nil)
	req = mux.SetURLVars(req, map[string]string{"id": item.ID.String()})
	req = authRequest(t, req, fx.Company.ID)

	rr := httptest.NewRecorder()
	h.UnlinkMedia(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)

	var saved models.MediaItem
	require.NoError(t, db.First(&saved, "id = ?", item.ID).Error)
	require.Nil(t, saved.LinkedKind)
	require.Nil(t, saved.LinkedID)
	require.Equal(t, fx.Session.ID, saved.SessionID)
}

func TestDeleteMediaRemovesRowAndObject(t *testing.T) {
	db := setupTestDB(t)
	fx := seedFixture(t, db)
	store := newFakeStore()
	h := &MediaHandler{db: db, store: store}
	item := seedMediaItem(t, h, fx)
	store.objects[item.StorageKey] = []byte("bytes")

	req := httptest.NewRequest("DELETE", "/media/"+item.ID.String(), nil)
	req = mux.SetURLVars(req, map[string]string{"id": item.ID.String()})
	req = authRequest(t, req, fx.Company.ID)

	rr := httptest.NewRecorder()
	h.DeleteMedia(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)

	var count int64
	db.Model(&models.MediaItem{}).Where("id = ?", item.ID).Count(&count)
	require.Zero(t, count)
	require.Contains(t, store.deleted, item.StorageKey)

	// a second delete is a 404
	rr = httptest.NewRecorder()
	h.DeleteMedia(rr, req)
	require.Equal(t, http.StatusNotFound, rr.Code)
}

func TestGetDownloadURLRequiresReady(t *testing.T) {
	db := setupTestDB(t)
	fx := seedFixture(t, db)
	h := &MediaHandler{db: db, store: newFakeStore()}
	item := seedMediaItem(t, h, fx)
	item.Status = models.MediaPending
	require.NoError(t, db.Save(&item).Error)

	req := httptest.NewRequest("GET", "/media/"+item.ID.String()+"/download-url", nil)
	req = mux.SetURLVars(req, map[string]string{"id": item.ID.String()})
	req = authRequest(t, req, fx.Company.ID)

	rr := httptest.NewRecorder()
	h.GetDownloadURL(rr, req)
	require.Equal(t, http.StatusConflict, rr.Code)
}

func TestMediaTenantIsolation(t *testing.T) {
	db := setupTestDB(t)
	fx := seedFixture(t, db)
	other := seedFixture(t, db)
	h := &MediaHandler{db: db, store: newFakeStore()}
	item := seedMediaItem(t, h, fx)

	req := httptest.NewRequest("GET", "/media/"+item.ID.String()+"/download-url", nil)
	req = mux.SetURLVars(req, map[string]string{"id": item.ID.String()})
	req = authRequest(t, req, other.Company.ID)

	rr := httptest.NewRecorder()
	h.GetDownloadURL(rr, req)
	require.Equal(t, http.StatusNotFound, rr.Code)
}
