package controllers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"wardrobewiz/models"
	"wardrobewiz/test"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestCollection(t *testing.T, s *testServer, user *models.UserAccount) models.CollectionOut {
	t.Helper()
	req := test.NewMultipartAuthRequest("POST", "/collections", UIntToStr(user.ID),
		map[string]string{"prompt": "relaxed weekend"},
		[]test.MultipartFile{
			{Field: "images", Filename: "look1.png", Data: test.PNGImage(12, 12, 1)},
			{Field: "images", Filename: "look2.png", Data: test.PNGImage(12, 12, 2)},
		})
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var collection models.CollectionOut
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &collection))
	return collection
}

func TestCreateCollection(t *testing.T) {
	s := newTestServer(t)
	user := test.FakeUser(s.db, "")

	collection := createTestCollection(t, s, user)
	assert.Equal(t, "Weekend Denim", collection.Name)
	assert.Equal(t, []string{"denim"}, collection.Tags)
	require.NotNil(t, collection.Prompt)
	assert.Equal(t, "relaxed weekend", *collection.Prompt)
	require.Len(t, collection.Images, 2)
	assert.NotEmpty(t, collection.Images[0].ImageURL)
	assert.Empty(t, collection.Outfits)
	assert.Len(t, s.storage.Keys(), 2)

	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, test.NewJSONAuthRequest("GET", "/collections", UIntToStr(user.ID), nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var list struct {
		Collections []models.CollectionOut `json:"collections"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Len(t, list.Collections, 1)
}

func TestPatchCollection(t *testing.T) {
	s := newTestServer(t)
	user := test.FakeUser(s.db, "")
	collection := createTestCollection(t, s, user)
	target := fmt.Sprintf("/collections/%d", collection.ID)

	name := "Sunday Best"
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, test.NewJSONAuthRequest("PATCH", target, UIntToStr(user.ID), models.CollectionPatchIn{Name: &name}))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var updated models.CollectionOut
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &updated))
	assert.Equal(t, "Sunday Best", updated.Name)
	assert.Equal(t, collection.Description, updated.Description)

	rec = httptest.NewRecorder()
	long := strings.Repeat("a", 51)
	s.e.ServeHTTP(rec, test.NewJSONAuthRequest("PATCH", target, UIntToStr(user.ID), models.CollectionPatchIn{Name: &long}))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGenerateAndDeleteOutfit(t *testing.T) {
	s := newTestServer(t)
	user := test.FakeUser(s.db, "")
	item := uploadSneakers(t, s, user)
	collection := createTestCollection(t, s, user)

	s.llm.Replies["compose"] = fmt.Sprintf(`{"items":[{"itemId":%d,"reason":"clean base"}],"confidenceScore":0.75,"explanation":"easy weekend look"}`, item.ID)
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, test.NewJSONAuthRequest("POST", fmt.Sprintf("/collections/%d/outfits", collection.ID), UIntToStr(user.ID), models.OutfitIn{Title: "Brunch", Occasion: "Sunday brunch"}))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var outfit models.OutfitOut
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &outfit))
	assert.Equal(t, "Brunch", outfit.Title)
	require.Len(t, outfit.Items, 1)
	assert.Equal(t, item.ID, outfit.Items[0].ItemID)
	assert.Equal(t, "Sneakers", outfit.Items[0].Name)
	assert.NotEmpty(t, outfit.Items[0].ImageURL)

	rec = httptest.NewRecorder()
	s.e.ServeHTTP(rec, test.NewJSONAuthRequest("DELETE", fmt.Sprintf("/collections/%d/outfits/%d", collection.ID, outfit.ID), UIntToStr(user.ID), nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestGenerateOutfitUnknownItem(t *testing.T) {
	s := newTestServer(t)
	user := test.FakeUser(s.db, "")
	uploadSneakers(t, s, user)
	collection := createTestCollection(t, s, user)

	s.llm.Replies["compose"] = `{"items":[{"itemId":424242,"reason":"invented"}],"confidenceScore":0.75,"explanation":"x"}`
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, test.NewJSONAuthRequest("POST", fmt.Sprintf("/collections/%d/outfits", collection.ID), UIntToStr(user.ID), models.OutfitIn{Occasion: "party"}))
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.JSONEq(t, `{"error":"Generated outfit referenced unknown items, please try again"}`, rec.Body.String())

	var outfits int64
	s.db.Model(&models.Outfit{}).Count(&outfits)
	assert.Zero(t, outfits)
}

func TestDeleteCollection(t *testing.T) {
	s := newTestServer(t)
	user := test.FakeUser(s.db, "")
	other := test.FakeUser(s.db, "other@example.com")
	collection := createTestCollection(t, s, user)
	target := fmt.Sprintf("/collections/%d", collection.ID)

	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, test.NewJSONAuthRequest("DELETE", target, UIntToStr(other.ID), nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	s.storage.FailDeletes = true
	rec = httptest.NewRecorder()
	s.e.ServeHTTP(rec, test.NewJSONAuthRequest("DELETE", target, UIntToStr(user.ID), nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	s.storage.FailDeletes = false
	rec = httptest.NewRecorder()
	s.e.ServeHTTP(rec, test.NewJSONAuthRequest("DELETE", target, UIntToStr(user.ID), nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, s.storage.Keys())

	rec = httptest.NewRecorder()
	s.e.ServeHTTP(rec, test.NewJSONAuthRequest("GET", target, UIntToStr(user.ID), nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
