package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/GiftLink-io/giftlink/internal/models"
	"github.com/GiftLink-io/giftlink/internal/storage"
	"github.com/GiftLink-io/giftlink/internal/store"
)

const imageURLValidity = 15 * time.Minute

// ListGiftsHandler returns every gift listing.
func (a *Api) ListGiftsHandler(w http.ResponseWriter, r *http.Request) {
	gifts, err := a.gifts.ListGifts(r.Context())
	if err != nil {
		a.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, gifts)
}

// GetGiftHandler returns one gift by its ID.
func (a *Api) GetGiftHandler(w http.ResponseWriter, r *http.Request) {
	gift, err := a.gifts.GetGiftByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Gift not found")
			return
		}
		a.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, gift)
}

// CreateGiftHandler inserts a new gift listing.
func (a *Api) CreateGiftHandler(w http.ResponseWriter, r *http.Request) {
	var gift models.Gift
	if err := json.NewDecoder(r.Body).Decode(&gift); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if gift.Name == "" {
		writeError(w, http.StatusBadRequest, "Gift name required")
		return
	}

	if err := a.gifts.CreateGift(r.Context(), &gift); err != nil {
		a.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, gift)
}

// SearchGiftsHandler returns gifts matching the query-string filters.
func (a *Api) SearchGiftsHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := store.GiftFilter{
		Name:      q.Get("name"),
		Category:  q.Get("category"),
		Condition: q.Get("condition"),
	}
	if raw := q.Get("age_years"); raw != "" {
		age, err := strconv.Atoi(raw)
		if err != nil || age < 0 {
			writeError(w, http.StatusBadRequest, "age_years must be a non-negative integer")
			return
		}
		filter.MaxAgeYears = age
	}

	gifts, err := a.gifts.SearchGifts(r.Context(), filter)
	if err != nil {
		a.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, gifts)
}

// UploadGiftImageHandler stores a gift image in object storage and records
// its key on the listing.
func (a *Api) UploadGiftImageHandler(w http.ResponseWriter, r *http.Request) {
	if a.images == nil {
		writeError(w, http.StatusServiceUnavailable, "Image storage not configured")
		return
	}

	id := chi.URLParam(r, "id")
	if _, err := a.gifts.GetGiftByID(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Gift not found")
			return
		}
		a.writeServiceError(w, r, err)
		return
	}

	contentType := r.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	key := storage.ImageKey(id)
	if err := a.images.Upload(r.Context(), key, r.Body, contentType); err != nil {
		a.writeServiceError(w, r, err)
		return
	}
	if err := a.gifts.SetGiftImage(r.Context(), id, key); err != nil {
		a.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{"imageKey": key})
}

// GiftImageURLHandler returns a presigned download URL for a gift's image.
func (a *Api) GiftImageURLHandler(w http.ResponseWriter, r *http.Request) {
	if a.images == nil {
		writeError(w, http.StatusServiceUnavailable, "Image storage not configured")
		return
	}

	gift, err := a.gifts.GetGiftByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Gift not found")
			return
		}
		a.writeServiceError(w, r, err)
		return
	}
	if gift.ImageKey == "" {
		writeError(w, http.StatusNotFound, "Gift has no image")
		return
	}

	url, err := a.images.PresignURL(r.Context(), gift.ImageKey, imageURLValidity)
	if err != nil {
		a.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"url": url})
}
