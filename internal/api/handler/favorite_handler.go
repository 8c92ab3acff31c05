package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"go-peopleflow/internal/model"
	"go-peopleflow/internal/validation"
)

// ListFavorites returns saved view presets
// @Summary List favorites
// @Description Saved view presets, newest first, optionally of one dashboard page
// @Tags favorites
// @Produce json
// @Param page query string false "Dashboard page"
// @Success 200 {object} handler.Response{data=[]model.Favorite}
// @Failure 500 {object} handler.Response "Internal error"
// @Router /favorites [get]
func (h *Handler) ListFavorites(w http.ResponseWriter, r *http.Request) {
	favs, err := h.store.ListFavorites(r.URL.Query().Get("page"))
	if err != nil {
		fail(w, r, err)
		return
	}
	respondData(w, r, http.StatusOK, favs)
}

// CreateFavorite saves a view preset
// @Summary Save a favorite
// @Tags favorites
// @Accept json
// @Produce json
// @Param favorite body model.Favorite true "View preset"
// @Success 201 {object} handler.Response{data=model.Favorite}
// @Failure 400 {object} handler.Response "Invalid favorite"
// @Router /favorites [post]
func (h *Handler) CreateFavorite(w http.ResponseWriter, r *http.Request) {
	fav, ok := h.decodeFavorite(w, r)
	if !ok {
		return
	}
	if err := h.store.SaveFavorite(fav); err != nil {
		fail(w, r, err)
		return
	}
	respondData(w, r, http.StatusCreated, fav)
}

// GetFavorite returns one view preset
// @Summary Get a favorite
// @Tags favorites
// @Produce json
// @Param id path string true "Favorite ID"
// @Success 200 {object} handler.Response{data=model.Favorite}
// @Failure 404 {object} handler.Response "Favorite not found"
// @Router /favorites/{id} [get]
func (h *Handler) GetFavorite(w http.ResponseWriter, r *http.Request) {
	fav, err := h.store.GetFavorite(chi.URLParam(r, "id"))
	if err != nil {
		fail(w, r, err)
		return
	}
	respondData(w, r, http.StatusOK, fav)
}

// UpdateFavorite replaces a view preset
// @Summary Update a favorite
// @Tags favorites
// @Accept json
// @Produce json
// @Param id path string true "Favorite ID"
// @Param favorite body model.Favorite true "View preset"
// @Success 200 {object} handler.Response{data=model.Favorite}
// @Failure 400 {object} handler.Response "Invalid favorite"
// @Failure 404 {object} handler.Response "Favorite not found"
// @Router /favorites/{id} [put]
func (h *Handler) UpdateFavorite(w http.ResponseWriter, r *http.Request) {
	fav, ok := h.decodeFavorite(w, r)
	if !ok {
		return
	}
	fav.ID = chi.URLParam(r, "id")
	if err := h.store.UpdateFavorite(fav); err != nil {
		fail(w, r, err)
		return
	}
	respondData(w, r, http.StatusOK, fav)
}

// DeleteFavorite removes a view preset
// @Summary Delete a favorite
// @Tags favorites
// @Param id path string true "Favorite ID"
// @Success 204 "Deleted"
// @Failure 404 {object} handler.Response "Favorite not found"
// @Router /favorites/{id} [delete]
func (h *Handler) DeleteFavorite(w http.ResponseWriter, r *http.Request) {
	if err := h.store.DeleteFavorite(chi.URLParam(r, "id")); err != nil {
		fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) decodeFavorite(w http.ResponseWriter, r *http.Request) (*model.Favorite, bool) {
	var fav model.Favorite
	if err := decode(r, &fav); err != nil {
		respondError(w, r, http.StatusBadRequest, CodeInvalidRequest, "invalid JSON body")
		return nil, false
	}
	if err := validation.Struct(&fav); err != nil {
		fail(w, r, err)
		return nil, false
	}
	if fav.Group != "" {
		if _, err := h.registry.Group(fav.Group); err != nil {
			respondError(w, r, http.StatusBadRequest, CodeInvalidRequest, "unknown category group")
			return nil, false
		}
	}
	return &fav, true
}
