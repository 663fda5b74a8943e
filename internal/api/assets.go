package api

import (
	"database/sql"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/erazemk/premik/internal/model"
	"github.com/erazemk/premik/internal/store"
)

// AssetsHandler handles asset CRUD endpoints.
type AssetsHandler struct {
	DB *sql.DB
}

type assetRequest struct {
	Name      string `json:"name" validate:"required,max=200"`
	Tag       string `json:"tag" validate:"max=64"`
	SubAreaID *int64 `json:"sub_area_id" validate:"omitempty,gt=0"`
}

// List handles GET /api/assets.
func (h *AssetsHandler) List(w http.ResponseWriter, r *http.Request) {
	var subAreaID int64
	if v := r.URL.Query().Get("subarea_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			jsonError(w, http.StatusBadRequest, "invalid subarea_id")
			return
		}
		subAreaID = id
	}

	assets, err := store.ListAssets(r.Context(), h.DB, subAreaID)
	if err != nil {
		storeError(w, r, err, "failed to list assets")
		return
	}
	if assets == nil {
		assets = []model.Asset{}
	}
	jsonResponse(w, http.StatusOK, assets)
}

// Create handles POST /api/assets.
func (h *AssetsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req assetRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	asset, err := store.CreateAsset(r.Context(), h.DB, req.Name, req.Tag, req.SubAreaID)
	if err != nil {
		storeError(w, r, err, "failed to create asset")
		return
	}

	slog.Info("asset created", "asset", asset.Name, "tag", asset.Tag)
	jsonResponse(w, http.StatusCreated, asset)
}

// Get handles GET /api/assets/{id}.
func (h *AssetsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id", "asset")
	if !ok {
		return
	}

	asset, err := store.GetAsset(r.Context(), h.DB, id)
	if err != nil {
		storeError(w, r, err, "failed to get asset")
		return
	}
	if asset == nil {
		jsonError(w, http.StatusNotFound, "asset not found")
		return
	}
	jsonResponse(w, http.StatusOK, asset)
}

// Update handles PUT /api/assets/{id}.
func (h *AssetsHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id", "asset")
	if !ok {
		return
	}

	var req assetRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := store.UpdateAsset(r.Context(), h.DB, id, req.Name, req.Tag, req.SubAreaID); err != nil {
		storeError(w, r, err, "failed to update asset")
		return
	}

	asset, err := store.GetAsset(r.Context(), h.DB, id)
	if err != nil {
		storeError(w, r, err, "failed to get asset")
		return
	}
	jsonResponse(w, http.StatusOK, asset)
}

// Delete handles DELETE /api/assets/{id}.
func (h *AssetsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id", "asset")
	if !ok {
		return
	}

	if err := store.DeleteAsset(r.Context(), h.DB, id); err != nil {
		storeError(w, r, err, "failed to delete asset")
		return
	}

	slog.Info("asset deleted", "asset_id", id)
	jsonResponse(w, http.StatusOK, map[string]string{"message": "asset deleted"})
}

// History handles GET /api/assets/{id}/history.
func (h *AssetsHandler) History(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id", "asset")
	if !ok {
		return
	}

	history, err := store.GetAssetHistory(r.Context(), h.DB, id)
	if err != nil {
		storeError(w, r, err, "failed to get asset history")
		return
	}
	if history == nil {
		history = []model.TransferItem{}
	}
	jsonResponse(w, http.StatusOK, history)
}
