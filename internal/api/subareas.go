package api

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/erazemk/premik/internal/model"
	"github.com/erazemk/premik/internal/store"
)

// SubAreasHandler handles sub-area CRUD endpoints.
type SubAreasHandler struct {
	DB *sql.DB
}

type subAreaRequest struct {
	Name string `json:"name" validate:"required,max=200"`
	Room string `json:"room" validate:"max=200"`
}

// List handles GET /api/subareas.
func (h *SubAreasHandler) List(w http.ResponseWriter, r *http.Request) {
	areas, err := store.ListSubAreas(r.Context(), h.DB, r.URL.Query().Get("room"))
	if err != nil {
		storeError(w, r, err, "failed to list sub-areas")
		return
	}
	if areas == nil {
		areas = []model.SubArea{}
	}
	jsonResponse(w, http.StatusOK, areas)
}

// Create handles POST /api/subareas.
func (h *SubAreasHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req subAreaRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	area, err := store.CreateSubArea(r.Context(), h.DB, req.Name, req.Room)
	if err != nil {
		storeError(w, r, err, "failed to create sub-area")
		return
	}

	slog.Info("sub-area created", "name", area.Name, "room", area.Room)
	jsonResponse(w, http.StatusCreated, area)
}

// Get handles GET /api/subareas/{id}.
func (h *SubAreasHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id", "sub-area")
	if !ok {
		return
	}

	area, err := store.GetSubArea(r.Context(), h.DB, id)
	if err != nil {
		storeError(w, r, err, "failed to get sub-area")
		return
	}
	if area == nil {
		jsonError(w, http.StatusNotFound, "sub-area not found")
		return
	}
	jsonResponse(w, http.StatusOK, area)
}

// Update handles PUT /api/subareas/{id}.
func (h *SubAreasHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id", "sub-area")
	if !ok {
		return
	}

	var req subAreaRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := store.UpdateSubArea(r.Context(), h.DB, id, req.Name, req.Room); err != nil {
		storeError(w, r, err, "failed to update sub-area")
		return
	}

	area, err := store.GetSubArea(r.Context(), h.DB, id)
	if err != nil {
		storeError(w, r, err, "failed to get sub-area")
		return
	}
	jsonResponse(w, http.StatusOK, area)
}

// Delete handles DELETE /api/subareas/{id}.
func (h *SubAreasHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id", "sub-area")
	if !ok {
		return
	}

	if err := store.DeleteSubArea(r.Context(), h.DB, id); err != nil {
		storeError(w, r, err, "failed to delete sub-area")
		return
	}

	slog.Info("sub-area deleted", "sub_area_id", id)
	jsonResponse(w, http.StatusOK, map[string]string{"message": "sub-area deleted"})
}
