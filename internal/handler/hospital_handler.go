package handler

import (
	"github.com/gin-gonic/gin"

	"billclarity/internal/directory"
)

// HospitalHandler serves the static hospital directory.
type HospitalHandler struct {
	store *directory.Store
}

// NewHospitalHandler creates a new HospitalHandler.
func NewHospitalHandler(store *directory.Store) *HospitalHandler {
	return &HospitalHandler{store: store}
}

// List handles GET /api/v1/hospitals
// @Summary List or search hospitals
// @Description Case-insensitive substring search over name, city, and state
// @Tags hospitals
// @Produce json
// @Param q query string false "Search query"
// @Success 200 {object} APIResponse{data=[]domain.Hospital} "Matching hospitals"
// @Router /hospitals [get]
func (h *HospitalHandler) List(c *gin.Context) {
	RespondOK(c, h.store.Search(c.Query("q")))
}

// GetBySlug handles GET /api/v1/hospitals/:slug
// @Summary Get hospital by slug
// @Tags hospitals
// @Produce json
// @Param slug path string true "Hospital slug"
// @Success 200 {object} APIResponse{data=domain.Hospital} "Hospital details"
// @Failure 404 {object} APIResponse "Hospital not found"
// @Router /hospitals/{slug} [get]
func (h *HospitalHandler) GetBySlug(c *gin.Context) {
	hospital, err := h.store.GetBySlug(c.Param("slug"))
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, hospital)
}
