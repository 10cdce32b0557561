package api

import (
	"math"
	"net/http"
	"strconv"
	"strings"

	"realestate/server/internal/catalog"
	"realestate/server/internal/database"
	"realestate/server/internal/models"

	"github.com/gin-gonic/gin"
)

const unitNotFound = "Unit not found"

// unitFilter reads the list filters. Values that do not parse are ignored.
func unitFilter(c *gin.Context) database.UnitFilter {
	var f database.UnitFilter

	if v, err := strconv.ParseUint(c.Query("project_id"), 10, 64); err == nil && v > 0 {
		id := uint(v)
		f.ProjectID = &id
	}
	if v, err := strconv.ParseFloat(c.Query("min_sqm"), 64); err == nil {
		f.MinSqm = &v
	}
	if v, err := strconv.ParseFloat(c.Query("max_price"), 64); err == nil {
		maxPrice := int64(math.Floor(v))
		f.MaxPrice = &maxPrice
	}
	if v, err := strconv.Atoi(c.Query("bedrooms")); err == nil {
		f.Bedrooms = &v
	}
	if v, err := strconv.Atoi(c.Query("bathrooms")); err == nil {
		f.Bathrooms = &v
	}
	if floor := strings.TrimSpace(c.Query("floor")); floor != "" {
		f.Floor = &floor
	}
	f.Status = c.Query("status")
	return f
}

func (h *Handler) ListUnits(c *gin.Context) {
	page := catalog.ParsePage(c.Query("page"), c.Query("limit"))

	result, err := h.catalog.ListUnits(c.Request.Context(), unitFilter(c), page)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"ok":   true,
		"data": h.views.units(result.Units),
		"pagination": Pagination{
			Page:  result.Page.Page,
			Limit: result.Page.Limit,
			Total: result.Total,
		},
	})
}

func (h *Handler) GetUnit(c *gin.Context) {
	id, err := pathID(c, "id", unitNotFound)
	if err != nil {
		h.fail(c, err)
		return
	}

	unit, err := h.catalog.GetUnit(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "data": h.views.unit(unit)})
}

func (h *Handler) CreateUnit(c *gin.Context) {
	var req models.UnitCreateRequest
	if err := h.bind(c, &req); err != nil {
		h.fail(c, err)
		return
	}

	unit, err := h.catalog.CreateUnit(c.Request.Context(), req, uploadedFiles(c, "images"), uploadedFile(c, "floor_plan"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"ok": true, "data": h.views.unit(unit)})
}

func (h *Handler) UpdateUnit(c *gin.Context) {
	id, err := pathID(c, "id", unitNotFound)
	if err != nil {
		h.fail(c, err)
		return
	}

	var req models.UnitUpdateRequest
	if err := h.bind(c, &req); err != nil {
		h.fail(c, err)
		return
	}

	unit, err := h.catalog.UpdateUnit(c.Request.Context(), id, req, uploadedFiles(c, "images"), uploadedFile(c, "floor_plan"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "data": h.views.unit(unit)})
}

func (h *Handler) DeleteUnit(c *gin.Context) {
	id, err := pathID(c, "id", unitNotFound)
	if err != nil {
		h.fail(c, err)
		return
	}

	if err := h.catalog.DeleteUnit(c.Request.Context(), id); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "message": "Unit deleted successfully"})
}

func (h *Handler) UploadUnitFiles(c *gin.Context) {
	id, err := pathID(c, "id", unitNotFound)
	if err != nil {
		h.fail(c, err)
		return
	}

	unit, saved, err := h.catalog.AttachUnitFiles(c.Request.Context(), id, uploadedFiles(c, "images"), uploadedFile(c, "floor_plan"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "data": saved, "unit": h.views.unit(unit)})
}
