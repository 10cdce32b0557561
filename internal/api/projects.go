package api

import (
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"realestate/server/internal/apperr"
	"realestate/server/internal/catalog"
	"realestate/server/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/paulmach/orb"
)

const projectNotFound = "Project not found"

// parseNear reads a "lat,lng" pair.
func parseNear(raw string) (*orb.Point, error) {
	parts := strings.Split(raw, ",")
	if len(parts) != 2 {
		return nil, apperr.Validation("near must be formatted as lat,lng")
	}
	lat, latErr := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	lng, lngErr := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if latErr != nil || lngErr != nil || lat < -90 || lat > 90 || lng < -180 || lng > 180 {
		return nil, apperr.Validation("near must be formatted as lat,lng")
	}
	return &orb.Point{lng, lat}, nil
}

func (h *Handler) ListProjects(c *gin.Context) {
	query := catalog.ProjectQuery{
		CompanySlug: c.Query("company_slug"),
		Status:      c.Query("status"),
	}
	if raw := c.Query("near"); raw != "" {
		point, err := parseNear(raw)
		if err != nil {
			h.fail(c, err)
			return
		}
		query.Near = point
		query.RadiusKm = catalog.DefaultRadiusKm
		if r, err := strconv.ParseFloat(c.Query("radius_km"), 64); err == nil && r > 0 {
			query.RadiusKm = r
		}
	}

	projects, err := h.catalog.ListProjects(c.Request.Context(), query)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "data": h.views.projects(projects)})
}

func (h *Handler) GetProject(c *gin.Context) {
	id, err := pathID(c, "id", projectNotFound)
	if err != nil {
		h.fail(c, err)
		return
	}

	project, err := h.catalog.GetProject(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "data": h.views.project(project)})
}

// uploadedFiles returns the files sent under field in a multipart body.
func uploadedFiles(c *gin.Context, field string) []*multipart.FileHeader {
	if !isMultipart(c) {
		return nil
	}
	form, err := c.MultipartForm()
	if err != nil || form == nil {
		return nil
	}
	return form.File[field]
}

func uploadedFile(c *gin.Context, field string) *multipart.FileHeader {
	files := uploadedFiles(c, field)
	if len(files) == 0 {
		return nil
	}
	return files[0]
}

func (h *Handler) CreateProject(c *gin.Context) {
	var req models.ProjectCreateRequest
	if err := h.bind(c, &req); err != nil {
		h.fail(c, err)
		return
	}

	project, err := h.catalog.CreateProject(c.Request.Context(), req, uploadedFiles(c, "images"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"ok": true, "data": h.views.project(project)})
}

func (h *Handler) UpdateProject(c *gin.Context) {
	id, err := pathID(c, "id", projectNotFound)
	if err != nil {
		h.fail(c, err)
		return
	}

	var req models.ProjectUpdateRequest
	if err := h.bind(c, &req); err != nil {
		h.fail(c, err)
		return
	}

	project, err := h.catalog.UpdateProject(c.Request.Context(), id, req, uploadedFiles(c, "images"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "data": h.views.project(project)})
}

func (h *Handler) DeleteProject(c *gin.Context) {
	id, err := pathID(c, "id", projectNotFound)
	if err != nil {
		h.fail(c, err)
		return
	}

	if err := h.catalog.DeleteProject(c.Request.Context(), id); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "message": "Project deleted successfully"})
}

func (h *Handler) UploadProjectImages(c *gin.Context) {
	id, err := pathID(c, "id", projectNotFound)
	if err != nil {
		h.fail(c, err)
		return
	}

	project, saved, err := h.catalog.AttachProjectImages(c.Request.Context(), id, uploadedFiles(c, "images"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "data": saved, "project": h.views.project(project)})
}
