package api

import (
	"net/http"

	"realestate/server/internal/models"

	"github.com/gin-gonic/gin"
)

const companyNotFound = "Company not found"

func (h *Handler) ListCompanies(c *gin.Context) {
	companies, err := h.catalog.ListCompanies(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "data": h.views.companies(companies)})
}

func (h *Handler) GetCompany(c *gin.Context) {
	company, err := h.catalog.GetCompany(c.Request.Context(), c.Param("slug"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "data": h.views.companyDetail(company)})
}

func (h *Handler) CreateCompany(c *gin.Context) {
	var req models.CompanyCreateRequest
	if err := h.bind(c, &req); err != nil {
		h.fail(c, err)
		return
	}

	company, err := h.catalog.CreateCompany(c.Request.Context(), req)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"ok": true, "data": h.views.company(company)})
}

func (h *Handler) UpdateCompany(c *gin.Context) {
	id, err := pathID(c, "id", companyNotFound)
	if err != nil {
		h.fail(c, err)
		return
	}

	var req models.CompanyUpdateRequest
	if err := h.bind(c, &req); err != nil {
		h.fail(c, err)
		return
	}

	company, err := h.catalog.UpdateCompany(c.Request.Context(), id, req)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "data": h.views.company(company)})
}

func (h *Handler) DeleteCompany(c *gin.Context) {
	id, err := pathID(c, "id", companyNotFound)
	if err != nil {
		h.fail(c, err)
		return
	}

	if err := h.catalog.DeleteCompany(c.Request.Context(), id); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "message": "Company deleted successfully"})
}
