package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (h *Handler) ServeUpload(c *gin.Context) {
	path, err := h.files.Path(c.Param("filename"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.File(path)
}

// UploadFile stores a standalone file, for example a company logo, and
// returns its stored name.
func (h *Handler) UploadFile(c *gin.Context) {
	filename, err := h.catalog.SaveUpload(c.Request.Context(), uploadedFile(c, "file"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"ok":       true,
		"filename": filename,
		"url":      h.views.fileURL(filename),
	})
}

func (h *Handler) NotFound(c *gin.Context) {
	c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": "Not Found"})
}
