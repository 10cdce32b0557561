package api

import (
	"errors"
	"io"
	"net/http"

	"realestate/server/internal/apperr"
	"realestate/server/internal/models"

	"github.com/gin-gonic/gin"
)

type userView struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

func toUserView(u *models.User) userView {
	return userView{ID: u.ID, Username: u.Username, Role: u.Role}
}

func (h *Handler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, apperr.Validation("username/password required"))
		return
	}

	result, err := h.auth.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"ok":            true,
		"access_token":  result.AccessToken,
		"refresh_token": result.RefreshToken,
		"user":          toUserView(result.User),
	})
}

// Refresh takes the refresh token from the Authorization header, or from a
// refresh_token field in the JSON body.
func (h *Handler) Refresh(c *gin.Context) {
	token := bearerToken(c)
	if token == "" {
		var req models.RefreshRequest
		if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
			h.fail(c, apperr.Validation("%s", bindingMessage(err)))
			return
		}
		token = req.RefreshToken
	}

	access, err := h.auth.Refresh(c.Request.Context(), token)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "access_token": access})
}

func (h *Handler) Register(c *gin.Context) {
	var req models.RegisterRequest
	if err := h.bind(c, &req); err != nil {
		h.fail(c, err)
		return
	}

	user, err := h.auth.Register(c.Request.Context(), req)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"ok":       true,
		"id":       user.ID,
		"username": user.Username,
		"role":     user.Role,
	})
}

func (h *Handler) Verify(c *gin.Context) {
	claims := claimsFrom(c)
	if claims == nil {
		h.fail(c, apperr.Unauthorized("Missing token"))
		return
	}

	user, err := h.auth.Verify(c.Request.Context(), claims)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "user": toUserView(user)})
}

// Logout acknowledges the request. Tokens are stateless and expire on
// their own.
func (h *Handler) Logout(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"ok": true, "message": "Logged out successfully"})
}
