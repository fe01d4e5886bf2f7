package handlers

import (
	"net/http"

	"notehub-api/models"
	"notehub-api/repository"
	"notehub-api/types"

	"github.com/gin-gonic/gin"
)

// AdminHandler manages note_admin and note_editor role assignments.
type AdminHandler struct {
	usersRepo *repository.UsersRepository
}

func NewAdminHandler(usersRepo *repository.UsersRepository) *AdminHandler {
	return &AdminHandler{usersRepo: usersRepo}
}

// AssignRole grants note_admin or note_editor to the named user.
func (h *AdminHandler) AssignRole(c *gin.Context) {
	var req struct {
		Role     string `json:"role" binding:"required"`
		Username string `json:"username" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, types.NewErrorResponse(types.ErrorCodeInvalidRequest, err.Error()))
		return
	}
	if req.Role != models.RoleNoteAdmin && req.Role != models.RoleNoteEditor {
		c.JSON(http.StatusBadRequest, types.NewErrorResponse(types.ErrorCodeInvalidRequest, "Unknown role: "+req.Role))
		return
	}
	user, err := h.usersRepo.GetUserByUsername(req.Username)
	if err != nil {
		c.JSON(http.StatusInternalServerError, types.NewErrorResponse(types.ErrorCodeInternal, err.Error()))
		return
	}
	if user == nil {
		c.JSON(http.StatusBadRequest, types.NewErrorResponse(types.ErrorCodeInvalidRequest, "User with given username does not exist"))
		return
	}
	if err := h.usersRepo.GrantRole(user.ID, req.Role); err != nil {
		c.JSON(http.StatusInternalServerError, types.NewErrorResponse(types.ErrorCodeInternal, err.Error()))
		return
	}
	c.JSON(http.StatusOK, types.NewSuccessResponse(gin.H{}))
}

// RevokeEditorRole removes note_editor from the named user.
func (h *AdminHandler) RevokeEditorRole(c *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, types.NewErrorResponse(types.ErrorCodeInvalidRequest, err.Error()))
		return
	}
	user, err := h.usersRepo.GetUserByUsername(req.Username)
	if err != nil {
		c.JSON(http.StatusInternalServerError, types.NewErrorResponse(types.ErrorCodeInternal, err.Error()))
		return
	}
	if user == nil {
		c.JSON(http.StatusBadRequest, types.NewErrorResponse(types.ErrorCodeInvalidRequest, "Invalid username: "+req.Username))
		return
	}
	if err := h.usersRepo.RevokeRole(user.ID, models.RoleNoteEditor); err != nil {
		c.JSON(http.StatusInternalServerError, types.NewErrorResponse(types.ErrorCodeInternal, err.Error()))
		return
	}
	c.JSON(http.StatusOK, types.NewSuccessResponse(gin.H{}))
}
