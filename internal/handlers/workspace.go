package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/stashbox-api/internal/dto"
	apierrors "github.com/yukikurage/stashbox-api/internal/errors"
	"github.com/yukikurage/stashbox-api/internal/middleware"
	"github.com/yukikurage/stashbox-api/internal/models"
	"github.com/yukikurage/stashbox-api/internal/services"
)

// WorkspaceHandler coordinates workspace and membership HTTP handlers.
type WorkspaceHandler struct {
	wsService *services.WorkspaceService
}

// NewWorkspaceHandler creates a new WorkspaceHandler.
func NewWorkspaceHandler(wsService *services.WorkspaceService) *WorkspaceHandler {
	return &WorkspaceHandler{
		wsService: wsService,
	}
}

// CreateWorkspace creates a new workspace owned by the caller.
func (h *WorkspaceHandler) CreateWorkspace(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "")
		return
	}

	type CreateWorkspaceRequest struct {
		Name string `json:"name" binding:"required"`
	}

	var req CreateWorkspaceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	ws, err := h.wsService.Create(req.Name, userID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToWorkspaceDTO(*ws))
}

// ListWorkspaces returns all workspaces the caller is a member of.
func (h *WorkspaceHandler) ListWorkspaces(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "")
		return
	}

	memberships, err := h.wsService.ListForUser(userID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	workspaces := make([]dto.WorkspaceWithRoleDTO, len(memberships))
	for i, m := range memberships {
		workspaces[i] = dto.ToWorkspaceWithRoleDTO(m)
	}

	c.JSON(http.StatusOK, gin.H{"workspaces": workspaces})
}

// GetWorkspace returns workspace details with members.
func (h *WorkspaceHandler) GetWorkspace(c *gin.Context) {
	ws, ok := middleware.GetWorkspace(c)
	if !ok {
		apierrors.InternalError(c, "Workspace not found in context")
		return
	}
	userID, _ := middleware.GetUserID(c)

	workspace, members, role, err := h.wsService.Get(ws.ID, userID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToWorkspaceDetailDTO(*workspace, members, role))
}

// UpdateWorkspace renames a workspace. Owner only.
func (h *WorkspaceHandler) UpdateWorkspace(c *gin.Context) {
	ws, ok := middleware.GetWorkspace(c)
	if !ok {
		apierrors.InternalError(c, "Workspace not found in context")
		return
	}
	userID, _ := middleware.GetUserID(c)

	type UpdateWorkspaceRequest struct {
		Name string `json:"name" binding:"required"`
	}

	var req UpdateWorkspaceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	updated, err := h.wsService.Rename(ws.ID, userID, req.Name)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToWorkspaceDTO(*updated))
}

// DeleteWorkspace tears down a workspace and all of its data. Owner only.
func (h *WorkspaceHandler) DeleteWorkspace(c *gin.Context) {
	ws, ok := middleware.GetWorkspace(c)
	if !ok {
		apierrors.InternalError(c, "Workspace not found in context")
		return
	}
	userID, _ := middleware.GetUserID(c)

	if err := h.wsService.Delete(ws.ID, userID); err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Workspace deleted successfully"})
}

// ListMembers returns the workspace's members.
func (h *WorkspaceHandler) ListMembers(c *gin.Context) {
	ws, ok := middleware.GetWorkspace(c)
	if !ok {
		apierrors.InternalError(c, "Workspace not found in context")
		return
	}
	userID, _ := middleware.GetUserID(c)

	members, err := h.wsService.ListMembers(ws.ID, userID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	memberDTOs := make([]dto.WorkspaceMemberDTO, len(members))
	for i, m := range members {
		memberDTOs[i] = dto.ToWorkspaceMemberDTO(m)
	}

	c.JSON(http.StatusOK, gin.H{"members": memberDTOs})
}

// InviteMember adds an existing user to the workspace by id or email.
func (h *WorkspaceHandler) InviteMember(c *gin.Context) {
	ws, ok := middleware.GetWorkspace(c)
	if !ok {
		apierrors.InternalError(c, "Workspace not found in context")
		return
	}
	userID, _ := middleware.GetUserID(c)

	type InviteMemberRequest struct {
		UserID uint64 `json:"user_id"`
		Email  string `json:"email"`
		Role   string `json:"role" binding:"required"`
	}

	var req InviteMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	member, err := h.wsService.InviteMember(ws.ID, userID, services.InviteMemberInput{
		UserID: req.UserID,
		Email:  req.Email,
		Role:   models.WorkspaceRole(req.Role),
	})
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToWorkspaceMemberDTO(*member))
}

// ChangeMemberRole updates a member's role.
func (h *WorkspaceHandler) ChangeMemberRole(c *gin.Context) {
	ws, ok := middleware.GetWorkspace(c)
	if !ok {
		apierrors.InternalError(c, "Workspace not found in context")
		return
	}
	userID, _ := middleware.GetUserID(c)

	targetID, err := strconv.ParseUint(c.Param("user_id"), 10, 64)
	if err != nil {
		apierrors.BadRequest(c, "Invalid user ID")
		return
	}

	type ChangeRoleRequest struct {
		Role string `json:"role" binding:"required"`
	}

	var req ChangeRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	member, err := h.wsService.ChangeRole(ws.ID, userID, targetID, models.WorkspaceRole(req.Role))
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"workspace_id": member.WorkspaceID,
		"user_id":      member.UserID,
		"role":         member.Role,
	})
}

// RemoveMember removes a member from the workspace.
func (h *WorkspaceHandler) RemoveMember(c *gin.Context) {
	ws, ok := middleware.GetWorkspace(c)
	if !ok {
		apierrors.InternalError(c, "Workspace not found in context")
		return
	}
	userID, _ := middleware.GetUserID(c)

	targetID, err := strconv.ParseUint(c.Param("user_id"), 10, 64)
	if err != nil {
		apierrors.BadRequest(c, "Invalid user ID")
		return
	}

	if err := h.wsService.RemoveMember(ws.ID, userID, targetID); err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Member removed successfully"})
}
