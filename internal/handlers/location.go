package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/stashbox-api/internal/dto"
	apierrors "github.com/yukikurage/stashbox-api/internal/errors"
	"github.com/yukikurage/stashbox-api/internal/middleware"
	"github.com/yukikurage/stashbox-api/internal/services"
)

// LocationHandler coordinates location tree HTTP handlers.
type LocationHandler struct {
	locService *services.LocationService
}

// NewLocationHandler creates a new LocationHandler.
func NewLocationHandler(locService *services.LocationService) *LocationHandler {
	return &LocationHandler{
		locService: locService,
	}
}

// CreateLocation creates a location under an optional parent.
func (h *LocationHandler) CreateLocation(c *gin.Context) {
	ws, ok := middleware.GetWorkspace(c)
	if !ok {
		apierrors.InternalError(c, "Workspace not found in context")
		return
	}
	userID, _ := middleware.GetUserID(c)

	type CreateLocationRequest struct {
		ParentID *uint64 `json:"parent_id"`
		Name     string  `json:"name" binding:"required"`
	}

	var req CreateLocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	loc, err := h.locService.Create(ws.ID, userID, services.CreateLocationInput{
		ParentID: req.ParentID,
		Name:     req.Name,
	})
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToLocationDTO(*loc))
}

// ListLocations lists the direct children of a parent (default: top level).
func (h *LocationHandler) ListLocations(c *gin.Context) {
	ws, ok := middleware.GetWorkspace(c)
	if !ok {
		apierrors.InternalError(c, "Workspace not found in context")
		return
	}
	userID, _ := middleware.GetUserID(c)

	var parentID *uint64
	if raw := c.Query("parent_id"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			apierrors.BadRequest(c, "Invalid parent_id")
			return
		}
		parentID = &id
	}

	locations, err := h.locService.List(ws.ID, userID, parentID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"locations": dto.ToLocationDTOs(locations)})
}

// RenameLocation updates a location's name and its own path segment.
func (h *LocationHandler) RenameLocation(c *gin.Context) {
	ws, ok := middleware.GetWorkspace(c)
	if !ok {
		apierrors.InternalError(c, "Workspace not found in context")
		return
	}
	userID, _ := middleware.GetUserID(c)

	locationID, err := strconv.ParseUint(c.Param("location_id"), 10, 64)
	if err != nil {
		apierrors.BadRequest(c, "Invalid location ID")
		return
	}

	type RenameLocationRequest struct {
		Name string `json:"name" binding:"required"`
	}

	var req RenameLocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	loc, err := h.locService.Rename(ws.ID, userID, locationID, req.Name)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToLocationDTO(*loc))
}

// DeleteLocation soft-deletes a location subtree; its boxes become unassigned.
func (h *LocationHandler) DeleteLocation(c *gin.Context) {
	ws, ok := middleware.GetWorkspace(c)
	if !ok {
		apierrors.InternalError(c, "Workspace not found in context")
		return
	}
	userID, _ := middleware.GetUserID(c)

	locationID, err := strconv.ParseUint(c.Param("location_id"), 10, 64)
	if err != nil {
		apierrors.BadRequest(c, "Invalid location ID")
		return
	}

	if err := h.locService.Delete(ws.ID, userID, locationID); err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Location deleted successfully"})
}
