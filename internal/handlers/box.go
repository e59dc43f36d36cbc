package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/stashbox-api/internal/dto"
	apierrors "github.com/yukikurage/stashbox-api/internal/errors"
	"github.com/yukikurage/stashbox-api/internal/middleware"
	"github.com/yukikurage/stashbox-api/internal/services"
	"github.com/yukikurage/stashbox-api/internal/utils"
)

// BoxHandler coordinates box HTTP handlers.
type BoxHandler struct {
	boxService *services.BoxService
}

// NewBoxHandler creates a new BoxHandler.
func NewBoxHandler(boxService *services.BoxService) *BoxHandler {
	return &BoxHandler{
		boxService: boxService,
	}
}

// CreateBox creates a box, optionally placed in a location and bound to a
// generated QR code.
func (h *BoxHandler) CreateBox(c *gin.Context) {
	ws, ok := middleware.GetWorkspace(c)
	if !ok {
		apierrors.InternalError(c, "Workspace not found in context")
		return
	}
	userID, _ := middleware.GetUserID(c)

	type CreateBoxRequest struct {
		Name        string   `json:"name" binding:"required"`
		Description string   `json:"description"`
		Tags        []string `json:"tags"`
		LocationID  *uint64  `json:"location_id"`
		QrCodeID    *uint64  `json:"qr_code_id"`
	}

	var req CreateBoxRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	box, err := h.boxService.CreateBox(ws.ID, userID, services.CreateBoxInput{
		Name:        req.Name,
		Description: req.Description,
		Tags:        req.Tags,
		LocationID:  req.LocationID,
		QrCodeID:    req.QrCodeID,
	})
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToBoxDTO(*box))
}

// ListBoxes lists the workspace's boxes with filters and pagination.
func (h *BoxHandler) ListBoxes(c *gin.Context) {
	ws, ok := middleware.GetWorkspace(c)
	if !ok {
		apierrors.InternalError(c, "Workspace not found in context")
		return
	}
	userID, _ := middleware.GetUserID(c)

	input := services.ListBoxesInput{
		Tag:   c.Query("tag"),
		Query: c.Query("q"),
	}

	if raw := c.Query("location_id"); raw != "" {
		if raw == "unassigned" {
			input.Unassigned = true
		} else {
			id, err := strconv.ParseUint(raw, 10, 64)
			if err != nil {
				apierrors.BadRequest(c, "Invalid location_id")
				return
			}
			input.LocationID = &id
		}
	}

	params := utils.GetPaginationParams(c)
	input.Page = params.Page
	input.PageSize = params.Limit

	boxes, total, err := h.boxService.ListBoxes(ws.ID, userID, input)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"boxes": dto.ToBoxDTOs(boxes),
		"pagination": utils.PaginationResponse{
			Page:  params.Page,
			Limit: params.Limit,
			Total: total,
		},
	})
}

// GetBox returns one box with its location and QR code.
func (h *BoxHandler) GetBox(c *gin.Context) {
	ws, ok := middleware.GetWorkspace(c)
	if !ok {
		apierrors.InternalError(c, "Workspace not found in context")
		return
	}
	userID, _ := middleware.GetUserID(c)

	boxID, err := strconv.ParseUint(c.Param("box_id"), 10, 64)
	if err != nil {
		apierrors.BadRequest(c, "Invalid box ID")
		return
	}

	box, err := h.boxService.GetBox(ws.ID, userID, boxID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToBoxDTO(*box))
}

// UpdateBox applies a partial update to a box.
func (h *BoxHandler) UpdateBox(c *gin.Context) {
	ws, ok := middleware.GetWorkspace(c)
	if !ok {
		apierrors.InternalError(c, "Workspace not found in context")
		return
	}
	userID, _ := middleware.GetUserID(c)

	boxID, err := strconv.ParseUint(c.Param("box_id"), 10, 64)
	if err != nil {
		apierrors.BadRequest(c, "Invalid box ID")
		return
	}

	type UpdateBoxRequest struct {
		Name          *string   `json:"name"`
		Description   *string   `json:"description"`
		Tags          *[]string `json:"tags"`
		LocationID    *uint64   `json:"location_id"`
		ClearLocation bool      `json:"clear_location"`
	}

	var req UpdateBoxRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	box, err := h.boxService.UpdateBox(ws.ID, userID, boxID, services.UpdateBoxInput{
		Name:          req.Name,
		Description:   req.Description,
		Tags:          req.Tags,
		LocationID:    req.LocationID,
		ClearLocation: req.ClearLocation,
	})
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToBoxDTO(*box))
}

// DeleteBox deletes a box; a bound QR code returns to the generated pool.
func (h *BoxHandler) DeleteBox(c *gin.Context) {
	ws, ok := middleware.GetWorkspace(c)
	if !ok {
		apierrors.InternalError(c, "Workspace not found in context")
		return
	}
	userID, _ := middleware.GetUserID(c)

	boxID, err := strconv.ParseUint(c.Param("box_id"), 10, 64)
	if err != nil {
		apierrors.BadRequest(c, "Invalid box ID")
		return
	}

	if err := h.boxService.DeleteBox(ws.ID, userID, boxID); err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Box deleted successfully"})
}

// SuggestTags proposes tags for a box via the AI collaborator.
func (h *BoxHandler) SuggestTags(c *gin.Context) {
	ws, ok := middleware.GetWorkspace(c)
	if !ok {
		apierrors.InternalError(c, "Workspace not found in context")
		return
	}
	userID, _ := middleware.GetUserID(c)

	type SuggestTagsRequest struct {
		Name        string `json:"name" binding:"required"`
		Description string `json:"description"`
	}

	var req SuggestTagsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	tags, err := h.boxService.SuggestTags(c.Request.Context(), ws.ID, userID, req.Name, req.Description)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"tags": tags})
}
