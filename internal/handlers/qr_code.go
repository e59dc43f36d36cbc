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

// QrCodeHandler coordinates QR code HTTP handlers.
type QrCodeHandler struct {
	boxService *services.BoxService
}

// NewQrCodeHandler creates a new QrCodeHandler.
func NewQrCodeHandler(boxService *services.BoxService) *QrCodeHandler {
	return &QrCodeHandler{
		boxService: boxService,
	}
}

// GenerateBatch creates a batch of unbound QR codes (1-100 per request).
func (h *QrCodeHandler) GenerateBatch(c *gin.Context) {
	ws, ok := middleware.GetWorkspace(c)
	if !ok {
		apierrors.InternalError(c, "Workspace not found in context")
		return
	}
	userID, _ := middleware.GetUserID(c)

	type GenerateBatchRequest struct {
		Quantity int `json:"quantity" binding:"required"`
	}

	var req GenerateBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	codes, err := h.boxService.GenerateQrBatch(ws.ID, userID, req.Quantity)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"qr_codes": dto.ToQrCodeDTOs(codes)})
}

// ListQrCodes lists the workspace's QR codes, optionally filtered by status.
func (h *QrCodeHandler) ListQrCodes(c *gin.Context) {
	ws, ok := middleware.GetWorkspace(c)
	if !ok {
		apierrors.InternalError(c, "Workspace not found in context")
		return
	}
	userID, _ := middleware.GetUserID(c)

	codes, err := h.boxService.ListQrCodes(ws.ID, userID, c.Query("status"))
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"qr_codes": dto.ToQrCodeDTOs(codes)})
}

// MarkPrinted marks an assigned QR code as printed.
func (h *QrCodeHandler) MarkPrinted(c *gin.Context) {
	ws, ok := middleware.GetWorkspace(c)
	if !ok {
		apierrors.InternalError(c, "Workspace not found in context")
		return
	}
	userID, _ := middleware.GetUserID(c)

	qrID, err := strconv.ParseUint(c.Param("qr_id"), 10, 64)
	if err != nil {
		apierrors.BadRequest(c, "Invalid QR code ID")
		return
	}

	code, err := h.boxService.MarkQrPrinted(ws.ID, userID, qrID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToQrCodeDTO(*code))
}
