package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	apierrors "github.com/yukikurage/stashbox-api/internal/errors"
	"github.com/yukikurage/stashbox-api/internal/services"
)

// handleServiceError maps domain errors to transport-level responses. The
// services raise the most specific error at the point of detection; status
// codes live only here.
func handleServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrWorkspaceNotFound):
		apierrors.NotFound(c, "Workspace not found")
	case errors.Is(err, services.ErrLocationNotFound):
		apierrors.NotFound(c, "Location not found")
	case errors.Is(err, services.ErrBoxNotFound):
		apierrors.NotFound(c, "Box not found")
	case errors.Is(err, services.ErrQrCodeNotFound):
		apierrors.NotFound(c, "QR code not found")
	case errors.Is(err, services.ErrMemberNotFound):
		apierrors.NotFound(c, "Workspace member not found")
	case errors.Is(err, services.ErrInviteeNotFound):
		apierrors.NotFound(c, "No user matches the invitation")

	case errors.Is(err, services.ErrInsufficientPermissions):
		apierrors.Forbidden(c, err.Error())

	case errors.Is(err, services.ErrAlreadyMember),
		errors.Is(err, services.ErrSiblingNameConflict),
		errors.Is(err, services.ErrQrCodeAlreadyAssigned):
		apierrors.Conflict(c, err.Error())

	case errors.Is(err, services.ErrLastOwner),
		errors.Is(err, services.ErrMaxDepthExceeded),
		errors.Is(err, services.ErrWorkspaceMismatch),
		errors.Is(err, services.ErrQrCodeNotAssigned):
		apierrors.UnprocessableEntity(c, err.Error())

	case errors.Is(err, services.ErrWorkspaceNameRequired),
		errors.Is(err, services.ErrInvalidRole),
		errors.Is(err, services.ErrLocationNameEmpty),
		errors.Is(err, services.ErrBoxNameRequired),
		errors.Is(err, services.ErrQrQuantityInvalid),
		errors.Is(err, services.ErrQrStatusInvalid):
		apierrors.BadRequest(c, err.Error())

	case errors.Is(err, services.ErrAINotConfigured):
		apierrors.RespondWithError(c, http.StatusServiceUnavailable,
			apierrors.NewAPIError(apierrors.ErrCodeServiceUnavailable, err.Error()))

	default:
		apierrors.InternalError(c, "")
	}
}
