package middleware

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/stashbox-api/internal/constants"
	apierrors "github.com/yukikurage/stashbox-api/internal/errors"
	"github.com/yukikurage/stashbox-api/internal/models"
	"github.com/yukikurage/stashbox-api/internal/repository"
	"github.com/yukikurage/stashbox-api/internal/services"
)

// RequireWorkspaceAccess resolves the caller's membership in the workspace
// named by the :id route parameter through the authorization engine and
// caches it in the request context. Non-members get a 404, never a 403, so a
// workspace the caller is excluded from looks exactly like one that does not
// exist.
func RequireWorkspaceAccess(authz *services.AuthorizationService, wsRepo repository.WorkspaceRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		workspaceID, err := strconv.ParseUint(c.Param("id"), 10, 64)
		if err != nil {
			apierrors.BadRequest(c, "Invalid workspace ID")
			c.Abort()
			return
		}

		userID, exists := GetUserID(c)
		if !exists {
			apierrors.Unauthorized(c, "")
			c.Abort()
			return
		}

		member, err := authz.Authorize(workspaceID, userID, services.AnyMember)
		if err != nil {
			if errors.Is(err, services.ErrWorkspaceNotFound) {
				apierrors.NotFound(c, "Workspace not found")
			} else {
				apierrors.InternalError(c, "")
			}
			c.Abort()
			return
		}

		ws, err := wsRepo.FindByID(workspaceID)
		if err != nil {
			apierrors.NotFound(c, "Workspace not found")
			c.Abort()
			return
		}

		c.Set(constants.ContextKeyWorkspace, *ws)
		c.Set(constants.ContextKeyWorkspaceMember, *member)
		c.Next()
	}
}

// GetWorkspace retrieves the workspace loaded by RequireWorkspaceAccess
func GetWorkspace(c *gin.Context) (models.Workspace, bool) {
	value, exists := c.Get(constants.ContextKeyWorkspace)
	if !exists {
		return models.Workspace{}, false
	}
	ws, ok := value.(models.Workspace)
	return ws, ok
}

// GetWorkspaceMember retrieves the membership loaded by RequireWorkspaceAccess
func GetWorkspaceMember(c *gin.Context) (models.WorkspaceMember, bool) {
	value, exists := c.Get(constants.ContextKeyWorkspaceMember)
	if !exists {
		return models.WorkspaceMember{}, false
	}
	member, ok := value.(models.WorkspaceMember)
	return member, ok
}
