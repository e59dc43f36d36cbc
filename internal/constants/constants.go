package constants

// Context keys shared between middleware and handlers
const (
	ContextKeyUserID          = "user_id"
	ContextKeyWorkspace       = "workspace"
	ContextKeyWorkspaceMember = "workspace_member"
)

// Authentication
const (
	SessionCookieName = "stashbox_session"
	MinPasswordLength = 8
)

// Pagination
const (
	MinPageSize     = 1
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Location hierarchy
const (
	// MaxLocationDepth is the maximum number of path segments a location
	// can have (a top-level location has depth 1).
	MaxLocationDepth = 5
)

// QR code batches
const (
	MinQrBatchSize = 1
	MaxQrBatchSize = 100
)
