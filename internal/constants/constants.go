package constants

// ContextKeyUserID is the gin context key holding the authenticated user's ID.
const ContextKeyUserID = "user_id"

// ContextKeyUserRole is the gin context key holding the authenticated user's role.
const ContextKeyUserRole = "user_role"

// ContextKeyTask is the gin context key holding the task loaded by RequireTaskAccess.
const ContextKeyTask = "task"

// ContextKeyRequestID is the gin context key holding the generated request ID.
const ContextKeyRequestID = "request_id"

// MinPasswordLength is the minimum accepted password length at registration.
const MinPasswordLength = 6

// MaxTitleLength is the maximum accepted task title length.
const MaxTitleLength = 255

// MaxDocumentsPerTask caps the number of PDF attachments a task may carry.
const MaxDocumentsPerTask = 3

// MaxDocumentSize is the per-file upload limit in bytes (10 MB).
const MaxDocumentSize = 10 << 20

// DocumentFieldName is the multipart field carrying task attachments.
const DocumentFieldName = "documents"

// DocumentContentType is the only accepted attachment content type.
const DocumentContentType = "application/pdf"

// Pagination bounds.
const (
	MinPageSize     = 1
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// Database connectivity check budget at startup.
const (
	DBConnectAttempts = 5
	DBConnectDelaySec = 5
)
