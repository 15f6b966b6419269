package constant

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

// Context keys
const (
	CtxKeyLogger    ContextKey = "logger"
	CtxKeyRequestID ContextKey = "request_id"
)

// Headers shared with the backend
const (
	HeaderRequestID = "X-Request-Id"
	// HeaderUserID carries the reviewer's free-text display name.
	HeaderUserID = "X-User-Id"
)

// QueryPageToken re-attaches a request to a mounted page.
const QueryPageToken = "page"
