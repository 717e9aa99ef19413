// Package middleware holds the gin middleware of the HTTP server and the
// shared API error mapping used by controllers.
package middleware

// Context keys set by the middleware
const (
	ContextUserID    = "userID"
	ContextUsername  = "username"
	ContextExpiresAt = "sessionExpiresAt"
	ContextRequestID = "requestID"
)
