package middleware

// Context keys used to store request metadata.
const (
	ContextKeySessionID = "session_id"
	ContextKeyRequestID = "request_id"
)
