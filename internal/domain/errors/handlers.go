package errors

// ErrorInfo contains detailed error information returned to clients.
type ErrorInfo struct {
	Code    string       `json:"code"`              // Business error code, e.g., "PLACE_NOT_FOUND"
	Details string       `json:"details,omitempty"` // Detailed error description (optional)
	Fields  []FieldError `json:"fields,omitempty"`  // Per-field validation errors (optional)
}

// Response is the unified JSON envelope for error responses emitted by
// the HTTP error handler.
type Response struct {
	Success bool       `json:"success"`
	Code    int        `json:"code"`    // HTTP status code
	Message string     `json:"message"` // User-friendly message
	Error   *ErrorInfo `json:"error,omitempty"`
}
