package response

// Response represents a standard API response format
type Response struct {
	Status     string      `json:"status"`      // "success" or "error"
	StatusCode int         `json:"status_code"` // HTTP status code
	Data       interface{} `json:"data,omitempty"`
	Error      string      `json:"error,omitempty"`
	Kind       string      `json:"kind,omitempty"`  // validation, state_conflict, not_found, forbidden
	Field      string      `json:"field,omitempty"` // offending field for validation errors
}

// Success returns a standard success response wrapping the data
func Success(statusCode int, data interface{}) Response {
	return Response{
		Status:     "success",
		StatusCode: statusCode,
		Data:       data,
	}
}

// Error returns a standard error response wrapping the error message
func Error(statusCode int, err string) Response {
	return Response{
		Status:     "error",
		StatusCode: statusCode,
		Error:      err,
	}
}

// Fail returns an error response classified by kind and field
func Fail(statusCode int, kind, field, err string) Response {
	resp := Error(statusCode, err)
	resp.Kind = kind
	resp.Field = field
	return resp
}

// Page wraps a paginated list payload
func Page(items interface{}, total int64, page, limit int) map[string]interface{} {
	return map[string]interface{}{
		"items": items,
		"total": total,
		"page":  page,
		"limit": limit,
	}
}
