// FILE: internal/pkg/serverutils/response.go
package serverutils

type APIResponse[T any] struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    T      `json:"data,omitempty"`
}

type APIError struct {
	Success bool   `json:"success"`
	Code    int    `json:"code"`
	Message string `json:"message"`
	Reason  string `json:"reason,omitempty"`
}

func SuccessResponse[T any](message string, data T) APIResponse[T] {
	return APIResponse[T]{
		Success: true,
		Message: message,
		Data:    data,
	}
}

func ErrorResponse(code int, message string) APIError {
	return APIError{
		Success: false,
		Code:    code,
		Message: message,
	}
}

// ReasonResponse is an error payload carrying a stable machine-readable
// reason code (e.g. "AlreadyResponded") alongside the human message.
func ReasonResponse(code int, reason, message string) APIError {
	return APIError{
		Success: false,
		Code:    code,
		Message: message,
		Reason:  reason,
	}
}
