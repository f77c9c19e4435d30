package accounts

// Error is an application-layer error that can be mapped to an HTTP response.
type Error struct {
	Status  int
	Code    string
	Message string
	Details map[string]any
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Message != "" {
		return e.Message
	}
	return e.Code
}

func validationError(msg, field string) *Error {
	return &Error{
		Status:  400,
		Code:    "VALIDATION_ERROR",
		Message: msg,
		Details: map[string]any{field: msg},
	}
}
