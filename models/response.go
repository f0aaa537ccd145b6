package models

// APIResponse standard API envelope
type APIResponse struct {
	Status  string      `json:"status"` // success, error
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
	Code    string      `json:"code,omitempty"`
	Field   string      `json:"field,omitempty"`
}

// SuccessResponse builds a success envelope
func SuccessResponse(message string, data interface{}) APIResponse {
	return APIResponse{
		Status:  "success",
		Message: message,
		Data:    data,
	}
}

// ErrorResponse builds an error envelope
func ErrorResponse(message string, err error) APIResponse {
	errMsg := ""
	if err != nil {
		errMsg = err.Error()
	}
	return APIResponse{
		Status:  "error",
		Message: message,
		Error:   errMsg,
	}
}

// CodedErrorResponse builds an error envelope carrying a stable machine code for clients to branch on.
func CodedErrorResponse(message, code, field string) APIResponse {
	return APIResponse{
		Status:  "error",
		Message: message,
		Code:    code,
		Field:   field,
	}
}
