package errors

// ErrorResponse represents the standard error response structure
type ErrorResponse struct {
	Success bool        `json:"success"`
	Error   ErrorDetail `json:"error"`
}

// ErrorDetail contains error information
type ErrorDetail struct {
	Display string         `json:"message"`
	Code    string         `json:"code,omitempty"`
	Details map[string]any `json:"details,omitempty"`
}

// CodeFromErr returns the code of the sentinel the error is marked with
func CodeFromErr(err error) string {
	for _, m := range statusCodeMap {
		if Is(err, m.err) {
			return m.err.(*InternalError).Code
		}
	}
	return ErrCodeSystemError
}

// NewErrorResponse renders err into the response envelope
func NewErrorResponse(err error) ErrorResponse {
	details := ReportableDetails(err)
	if len(details) == 0 {
		details = nil
	}
	return ErrorResponse{
		Success: false,
		Error: ErrorDetail{
			Display: DisplayMessage(err),
			Code:    CodeFromErr(err),
			Details: details,
		},
	}
}
