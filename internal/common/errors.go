package common

// AppError is the error shape the HTTP handlers translate into the API's
// error envelope. Code is a stable identifier clients switch on, such as
// ORDER_CANCELED or INSUFFICIENT_FUNDS, and Message is safe to show to the
// customer. Err keeps the cause available for errors.Is and logging.
type AppError struct {
	Code       string
	Message    string
	HTTPStatus int
	Err        error
	Details    any
}

func (e *AppError) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// NewAppError wraps err, or stands alone when err is nil, with the code and
// status a handler should respond with.
func NewAppError(code, message string, status int, err error) *AppError {
	return &AppError{Code: code, Message: message, HTTPStatus: status, Err: err}
}
