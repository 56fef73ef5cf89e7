package errors

import (
	"fmt"
)

// AppError represents a structured application error
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// New creates a new AppError
func New(code, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Wrap wraps an error with additional context, keeping the code of a wrapped AppError
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	if appErr, ok := err.(*AppError); ok {
		return &AppError{
			Code:    appErr.Code,
			Message: message,
			Cause:   appErr,
		}
	}
	return &AppError{
		Code:    CodeInternalError,
		Message: message,
		Cause:   err,
	}
}

// Wrapf wraps an error with formatted additional context
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return Wrap(err, fmt.Sprintf(format, args...))
}

// WithCode attaches a code to an existing error
func WithCode(code string, err error) error {
	if err == nil {
		return nil
	}
	if appErr, ok := err.(*AppError); ok {
		return &AppError{
			Code:    code,
			Message: appErr.Message,
			Cause:   appErr.Cause,
		}
	}
	return &AppError{
		Code:    code,
		Message: err.Error(),
		Cause:   err,
	}
}

// GetCode returns the code of the outermost AppError in the chain, or "UNKNOWN"
func GetCode(err error) string {
	for err != nil {
		if appErr, ok := err.(*AppError); ok {
			return appErr.Code
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			break
		}
		err = u.Unwrap()
	}
	return "UNKNOWN"
}

// Is reports whether err carries the given code.
func Is(err error, code string) bool {
	return GetCode(err) == code
}

const (
	CodeInvalidFileType = "INVALID_FILE_TYPE"
	CodeEmptyFile       = "EMPTY_FILE"
	CodeDecodeFailure   = "DECODE_FAILURE"
	CodeReadFailure     = "READ_FAILURE"
	CodeConfigInvalid   = "CONFIG_INVALID"
	CodeNotFound        = "NOT_FOUND"
	CodeBusy            = "BUSY"
	CodeInternalError   = "INTERNAL_ERROR"
)

func InvalidFileType(mime string) *AppError {
	return &AppError{
		Code:    CodeInvalidFileType,
		Message: "Please upload a valid Excel file (.xlsx or .xls)",
		Cause:   fmt.Errorf("unsupported content type %q", mime),
	}
}

func EmptyFile() *AppError {
	return New(CodeEmptyFile, "The Excel file appears to be empty")
}

// DecodeFailure keeps the decoder's message verbatim.
func DecodeFailure(cause error) *AppError {
	return &AppError{
		Code:    CodeDecodeFailure,
		Message: "Error processing the Excel file",
		Cause:   cause,
	}
}

func ReadFailure(cause error) *AppError {
	return &AppError{
		Code:    CodeReadFailure,
		Message: "Error reading the file",
		Cause:   cause,
	}
}

func ConfigInvalid(message string) *AppError {
	return New(CodeConfigInvalid, message)
}

func NotFound(resource string) *AppError {
	return New(CodeNotFound, fmt.Sprintf("%s not found", resource))
}

func Busy(message string) *AppError {
	return New(CodeBusy, message)
}

// UserMessage is the text shown to the user for err. Read, type and empty
// errors show only their fixed message; decode errors keep the decoder's text.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	origin := originOf(err)
	if origin == nil {
		return err.Error()
	}
	switch origin.Code {
	case CodeReadFailure, CodeInvalidFileType, CodeEmptyFile:
		return origin.Message
	case CodeDecodeFailure:
		return origin.Error()
	}
	return err.Error()
}

// originOf returns the innermost AppError in err's chain.
func originOf(err error) *AppError {
	var last *AppError
	for err != nil {
		if appErr, ok := err.(*AppError); ok {
			last = appErr
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			break
		}
		err = u.Unwrap()
	}
	return last
}
