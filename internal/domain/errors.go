package domain

import "fmt"

// DomainError represents a domain-specific error
type DomainError struct {
	Code    string
	Message string
	Err     error
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError creates a new DomainError
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     nil,
	}
}

// NewDomainErrorWithCause creates a new DomainError with an underlying cause
func NewDomainErrorWithCause(code, message string, err error) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Common domain error codes
const (
	ErrCodeValidation       = "VALIDATION_ERROR"
	ErrCodeNotFound         = "NOT_FOUND"
	ErrCodeAlreadyExists    = "ALREADY_EXISTS"
	ErrCodeUnauthorized     = "UNAUTHORIZED"
	ErrCodeForbidden        = "FORBIDDEN"
	ErrCodeInternalError    = "INTERNAL_ERROR"
	ErrCodeInvalidOperation = "INVALID_OPERATION"
)

// Validation errors
var (
	ErrInvalidEntryKind        = NewDomainError(ErrCodeValidation, "invalid entry kind")
	ErrInvalidSummaryStatus    = NewDomainError(ErrCodeValidation, "invalid summary status")
	ErrInvalidSummaryJobStatus = NewDomainError(ErrCodeValidation, "invalid summary job status")
	ErrMissingRequiredField    = NewDomainError(ErrCodeValidation, "missing required field")
)

// Not found errors
var (
	ErrEntryNotFound     = NewDomainError(ErrCodeNotFound, "entry not found")
	ErrSourceNotFound    = NewDomainError(ErrCodeNotFound, "source not found")
	ErrWorkspaceNotFound = NewDomainError(ErrCodeNotFound, "workspace not found")
	ErrAPIKeyNotFound    = NewDomainError(ErrCodeNotFound, "api key not found")
)

// Already exists errors
var (
	ErrEntryAlreadyExists     = NewDomainError(ErrCodeAlreadyExists, "entry already exists")
	ErrSourceAlreadyExists    = NewDomainError(ErrCodeAlreadyExists, "source already exists")
	ErrWorkspaceAlreadyExists = NewDomainError(ErrCodeAlreadyExists, "workspace already exists")
	ErrAPIKeyAlreadyExists    = NewDomainError(ErrCodeAlreadyExists, "api key already exists")
)

// Authorization errors
var (
	ErrAPIKeyRevoked = NewDomainError(ErrCodeUnauthorized, "api key has been revoked")
	ErrInvalidAPIKey = NewDomainError(ErrCodeUnauthorized, "invalid api key")
)

// Operation errors
var (
	ErrChunkAsParent      = NewDomainError(ErrCodeInvalidOperation, "a chunk cannot be the parent of another chunk")
	ErrParentEntryMissing = NewDomainError(ErrCodeInvalidOperation, "parent entry does not exist")
	ErrCannotPinChunk     = NewDomainError(ErrCodeInvalidOperation, "pin the parent document, not an individual chunk")
	ErrCannotEditChunk    = NewDomainError(ErrCodeInvalidOperation, "edit the parent document, not an individual chunk")
)

// Source-specific errors
var (
	ErrSHA256Mismatch       = NewDomainError(ErrCodeValidation, "SHA256 hash does not match uploaded file")
	ErrSourceUploadNotFound = NewDomainError(ErrCodeNotFound, "pending source upload not found")
	ErrSourceNotUploaded    = NewDomainError(ErrCodeInvalidOperation, "source file has not been uploaded yet")
	ErrUnsupportedFileType  = NewDomainError(ErrCodeValidation, "unsupported source file type")
	ErrStorageOperationFail = NewDomainError(ErrCodeInternalError, "storage operation failed")
)
