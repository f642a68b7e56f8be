package errors

import (
	"net/http"
	"strings"
)

// ErrorCode is a string representation of a specific error condition.
type ErrorCode string

func (c ErrorCode) String() string {
	return string(c)
}

// Common Error Codes
const (
	ErrCodeInternal           ErrorCode = "COMMON_001"
	ErrCodeBadRequest         ErrorCode = "COMMON_002"
	ErrCodeNotFound           ErrorCode = "COMMON_005"
	ErrCodeConflict           ErrorCode = "COMMON_006"
	ErrCodeTooManyRequests    ErrorCode = "COMMON_007"
	ErrCodeServiceUnavailable ErrorCode = "COMMON_008"
	ErrCodeTimeout            ErrorCode = "COMMON_009"
	ErrCodeValidation         ErrorCode = "COMMON_010"
	ErrCodeSerialization      ErrorCode = "COMMON_011"
	ErrCodeDatabaseError      ErrorCode = "COMMON_012"
	ErrCodeCacheError         ErrorCode = "COMMON_013"
	ErrCodeExternalService    ErrorCode = "COMMON_014"
	ErrCodeFeatureDisabled    ErrorCode = "COMMON_015"
	ErrCodeNotImplemented     ErrorCode = "COMMON_016"
)

// Short aliases used across the codebase.
const (
	CodeInternal       = ErrCodeInternal
	CodeInvalidParam   = ErrCodeBadRequest
	CodeNotFound       = ErrCodeNotFound
	CodeConflict       = ErrCodeConflict
	CodeRateLimit      = ErrCodeTooManyRequests
	CodeNotImplemented = ErrCodeNotImplemented
	CodeOK             = ErrorCode("OK")
	CodeUnknown        = ErrorCode("UNKNOWN")
)

// Boundary Module Error Codes
const (
	ErrCodeBoundaryInvalid      ErrorCode = "BOUNDARY_001"
	ErrCodeBoundaryNoGeometry   ErrorCode = "BOUNDARY_002"
	ErrCodeBoundaryUnsupported  ErrorCode = "BOUNDARY_003"
	ErrCodeBoundaryParseFailed  ErrorCode = "BOUNDARY_004"
	ErrCodeBoundaryTooManyAreas ErrorCode = "BOUNDARY_005"
)

// Analysis Module Error Codes
const (
	ErrCodeAnalysisServiceFailed ErrorCode = "ANALYSIS_001"
	ErrCodeAnalysisEnrichFailed  ErrorCode = "ANALYSIS_002"
	ErrCodeAnalysisInvalidRaw    ErrorCode = "ANALYSIS_003"
	ErrCodeAnalysisNotFound      ErrorCode = "ANALYSIS_004"
	ErrCodeAnalysisCancelled     ErrorCode = "ANALYSIS_005"
)

// Scoring Module Error Codes
const (
	ErrCodeScoringProfileInvalid ErrorCode = "SCORING_001"
	ErrCodeScoringUnknownKey     ErrorCode = "SCORING_002"
	ErrCodeScoringOwnership      ErrorCode = "SCORING_003"
)

// Storage Module Error Codes
const (
	ErrCodeStorageObjectNotFound ErrorCode = "STORAGE_001"
	ErrCodeStorageUploadFailed   ErrorCode = "STORAGE_002"
	ErrCodeStorageDownloadFailed ErrorCode = "STORAGE_003"
	ErrCodeStorageBucketMissing  ErrorCode = "STORAGE_004"
)

// Cache Module Error Codes
const (
	ErrCodeCacheMiss ErrorCode = "CACHE_001"
)

// Search Module Error Codes
const (
	ErrCodeSearchFailed      ErrorCode = "SEARCH_001"
	ErrCodeIndexFailed       ErrorCode = "SEARCH_002"
	ErrCodeVectorDimMismatch ErrorCode = "SEARCH_003"
)

// ErrorCodeHTTPStatus maps ErrorCodes to HTTP status codes.
var ErrorCodeHTTPStatus = map[ErrorCode]int{
	ErrCodeInternal:           http.StatusInternalServerError,
	ErrCodeBadRequest:         http.StatusBadRequest,
	ErrCodeNotFound:           http.StatusNotFound,
	ErrCodeConflict:           http.StatusConflict,
	ErrCodeTooManyRequests:    http.StatusTooManyRequests,
	ErrCodeServiceUnavailable: http.StatusServiceUnavailable,
	ErrCodeTimeout:            http.StatusGatewayTimeout,
	ErrCodeValidation:         http.StatusBadRequest,
	ErrCodeSerialization:      http.StatusBadRequest,
	ErrCodeDatabaseError:      http.StatusInternalServerError,
	ErrCodeCacheError:         http.StatusInternalServerError,
	ErrCodeExternalService:    http.StatusBadGateway,
	ErrCodeFeatureDisabled:    http.StatusNotImplemented,
	ErrCodeNotImplemented:     http.StatusNotImplemented,

	ErrCodeBoundaryInvalid:      http.StatusBadRequest,
	ErrCodeBoundaryNoGeometry:   http.StatusBadRequest,
	ErrCodeBoundaryUnsupported:  http.StatusUnsupportedMediaType,
	ErrCodeBoundaryParseFailed:  http.StatusBadRequest,
	ErrCodeBoundaryTooManyAreas: http.StatusRequestEntityTooLarge,

	ErrCodeAnalysisServiceFailed: http.StatusInternalServerError,
	ErrCodeAnalysisEnrichFailed:  http.StatusInternalServerError,
	ErrCodeAnalysisInvalidRaw:    http.StatusBadGateway,
	ErrCodeAnalysisNotFound:      http.StatusNotFound,
	ErrCodeAnalysisCancelled:     http.StatusRequestTimeout,

	ErrCodeScoringProfileInvalid: http.StatusInternalServerError,
	ErrCodeScoringUnknownKey:     http.StatusBadRequest,
	ErrCodeScoringOwnership:      http.StatusBadRequest,

	ErrCodeStorageObjectNotFound: http.StatusNotFound,
	ErrCodeStorageUploadFailed:   http.StatusInternalServerError,
	ErrCodeStorageDownloadFailed: http.StatusInternalServerError,
	ErrCodeStorageBucketMissing:  http.StatusServiceUnavailable,

	ErrCodeCacheMiss: http.StatusNotFound,

	ErrCodeSearchFailed:      http.StatusInternalServerError,
	ErrCodeIndexFailed:       http.StatusInternalServerError,
	ErrCodeVectorDimMismatch: http.StatusBadRequest,
}

// ErrorCodeMessage maps ErrorCodes to default messages.
var ErrorCodeMessage = map[ErrorCode]string{
	ErrCodeInternal:           "internal server error",
	ErrCodeBadRequest:         "bad request",
	ErrCodeNotFound:           "resource not found",
	ErrCodeConflict:           "resource conflict",
	ErrCodeTooManyRequests:    "too many requests",
	ErrCodeServiceUnavailable: "service unavailable",
	ErrCodeTimeout:            "request timeout",
	ErrCodeValidation:         "validation failed",
	ErrCodeSerialization:      "serialization error",
	ErrCodeDatabaseError:      "database error",
	ErrCodeCacheError:         "cache error",
	ErrCodeExternalService:    "external service error",
	ErrCodeFeatureDisabled:    "feature disabled",
	ErrCodeNotImplemented:     "not implemented",

	ErrCodeBoundaryInvalid:      "invalid site boundary",
	ErrCodeBoundaryNoGeometry:   "no valid geometry found",
	ErrCodeBoundaryUnsupported:  "unsupported boundary format",
	ErrCodeBoundaryParseFailed:  "boundary file could not be parsed",
	ErrCodeBoundaryTooManyAreas: "too many areas in one request",

	ErrCodeAnalysisServiceFailed: "analysis failed",
	ErrCodeAnalysisEnrichFailed:  "infrastructure enrichment failed",
	ErrCodeAnalysisInvalidRaw:    "analysis service returned invalid data",
	ErrCodeAnalysisNotFound:      "analysis not found",
	ErrCodeAnalysisCancelled:     "analysis cancelled",

	ErrCodeScoringProfileInvalid: "invalid scoring profile",
	ErrCodeScoringUnknownKey:     "unknown parameter key",
	ErrCodeScoringOwnership:      "invalid land ownership selection",

	ErrCodeStorageObjectNotFound: "object not found",
	ErrCodeStorageUploadFailed:   "object upload failed",
	ErrCodeStorageDownloadFailed: "object download failed",
	ErrCodeStorageBucketMissing:  "storage bucket missing",

	ErrCodeCacheMiss: "cache miss",

	ErrCodeSearchFailed:      "search failed",
	ErrCodeIndexFailed:       "indexing failed",
	ErrCodeVectorDimMismatch: "vector dimension mismatch",
}

// HTTPStatusForCode returns the HTTP status code for an ErrorCode.
func HTTPStatusForCode(code ErrorCode) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// DefaultMessageForCode returns the default message for an ErrorCode.
func DefaultMessageForCode(code ErrorCode) string {
	if msg, ok := ErrorCodeMessage[code]; ok {
		return msg
	}
	return "unknown error"
}

// IsClientError returns true if the ErrorCode corresponds to a 4xx HTTP status.
func IsClientError(code ErrorCode) bool {
	status := HTTPStatusForCode(code)
	return status >= 400 && status < 500
}

// IsServerError returns true if the ErrorCode corresponds to a 5xx HTTP status.
func IsServerError(code ErrorCode) bool {
	status := HTTPStatusForCode(code)
	return status >= 500 && status < 600
}

// MasksMessage reports whether the message of an error with this code stays
// server-side. 501 answers keep theirs since they name a missing capability.
func MasksMessage(code ErrorCode) bool {
	return IsServerError(code) && HTTPStatusForCode(code) != http.StatusNotImplemented
}

// ModuleForCode returns the module prefix of an ErrorCode.
func ModuleForCode(code ErrorCode) string {
	parts := strings.Split(string(code), "_")
	if len(parts) > 1 && parts[0] != "" {
		return parts[0]
	}
	return "UNKNOWN"
}

//Personal.AI order the ending
