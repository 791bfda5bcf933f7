package errors

import "net/http"

// ErrorCode identifies a failure category.  Codes are stable strings so they
// can be surfaced in API responses and used as metric labels.
type ErrorCode string

func (c ErrorCode) String() string {
	return string(c)
}

// Common error codes.
const (
	CodeOK                 ErrorCode = "OK"
	CodeUnknown            ErrorCode = "COMMON_000"
	CodeInternal           ErrorCode = "COMMON_001"
	CodeInvalidParam       ErrorCode = "COMMON_002"
	CodeNotFound           ErrorCode = "COMMON_003"
	CodeConflict           ErrorCode = "COMMON_004"
	CodeTimeout            ErrorCode = "COMMON_005"
	CodeServiceUnavailable ErrorCode = "COMMON_006"
	CodeSerialization      ErrorCode = "COMMON_007"
)

// Dataset module error codes.
const (
	CodeDatasetNotFound     ErrorCode = "DATASET_001"
	CodeDatasetDecodeFailed ErrorCode = "DATASET_002"
	CodeDatasetInvalid      ErrorCode = "DATASET_003"
)

// Infrastructure error codes.
const (
	CodeStorageError ErrorCode = "INFRA_001"
	CodeCacheError   ErrorCode = "INFRA_002"
	CodeMessaging    ErrorCode = "INFRA_003"
	CodeExportFailed ErrorCode = "INFRA_004"
)

// HTTPStatus maps an ErrorCode to the HTTP status code used by the REST
// interface layer.  Unknown codes map to 500 so that new codes fail safe.
func (c ErrorCode) HTTPStatus() int {
	switch c {
	case CodeOK:
		return http.StatusOK
	case CodeInvalidParam, CodeDatasetDecodeFailed, CodeDatasetInvalid:
		return http.StatusBadRequest
	case CodeNotFound, CodeDatasetNotFound:
		return http.StatusNotFound
	case CodeConflict:
		return http.StatusConflict
	case CodeTimeout:
		return http.StatusGatewayTimeout
	case CodeServiceUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
