// Package handlers implements the HTTP handlers of the dashboard API.
package handlers

import (
	stderrors "errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Lossfunk/indiaml-tracker-sub001/internal/infrastructure/storage"
	"github.com/Lossfunk/indiaml-tracker-sub001/pkg/errors"
)

// errorBody is the uniform error envelope of the API.
type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
}

// respondError maps an application error to its HTTP status and envelope.
// Unknown errors collapse to a generic 500 so internals never leak.
func respondError(c *gin.Context, err error) {
	var appErr *errors.AppError
	if !stderrors.As(err, &appErr) {
		c.JSON(http.StatusInternalServerError, gin.H{"error": errorBody{
			Code:    string(errors.CodeInternal),
			Message: "internal server error",
		}})
		return
	}
	c.JSON(appErr.Code.HTTPStatus(), gin.H{"error": errorBody{
		Code:    string(appErr.Code),
		Message: appErr.Message,
		Detail:  appErr.Detail,
	}})
}

// datasetKey extracts the conference/year path parameters.  The conference
// is lowercased so /ICLR/2025 and /iclr/2025 address the same dataset and
// cache entries.
func datasetKey(c *gin.Context) (storage.DatasetKey, error) {
	year, err := strconv.Atoi(c.Param("year"))
	if err != nil {
		return storage.DatasetKey{}, errors.InvalidParam("year must be an integer").WithDetail(c.Param("year"))
	}
	return storage.DatasetKey{Conference: strings.ToLower(c.Param("conference")), Year: year}, nil
}
