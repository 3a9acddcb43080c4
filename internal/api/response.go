package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"crypto-bridge/internal/errs"
)

// respondSuccess wraps upstream data in the success envelope. The
// message field is omitted when empty.
func respondSuccess(c *gin.Context, data any, message string) {
	body := gin.H{"status": "success", "data": data}
	if message != "" {
		body["message"] = message
	}
	c.JSON(http.StatusOK, body)
}

// respondInvalid rejects a request that failed local validation.
func respondInvalid(c *gin.Context, detail string) {
	c.JSON(http.StatusBadRequest, gin.H{
		"status":     "error",
		"error_type": "validation_error",
		"detail":     detail,
	})
}

// respondError maps an upstream or internal failure onto the error
// envelope. Upstream HTTP failures and network failures both become
// 502 so callers can tell a broken bridge from a broken upstream.
func respondError(c *gin.Context, err error) {
	status, errorType := classify(err)
	c.JSON(status, gin.H{
		"status":     "error",
		"error_type": errorType,
		"detail":     err.Error(),
	})
}

func classify(err error) (int, string) {
	switch errs.KindOf(err) {
	case errs.KindInvalid:
		return http.StatusBadRequest, "validation_error"
	case errs.KindTransport:
		if errs.HTTPStatus(err) > 0 {
			return http.StatusBadGateway, "upstream_error"
		}
		return http.StatusBadGateway, "network_error"
	default:
		return http.StatusInternalServerError, "api_error"
	}
}
