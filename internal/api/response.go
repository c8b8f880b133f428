package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"

	"capex-lab/internal/domain"
	"capex-lab/internal/storage"
)

const requestIDKey = "request_id"

// Response is the envelope of every JSON reply. Code 0 means success.
type Response struct {
	RequestID string `json:"request_id,omitempty"`
	Code      int    `json:"code"`
	Message   string `json:"message"`
	Data      any    `json:"data,omitempty"`
}

// Error codes carried in Response.Code.
const (
	CodeOK = iota
	CodeInvalidParameter
	CodeConflict
	CodeTimeout
	CodeInternal
)

// writeJSON encodes v with go-json instead of gin's default encoder.
func writeJSON(c *gin.Context, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		c.AbortWithStatus(http.StatusInternalServerError)
		return
	}
	c.Data(status, "application/json; charset=utf-8", data)
}

// ok writes a successful envelope.
func ok(c *gin.Context, data any) {
	writeJSON(c, http.StatusOK, Response{
		RequestID: c.GetString(requestIDKey),
		Code:      CodeOK,
		Message:   "ok",
		Data:      data,
	})
}

// fail maps err onto an HTTP status and envelope code.
func fail(c *gin.Context, err error) {
	status, code := classify(err)
	writeJSON(c, status, Response{
		RequestID: c.GetString(requestIDKey),
		Code:      code,
		Message:   err.Error(),
	})
}

func classify(err error) (int, int) {
	switch {
	case errors.Is(err, domain.ErrInvalidParameter), errors.Is(err, storage.ErrInvalidInput):
		return http.StatusBadRequest, CodeInvalidParameter
	case errors.Is(err, storage.ErrDuplicateKey):
		return http.StatusConflict, CodeConflict
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, CodeTimeout
	default:
		return http.StatusInternalServerError, CodeInternal
	}
}

// bind decodes the request body into v, rejecting unknown fields.
func bind(c *gin.Context, v any) error {
	dec := json.NewDecoder(c.Request.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: decode request: %v", domain.ErrInvalidParameter, err)
	}
	return nil
}
