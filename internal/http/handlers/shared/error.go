// Package shared 公共响应与错误映射。
package shared

import (
	"errors"

	"github.com/commerce-next/internal/http/response"
	"github.com/commerce-next/internal/integration"

	"github.com/gin-gonic/gin"
)

// RespondError 把集成层错误类别映射为业务状态码
func RespondError(c *gin.Context, err error) {
	var fieldsErr *integration.FieldsError
	if errors.As(err, &fieldsErr) {
		response.ErrorWithData(c, codeFor(err), fieldsErr.Message, gin.H{"fields": fieldsErr.Fields})
		return
	}
	response.Error(c, codeFor(err), err.Error())
}

func codeFor(err error) int {
	switch {
	case errors.Is(err, integration.ErrNotFound):
		return response.CodeNotFound
	case errors.Is(err, integration.ErrValidation):
		return response.CodeBadRequest
	case errors.Is(err, integration.ErrConfiguration):
		return response.CodeBadRequest
	case errors.Is(err, integration.ErrCommunication), errors.Is(err, integration.ErrProtocol):
		return response.CodeUpstream
	default:
		return response.CodeInternal
	}
}
