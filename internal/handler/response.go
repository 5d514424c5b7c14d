package handler

import (
	"errors"
	"net/http"

	"github.com/blues/crowdcampaign/internal/campaign"
	"github.com/blues/crowdcampaign/internal/logger"
	"github.com/blues/crowdcampaign/internal/registry"
	"github.com/gin-gonic/gin"
)

// SuccessResponse 成功响应
func SuccessResponse(c *gin.Context, statusCode int, message string, data interface{}) {
	c.JSON(statusCode, Response{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// ErrorResponse 错误响应
func ErrorResponse(c *gin.Context, statusCode int, message string) {
	c.JSON(statusCode, Response{
		Success: false,
		Message: message,
		Data:    nil,
	})
}

// StatusFor 把业务错误映射为 HTTP 状态码
func StatusFor(err error) int {
	if errors.Is(err, registry.ErrNotFound) {
		return http.StatusNotFound
	}
	var domainErr *campaign.Error
	if !errors.As(err, &domainErr) {
		return http.StatusInternalServerError
	}
	switch domainErr.Kind {
	case campaign.KindValidation:
		return http.StatusBadRequest
	case campaign.KindAuthorization:
		return http.StatusForbidden
	case campaign.KindState:
		return http.StatusConflict
	case campaign.KindTransfer:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// FailResponse 按错误类型返回失败响应，内部错误不向调用方暴露细节
func FailResponse(c *gin.Context, err error) {
	status := StatusFor(err)
	if status == http.StatusInternalServerError {
		logger.Error("Request %s %s failed: %v", c.Request.Method, c.FullPath(), err)
		ErrorResponse(c, status, "服务器内部错误")
		return
	}
	ErrorResponse(c, status, err.Error())
}
