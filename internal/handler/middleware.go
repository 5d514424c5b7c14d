package handler

import (
	"errors"
	"time"

	"github.com/blues/crowdcampaign/internal/logger"
	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	// CallerHeader 调用者身份
	CallerHeader = "X-Caller-Address"
	// RequestIDHeader 请求ID
	RequestIDHeader = "X-Request-ID"

	requestIDKey = "request_id"
)

var (
	errMissingCaller = errors.New("缺少调用者地址")
	errInvalidCaller = errors.New("无效的调用者地址")
)

// RequestID 为每个请求分配ID，已携带的ID原样透传
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}

// AccessLog 使用项目日志器记录请求
func AccessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Info("[%s] %s %s %d %s", c.GetString(requestIDKey), c.Request.Method, c.Request.URL.Path, c.Writer.Status(), time.Since(start))
	}
}

// callerAddress 从请求头解析调用者地址
func callerAddress(c *gin.Context) (common.Address, error) {
	raw := c.GetHeader(CallerHeader)
	if raw == "" {
		return common.Address{}, errMissingCaller
	}
	return parseAddress(raw, errInvalidCaller)
}

func parseAddress(raw string, invalid error) (common.Address, error) {
	if !common.IsHexAddress(raw) {
		return common.Address{}, invalid
	}
	return common.HexToAddress(raw), nil
}
