package middleware

import (
	"bytes"
	"io"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const (
	RequestIDHeader    = "X-Request-ID"
	RequestIDInLogName = "request_id"
)

// Logger 请求日志中间件，记录方法、耗时、来源 IP 和请求体
func Logger(ctx *gin.Context) {
	start := time.Now().UTC()
	path := ctx.Request.URL.Path
	clientIP := ctx.ClientIP()

	body, err := captureBody(ctx)
	if err != nil {
		logrus.Errorf("read request body err:%v", err)
		return
	}

	ctx.Next()

	latency := time.Now().UTC().Sub(start)
	entry := logrus.NewEntry(logrus.StandardLogger())
	if requestID, ok := ctx.Get(RequestIDHeader); ok {
		entry = entry.WithField(RequestIDInLogName, requestID)
	}
	entry.Infof("%s| %s| %s| %s |request: %s", ctx.Request.Method, latency, clientIP, path, body)
}

// captureBody 读出请求体并放回，后续 handler 仍可读取
func captureBody(ctx *gin.Context) (string, error) {
	if ctx.Request.Body == nil {
		return "", nil
	}
	raw, err := io.ReadAll(ctx.Request.Body)
	if err != nil {
		return "", errors.WithStack(err)
	}
	ctx.Request.Body = io.NopCloser(bytes.NewBuffer(raw))
	return string(raw), nil
}
