package tools

import (
	"fmt"

	log "github.com/sirupsen/logrus"
)

// ErrorWithPrintContext 执行关闭函数，失败时带上下文记录日志
// 用于 defer 关闭资源的场景
func ErrorWithPrintContext(closeFunc func() error, format string, args ...interface{}) {
	if err := closeFunc(); err != nil {
		log.Errorf("failed to close resource (%s): %v", fmt.Sprintf(format, args...), err)
	}
}
