package model

import (
	"errors"
	"fmt"
	"regexp"

	log "github.com/sirupsen/logrus"
)

const (
	ErrorValidation   = 200001
	ErrorTaskNotFound = 200002
	ErrorState        = 200003
	ErrorProvider     = 200004
	ErrorPublish      = 200006
	ErrorDB           = 200007
	ErrorLockHeld     = 200008
	ErrorCancelled    = 200009
	ErrorNewRepo      = 200010
	ErrorEmptyId      = 200011
)

var ErrorMessages = map[int]string{
	ErrorValidation:   "参数错误",
	ErrorTaskNotFound: "任务不存在",
	ErrorState:        "当前状态不允许该操作",
	ErrorProvider:     "模型服务调用失败",
	ErrorPublish:      "发布失败",
	ErrorDB:           "db error",
	ErrorLockHeld:     "任务正在执行中",
	ErrorCancelled:    "任务已取消",
	ErrorNewRepo:      "新建 repo 失败",
	ErrorEmptyId:      "id 为空",
}

type Error struct {
	Code       int    `json:"code"`
	Message    string `json:"message"`
	TaskID     string `json:"task_id,omitempty"`
	InnerError error  `json:"inner_error"`
}

func (err Error) Error() string {
	return err.Message
}

func (err Error) String() string {
	if err.InnerError == nil {
		return err.Message
	}
	return err.InnerError.Error()
}

func NewError(code int, innerError error) *Error {
	if innerError != nil {
		var re = regexp.MustCompile(`[\n\t]+`)
		innerErrorString := re.ReplaceAllString(fmt.Sprintf("%+v", innerError), " ")
		log.Errorf("NewError code:%d, message:%s, innerError:%+v\n", code, ErrorMessages[code], innerErrorString)
	}
	return &Error{
		Code:       code,
		Message:    ErrorMessages[code],
		InnerError: innerError,
	}
}

// NewTaskError 创建携带任务 ID 的错误
func NewTaskError(code int, taskID string, innerError error) *Error {
	err := NewError(code, innerError)
	err.TaskID = taskID
	return err
}

func NewErrorWithMessage(code int, message string) *Error {
	return &Error{
		Code:       code,
		Message:    message,
		InnerError: nil,
	}
}

// IsCode 判断 err 链上是否存在指定 code 的 *Error
func IsCode(err error, code int) bool {
	var coded *Error
	if errors.As(err, &coded) {
		return coded.Code == code
	}
	return false
}

// CodeOf 提取 err 链上的错误码，非 *Error 返回 0
func CodeOf(err error) int {
	var coded *Error
	if errors.As(err, &coded) {
		return coded.Code
	}
	return 0
}
