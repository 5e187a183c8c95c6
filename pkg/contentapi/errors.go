package contentapi

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound slug 查询没有结果，或服务端返回 404
	ErrNotFound = errors.New("contentapi: post not found")
	// ErrHalted 连续失败后暂停请求，等待手动重试或冷却结束
	ErrHalted = errors.New("contentapi: requests halted after repeated failures")
)

// ErrorKind 失败类别
type ErrorKind string

const (
	KindTransport ErrorKind = "transport" // 网络不可达、超时
	KindStatus    ErrorKind = "status"    // 非 2xx
	KindDecode    ErrorKind = "decode"    // 响应体不是合法 JSON
	KindRejected  ErrorKind = "rejected"  // 信封 success=false
)

// APIError 内容API调用失败
type APIError struct {
	Kind       ErrorKind
	StatusCode int
	Message    string
	Err        error
}

func (e *APIError) Error() string {
	switch {
	case e.StatusCode != 0 && e.Message != "":
		return fmt.Sprintf("contentapi %s (%d): %s", e.Kind, e.StatusCode, e.Message)
	case e.StatusCode != 0:
		return fmt.Sprintf("contentapi %s (%d)", e.Kind, e.StatusCode)
	case e.Message != "":
		return fmt.Sprintf("contentapi %s: %s", e.Kind, e.Message)
	case e.Err != nil:
		return fmt.Sprintf("contentapi %s: %v", e.Kind, e.Err)
	default:
		return fmt.Sprintf("contentapi %s", e.Kind)
	}
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// IsKind 判断错误类别
func IsKind(err error, kind ErrorKind) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Kind == kind
}
