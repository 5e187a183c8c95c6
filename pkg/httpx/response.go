package httpx

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Response 统一响应信封，与内容API的 {success, data, message} 保持一致
type Response struct {
	Success  bool        `json:"success"`
	Data     interface{} `json:"data,omitempty"`
	Message  string      `json:"message,omitempty"`
	Retry    string      `json:"retry,omitempty"`
	Redirect string      `json:"redirect,omitempty"`
	Halted   bool        `json:"halted,omitempty"`
}

// StatusClientClosedRequest 客户端在响应前断开（nginx 约定的 499）
const StatusClientClosedRequest = 499

// Option 修改响应信封
type Option func(*Response)

// WithRetry 附带重试入口
func WithRetry(path string) Option {
	return func(r *Response) { r.Retry = path }
}

// WithRedirect 附带跳转地址
func WithRedirect(path string) Option {
	return func(r *Response) { r.Redirect = path }
}

// WithHalted 标记内容API已暂停，只有手动重试才会重新请求
func WithHalted(halted bool) Option {
	return func(r *Response) { r.Halted = halted }
}

// WriteObject 写出成功响应
func WriteObject(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{Success: true, Data: data})
}

// WriteError 写出失败响应
func WriteError(c *gin.Context, status int, message string, opts ...Option) {
	res := Response{Success: false, Message: message}
	for _, opt := range opts {
		opt(&res)
	}
	c.AbortWithStatusJSON(status, res)
}
