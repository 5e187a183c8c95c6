package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"cih-portal/pkg/httpx"
	"cih-portal/pkg/logger"
)

// MsgInternalError 未预期错误时给访客看的提示
const MsgInternalError = "Ocurrió un error inesperado"

// Recovery 错误恢复中间件，响应使用统一信封
func Recovery(log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				log.Error(c.Request.Context(), "Panic recovered",
					logger.F("error", err),
					logger.F("method", c.Request.Method),
					logger.F("path", c.Request.URL.Path))

				httpx.WriteError(c, http.StatusInternalServerError, MsgInternalError)
			}
		}()

		c.Next()
	}
}
