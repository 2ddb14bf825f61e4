package middleware

import (
	"fmt"
	"log"
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"github.com/LENAX/flow-planner/pkg/api/dto"
)

// Recovery panic恢复中间件
// 捕获handler中的panic，记录请求路径和堆栈后返回500
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				log.Printf("❌ [Recovery] panic recovered: %s %s, error=%v\n%s",
					c.Request.Method, c.Request.URL.Path, err, debug.Stack())

				c.JSON(http.StatusInternalServerError, dto.NewErrorResponse(
					500,
					fmt.Sprintf("Internal Server Error: %s %s", c.Request.Method, c.Request.URL.Path),
				))
				c.Abort()
			}
		}()
		c.Next()
	}
}
