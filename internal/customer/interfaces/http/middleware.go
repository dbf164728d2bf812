package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/wyfcoding/pkg/response"

	"github.com/wyfcoding/ecommerce/internal/customer/application"
)

// AuthRequired 解析 Authorization: Bearer 并把用户身份放入请求上下文
func AuthRequired(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			response.ErrorWithStatus(c, http.StatusUnauthorized, "missing bearer token", "")
			c.Abort()
			return
		}
		claims, err := application.ParseToken(strings.TrimPrefix(header, "Bearer "), secret)
		if err != nil {
			response.ErrorWithStatus(c, http.StatusUnauthorized, "invalid token", "")
			c.Abort()
			return
		}
		c.Set("user_id", claims.UserID)
		c.Set("is_staff", claims.IsStaff)
		c.Next()
	}
}

// AuthOptional 存在 Bearer 时解析身份，匿名请求放行。
// 携带了无效 token 的请求仍返回 401。
func AuthOptional(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			c.Next()
			return
		}
		claims, err := application.ParseToken(strings.TrimPrefix(header, "Bearer "), secret)
		if err != nil {
			response.ErrorWithStatus(c, http.StatusUnauthorized, "invalid token", "")
			c.Abort()
			return
		}
		c.Set("user_id", claims.UserID)
		c.Set("is_staff", claims.IsStaff)
		c.Next()
	}
}

// StaffOnly 仅允许后台用户访问
func StaffOnly(secret string) gin.HandlerFunc {
	auth := AuthRequired(secret)
	return func(c *gin.Context) {
		auth(c)
		if c.IsAborted() {
			return
		}
		if staff, ok := c.Get("is_staff"); !ok || staff != true {
			response.ErrorWithStatus(c, http.StatusForbidden, "staff only", "")
			c.Abort()
			return
		}
		c.Next()
	}
}
