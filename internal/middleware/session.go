package middleware

import (
	"net/http"

	auth "doctrack-platform/pkg/jwt"

	"github.com/gin-gonic/gin"
)

const viewerKey = "viewer"

// Viewer 当前请求的访问者, 由 Session 中间件写入请求上下文
type Viewer struct {
	ID    string
	Admin bool
}

// Session 解析会话 cookie. 无效或缺失的 cookie 视为匿名访问者.
func Session(tokens *auth.TokenManager, cookieName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		viewer := Viewer{}
		if raw, err := c.Cookie(cookieName); err == nil && raw != "" {
			if claims, err := tokens.ValidateToken(raw); err == nil {
				viewer = Viewer{ID: claims.Viewer, Admin: claims.Admin}
			}
		}
		c.Set(viewerKey, viewer)
		c.Next()
	}
}

// CurrentViewer 读取请求上下文中的访问者
func CurrentViewer(c *gin.Context) Viewer {
	if v, ok := c.Get(viewerKey); ok {
		if viewer, ok := v.(Viewer); ok {
			return viewer
		}
	}
	return Viewer{}
}

// RequireAdmin 管理员权限中间件, 未登录时重定向到登录页
func RequireAdmin(loginPath string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !CurrentViewer(c).Admin {
			c.Redirect(http.StatusFound, loginPath)
			c.Abort()
			return
		}
		c.Next()
	}
}
