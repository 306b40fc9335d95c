package handler

import (
	"fmt"
	"net/http"

	auth "doctrack-platform/pkg/jwt"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// AdminViewer 登录后写入会话的访问者身份
const AdminViewer = "admin"

// AuthHandler 单一管理员密码登录
type AuthHandler struct {
	tokens       *auth.TokenManager
	passwordHash []byte
	cookieName   string
	secureCookie bool
}

// NewAuthHandler 创建处理器; 管理员密码只以 bcrypt 哈希形式保存在内存中
func NewAuthHandler(tokens *auth.TokenManager, adminPassword, cookieName string, secureCookie bool) (*AuthHandler, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(adminPassword), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("管理员密码加密失败: %w", err)
	}
	return &AuthHandler{
		tokens:       tokens,
		passwordHash: hash,
		cookieName:   cookieName,
		secureCookie: secureCookie,
	}, nil
}

// LoginPage 登录页面
func (h *AuthHandler) LoginPage(c *gin.Context) {
	c.HTML(http.StatusOK, "login.html", gin.H{})
}

// Login godoc
// @Summary 管理员登录
// @Description 密码正确时写入会话 cookie 并跳转到 /make
// @Tags Auth
// @Accept  x-www-form-urlencoded
// @Produce  html
// @Param   password  formData  string  true  "管理员密码"
// @Success 302 {string} string "跳转到 /make"
// @Failure 401 {string} string "密码错误"
// @Router /login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	password := c.PostForm("password")
	if bcrypt.CompareHashAndPassword(h.passwordHash, []byte(password)) != nil {
		c.HTML(http.StatusUnauthorized, "login.html", gin.H{"Error": "Wrong password"})
		return
	}

	token, err := h.tokens.GenerateToken(AdminViewer, true)
	if err != nil {
		zap.S().Errorf("生成会话令牌失败: %v", err)
		c.String(http.StatusInternalServerError, "Internal Server Error")
		return
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.cookieName, token, int(h.tokens.TTL().Seconds()), "/", "", h.secureCookie, true)
	c.Redirect(http.StatusFound, "/make")
}

// Logout 清除会话
func (h *AuthHandler) Logout(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.cookieName, "", -1, "/", "", h.secureCookie, true)
	c.Redirect(http.StatusFound, "/")
}
