package handler

import (
	"doctrack-platform/internal/middleware"

	"github.com/gin-gonic/gin"
)

// Routes 路由依赖
type Routes struct {
	Documents  *DocumentHandler
	Delivery   *DeliveryHandler
	Auth       *AuthHandler
	Session    gin.HandlerFunc
	ClickLimit gin.HandlerFunc
}

// RegisterRoutes 注册页面、下载和追踪路由
func RegisterRoutes(router *gin.Engine, r Routes) {
	router.Use(r.Session)

	router.GET("/", r.Documents.IndexPage)
	router.GET("/health", r.Documents.HealthCheck)

	router.GET("/login", r.Auth.LoginPage)
	router.POST("/login", r.Auth.Login)
	router.GET("/logout", r.Auth.Logout)

	admin := router.Group("")
	admin.Use(middleware.RequireAdmin("/login"))
	{
		admin.GET("/make", r.Documents.MakePage)
		admin.POST("/make", r.Documents.CreateDocument)
		admin.GET("/logs", r.Documents.ViewLogs)
	}

	router.GET("/click/:doc_ref", r.ClickLimit, r.Delivery.Click)
	router.GET("/dl_pdf/:doc_ref/:pdfname", r.Delivery.DownloadPDF)
	router.GET("/download_generated/:name", r.Delivery.DownloadGenerated)
}
