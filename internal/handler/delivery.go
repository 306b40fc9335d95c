package handler

import (
	"errors"
	"net/http"

	"doctrack-platform/internal/docref"
	"doctrack-platform/internal/document"
	"doctrack-platform/internal/hitlog"
	"doctrack-platform/internal/middleware"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// DeliveryHandler 追踪跳转和文件下载
type DeliveryHandler struct {
	store       *document.Store
	hits        HitLog
	resolver    LocationResolver
	redirectURL string
	logger      *zap.SugaredLogger
}

// NewDeliveryHandler 创建处理器实例
func NewDeliveryHandler(store *document.Store, hits HitLog, resolver LocationResolver, redirectURL string, logger *zap.SugaredLogger) *DeliveryHandler {
	return &DeliveryHandler{
		store:       store,
		hits:        hits,
		resolver:    resolver,
		redirectURL: redirectURL,
		logger:      logger.Named("delivery"),
	}
}

// recordHit 先查询位置再写入访问记录; 位置查询失败不影响写入
func (h *DeliveryHandler) recordHit(c *gin.Context, ref string) error {
	ip := c.ClientIP()
	location := h.resolver.Resolve(c.Request.Context(), ip)

	return h.hits.Record(c.Request.Context(), hitlog.Entry{
		DocRef:    ref,
		ViewerID:  middleware.CurrentViewer(c).ID,
		IP:        ip,
		UserAgent: c.Request.UserAgent(),
		Location:  location,
	})
}

// Click godoc
// @Summary 追踪点击
// @Description 记录一次点击后跳转到固定地址; PDF 中的超链接指向此接口
// @Tags Delivery
// @Param   doc_ref  path  string  true  "文档引用码"
// @Success 302 {string} string "跳转"
// @Failure 404 {string} string "引用码格式错误"
// @Failure 429 {string} string "请求过于频繁"
// @Router /click/{doc_ref} [get]
func (h *DeliveryHandler) Click(c *gin.Context) {
	ref := c.Param("doc_ref")
	if !docref.Valid(ref) {
		c.String(http.StatusNotFound, "Not found")
		return
	}

	if err := h.recordHit(c, ref); err != nil {
		h.logger.Errorf("记录点击失败 ref=%s: %v", ref, err)
		c.String(http.StatusInternalServerError, "Internal Server Error")
		return
	}
	c.Redirect(http.StatusFound, h.redirectURL)
}

// DownloadPDF godoc
// @Summary 下载 PDF 并记录
// @Description 记录一次下载后以附件形式返回 PDF
// @Tags Delivery
// @Produce  application/pdf
// @Param   doc_ref  path  string  true  "文档引用码"
// @Param   pdfname  path  string  true  "PDF 文件名"
// @Success 200 {file} file "PDF 附件"
// @Failure 404 {string} string "文件不存在"
// @Router /dl_pdf/{doc_ref}/{pdfname} [get]
func (h *DeliveryHandler) DownloadPDF(c *gin.Context) {
	ref := c.Param("doc_ref")
	name := c.Param("pdfname")
	if !docref.Valid(ref) {
		c.String(http.StatusNotFound, "Not found")
		return
	}

	if err := h.recordHit(c, ref); err != nil {
		h.logger.Errorf("记录下载失败 ref=%s: %v", ref, err)
		c.String(http.StatusInternalServerError, "Internal Server Error")
		return
	}

	path, ok := h.resolve(c, name)
	if !ok {
		return
	}
	c.Header("Content-Type", "application/pdf")
	c.FileAttachment(path, name)
}

// DownloadGenerated godoc
// @Summary 下载生成的文件
// @Description 按文件名下载, Content-Type 由扩展名决定
// @Tags Delivery
// @Produce  octet-stream
// @Param   name  path  string  true  "文件名"
// @Success 200 {file} file "附件"
// @Failure 404 {string} string "文件不存在"
// @Router /download_generated/{name} [get]
func (h *DeliveryHandler) DownloadGenerated(c *gin.Context) {
	name := c.Param("name")
	path, ok := h.resolve(c, name)
	if !ok {
		return
	}
	c.Header("Content-Type", document.ContentType(name))
	c.FileAttachment(path, name)
}

// resolve 文件名非法或不存在时写 404
func (h *DeliveryHandler) resolve(c *gin.Context, name string) (string, bool) {
	path, err := h.store.Resolve(name)
	switch {
	case errors.Is(err, document.ErrInvalidName), errors.Is(err, document.ErrNotFound):
		c.String(http.StatusNotFound, "Not found")
		return "", false
	case err != nil:
		h.logger.Errorf("读取文件失败 name=%s: %v", name, err)
		c.String(http.StatusInternalServerError, "Internal Server Error")
		return "", false
	}
	return path, true
}
