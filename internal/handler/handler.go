package handler

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"doctrack-platform/internal/document"
	"doctrack-platform/internal/geo"
	"doctrack-platform/internal/hitlog"
	"doctrack-platform/internal/middleware"
	"doctrack-platform/internal/model"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// DocumentGenerator 生成 PNG + PDF
type DocumentGenerator interface {
	Generate(ctx context.Context, src io.Reader, mode string, trackingURL func(ref string) string) (*document.Document, error)
}

// HitLog 访问日志
type HitLog interface {
	Record(ctx context.Context, e hitlog.Entry) error
	Recent(ctx context.Context, limit int) ([]model.Hit, error)
}

// LocationResolver 地址到位置的尽力解析
type LocationResolver interface {
	Resolve(ctx context.Context, address string) geo.Result
}

// DocumentHandler 首页、文档生成和日志查看
type DocumentHandler struct {
	generator      DocumentGenerator
	hits           HitLog
	baseURL        string
	logLimit       int
	maxUploadBytes int64
	logger         *zap.SugaredLogger
}

// NewDocumentHandler 创建处理器实例. baseURL 为空时根据请求生成外部链接;
// maxUploadBytes 限制 /make 的请求体大小, 不大于 0 表示不限制.
func NewDocumentHandler(generator DocumentGenerator, hits HitLog, baseURL string, logLimit int, maxUploadBytes int64, logger *zap.SugaredLogger) *DocumentHandler {
	return &DocumentHandler{
		generator:      generator,
		hits:           hits,
		baseURL:        strings.TrimRight(baseURL, "/"),
		logLimit:       logLimit,
		maxUploadBytes: maxUploadBytes,
		logger:         logger.Named("documents"),
	}
}

// IndexPage 首页, 显示登录状态
func (h *DocumentHandler) IndexPage(c *gin.Context) {
	c.HTML(http.StatusOK, "index.html", gin.H{"LoggedIn": middleware.CurrentViewer(c).Admin})
}

// HealthCheck 存活检查
func (h *DocumentHandler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy", "timestamp": time.Now()})
}

// MakePage 上传表单
func (h *DocumentHandler) MakePage(c *gin.Context) {
	c.HTML(http.StatusOK, "make.html", gin.H{})
}

// MadeFile 生成结果页面数据
type MadeFile struct {
	DocRef         string
	FileKind       string
	FileURL        string
	PDFURL         string
	ClickURL       string
	DownloadPDFURL string
}

// CreateDocument godoc
// @Summary 生成文档
// @Description 上传图片(可选)生成 PNG 和带追踪链接的 PDF
// @Tags Document
// @Accept  multipart/form-data
// @Produce  html
// @Param   image  formData  file    false  "图片, 缺省时使用 800x600 空白画布"
// @Param   mode   formData  string  false  "输出模式, 目前只支持 png"
// @Success 200 {string} string "生成结果页面"
// @Failure 302 {string} string "未登录, 跳转到 /login"
// @Failure 400 {string} string "图片无法解码、尺寸超限或模式不支持"
// @Failure 413 {string} string "请求体超过上传上限"
// @Failure 500 {string} string "写入文件失败"
// @Router /make [post]
func (h *DocumentHandler) CreateDocument(c *gin.Context) {
	if h.maxUploadBytes > 0 {
		if c.Request.ContentLength > h.maxUploadBytes {
			h.renderMakeError(c, http.StatusRequestEntityTooLarge, "Upload too large")
			return
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes)
	}

	// 先解析上传, 请求体超限的错误不能被 DefaultPostForm 吞掉
	var src io.Reader
	var tooLarge *http.MaxBytesError
	fh, err := c.FormFile("image")
	switch {
	case err == nil && fh.Filename != "":
		f, err := fh.Open()
		if err != nil {
			h.renderMakeError(c, http.StatusBadRequest, "Cannot read uploaded file")
			return
		}
		defer f.Close()
		src = f
	case err == nil, errors.Is(err, http.ErrMissingFile), errors.Is(err, http.ErrNotMultipart):
	case errors.As(err, &tooLarge):
		h.renderMakeError(c, http.StatusRequestEntityTooLarge, "Upload too large")
		return
	default:
		h.renderMakeError(c, http.StatusBadRequest, "Cannot read uploaded file")
		return
	}
	mode := c.DefaultPostForm("mode", document.ModePNG)

	doc, err := h.generator.Generate(c.Request.Context(), src, mode, func(ref string) string {
		return h.externalURL(c, "/click/"+url.PathEscape(ref))
	})
	switch {
	case errors.Is(err, document.ErrImageTooLarge):
		h.renderMakeError(c, http.StatusBadRequest, "Image dimensions are too large")
		return
	case errors.Is(err, document.ErrDecodeImage):
		h.renderMakeError(c, http.StatusBadRequest, "Uploaded file is not a readable image")
		return
	case errors.Is(err, document.ErrUnsupportedMode):
		h.renderMakeError(c, http.StatusBadRequest, "Unsupported mode")
		return
	case err != nil:
		h.logger.Errorf("生成文档失败: %v", err)
		h.renderMakeError(c, http.StatusInternalServerError, "Document generation failed")
		return
	}

	c.HTML(http.StatusOK, "made_file.html", MadeFile{
		DocRef:         doc.Ref,
		FileKind:       "PNG",
		FileURL:        h.externalURL(c, "/download_generated/"+url.PathEscape(doc.PNGName)),
		PDFURL:         h.externalURL(c, "/download_generated/"+url.PathEscape(doc.PDFName)),
		ClickURL:       doc.TrackingURL,
		DownloadPDFURL: h.externalURL(c, "/dl_pdf/"+url.PathEscape(doc.Ref)+"/"+url.PathEscape(doc.PDFName)),
	})
}

func (h *DocumentHandler) renderMakeError(c *gin.Context, status int, msg string) {
	c.HTML(status, "make.html", gin.H{"Error": msg})
}

// ViewLogs godoc
// @Summary 查看访问记录
// @Description 按时间倒序显示最近的访问记录
// @Tags Hits
// @Produce  html
// @Success 200 {string} string "访问记录页面"
// @Failure 302 {string} string "未登录, 跳转到 /login"
// @Router /logs [get]
func (h *DocumentHandler) ViewLogs(c *gin.Context) {
	hits, err := h.hits.Recent(c.Request.Context(), h.logLimit)
	if err != nil {
		h.logger.Errorf("读取访问记录失败: %v", err)
		c.String(http.StatusInternalServerError, "Internal Server Error")
		return
	}
	c.HTML(http.StatusOK, "logs.html", gin.H{"Hits": hits})
}

// externalURL 拼接外部可访问的绝对地址
func (h *DocumentHandler) externalURL(c *gin.Context, path string) string {
	if h.baseURL != "" {
		return h.baseURL + path
	}
	scheme := "http"
	if c.Request.TLS != nil {
		scheme = "https"
	}
	if proto := c.GetHeader("X-Forwarded-Proto"); proto == "http" || proto == "https" {
		scheme = proto
	}
	return scheme + "://" + c.Request.Host + path
}
