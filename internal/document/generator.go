// Package document 把上传的图片保存为 PNG, 并生成带整图超链接的单页 PDF.
package document

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"io"
	"os"

	"github.com/disintegration/imaging"
	"github.com/go-pdf/fpdf"
	"go.uber.org/zap"

	// 额外支持 webp 上传, bmp/tiff 由 imaging 注册
	_ "golang.org/x/image/webp"
)

const (
	// BlankWidth 未上传图片时生成的空白画布宽度
	BlankWidth = 800
	// BlankHeight 未上传图片时生成的空白画布高度
	BlankHeight = 600

	// ModePNG 目前唯一支持的输出模式
	ModePNG = "png"
	// FormatBlank 空白画布的来源格式
	FormatBlank = "blank"

	// DefaultMaxPixels 默认像素上限, 约 8000x5000
	DefaultMaxPixels = 40_000_000
)

var (
	// ErrDecodeImage 上传的图片无法解码
	ErrDecodeImage = errors.New("cannot decode image")
	// ErrUnsupportedMode 不支持的输出模式
	ErrUnsupportedMode = errors.New("unsupported mode")
	// ErrImageTooLarge 文件头声明的尺寸超过像素上限, 属于 ErrDecodeImage
	ErrImageTooLarge = fmt.Errorf("%w: image dimensions exceed limit", ErrDecodeImage)
)

// IDSource 引用码来源
type IDSource interface {
	New() (string, error)
}

// Document 一次生成得到的 PNG + PDF
type Document struct {
	Ref         string
	Format      string
	Width       int
	Height      int
	PNGName     string
	PNGPath     string
	PDFName     string
	PDFPath     string
	TrackingURL string
	LinkRect    Rect
}

// Generator 文档生成器
type Generator struct {
	store     *Store
	ids       IDSource
	page      Page
	margin    float64
	maxPixels int64
	logger    *zap.SugaredLogger
}

// NewGenerator 创建生成器, 页面为 US Letter, 留白 36pt.
// maxPixels 限制上传图片的宽高乘积, 不大于 0 时取 DefaultMaxPixels.
func NewGenerator(store *Store, ids IDSource, maxPixels int64, logger *zap.SugaredLogger) *Generator {
	if maxPixels <= 0 {
		maxPixels = DefaultMaxPixels
	}
	return &Generator{
		store:     store,
		ids:       ids,
		page:      Letter,
		margin:    DefaultMargin,
		maxPixels: maxPixels,
		logger:    logger.Named("document"),
	}
}

// Generate 生成文档. src 为 nil 时使用 800x600 白色画布;
// trackingURL 根据引用码返回 PDF 中超链接的目标地址.
func (g *Generator) Generate(ctx context.Context, src io.Reader, mode string, trackingURL func(ref string) string) (*Document, error) {
	if mode != "" && mode != ModePNG {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedMode, mode)
	}

	img, format, err := g.loadImage(src)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ref, err := g.ids.New()
	if err != nil {
		return nil, fmt.Errorf("生成引用码失败: %w", err)
	}

	bounds := img.Bounds()
	doc := &Document{
		Ref:         ref,
		Format:      format,
		Width:       bounds.Dx(),
		Height:      bounds.Dy(),
		PNGName:     PNGName(ref),
		PNGPath:     g.store.path(PNGName(ref)),
		PDFName:     PDFName(ref),
		PDFPath:     g.store.path(PDFName(ref)),
		TrackingURL: trackingURL(ref),
	}

	// PDF 从磁盘读取 PNG, 必须先写图片
	if err := writePNG(doc.PNGPath, img); err != nil {
		return nil, err
	}

	doc.LinkRect = FitCentered(g.page, g.margin, doc.Width, doc.Height)
	if err := g.writePDF(doc); err != nil {
		return nil, err
	}

	g.logger.Infof("文档已生成 ref=%s format=%s size=%dx%d", doc.Ref, doc.Format, doc.Width, doc.Height)
	return doc, nil
}

// loadImage 解码并转换为带透明通道的 NRGBA.
// 先只读文件头检查尺寸, 超过像素上限的图片不分配像素缓冲.
func (g *Generator) loadImage(src io.Reader) (*image.NRGBA, string, error) {
	if src == nil {
		return imaging.New(BlankWidth, BlankHeight, color.NRGBA{R: 255, G: 255, B: 255, A: 255}), FormatBlank, nil
	}

	// 文件头读过的字节留在 head 中, 解码时重新拼回
	var head bytes.Buffer
	cfg, format, err := image.DecodeConfig(io.TeeReader(src, &head))
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrDecodeImage, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || int64(cfg.Width)*int64(cfg.Height) > g.maxPixels {
		g.logger.Warnf("拒绝超大图片 format=%s size=%dx%d limit=%d", format, cfg.Width, cfg.Height, g.maxPixels)
		return nil, "", fmt.Errorf("%w: %dx%d", ErrImageTooLarge, cfg.Width, cfg.Height)
	}

	img, format, err := image.Decode(io.MultiReader(&head, src))
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrDecodeImage, err)
	}
	return imaging.Clone(img), format, nil
}

func writePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("创建 PNG 文件失败: %w", err)
	}
	if err := imaging.Encode(f, img, imaging.PNG); err != nil {
		f.Close()
		return fmt.Errorf("写入 PNG 失败: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("写入 PNG 失败: %w", err)
	}
	return nil
}

func (g *Generator) writePDF(doc *Document) error {
	pdf := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "pt",
		Size:           fpdf.SizeType{Wd: g.page.Width, Ht: g.page.Height},
	})
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPage()

	r := doc.LinkRect
	opts := fpdf.ImageOptions{ImageType: "png", ReadDpi: false}
	pdf.ImageOptions(doc.PNGPath, r.X, r.Y, r.W, r.H, false, opts, 0, "")
	pdf.LinkString(r.X, r.Y, r.W, r.H, doc.TrackingURL)

	if err := pdf.OutputFileAndClose(doc.PDFPath); err != nil {
		return fmt.Errorf("写入 PDF 失败: %w", err)
	}
	return nil
}
