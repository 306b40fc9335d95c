package document

import "math"

// Page 页面尺寸, 单位 pt
type Page struct {
	Width  float64
	Height float64
}

// Letter US Letter, 612x792 pt
var Letter = Page{Width: 612, Height: 792}

// DefaultMargin 四边留白, 单位 pt
const DefaultMargin = 36.0

// Rect 以页面左下角为原点的矩形. 由于图片上下居中, X/Y 在左上角坐标系下数值相同.
type Rect struct {
	X float64
	Y float64
	W float64
	H float64
}

// FitCentered 将 iw x ih 的图片按等比缩放放入页面可打印区域并居中.
// 缩放系数为 min(maxW/iw, maxH/ih), 图片像素按 1pt 计.
func FitCentered(page Page, margin float64, iw, ih int) Rect {
	if iw <= 0 || ih <= 0 {
		return Rect{}
	}
	maxW := page.Width - 2*margin
	maxH := page.Height - 2*margin
	scale := math.Min(maxW/float64(iw), maxH/float64(ih))

	w := float64(iw) * scale
	h := float64(ih) * scale
	return Rect{
		X: (page.Width - w) / 2,
		Y: (page.Height - h) / 2,
		W: w,
		H: h,
	}
}
