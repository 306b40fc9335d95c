package document

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

var (
	// ErrInvalidName 文件名包含路径或非法字符
	ErrInvalidName = errors.New("invalid artifact name")
	// ErrNotFound 文件不存在
	ErrNotFound = errors.New("artifact not found")
)

var validName = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)

var contentTypes = map[string]string{
	"png": "image/png",
	"pdf": "application/pdf",
	"svg": "image/svg+xml",
}

// Store 扁平的输出目录, 保存 document_{ref}.png / document_{ref}.pdf
type Store struct {
	root string
}

// NewStore 确保目录存在
func NewStore(root string) (*Store, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("创建输出目录失败: %w", err)
	}
	return &Store{root: root}, nil
}

// Root 输出目录
func (s *Store) Root() string {
	return s.root
}

// PNGName 引用码对应的图片文件名
func PNGName(ref string) string {
	return "document_" + ref + ".png"
}

// PDFName 引用码对应的 PDF 文件名
func PDFName(ref string) string {
	return "document_" + ref + ".pdf"
}

func (s *Store) path(name string) string {
	return filepath.Join(s.root, name)
}

// Resolve 校验文件名并返回其在输出目录中的路径.
// 名称不能跳出输出目录, 目录和不存在的文件都视为 ErrNotFound.
func (s *Store) Resolve(name string) (string, error) {
	if !validName.MatchString(name) || strings.Contains(name, "..") || filepath.Base(name) != name {
		return "", ErrInvalidName
	}

	p := s.path(name)
	info, err := os.Stat(p)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("读取文件信息失败: %w", err)
	}
	if !info.Mode().IsRegular() {
		return "", ErrNotFound
	}
	return p, nil
}

// ContentType 根据扩展名返回 MIME 类型, 未知扩展名返回 application/octet-stream
func ContentType(name string) string {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(name)), ".")
	if ct, ok := contentTypes[ext]; ok {
		return ct
	}
	return "application/octet-stream"
}
