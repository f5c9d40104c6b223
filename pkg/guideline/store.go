// Package guideline 提供建筑规范分类的纯文本读取与 HTML 渲染。
package guideline

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

// ErrNotFound 表示分类未知或对应的文本文件不存在。
var ErrNotFound = errors.New("guideline not found")

// Category 是规范文档中的一个章节。
type Category struct {
	Slug  string `json:"slug"`
	Label string `json:"label"`
}

// Categories 是固定的分类列表，顺序与规范文档一致。
var Categories = []Category{
	{Slug: "intro", Label: "Introduction"},
	{Slug: "general", Label: "General Conditions"},
	{Slug: "review-process", Label: "Review Process & Fees"},
	{Slug: "paint-siding", Label: "Paint, Siding, Brick & Stone"},
	{Slug: "fencing", Label: "Fencing"},
	{Slug: "roofing", Label: "Roofing"},
	{Slug: "doors-windows", Label: "Doors & Windows"},
	{Slug: "lighting", Label: "Exterior Lighting"},
	{Slug: "decks-patios", Label: "Decks, Patios & Flatwork"},
	{Slug: "signs", Label: "Signs"},
	{Slug: "solar", Label: "Solar Panels"},
	{Slug: "landscaping", Label: "Landscaping"},
	{Slug: "trees", Label: "Trees"},
	{Slug: "satellites", Label: "Satellite Dishes"},
	{Slug: "flagpoles", Label: "Flagpoles"},
	{Slug: "other-structures", Label: "Other Structures"},
	{Slug: "new-construction", Label: "New Construction"},
	{Slug: "arc-charter", Label: "ARC Charter"},
	{Slug: "moa-design", Label: "MOA Design Guidelines (2023)"},
}

// Store 从目录中读取每个分类预先抽取的 <slug>.txt 文件。请求期间只读。
type Store struct {
	dir     string
	pdfPath string
}

// NewStore 创建一个新的 Store 实例。
func NewStore(dir, pdfPath string) *Store {
	return &Store{dir: dir, pdfPath: pdfPath}
}

// Categories 返回全部分类。
func (s *Store) Categories() []Category {
	out := make([]Category, len(Categories))
	copy(out, Categories)
	return out
}

// Lookup 将任意客户端输入解析为已知分类，未知输入返回 false。
func (s *Store) Lookup(slug string) (Category, bool) {
	for _, c := range Categories {
		if c.Slug == slug {
			return c, true
		}
	}
	return Category{}, false
}

func (s *Store) textPath(slug string) string {
	return filepath.Join(s.dir, slug+".txt")
}

// PlainText 返回分类的纯文本，用于注入模型上下文。
func (s *Store) PlainText(slug string) (string, error) {
	if _, ok := s.Lookup(slug); !ok {
		return "", ErrNotFound
	}
	data, err := os.ReadFile(s.textPath(slug))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("read guideline %s: %w", slug, err)
	}
	return string(data), nil
}

// HTML 按需将纯文本渲染为 HTML。
func (s *Store) HTML(slug string) (string, error) {
	text, err := s.PlainText(slug)
	if err != nil {
		return "", err
	}
	return RenderHTML(text), nil
}

// Version 返回分类文本文件修改时间的指纹；空 slug、未知分类或文件缺失时返回空字符串。
func (s *Store) Version(slug string) string {
	if slug == "" {
		return ""
	}
	if _, ok := s.Lookup(slug); !ok {
		return ""
	}
	info, err := os.Stat(s.textPath(slug))
	if err != nil {
		return ""
	}
	return strconv.FormatInt(info.ModTime().UnixNano(), 10)
}

// PDFPath 返回规范原始 PDF 的路径，未配置或不存在时返回 ErrNotFound。
func (s *Store) PDFPath() (string, error) {
	if s.pdfPath == "" {
		return "", ErrNotFound
	}
	if _, err := os.Stat(s.pdfPath); err != nil {
		return "", ErrNotFound
	}
	return s.pdfPath, nil
}
