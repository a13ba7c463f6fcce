// Package render builds the SVG document for a single glyph.
package render

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/suikawiki/deno-swdata-objects/internal/glyph"
)

// ContentType 是 SVG 响应的 content-type。
const ContentType = "image/svg+xml; charset=utf-8"

// Layout 描述字形在视图中的垂直排布。
type Layout struct {
	// Height = max(unitsPerEm, typoAscender - typoDescender)
	Height int
	// Baseline 为基线所在的 y 坐标（SVG 坐标系）。
	Baseline int
}

// NewLayout 保证 ascender 到 descender 的完整范围落在 0..Height 内。
func NewLayout(unitsPerEm, typoAscender, typoDescender int) Layout {
	h := typoAscender - typoDescender
	if h < unitsPerEm {
		h = unitsPerEm
	}
	return Layout{Height: h, Baseline: h + typoDescender}
}

// Document 对应一个完整的 SVG 文件。
type Document struct {
	UnitsPerEm  int
	PathData    string
	Description string
}

// String 输出 SVG 文本，Description 需已转义。
func (d Document) String() string {
	return fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %d %d"><path d="%s"/><desc>%s</desc></svg>`,
		d.UnitsPerEm, d.UnitsPerEm, d.PathData, d.Description)
}

var descEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;")

// EscapeText 仅转义 & 与 <，> 和引号保持原样。
func EscapeText(s string) string {
	return descEscaper.Replace(s)
}

// Description 按 <字体地址>、字形 id、版权、许可、许可地址、商标 的顺序拼接，
// 跳过缺失字段，以空行分隔并转义。
func Description(fontURL string, glyphID int, lic glyph.License) string {
	parts := []string{"<" + fontURL + ">", strconv.Itoa(glyphID)}
	for _, field := range []*string{lic.Copyright, lic.License, lic.LicenseURL, lic.Trademark} {
		if field != nil {
			parts = append(parts, *field)
		}
	}
	return EscapeText(strings.Join(parts, "\n\n"))
}

// GlyphSVG 渲染单个字形，HTTP 处理器与 render 子命令共用。
func GlyphSVG(f *glyph.Font, g glyph.Glyph, fontURL string) (string, error) {
	layout := NewLayout(f.UnitsPerEm(), f.TypoAscender(), f.TypoDescender())
	path, err := f.Outline(g, 0, float64(layout.Baseline))
	if err != nil {
		return "", err
	}
	doc := Document{
		UnitsPerEm:  f.UnitsPerEm(),
		PathData:    path.Data(),
		Description: Description(fontURL, g.ID, f.License()),
	}
	return doc.String(), nil
}
