package glyph

import (
	"errors"
	"fmt"

	"golang.org/x/image/font"
	"golang.org/x/image/font/sfnt"
	"golang.org/x/image/math/fixed"
)

// 垂直度量来源。
const (
	MetricsOS2  = "os2"
	MetricsHHEA = "hhea"
)

// Font 是一次请求内解析得到的字体，只读，可被同一请求内多次访问。
type Font struct {
	face          *sfnt.Font
	unitsPerEm    int
	typoAscender  int
	typoDescender int
	metricsSource string
}

// Parse 解析 TrueType/OpenType 字体数据，WOFF 1.0 会先被还原为 sfnt。数据在 Font 生命周期内不得修改。
func Parse(data []byte) (*Font, error) {
	if isWOFF(data) {
		decoded, err := decodeWOFF(data)
		if err != nil {
			return nil, fmt.Errorf("解码 WOFF 失败: %w", err)
		}
		data = decoded
	}
	face, err := sfnt.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("解析字体失败: %w", err)
	}
	upem := int(face.UnitsPerEm())
	if upem <= 0 {
		return nil, errors.New("字体 unitsPerEm 非法")
	}

	f := &Font{face: face, unitsPerEm: upem, metricsSource: MetricsOS2}
	asc, desc, err := readTypoMetrics(data)
	if err != nil {
		asc, desc, err = f.hheaMetrics()
		if err != nil {
			return nil, fmt.Errorf("读取字体垂直度量失败: %w", err)
		}
		f.metricsSource = MetricsHHEA
	}
	f.typoAscender = asc
	f.typoDescender = desc
	return f, nil
}

// UnitsPerEm 返回 head 表中的 em 方框尺寸。
func (f *Font) UnitsPerEm() int { return f.unitsPerEm }

// TypoAscender 返回 OS/2 sTypoAscender（缺失时为 hhea ascent）。
func (f *Font) TypoAscender() int { return f.typoAscender }

// TypoDescender 返回 OS/2 sTypoDescender，通常为负数。
func (f *Font) TypoDescender() int { return f.typoDescender }

// MetricsSource 说明垂直度量来自 OS/2 还是 hhea。
func (f *Font) MetricsSource() string { return f.metricsSource }

// NumGlyphs 返回字体中的字形数量。
func (f *Font) NumGlyphs() int { return f.face.NumGlyphs() }

// GlyphName 返回 post/CFF 表中的字形名称，字体不含名称时返回空串。
func (f *Font) GlyphName(id int) (string, error) {
	var buf sfnt.Buffer
	return f.face.GlyphName(&buf, sfnt.GlyphIndex(id))
}

func (f *Font) hheaMetrics() (int, int, error) {
	var buf sfnt.Buffer
	m, err := f.face.Metrics(&buf, fixed.I(f.unitsPerEm), font.HintingNone)
	if err != nil {
		return 0, 0, err
	}
	return m.Ascent.Round(), -m.Descent.Round(), nil
}

// License 汇总 name 表中与授权相关的条目。字段为 nil 表示字体未提供该条目。
type License struct {
	Copyright  *string
	License    *string
	LicenseURL *string
	Trademark  *string
}

// License 读取 name 表 ID 0/13/14/7。
func (f *Font) License() License {
	return License{
		Copyright:  f.name(sfnt.NameIDCopyright),
		License:    f.name(sfnt.NameIDLicense),
		LicenseURL: f.name(sfnt.NameIDLicenseURL),
		Trademark:  f.name(sfnt.NameIDTrademark),
	}
}

// name 在条目缺失或编码不受支持时返回 nil。
func (f *Font) name(id sfnt.NameID) *string {
	var buf sfnt.Buffer
	value, err := f.face.Name(&buf, id)
	if err != nil {
		return nil
	}
	return &value
}
