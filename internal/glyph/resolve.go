package glyph

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/image/font/sfnt"
)

var (
	// ErrGlyphNotFound 表示选择器合法但字体中没有对应字形。
	ErrGlyphNotFound = errors.New("glyph not found")
	// ErrInvalidSelector 表示选择器取值无法解析（非数字 id、非法十六进制码位等）。
	ErrInvalidSelector = errors.New("invalid glyph selector")
)

// Glyph 是解析成功的字形引用。
type Glyph struct {
	ID int
}

// Resolution 是 Resolve 的结果：Err 为 nil 时 Glyph 有效。
type Resolution struct {
	Glyph Glyph
	Err   error
}

// Found 报告是否解析到字形。
func (r Resolution) Found() bool {
	return r.Err == nil
}

func resolved(id int) Resolution {
	return Resolution{Glyph: Glyph{ID: id}}
}

func failed(err error) Resolution {
	return Resolution{Err: err}
}

// Resolve 将选择器映射到字形。所有失败（包括底层库 panic）都以 Resolution.Err 返回，
// 调用方据此统一返回 "404 Glyph not found"。
func (f *Font) Resolve(sel Selector) (res Resolution) {
	defer func() {
		if p := recover(); p != nil {
			res = failed(fmt.Errorf("%w: 解析 %s 时发生 panic: %v", ErrGlyphNotFound, sel, p))
		}
	}()

	switch sel.Kind {
	case KindID:
		return f.resolveID(sel.Value)
	case KindName:
		return f.resolveName(sel.Value)
	case KindChar:
		return f.resolveChar(sel.Value)
	default:
		return failed(fmt.Errorf("%w: 未知的选择器类型 %q", ErrInvalidSelector, sel.Kind))
	}
}

func (f *Font) resolveID(value string) Resolution {
	id, err := strconv.ParseInt(strings.TrimSpace(value), 10, 32)
	if err != nil {
		return failed(fmt.Errorf("%w: id %q 不是十进制整数", ErrInvalidSelector, value))
	}
	if id < 0 || int(id) >= f.NumGlyphs() {
		return failed(fmt.Errorf("%w: id %d 超出范围 [0, %d)", ErrGlyphNotFound, id, f.NumGlyphs()))
	}
	return resolved(int(id))
}

// resolveName 返回第一个名称匹配的字形。
func (f *Font) resolveName(value string) Resolution {
	if value == "" {
		return failed(fmt.Errorf("%w: 字形名称为空", ErrGlyphNotFound))
	}
	var buf sfnt.Buffer
	for i := 0; i < f.NumGlyphs(); i++ {
		name, err := f.face.GlyphName(&buf, sfnt.GlyphIndex(i))
		if err != nil {
			return failed(fmt.Errorf("%w: 读取字形名称失败: %v", ErrGlyphNotFound, err))
		}
		if name == value {
			return resolved(i)
		}
	}
	return failed(fmt.Errorf("%w: 名称 %q", ErrGlyphNotFound, value))
}

// resolveChar 将十六进制码位（可带 0x 前缀）经 cmap 映射到字形；映射到 0 号字形视为未找到。
func (f *Font) resolveChar(value string) Resolution {
	cp, err := ParseCodePoint(value)
	if err != nil {
		return failed(err)
	}
	var buf sfnt.Buffer
	idx, err := f.face.GlyphIndex(&buf, cp)
	if err != nil {
		return failed(fmt.Errorf("%w: cmap 查询失败: %v", ErrGlyphNotFound, err))
	}
	if idx == 0 {
		return failed(fmt.Errorf("%w: U+%04X 未映射", ErrGlyphNotFound, cp))
	}
	return resolved(int(idx))
}

// ParseCodePoint 按十六进制前缀解析码位：跳过前导空白，可带 "+" 与 "0x" 前缀，
// 读到第一个非十六进制字符为止，例如 "41g" 即 U+0041。负数与超出 0..0x10FFFF 的值均非法。
func ParseCodePoint(value string) (rune, error) {
	raw := strings.TrimLeftFunc(value, unicode.IsSpace)
	raw = strings.TrimPrefix(raw, "+")
	if strings.HasPrefix(raw, "0x") || strings.HasPrefix(raw, "0X") {
		raw = raw[2:]
	}
	end := strings.IndexFunc(raw, func(r rune) bool { return !isHexDigit(r) })
	if end >= 0 {
		raw = raw[:end]
	}
	if raw == "" {
		return 0, fmt.Errorf("%w: 码位 %q 不是十六进制数", ErrInvalidSelector, value)
	}

	digits := strings.TrimLeft(raw, "0")
	if digits == "" {
		return 0, nil
	}
	if len(digits) > 6 {
		return 0, fmt.Errorf("%w: 码位 %s 超出 Unicode 范围", ErrInvalidSelector, raw)
	}
	cp, err := strconv.ParseUint(digits, 16, 32)
	if err != nil {
		return 0, fmt.Errorf("%w: 码位 %q 不是十六进制数", ErrInvalidSelector, value)
	}
	if cp > utf8.MaxRune {
		return 0, fmt.Errorf("%w: 码位 %X 超出 Unicode 范围", ErrInvalidSelector, cp)
	}
	return rune(cp), nil
}

func isHexDigit(r rune) bool {
	return ('0' <= r && r <= '9') || ('a' <= r && r <= 'f') || ('A' <= r && r <= 'F')
}
