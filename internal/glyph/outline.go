package glyph

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/image/font/sfnt"
	"golang.org/x/image/math/fixed"
)

// Command 是一条 SVG 路径命令，Type 取 M/L/Q/C/Z。
// Q 使用 (X1,Y1)，C 使用 (X1,Y1) 与 (X2,Y2)，终点均为 (X,Y)。
type Command struct {
	Type   byte
	X1, Y1 float64
	X2, Y2 float64
	X, Y   float64
}

// Path 是以 SVG 坐标系（y 轴朝下）表示的字形轮廓。
type Path struct {
	Commands []Command
}

// Outline 返回字形轮廓：原点平移到 (x, y)，1em = unitsPerEm 个单位。
func (f *Font) Outline(g Glyph, x, y float64) (Path, error) {
	var buf sfnt.Buffer
	segments, err := f.face.LoadGlyph(&buf, sfnt.GlyphIndex(g.ID), fixed.I(f.unitsPerEm), nil)
	if err != nil {
		return Path{}, fmt.Errorf("加载字形 %d 轮廓失败: %w", g.ID, err)
	}

	pt := func(p fixed.Point26_6) (float64, float64) {
		return x + float64(p.X)/64, y + float64(p.Y)/64
	}

	cmds := make([]Command, 0, len(segments)+4)
	for _, seg := range segments {
		switch seg.Op {
		case sfnt.SegmentOpMoveTo:
			if len(cmds) > 0 {
				cmds = append(cmds, Command{Type: 'Z'})
			}
			px, py := pt(seg.Args[0])
			cmds = append(cmds, Command{Type: 'M', X: px, Y: py})
		case sfnt.SegmentOpLineTo:
			px, py := pt(seg.Args[0])
			cmds = append(cmds, Command{Type: 'L', X: px, Y: py})
		case sfnt.SegmentOpQuadTo:
			x1, y1 := pt(seg.Args[0])
			px, py := pt(seg.Args[1])
			cmds = append(cmds, Command{Type: 'Q', X1: x1, Y1: y1, X: px, Y: py})
		case sfnt.SegmentOpCubeTo:
			x1, y1 := pt(seg.Args[0])
			x2, y2 := pt(seg.Args[1])
			px, py := pt(seg.Args[2])
			cmds = append(cmds, Command{Type: 'C', X1: x1, Y1: y1, X2: x2, Y2: y2, X: px, Y: py})
		}
	}
	if len(cmds) > 0 {
		cmds = append(cmds, Command{Type: 'Z'})
	}
	return Path{Commands: cmds}, nil
}

// Data 序列化为 SVG path data：命令间不加分隔，整数不带小数，其余保留两位小数，
// 除首个参数外的非负参数前加一个空格。
func (p Path) Data() string {
	var b strings.Builder
	for _, cmd := range p.Commands {
		b.WriteByte(cmd.Type)
		switch cmd.Type {
		case 'M', 'L':
			packValues(&b, cmd.X, cmd.Y)
		case 'Q':
			packValues(&b, cmd.X1, cmd.Y1, cmd.X, cmd.Y)
		case 'C':
			packValues(&b, cmd.X1, cmd.Y1, cmd.X2, cmd.Y2, cmd.X, cmd.Y)
		}
	}
	return b.String()
}

func packValues(b *strings.Builder, values ...float64) {
	for i, v := range values {
		if v >= 0 && i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(formatNumber(v))
	}
}

func formatNumber(v float64) string {
	if v == 0 {
		return "0"
	}
	if v == float64(int64(v)) {
		return strconv.FormatInt(int64(v), 10)
	}
	return strconv.FormatFloat(v, 'f', 2, 64)
}
