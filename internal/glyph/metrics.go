package glyph

import (
	"bytes"
	"fmt"

	"seehuhn.de/go/sfnt/header"
	"seehuhn.de/go/sfnt/os2"
)

// readTypoMetrics 从 OS/2 表读取 sTypoAscender/sTypoDescender。
func readTypoMetrics(data []byte) (int, int, error) {
	r := bytes.NewReader(data)
	info, err := header.Read(r)
	if err != nil {
		return 0, 0, fmt.Errorf("读取表目录失败: %w", err)
	}
	raw, err := info.ReadTableBytes(r, "OS/2")
	if err != nil {
		return 0, 0, fmt.Errorf("读取 OS/2 表失败: %w", err)
	}
	table, err := os2.Read(bytes.NewReader(raw))
	if err != nil {
		return 0, 0, fmt.Errorf("解析 OS/2 表失败: %w", err)
	}
	return int(table.Ascent), int(table.Descent), nil
}
