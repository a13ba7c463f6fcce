package glyph

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/klauspost/compress/zlib"
	"seehuhn.de/go/sfnt/header"
)

const woffSignature = "wOFF"

// maxSfntSize 限制 WOFF 解压后的总大小。
const maxSfntSize = 256 << 20

type woffHeader struct {
	Signature      uint32
	Flavor         uint32
	Length         uint32
	NumTables      uint16
	Reserved       uint16
	TotalSfntSize  uint32
	MajorVersion   uint16
	MinorVersion   uint16
	MetaOffset     uint32
	MetaLength     uint32
	MetaOrigLength uint32
	PrivOffset     uint32
	PrivLength     uint32
}

type woffTableEntry struct {
	Tag          [4]byte
	Offset       uint32
	CompLength   uint32
	OrigLength   uint32
	OrigChecksum uint32
}

func isWOFF(data []byte) bool {
	return len(data) >= len(woffSignature) && string(data[:len(woffSignature)]) == woffSignature
}

// decodeWOFF 把 WOFF 1.0 还原为 sfnt：逐表解压后按 flavor 重建表目录。
func decodeWOFF(data []byte) ([]byte, error) {
	r := bytes.NewReader(data)
	var hdr woffHeader
	if err := binary.Read(r, binary.BigEndian, &hdr); err != nil {
		return nil, fmt.Errorf("读取 WOFF 头失败: %w", err)
	}
	if hdr.NumTables == 0 {
		return nil, errors.New("WOFF 不含任何表")
	}
	entries := make([]woffTableEntry, hdr.NumTables)
	if err := binary.Read(r, binary.BigEndian, entries); err != nil {
		return nil, fmt.Errorf("读取 WOFF 表目录失败: %w", err)
	}

	tables := make(map[string][]byte, len(entries))
	var total uint64
	for _, entry := range entries {
		tag := string(entry.Tag[:])
		if _, dup := tables[tag]; dup {
			return nil, fmt.Errorf("WOFF 表 %q 重复", tag)
		}
		end := uint64(entry.Offset) + uint64(entry.CompLength)
		if end > uint64(len(data)) {
			return nil, fmt.Errorf("WOFF 表 %q 越界", tag)
		}
		total += uint64(entry.OrigLength)
		if total > maxSfntSize {
			return nil, errors.New("WOFF 解压后超过大小上限")
		}
		body, err := inflateTable(data[entry.Offset:end], entry.OrigLength)
		if err != nil {
			return nil, fmt.Errorf("解压 WOFF 表 %q 失败: %w", tag, err)
		}
		tables[tag] = body
	}

	var buf bytes.Buffer
	buf.Grow(int(total) + 12 + 16*len(tables) + 3*len(tables))
	if _, err := header.Write(&buf, hdr.Flavor, tables); err != nil {
		return nil, fmt.Errorf("重建 sfnt 失败: %w", err)
	}
	return buf.Bytes(), nil
}

// inflateTable 在压缩长度等于原长度时原样复制，否则按 zlib 解压。
func inflateTable(raw []byte, origLength uint32) ([]byte, error) {
	switch {
	case uint32(len(raw)) == origLength:
		out := make([]byte, origLength)
		copy(out, raw)
		return out, nil
	case uint32(len(raw)) > origLength:
		return nil, errors.New("压缩长度大于原长度")
	}

	zr, err := zlib.NewReader(bytes.NewReader(raw))
	if err != nil {
		return nil, err
	}
	defer zr.Close()

	out := make([]byte, origLength)
	if _, err := io.ReadFull(zr, out); err != nil {
		return nil, err
	}
	return out, nil
}
