package cache

import (
	"context"
	"errors"
	"io"
	"net/url"
	"path"
	"strings"
	"time"
)

// Store 负责管理字体缓存的读写。磁盘布局遵循：
//
//	<FontCachePath>/<host>/<path>/__body        # 字体正文
//	<FontCachePath>/<host>/<path>/__raw/<sha1>  # 原始路径与清理结果不同，例如尾部 "/"
//	<FontCachePath>/<host>/<path>/__qs/<sha1>   # 带查询串的地址
//
// 每个条目仅由正文文件组成，文件的 ModTime/Size 由文件系统提供。
type Store interface {
	// Get 返回一个可流式读取的缓存条目。若不存在则返回 ErrNotFound。
	Get(ctx context.Context, locator Locator) (*ReadResult, error)

	// Put 将上游字体写入缓存。实现需通过临时文件 + rename 保证写入原子性，并在失败时清理临时文件。
	Put(ctx context.Context, locator Locator, body io.Reader, opts PutOptions) (*Entry, error)

	// Remove 删除正文文件。
	Remove(ctx context.Context, locator Locator) error
}

// PutOptions 控制写入过程中的可选属性。
type PutOptions struct {
	ModTime time.Time
}

// Locator 唯一定位一个缓存条目（Host + 相对路径），所有路径均为 URL 路径风格。
type Locator struct {
	Host string
	Path string
}

// LocatorForURL 根据字体地址构建 Locator。目录部分是清理后的路径；
// 与清理结果不同的原始路径（尾部 "/"、空段、点段）和查询串各自以摘要区分，保证不同地址不会共用条目。
func LocatorForURL(u *url.URL) Locator {
	if u == nil {
		return Locator{}
	}
	escaped := u.EscapedPath()
	if escaped == "" {
		escaped = "/"
	}
	dir := path.Clean(escaped)

	leaf := bodyName
	switch {
	case u.RawQuery != "":
		leaf = queryDir + "/" + digest(escaped+"?"+u.RawQuery)
	case dir != escaped:
		leaf = rawDir + "/" + digest(escaped)
	}
	return Locator{
		Host: strings.ToLower(u.Host),
		Path: strings.TrimSuffix(escapeSegments(dir), "/") + "/" + leaf,
	}
}

// escapeSegments 给以 "__" 开头的路径段再加一个 "_"，使其不会与保留的条目名重名。
func escapeSegments(p string) string {
	segments := strings.Split(p, "/")
	for i, seg := range segments {
		if strings.HasPrefix(seg, reservedPrefix) {
			segments[i] = "_" + seg
		}
	}
	return strings.Join(segments, "/")
}

// Entry 表示一次缓存命中结果，包含绝对文件路径及文件信息。
type Entry struct {
	Locator   Locator   `json:"locator"`
	FilePath  string    `json:"file_path"`
	SizeBytes int64     `json:"size_bytes"`
	ModTime   time.Time `json:"mod_time"`
}

// ReadResult 组合 Entry 与正文 Reader。
type ReadResult struct {
	Entry  Entry
	Reader io.ReadSeekCloser
}

// 保留的条目名。正文放在以路径命名的目录内，保证 /a 与 /a/b 可以同时缓存。
const (
	reservedPrefix = "__"
	bodyName       = "__body"
	rawDir         = "__raw"
	queryDir       = "__qs"
)

// ErrNotFound 表示缓存不存在。
var ErrNotFound = errors.New("cache entry not found")
