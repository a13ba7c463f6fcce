package cache

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// tempPattern 是写入过程中临时文件的命名模式，rename 之前对读者不可见。
const tempPattern = ".font-*"

// NewStore 以 basePath 为根目录构建字体磁盘缓存，进程内复用一份实例。
func NewStore(basePath string) (Store, error) {
	if basePath == "" {
		return nil, errors.New("storage path required")
	}
	abs, err := filepath.Abs(basePath)
	if err != nil {
		return nil, fmt.Errorf("resolve storage path: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("create storage path: %w", err)
	}
	return &fileStore{basePath: abs, locks: newLockTable()}, nil
}

// fileStore 把每个字体正文保存为独立文件，写入同一 Locator 时串行化。
type fileStore struct {
	basePath string
	locks    *lockTable
}

func (s *fileStore) Get(ctx context.Context, locator Locator) (*ReadResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	filePath, err := s.entryPath(locator)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(filePath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	if info.IsDir() {
		f.Close()
		return nil, ErrNotFound
	}

	return &ReadResult{
		Entry: Entry{
			Locator:   locator,
			FilePath:  filePath,
			SizeBytes: info.Size(),
			ModTime:   info.ModTime(),
		},
		Reader: f,
	}, nil
}

func (s *fileStore) Put(ctx context.Context, locator Locator, body io.Reader, opts PutOptions) (*Entry, error) {
	filePath, err := s.entryPath(locator)
	if err != nil {
		return nil, err
	}
	release := s.locks.acquire(locatorKey(locator))
	defer release()

	modTime := opts.ModTime
	if modTime.IsZero() {
		modTime = time.Now().UTC()
	}
	size, err := writeAtomic(ctx, filePath, body, modTime)
	if err != nil {
		return nil, err
	}
	return &Entry{
		Locator:   locator,
		FilePath:  filePath,
		SizeBytes: size,
		ModTime:   modTime,
	}, nil
}

func (s *fileStore) Remove(ctx context.Context, locator Locator) error {
	filePath, err := s.entryPath(locator)
	if err != nil {
		return err
	}
	release := s.locks.acquire(locatorKey(locator))
	defer release()

	if err := os.Remove(filePath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// entryPath 将 Locator 映射到 basePath/<host>/<path>，拒绝任何跳出 host 目录的路径。
func (s *fileStore) entryPath(locator Locator) (string, error) {
	host := sanitizeHost(locator.Host)
	if host == "" {
		return "", errors.New("host required")
	}

	rel := strings.TrimPrefix(path.Clean("/"+locator.Path), "/")
	if rel == "" {
		rel = bodyName
	}

	hostDir := filepath.Join(s.basePath, host)
	filePath := filepath.Join(hostDir, filepath.FromSlash(rel))
	if !strings.HasPrefix(filePath, hostDir+string(filepath.Separator)) {
		return "", errors.New("invalid cache path")
	}
	return filePath, nil
}

// writeAtomic 先写同目录临时文件再 rename，失败时删除临时文件。
func writeAtomic(ctx context.Context, filePath string, body io.Reader, modTime time.Time) (int64, error) {
	dir := filepath.Dir(filePath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return 0, err
	}
	tmp, err := os.CreateTemp(dir, tempPattern)
	if err != nil {
		return 0, err
	}
	tmpName := tmp.Name()

	size, err := io.Copy(tmp, contextReader{ctx: ctx, r: body})
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err == nil {
		err = os.Chtimes(tmpName, modTime, modTime)
	}
	if err == nil {
		err = os.Rename(tmpName, filePath)
	}
	if err != nil {
		os.Remove(tmpName)
		return 0, err
	}
	return size, nil
}

// contextReader 在每次 Read 前检查 ctx，使取消的请求不会写完整个字体。
type contextReader struct {
	ctx context.Context
	r   io.Reader
}

func (c contextReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}

// sanitizeHost 把端口分隔符替换为 "_"，避免在部分文件系统上出现非法文件名。
func sanitizeHost(host string) string {
	host = strings.ToLower(strings.TrimSpace(host))
	host = strings.ReplaceAll(host, ":", "_")
	if host == "." || host == ".." || strings.ContainsAny(host, `/\`) {
		return ""
	}
	return host
}

func digest(raw string) string {
	sum := sha1.Sum([]byte(raw))
	return hex.EncodeToString(sum[:])
}

func locatorKey(locator Locator) string {
	return sanitizeHost(locator.Host) + "::" + locator.Path
}

// lockTable 为每个 key 维护引用计数的互斥锁，最后一个持有者释放后回收。
type lockTable struct {
	mu      sync.Mutex
	entries map[string]*refLock
}

type refLock struct {
	sync.Mutex
	refs int
}

func newLockTable() *lockTable {
	return &lockTable{entries: make(map[string]*refLock)}
}

func (t *lockTable) acquire(key string) func() {
	t.mu.Lock()
	l, ok := t.entries[key]
	if !ok {
		l = &refLock{}
		t.entries[key] = l
	}
	l.refs++
	t.mu.Unlock()

	l.Lock()
	return func() {
		l.Unlock()
		t.mu.Lock()
		if l.refs--; l.refs == 0 {
			delete(t.entries, key)
		}
		t.mu.Unlock()
	}
}
