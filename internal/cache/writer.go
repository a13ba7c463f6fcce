package cache

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"
)

// ErrStoreUnavailable 表示未启用字体缓存。
var ErrStoreUnavailable = errors.New("cache store unavailable")

// Policy 将 Store 与 TTL 组合，决定缓存条目是否可以直接复用。
type Policy struct {
	store Store
	ttl   time.Duration
	now   func() time.Time
}

// NewPolicy 构造 TTL 感知的缓存策略，默认使用 time.Now 作为时钟。store 为 nil 时缓存关闭。
func NewPolicy(store Store, ttl time.Duration) Policy {
	return Policy{
		store: store,
		ttl:   ttl,
		now:   time.Now,
	}
}

// Enabled 返回当前是否具备缓存能力。
func (p Policy) Enabled() bool {
	return p.store != nil && p.ttl > 0
}

// Lookup 返回仍在 TTL 内的缓存条目；过期条目会被删除并视为未命中。
func (p Policy) Lookup(ctx context.Context, locator Locator) (*ReadResult, error) {
	if !p.Enabled() {
		return nil, ErrStoreUnavailable
	}
	result, err := p.store.Get(ctx, locator)
	if err != nil {
		return nil, err
	}
	if !p.IsFresh(result.Entry) {
		result.Reader.Close()
		if err := p.store.Remove(ctx, locator); err != nil {
			return nil, fmt.Errorf("删除过期条目失败: %w", err)
		}
		return nil, ErrNotFound
	}
	return result, nil
}

// Put 写入缓存正文，并保持与 Store 相同的语义。
func (p Policy) Put(ctx context.Context, locator Locator, body io.Reader) (*Entry, error) {
	if !p.Enabled() {
		return nil, ErrStoreUnavailable
	}
	return p.store.Put(ctx, locator, body, PutOptions{ModTime: p.now().UTC()})
}

// IsFresh 根据 TTL 判断条目是否可以直接复用。
func (p Policy) IsFresh(entry Entry) bool {
	if p.ttl <= 0 {
		return false
	}
	return p.now().Before(entry.ModTime.Add(p.ttl))
}
