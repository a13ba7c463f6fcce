package proxy

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"github.com/suikawiki/deno-swdata-objects/internal/cache"
)

// ErrFontTooLarge 表示上游字体超过 MaxFontSize。
var ErrFontTooLarge = errors.New("font exceeds size limit")

// UpstreamStatusError 表示上游返回了非 2xx 状态，处理器原样透传状态码与状态行。
type UpstreamStatusError struct {
	StatusCode int
	Status     string
}

func (e *UpstreamStatusError) Error() string {
	return fmt.Sprintf("upstream responded %s", e.Status)
}

// FetchResult 是一次字体抓取的结果。Data 在多个并发请求间共享，调用方不得修改。
type FetchResult struct {
	Data     []byte
	CacheHit bool
}

// FontSource 抽象字体获取，便于测试注入。
type FontSource interface {
	Fetch(ctx context.Context, fontURL *url.URL) (*FetchResult, error)
}

// Fetcher 通过共享 http.Client 抓取字体，可选地读写磁盘缓存；相同地址的并发请求合并为一次回源。
type Fetcher struct {
	client  *http.Client
	policy  cache.Policy
	maxSize int64
	logger  *logrus.Logger
	group   singleflight.Group
}

// NewFetcher constructs a fetcher. A zero policy disables the disk cache.
func NewFetcher(client *http.Client, policy cache.Policy, maxSize int64, logger *logrus.Logger) *Fetcher {
	return &Fetcher{
		client:  client,
		policy:  policy,
		maxSize: maxSize,
		logger:  logger,
	}
}

// Fetch 返回字体数据。共享回源不随单个调用方取消，整体时长由 client 超时约束。
func (f *Fetcher) Fetch(ctx context.Context, fontURL *url.URL) (*FetchResult, error) {
	if fontURL == nil {
		return nil, errors.New("font url is nil")
	}
	key := fontURL.String()
	shared := context.WithoutCancel(ctx)

	ch := f.group.DoChan(key, func() (interface{}, error) {
		return f.load(shared, fontURL)
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*FetchResult), nil
	}
}

func (f *Fetcher) load(ctx context.Context, fontURL *url.URL) (*FetchResult, error) {
	locator := cache.LocatorForURL(fontURL)

	if f.policy.Enabled() {
		data, err := f.readCache(ctx, locator)
		switch {
		case err == nil:
			return &FetchResult{Data: data, CacheHit: true}, nil
		case errors.Is(err, cache.ErrNotFound):
			// miss, continue
		default:
			f.logger.WithError(err).
				WithFields(logrus.Fields{"action": "font_cache", "font_url": fontURL.String()}).
				Warn("cache_get_failed")
		}
	}

	data, err := f.download(ctx, fontURL)
	if err != nil {
		return nil, err
	}

	if f.policy.Enabled() {
		if _, err := f.policy.Put(ctx, locator, bytes.NewReader(data)); err != nil {
			f.logger.WithError(err).
				WithFields(logrus.Fields{"action": "font_cache", "font_url": fontURL.String()}).
				Warn("cache_write_failed")
		}
	}
	return &FetchResult{Data: data}, nil
}

func (f *Fetcher) readCache(ctx context.Context, locator cache.Locator) ([]byte, error) {
	result, err := f.policy.Lookup(ctx, locator)
	if err != nil {
		return nil, err
	}
	defer result.Reader.Close()
	return f.readLimited(result.Reader)
}

func (f *Fetcher) download(ctx context.Context, fontURL *url.URL) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fontURL.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("构造上游请求失败: %w", err)
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("请求上游失败: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 64*1024))
		status := resp.Status
		if status == "" {
			status = fmt.Sprintf("%d %s", resp.StatusCode, http.StatusText(resp.StatusCode))
		}
		return nil, &UpstreamStatusError{StatusCode: resp.StatusCode, Status: status}
	}
	if f.maxSize > 0 && resp.ContentLength > f.maxSize {
		return nil, fmt.Errorf("%w: content-length %d", ErrFontTooLarge, resp.ContentLength)
	}
	return f.readLimited(resp.Body)
}

func (f *Fetcher) readLimited(r io.Reader) ([]byte, error) {
	if f.maxSize <= 0 {
		return io.ReadAll(r)
	}
	data, err := io.ReadAll(io.LimitReader(r, f.maxSize+1))
	if err != nil {
		return nil, fmt.Errorf("读取字体失败: %w", err)
	}
	if int64(len(data)) > f.maxSize {
		return nil, fmt.Errorf("%w: > %d bytes", ErrFontTooLarge, f.maxSize)
	}
	return data, nil
}
