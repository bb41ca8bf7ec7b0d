// Package assets downloads the remote images (logo, signature) embedded in
// invoice documents.
package assets

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"gstinvoice/internal/caching"
	"gstinvoice/internal/common"
)

const (
	DefaultTimeout  = 8 * time.Second
	DefaultMaxBytes = 2 << 20
)

type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) ([]byte, error)
}

type Options struct {
	Timeout  time.Duration
	MaxBytes int64
	CacheTTL time.Duration
}

// HTTPFetcher performs a single GET per URL with a timeout and a body size
// cap. Concurrent requests for the same URL share one download.
type HTTPFetcher struct {
	client   *http.Client
	opts     Options
	cache    caching.CacheService
	logger   *zap.Logger
	inflight singleflight.Group
}

// NewHTTPFetcher builds a fetcher. cache may be nil.
func NewHTTPFetcher(client *http.Client, opts Options, cache caching.CacheService, logger *zap.Logger) *HTTPFetcher {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.MaxBytes <= 0 {
		opts.MaxBytes = DefaultMaxBytes
	}
	if client == nil {
		client = &http.Client{Timeout: opts.Timeout}
	}
	return &HTTPFetcher{
		client: client,
		opts:   opts,
		cache:  cache,
		logger: logger.Named("assets"),
	}
}

func (f *HTTPFetcher) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, common.Errorf(common.ErrAssetFetch, "fetch asset", "unsupported url %q", rawURL)
	}

	if data := f.cached(ctx, rawURL); data != nil {
		return data, nil
	}

	// The download is shared by every caller of rawURL, so one caller
	// going away must not cancel it for the others.
	ch := f.inflight.DoChan(rawURL, func() (interface{}, error) {
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), f.opts.Timeout)
		defer cancel()
		return f.download(fetchCtx, rawURL)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		data := res.Val.([]byte)
		f.store(ctx, rawURL, data)
		return data, nil
	}
}

func (f *HTTPFetcher) download(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, common.NewError(common.ErrAssetFetch, "fetch asset", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, common.NewError(common.ErrAssetFetch, "fetch asset", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, common.Errorf(common.ErrAssetFetch, "fetch asset", "%s returned status %d", rawURL, resp.StatusCode)
	}
	if resp.ContentLength > f.opts.MaxBytes {
		return nil, common.Errorf(common.ErrAssetFetch, "fetch asset", "%s is %d bytes, limit %d", rawURL, resp.ContentLength, f.opts.MaxBytes)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, f.opts.MaxBytes+1))
	if err != nil {
		return nil, common.NewError(common.ErrAssetFetch, "fetch asset", err)
	}
	if int64(len(data)) > f.opts.MaxBytes {
		return nil, common.Errorf(common.ErrAssetFetch, "fetch asset", "%s exceeds %d bytes", rawURL, f.opts.MaxBytes)
	}
	return data, nil
}

func (f *HTTPFetcher) cached(ctx context.Context, rawURL string) []byte {
	if f.cache == nil || f.opts.CacheTTL <= 0 {
		return nil
	}
	data, err := f.cache.GetAsset(ctx, rawURL)
	if err != nil {
		f.logger.Warn("asset cache read failed", zap.String("url", rawURL), zap.Error(err))
		return nil
	}
	return data
}

func (f *HTTPFetcher) store(ctx context.Context, rawURL string, data []byte) {
	if f.cache == nil || f.opts.CacheTTL <= 0 {
		return
	}
	if err := f.cache.SetAsset(ctx, rawURL, data, f.opts.CacheTTL); err != nil {
		f.logger.Warn("asset cache write failed", zap.String("url", rawURL), zap.Error(err))
	}
}

// Images holds the optional pictures for one invoice. A nil slice with a
// non-nil error means that image is left out of the document.
type Images struct {
	Logo         []byte
	LogoErr      error
	Signature    []byte
	SignatureErr error
}

// FetchImages downloads the logo and signature concurrently. Individual
// download failures are reported in Images; the returned error is set only
// when ctx itself was cancelled.
func FetchImages(ctx context.Context, f Fetcher, logoURL, signatureURL string) (Images, error) {
	var imgs Images
	g, gctx := errgroup.WithContext(ctx)

	fetch := func(rawURL string, data *[]byte, ferr *error) {
		if rawURL == "" {
			return
		}
		g.Go(func() error {
			*data, *ferr = f.Fetch(gctx, rawURL)
			if *ferr != nil && ctx.Err() != nil {
				return ctx.Err()
			}
			return nil
		})
	}
	fetch(logoURL, &imgs.Logo, &imgs.LogoErr)
	fetch(signatureURL, &imgs.Signature, &imgs.SignatureErr)

	if err := g.Wait(); err != nil {
		return Images{}, fmt.Errorf("fetch invoice images: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return Images{}, fmt.Errorf("fetch invoice images: %w", err)
	}
	return imgs, nil
}
