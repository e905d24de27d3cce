package chromedp_fetch

import (
	"context"
	"time"

	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/user/auction-watch/internal/entity"
	"github.com/user/auction-watch/internal/proxy"
)

// Fetcher renders pages in headless Chrome and returns the resulting DOM.
// One browser process serves every Fetch; each call opens its own tab.
type Fetcher struct {
	allocCtx    context.Context
	cancelAlloc context.CancelFunc
	timeout     time.Duration
	logger      *zap.Logger
}

// New starts the browser allocator. The user agent and proxy are fixed for
// the lifetime of the browser, so they are drawn from pm once.
func New(pageLoadTimeout time.Duration, pm *proxy.Manager, logger *zap.Logger) *Fetcher {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.UserAgent(pm.GetUserAgent()),
	)
	if p := pm.GetProxy(); p != nil {
		opts = append(opts, chromedp.ProxyServer(p.String()))
	}
	allocCtx, cancel := chromedp.NewExecAllocator(context.Background(), opts...)

	return &Fetcher{
		allocCtx:    allocCtx,
		cancelAlloc: cancel,
		timeout:     pageLoadTimeout,
		logger:      logger,
	}
}

// Fetch navigates to url, waits for the body and returns the outer HTML.
func (f *Fetcher) Fetch(ctx context.Context, url string) (*entity.Document, error) {
	taskCtx, cancel := chromedp.NewContext(f.allocCtx, chromedp.WithLogf(f.logger.Sugar().Debugf))
	defer cancel()

	taskCtx, cancelTimeout := context.WithTimeout(taskCtx, f.timeout)
	defer cancelTimeout()
	// Tie the tab to the caller's context as well.
	stop := context.AfterFunc(ctx, cancelTimeout)
	defer stop()

	startTime := time.Now()
	var html string
	err := chromedp.Run(taskCtx,
		chromedp.Navigate(url),
		chromedp.WaitVisible("body", chromedp.ByQuery),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)
	if err != nil {
		return nil, err
	}

	f.logger.Debug("Rendered page", zap.String("url", url), zap.Duration("duration", time.Since(startTime)))
	return &entity.Document{
		URL: url,
		// The DevTools navigation does not surface the HTTP status here.
		StatusCode: 200,
		Body:       []byte(html),
		FetchedAt:  time.Now().UTC(),
	}, nil
}

// Close shuts the browser down.
func (f *Fetcher) Close() {
	f.cancelAlloc()
}
